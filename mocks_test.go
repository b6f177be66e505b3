package userdesk_test

import (
	"context"
	"database/sql"
	"sync"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	userdesk "github.com/userdesk/go-userdesk"
	"github.com/userdesk/go-userdesk/datatable"
)

// MockUsers is an in-memory user store. The embedded generic repository is
// nil; only the methods the code under test calls are implemented.
type MockUsers struct {
	repository.Repository[*userdesk.User]

	mu    sync.RWMutex
	users map[uuid.UUID]*userdesk.User

	createErr error
	lookupErr error
}

func NewMockUsers() *MockUsers {
	return &MockUsers{users: map[uuid.UUID]*userdesk.User{}}
}

func (m *MockUsers) Add(user *userdesk.User) *userdesk.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Normalize()
	m.users[user.ID] = user
	return user
}

func (m *MockUsers) ByID(id uuid.UUID) *userdesk.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[id]
}

func (m *MockUsers) GetByNormalizedUsername(ctx context.Context, normalized string) (*userdesk.User, error) {
	return m.GetByNormalizedUsernameTx(ctx, nil, normalized)
}

func (m *MockUsers) GetByNormalizedUsernameTx(_ context.Context, _ bun.IDB, normalized string) (*userdesk.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lookupErr != nil {
		return nil, m.lookupErr
	}

	for _, user := range m.users {
		if user.NormalizedUsername == normalized {
			return user, nil
		}
	}

	return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
		"normalized_username": normalized,
	})
}

func (m *MockUsers) Create(ctx context.Context, record *userdesk.User, criteria ...repository.InsertCriteria) (*userdesk.User, error) {
	return m.CreateTx(ctx, nil, record, criteria...)
}

func (m *MockUsers) CreateTx(_ context.Context, _ bun.IDB, record *userdesk.User, _ ...repository.InsertCriteria) (*userdesk.User, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	record.Normalize()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	m.users[record.ID] = record
	return record, nil
}

func (m *MockUsers) MarkVerifiedTx(_ context.Context, _ bun.IDB, id uuid.UUID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return repository.NewRecordNotFound()
	}

	user.EmailVerified = true
	user.Status = userdesk.UserStatusActive
	user.HashedPassword = passwordHash
	return nil
}

func (m *MockUsers) ListPage(_ context.Context, state datatable.State) (*datatable.Page[*userdesk.User], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]*userdesk.User, 0, len(m.users))
	for _, user := range m.users {
		rows = append(rows, user)
	}

	page := datatable.Apply(rows, state, map[string]datatable.Accessor[*userdesk.User]{
		"username":   func(u *userdesk.User) string { return u.Username },
		"fullname":   func(u *userdesk.User) string { return u.Fullname },
		"email":      func(u *userdesk.User) string { return u.Email },
		"status":     func(u *userdesk.User) string { return string(u.Status) },
		"role":       func(u *userdesk.User) string { return string(u.Role) },
		"created_at": func(u *userdesk.User) string { return "" },
	})
	return &page, nil
}

// MockSessions is an in-memory session store backed by the same user map.
type MockSessions struct {
	mu       sync.RWMutex
	sessions map[string]*userdesk.Session
	users    *MockUsers

	getErr error
}

func NewMockSessions(users *MockUsers) *MockSessions {
	return &MockSessions{
		sessions: map[string]*userdesk.Session{},
		users:    users,
	}
}

func (m *MockSessions) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MockSessions) Create(_ context.Context, session *userdesk.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *MockSessions) GetWithUser(_ context.Context, id string) (*userdesk.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getErr != nil {
		return nil, m.getErr
	}

	session, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}

	copied := *session
	copied.User = m.users.ByID(session.UserID)
	return &copied, nil
}

func (m *MockSessions) MarkStale(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[id]; ok {
		session.Fresh = false
	}
	return nil
}

func (m *MockSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MockSessions) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, session := range m.sessions {
		if session.UserID == userID {
			delete(m.sessions, id)
		}
	}
	return nil
}

func (m *MockSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, session := range m.sessions {
		if session.Expired(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// MockVerificationCodes is an in-memory code store.
type MockVerificationCodes struct {
	mu     sync.RWMutex
	nextID int64
	codes  map[int64]*userdesk.EmailVerificationCode
}

func NewMockVerificationCodes() *MockVerificationCodes {
	return &MockVerificationCodes{codes: map[int64]*userdesk.EmailVerificationCode{}}
}

func (m *MockVerificationCodes) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.codes)
}

func (m *MockVerificationCodes) CreateTx(_ context.Context, _ bun.IDB, code *userdesk.EmailVerificationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	code.ID = m.nextID
	copied := *code
	m.codes[code.ID] = &copied
	return nil
}

func (m *MockVerificationCodes) LatestForUser(_ context.Context, userID uuid.UUID) (*userdesk.EmailVerificationCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *userdesk.EmailVerificationCode
	for _, code := range m.codes {
		if code.UserID != userID {
			continue
		}
		if latest == nil || code.ID > latest.ID {
			latest = code
		}
	}

	if latest == nil {
		return nil, nil
	}

	copied := *latest
	return &copied, nil
}

func (m *MockVerificationCodes) DeleteTx(_ context.Context, _ bun.IDB, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.codes, id)
	return nil
}

func (m *MockVerificationCodes) DeleteForUserTx(_ context.Context, _ bun.IDB, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, code := range m.codes {
		if code.UserID == userID {
			delete(m.codes, id)
		}
	}
	return nil
}

func (m *MockVerificationCodes) ReplaceForUserTx(ctx context.Context, tx bun.IDB, code *userdesk.EmailVerificationCode) error {
	if err := m.DeleteForUserTx(ctx, tx, code.UserID); err != nil {
		return err
	}
	return m.CreateTx(ctx, tx, code)
}

// MockRepositoryManager bundles the in-memory stores. RunInTx invokes the
// callback with a zero transaction, the mocks ignore it.
type MockRepositoryManager struct {
	UsersStore    *MockUsers
	SessionsStore *MockSessions
	CodesStore    *MockVerificationCodes

	txErr error
}

func NewMockRepositoryManager() *MockRepositoryManager {
	users := NewMockUsers()
	return &MockRepositoryManager{
		UsersStore:    users,
		SessionsStore: NewMockSessions(users),
		CodesStore:    NewMockVerificationCodes(),
	}
}

func (m *MockRepositoryManager) Users() userdesk.Users { return m.UsersStore }

func (m *MockRepositoryManager) Sessions() userdesk.Sessions { return m.SessionsStore }

func (m *MockRepositoryManager) VerificationCodes() userdesk.VerificationCodes {
	return m.CodesStore
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, _ *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	return f(ctx, bun.Tx{})
}

func (m *MockRepositoryManager) Validate() error { return nil }

func (m *MockRepositoryManager) MustValidate() {}

// MockMailer records deliveries and optionally fails them.
type MockMailer struct {
	mu      sync.Mutex
	sendErr error

	Sent []MockDelivery
}

type MockDelivery struct {
	To       string
	Fullname string
	Code     string
}

func (m *MockMailer) SendVerificationCode(_ context.Context, to, fullname, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendErr != nil {
		return m.sendErr
	}

	m.Sent = append(m.Sent, MockDelivery{To: to, Fullname: fullname, Code: code})
	return nil
}

func (m *MockMailer) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

var (
	_ userdesk.Users             = (*MockUsers)(nil)
	_ userdesk.Sessions          = (*MockSessions)(nil)
	_ userdesk.VerificationCodes = (*MockVerificationCodes)(nil)
	_ userdesk.RepositoryManager = (*MockRepositoryManager)(nil)
	_ userdesk.Mailer            = (*MockMailer)(nil)
)
