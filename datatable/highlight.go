package datatable

import (
	"strings"
	"unicode/utf8"
)

// Segment is one run of text, marked when it matched the search query.
type Segment struct {
	Text  string `json:"text"`
	Match bool   `json:"match"`
}

// Highlight splits text into segments around case-insensitive occurrences of
// query, the raw material for substring highlighting in rendered cells. An
// empty query yields the whole text as one unmatched segment. Matching walks
// rune windows with EqualFold, so case folds that change byte length cannot
// split a rune.
func Highlight(text, query string) []Segment {
	if text == "" {
		return nil
	}

	qlen := utf8.RuneCountInString(query)
	if qlen == 0 {
		return []Segment{{Text: text}}
	}

	runes := []rune(text)

	var segments []Segment
	start := 0
	for i := 0; i+qlen <= len(runes); {
		window := string(runes[i : i+qlen])
		if !strings.EqualFold(window, query) {
			i++
			continue
		}

		if i > start {
			segments = append(segments, Segment{Text: string(runes[start:i])})
		}
		segments = append(segments, Segment{Text: window, Match: true})
		i += qlen
		start = i
	}

	if start < len(runes) {
		segments = append(segments, Segment{Text: string(runes[start:])})
	}

	return segments
}
