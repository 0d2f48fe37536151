package tasks

import (
	"strings"
	"time"
	"unicode/utf8"
)

const dueDateLayout = "2006-01-02"

// normalizeText trims s and truncates it to MaxTextLength characters.
func normalizeText(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyText
	}
	if utf8.RuneCountInString(s) > MaxTextLength {
		s = string([]rune(s)[:MaxTextLength])
	}
	return s, nil
}

// normalizeDueDate returns nil for an empty or malformed date, otherwise the
// date in YYYY-MM-DD form.
func normalizeDueDate(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := time.Parse(dueDateLayout, s)
	if err != nil {
		return nil
	}
	out := d.Format(dueDateLayout)
	return &out
}

func normalizePriority(p Priority) Priority {
	if !p.Valid() {
		return PriorityNormal
	}
	return p
}

// percentComplete is the floor of 100*completed/total, or 0 when total is 0.
func percentComplete(completed, total int64) int64 {
	if total <= 0 {
		return 0
	}
	return 100 * completed / total
}
