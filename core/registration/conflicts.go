package registration

import "strings"

// NormalizeRoll is the comparison form of a roll number.
func NormalizeRoll(roll string) string {
	return strings.ToLower(strings.TrimSpace(roll))
}

// ConflictScanner collects the candidates seen while a store is scanned.
type ConflictScanner struct {
	candidates map[string]bool
	found      map[string]bool
	conflicts  []string
}

func NewConflictScanner(rolls []string) *ConflictScanner {
	s := &ConflictScanner{
		candidates: make(map[string]bool, len(rolls)),
		found:      make(map[string]bool),
		conflicts:  []string{},
	}
	for _, r := range rolls {
		if r = NormalizeRoll(r); r != "" {
			s.candidates[r] = true
		}
	}
	return s
}

// Empty reports whether there is nothing to look for. Stores must not be read in that case.
func (s *ConflictScanner) Empty() bool {
	return len(s.candidates) == 0
}

// Done reports whether every candidate was already found.
func (s *ConflictScanner) Done() bool {
	return len(s.found) == len(s.candidates)
}

// Check records the stored values that match a candidate.
func (s *ConflictScanner) Check(values ...string) {
	for _, v := range values {
		v = NormalizeRoll(v)
		if v == "" || !s.candidates[v] || s.found[v] {
			continue
		}
		s.found[v] = true
		s.conflicts = append(s.conflicts, v)
	}
}

// Conflicts returns the normalized matches in order of first detection.
func (s *ConflictScanner) Conflicts() []string {
	return s.conflicts
}
