// Package source holds the named byte buffer a compilation run reads from,
// plus the byte-offset span arithmetic every later stage builds on.
package source

import "sort"

// Span is a half-open byte range [Start, End) into a Source's buffer.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int {
	return s.End - s.Start
}

// Join returns the minimal span enclosing both s and other.
func (s Span) Join(other Span) Span {
	start := s.Start
	if other.Start < start {
		start = other.Start
	}
	end := s.End
	if other.End > end {
		end = other.End
	}
	return Span{Start: start, End: end}
}

// Overlap returns the intersection of s and other, clamped to a
// non-negative (possibly empty) span.
func (s Span) Overlap(other Span) Span {
	start := s.Start
	if other.Start > start {
		start = other.Start
	}
	end := s.End
	if other.End < end {
		end = other.End
	}
	if end < start {
		end = start
	}
	return Span{Start: start, End: end}
}

// RelativeTo rebases s against origin, so that origin.Start becomes 0.
func (s Span) RelativeTo(origin Span) Span {
	return Span{Start: s.Start - origin.Start, End: s.End - origin.Start}
}

// Source is a named byte buffer plus a precomputed table of line-start
// offsets, used to resolve byte positions to line/column for diagnostics.
type Source struct {
	Name       string
	Text       string
	lineStarts []int
}

// New builds a Source and precomputes its line-start table.
func New(name, text string) *Source {
	s := &Source{Name: name, Text: text}
	s.lineStarts = []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			s.lineStarts = append(s.lineStarts, i+1)
		}
	}
	return s
}

// Snippet returns the substring covered by span, clamped to the buffer.
func (s *Source) Snippet(span Span) string {
	start, end := span.Start, span.End
	if start < 0 {
		start = 0
	}
	if end > len(s.Text) {
		end = len(s.Text)
	}
	if start > end {
		start = end
	}
	return s.Text[start:end]
}

// LineIndex returns the zero-based line index containing byte offset pos,
// via binary search over the line-start table.
func (s *Source) LineIndex(pos int) int {
	i := sort.Search(len(s.lineStarts), func(i int) bool {
		return s.lineStarts[i] > pos
	})
	return i - 1
}

// LineCol returns the 1-based line and column for byte offset pos.
func (s *Source) LineCol(pos int) (line, col int) {
	idx := s.LineIndex(pos)
	if idx < 0 {
		idx = 0
	}
	return idx + 1, pos - s.lineStarts[idx] + 1
}

// Line returns the full text of the zero-based line index, without the
// trailing newline.
func (s *Source) Line(idx int) string {
	if idx < 0 || idx >= len(s.lineStarts) {
		return ""
	}
	start := s.lineStarts[idx]
	end := len(s.Text)
	if idx+1 < len(s.lineStarts) {
		end = s.lineStarts[idx+1] - 1
	}
	if end < start {
		end = start
	}
	for end > start && (s.Text[end-1] == '\n' || s.Text[end-1] == '\r') {
		end--
	}
	return s.Text[start:end]
}
