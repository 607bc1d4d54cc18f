// Package delta converts a before/after source pair into a minimal ordered
// list of line-range text changes, replayable top-to-bottom against the
// original to reproduce the modified text exactly.
package delta

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Kind classifies a text change.
type Kind string

const (
	// Replace substitutes the original line range with new text
	Replace Kind = "replace"
	// Insert adds new text before StartLine; the original range is empty
	Insert Kind = "insert"
	// Delete removes the original line range
	Delete Kind = "delete"
)

// TextChange is one line-range change. Lines are 1-indexed over the original
// text. For Insert, EndLine == StartLine-1 (an empty range before StartLine).
type TextChange struct {
	StartLine    int    `json:"startLine"`
	EndLine      int    `json:"endLine"`
	OriginalText string `json:"originalText,omitempty"`
	NewText      string `json:"newText,omitempty"`
	Kind         Kind   `json:"kind"`
}

// RefactoringDelta is the ordered change list for one file.
type RefactoringDelta struct {
	FilePath string       `json:"filePath"`
	Changes  []TextChange `json:"changes"`
	// SizeReduction estimates the fraction of the file removed by the
	// change, used to communicate savings to the external caller.
	SizeReduction float64 `json:"sizeReduction"`
}

// Diff computes the minimal ordered changes turning original into modified.
// Identical inputs yield an empty change list. Output is deterministic for
// identical inputs.
func Diff(filePath, original, modified string) *RefactoringDelta {
	d := &RefactoringDelta{FilePath: filePath}

	if original == modified {
		return d
	}

	a := splitLines(original)
	b := splitLines(modified)

	matcher := difflib.NewMatcher(a, b)
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			continue
		case 'r':
			d.Changes = append(d.Changes, TextChange{
				StartLine:    op.I1 + 1,
				EndLine:      op.I2,
				OriginalText: strings.Join(a[op.I1:op.I2], ""),
				NewText:      strings.Join(b[op.J1:op.J2], ""),
				Kind:         Replace,
			})
		case 'd':
			d.Changes = append(d.Changes, TextChange{
				StartLine:    op.I1 + 1,
				EndLine:      op.I2,
				OriginalText: strings.Join(a[op.I1:op.I2], ""),
				Kind:         Delete,
			})
		case 'i':
			d.Changes = append(d.Changes, TextChange{
				StartLine: op.I1 + 1,
				EndLine:   op.I1,
				NewText:   strings.Join(b[op.J1:op.J2], ""),
				Kind:      Insert,
			})
		}
	}

	if len(original) > len(modified) {
		d.SizeReduction = float64(len(original)-len(modified)) / float64(len(original))
	}
	return d
}

// Apply replays a delta against the original text. Diff then Apply is the
// identity on the modified side.
func Apply(original string, d *RefactoringDelta) string {
	if len(d.Changes) == 0 {
		return original
	}

	a := splitLines(original)
	var b strings.Builder
	next := 0 // 0-based index of the next original line to copy

	for _, c := range d.Changes {
		start := c.StartLine - 1
		for next < start && next < len(a) {
			b.WriteString(a[next])
			next++
		}
		b.WriteString(c.NewText)
		if c.Kind != Insert {
			next = c.EndLine
		}
	}
	for next < len(a) {
		b.WriteString(a[next])
		next++
	}
	return b.String()
}

// splitLines splits after each newline, preserving the exact text: joining
// the result reproduces the input byte-for-byte.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
