// Package autofix applies mechanical style corrections that do not change
// program behavior. Fixes are line-oriented regex rewrites, applied in a
// fixed order so output is deterministic.
package autofix

import (
	"regexp"
)

// Fix is one named rewrite rule.
type Fix struct {
	Name    string
	pattern *regexp.Regexp
	replace string
}

// Summary reports what ran and how much changed.
type Summary struct {
	FixedCode    string         `json:"fixedCode"`
	Applied      map[string]int `json:"applied"`
	TotalChanges int            `json:"totalChanges"`
}

var fixes = []Fix{
	{
		Name:    "trailing-whitespace",
		pattern: regexp.MustCompile(`(?m)[ \t]+$`),
		replace: "",
	},
	{
		Name:    "collapse-blank-lines",
		pattern: regexp.MustCompile(`\n{3,}`),
		replace: "\n\n",
	},
	{
		Name:    "null-check-pattern",
		pattern: regexp.MustCompile(`(\w[\w.\[\]()]*)\s*==\s*null\b`),
		replace: "$1 is null",
	},
	{
		Name:    "not-null-check-pattern",
		pattern: regexp.MustCompile(`(\w[\w.\[\]()]*)\s*!=\s*null\b`),
		replace: "$1 is not null",
	},
}

// Names lists the available fixes in application order.
func Names() []string {
	names := make([]string, len(fixes))
	for i, f := range fixes {
		names[i] = f.Name
	}
	return names
}

// Apply runs every fix over source. When only is non-empty, just the named
// fixes run. Unknown names are ignored.
func Apply(source string, only []string) *Summary {
	wanted := func(string) bool { return true }
	if len(only) > 0 {
		set := make(map[string]bool, len(only))
		for _, n := range only {
			set[n] = true
		}
		wanted = func(n string) bool { return set[n] }
	}

	s := &Summary{FixedCode: source, Applied: map[string]int{}}
	for _, f := range fixes {
		if !wanted(f.Name) {
			continue
		}
		n := len(f.pattern.FindAllStringIndex(s.FixedCode, -1))
		if n == 0 {
			continue
		}
		s.FixedCode = f.pattern.ReplaceAllString(s.FixedCode, f.replace)
		s.Applied[f.Name] = n
		s.TotalChanges += n
	}
	return s
}

// Changed reports whether Apply altered anything, comparing by content since
// some rules can match without changing text.
func (s *Summary) Changed(original string) bool {
	return original != s.FixedCode
}
