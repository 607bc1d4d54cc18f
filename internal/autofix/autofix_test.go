package autofix

import (
	"strings"
	"testing"
)

func TestTrailingWhitespace(t *testing.T) {
	s := Apply("int x = 1;   \nint y = 2;\t\n", nil)
	if s.FixedCode != "int x = 1;\nint y = 2;\n" {
		t.Errorf("got %q", s.FixedCode)
	}
	if s.Applied["trailing-whitespace"] != 2 {
		t.Errorf("applied = %v", s.Applied)
	}
}

func TestCollapseBlankLines(t *testing.T) {
	s := Apply("a\n\n\n\n\nb\n", nil)
	if s.FixedCode != "a\n\nb\n" {
		t.Errorf("got %q", s.FixedCode)
	}
}

func TestNullChecksBecomePatterns(t *testing.T) {
	source := `if (order == null) return;
if (order.Customer != null) { Ship(order); }
`
	s := Apply(source, nil)
	if !strings.Contains(s.FixedCode, "order is null") {
		t.Errorf("== null not rewritten:\n%s", s.FixedCode)
	}
	if !strings.Contains(s.FixedCode, "order.Customer is not null") {
		t.Errorf("!= null not rewritten:\n%s", s.FixedCode)
	}
}

func TestFixSelection(t *testing.T) {
	source := "if (a == null) { }   \n"
	s := Apply(source, []string{"trailing-whitespace"})
	if strings.Contains(s.FixedCode, "is null") {
		t.Error("unselected fix ran")
	}
	if strings.HasSuffix(strings.TrimSuffix(s.FixedCode, "\n"), " ") {
		t.Error("selected fix did not run")
	}
}

func TestCleanSourceIsUntouched(t *testing.T) {
	source := "public class C\n{\n}\n"
	s := Apply(source, nil)
	if s.Changed(source) {
		t.Error("clean source must pass through unchanged")
	}
	if s.TotalChanges != 0 {
		t.Errorf("totalChanges = %d, want 0", s.TotalChanges)
	}
}

func TestNamesMatchesRuleOrder(t *testing.T) {
	names := Names()
	if len(names) != 4 || names[0] != "trailing-whitespace" {
		t.Errorf("names = %v", names)
	}
}
