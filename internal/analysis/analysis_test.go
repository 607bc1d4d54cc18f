package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"refx/internal/buildgate"
	"refx/internal/config"
	"refx/internal/errors"
	"refx/internal/logging"
	"refx/internal/strategy"
)

func testLimits() config.LimitsConfig {
	return config.LimitsConfig{MaxFiles: 100, MaxResults: 10, MaxSummaryLines: 12}
}

// writeWorkspace lays out a small two-project workspace with a duplicate
// logical file name (Helper.cs appears twice).
func writeWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"App.sln": `Microsoft Visual Studio Solution File, Format Version 12.00
Project("{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}") = "Web", "Web\Web.csproj", "{11111111-1111-1111-1111-111111111111}"
EndProject
Project("{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}") = "Web.Tests", "Tests\Web.Tests.csproj", "{22222222-2222-2222-2222-222222222222}"
EndProject
`,
		"Web/Web.csproj":         `<Project Sdk="Microsoft.NET.Sdk"></Project>`,
		"Tests/Web.Tests.csproj": `<Project Sdk="Microsoft.NET.Sdk"></Project>`,
		"Web/Models/Order.cs": `namespace Shop.Models
{
    public class Order
    {
        public int Id { get; set; }

        public int Total()
        {
            return Id;
        }
    }
}
`,
		"Web/Services/OrderService.cs": `namespace Shop.Services
{
    // Creates Order instances.
    public class OrderService
    {
        public object Create()
        {
            return new object();
        }
    }
}
`,
		"Web/Helper.cs":   "namespace Shop { public class Helper { } }",
		"Tests/Helper.cs": "namespace Shop.Tests { public class TestHelper { } }",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func passingGate() *buildgate.Gate {
	runner := buildgate.NewMockRunner()
	runner.SetLookPath("dotnet", "/usr/bin/dotnet")
	runner.SetResult("dotnet", "Build succeeded.", "", nil)
	return buildgate.NewGate(runner, "dotnet build", logging.Discard())
}

func failingGate() *buildgate.Gate {
	runner := buildgate.NewMockRunner()
	runner.SetLookPath("dotnet", "/usr/bin/dotnet")
	runner.SetResult("dotnet",
		`Order.cs(3,5): error CS0103: The name 'missing' does not exist [Web.csproj]`,
		"", fmt.Errorf("exit status 1"))
	return buildgate.NewGate(runner, "dotnet build", logging.Discard())
}

func TestFindSymbolSemanticWithPassingBuild(t *testing.T) {
	root := writeWorkspace(t)
	s := NewService(passingGate(), testLimits(), logging.Discard())

	res, err := s.FindSymbol(context.Background(), root, "Order", "class")
	if err != nil {
		t.Fatal(err)
	}
	if res.TierUsed != strategy.TierSemantic {
		t.Errorf("tierUsed = %s, want semantic", res.TierUsed)
	}
	if res.Degraded {
		t.Error("clean build must not be degraded")
	}

	matches := res.Payload["matches"].([]SymbolMatch)
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}
	m := matches[0]
	if m.Kind != "class" || m.Namespace != "Shop.Models" {
		t.Errorf("match = %+v", m)
	}
	if m.SyntheticID == "" {
		t.Error("semantic matches carry the stable unit id")
	}
}

func TestFindSymbolDegradesWhenBuildFails(t *testing.T) {
	root := writeWorkspace(t)
	s := NewService(failingGate(), testLimits(), logging.Discard())

	res, err := s.FindSymbol(context.Background(), root, "Order", "class")
	if err != nil {
		t.Fatal(err)
	}
	if res.TierUsed != strategy.TierSyntax {
		t.Errorf("tierUsed = %s, want syntax", res.TierUsed)
	}
	if !res.Degraded {
		t.Error("falling past the semantic tier must mark the result degraded")
	}
	if len(res.Attempts) < 2 || res.Attempts[0].Succeeded {
		t.Errorf("attempts must record the failed semantic try: %+v", res.Attempts)
	}
}

func TestFindSymbolNoGateGoesToSyntax(t *testing.T) {
	root := writeWorkspace(t)
	s := NewService(nil, testLimits(), logging.Discard())

	res, err := s.FindSymbol(context.Background(), root, "OrderService", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.TierUsed != strategy.TierSyntax {
		t.Errorf("tierUsed = %s, want syntax", res.TierUsed)
	}
}

func TestFindSymbolTextTierFindsNonDeclarations(t *testing.T) {
	root := writeWorkspace(t)
	s := NewService(nil, testLimits(), logging.Discard())

	// "instances" only appears inside a comment, so no tier above text can
	// answer.
	res, err := s.FindSymbol(context.Background(), root, "instances", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.TierUsed != strategy.TierText {
		t.Errorf("tierUsed = %s, want text", res.TierUsed)
	}
	matches := res.Payload["matches"].([]SymbolMatch)
	if len(matches) != 1 || matches[0].LineText == "" {
		t.Errorf("matches = %+v", matches)
	}
}

func TestFindSymbolHonorsResultLimit(t *testing.T) {
	root := writeWorkspace(t)
	limits := testLimits()
	limits.MaxResults = 1
	s := NewService(nil, limits, logging.Discard())

	// "Helper" matches lines in two files at the text tier.
	res, err := s.FindSymbol(context.Background(), root, "Helper", "")
	if err != nil {
		t.Fatal(err)
	}
	if truncated := res.Payload["truncated"].(bool); !truncated {
		t.Error("payload must be marked truncated")
	}
	matches := res.Payload["matches"].([]SymbolMatch)
	if len(matches) != 1 {
		t.Errorf("matches = %d, want 1 after truncation", len(matches))
	}
}

func TestGetClassContext(t *testing.T) {
	root := writeWorkspace(t)
	s := NewService(nil, testLimits(), logging.Discard())

	res, err := s.GetClassContext(context.Background(), root, "Order")
	if err != nil {
		t.Fatal(err)
	}
	if res.TierUsed != strategy.TierSyntax {
		t.Errorf("tierUsed = %s, want syntax", res.TierUsed)
	}

	cc := res.Payload["class"].(*ClassContext)
	if cc.Kind != "class" || cc.Namespace != "Shop.Models" {
		t.Errorf("class = %+v", cc)
	}
	memberNames := map[string]bool{}
	for _, m := range cc.Members {
		memberNames[m.Name] = true
	}
	if !memberNames["Id"] || !memberNames["Total"] {
		t.Errorf("members = %+v, want Id and Total", cc.Members)
	}
	if !strings.Contains(cc.Snippet, "public class Order") {
		t.Errorf("snippet = %q", cc.Snippet)
	}
}

func TestBaseTypesFromSignature(t *testing.T) {
	tests := []struct {
		signature string
		want      []string
	}{
		{"public class Order", nil},
		{"public class Order : Entity", []string{"Entity"}},
		{"public class Order : Entity, IAuditable", []string{"Entity", "IAuditable"}},
		{"public class Repo<T> : IRepo<T> where T : new()", []string{"IRepo<T>"}},
	}
	for _, tt := range tests {
		got := baseTypesFrom(tt.signature)
		if len(got) != len(tt.want) {
			t.Errorf("%q: baseTypes = %v, want %v", tt.signature, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%q: baseTypes = %v, want %v", tt.signature, got, tt.want)
				break
			}
		}
	}
}

func TestGetClassContextSemanticCountsReferences(t *testing.T) {
	root := writeWorkspace(t)
	s := NewService(passingGate(), testLimits(), logging.Discard())

	res, err := s.GetClassContext(context.Background(), root, "Order")
	if err != nil {
		t.Fatal(err)
	}
	if res.TierUsed != strategy.TierSemantic {
		t.Fatalf("tierUsed = %s, want semantic", res.TierUsed)
	}
	cc := res.Payload["class"].(*ClassContext)
	if cc.References < 1 {
		t.Errorf("references = %d, want at least the declaration", cc.References)
	}
}

func TestGetClassContextUnknownTypeFallsToText(t *testing.T) {
	root := writeWorkspace(t)
	s := NewService(nil, testLimits(), logging.Discard())

	res, err := s.GetClassContext(context.Background(), root, "Nonexistent")
	if err != nil {
		t.Fatal(err)
	}
	if res.TierUsed != strategy.TierText {
		t.Errorf("tierUsed = %s, want text", res.TierUsed)
	}
}

func TestAnalyzeProjectStructure(t *testing.T) {
	root := writeWorkspace(t)
	s := NewService(nil, testLimits(), logging.Discard())

	ps, err := s.AnalyzeProjectStructure(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if len(ps.Solutions) != 1 {
		t.Errorf("solutions = %v", ps.Solutions)
	}
	if len(ps.Projects) != 2 {
		t.Errorf("projects = %v", ps.Projects)
	}
	if ps.SourceFileCount != 4 {
		t.Errorf("sourceFileCount = %d, want 4", ps.SourceFileCount)
	}
	if ps.SymbolCounts["class"] < 3 {
		t.Errorf("symbolCounts = %v", ps.SymbolCounts)
	}
	if len(ps.Namespaces) == 0 || ps.Namespaces[0] != "Shop" {
		t.Errorf("namespaces = %v", ps.Namespaces)
	}
	if len(ps.DuplicateNames) != 1 || ps.DuplicateNames[0].Name != "Helper.cs" {
		t.Errorf("duplicateNames = %+v", ps.DuplicateNames)
	}
}

func TestAnalyzeSolution(t *testing.T) {
	root := writeWorkspace(t)
	s := NewService(nil, testLimits(), logging.Discard())

	report, err := s.AnalyzeSolution(context.Background(), filepath.Join(root, "App.sln"))
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Projects) != 2 {
		t.Fatalf("projects = %+v", report.Projects)
	}
	if report.Projects[0].Name != "Web" || report.Projects[1].Name != "Web.Tests" {
		t.Errorf("projects = %+v", report.Projects)
	}
	if !report.Projects[1].IsTest {
		t.Error("Web.Tests must be flagged as a test project")
	}
	if len(report.DuplicateNames) != 1 {
		t.Errorf("duplicateNames = %+v", report.DuplicateNames)
	}
}

func TestAnalyzeSolutionMissingFile(t *testing.T) {
	s := NewService(nil, testLimits(), logging.Discard())
	_, err := s.AnalyzeSolution(context.Background(), filepath.Join(t.TempDir(), "gone.sln"))
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.KindOf(err) != errors.ProjectDiscoveryFailed {
		t.Errorf("kind = %s", errors.KindOf(err))
	}
}

func TestFileLimitIsAHardError(t *testing.T) {
	root := writeWorkspace(t)
	limits := testLimits()
	limits.MaxFiles = 2
	s := NewService(nil, limits, logging.Discard())

	_, err := s.AnalyzeProjectStructure(context.Background(), root)
	if err == nil {
		t.Fatal("expected resource limit error")
	}
	if errors.KindOf(err) != errors.ResourceLimitExceeded {
		t.Errorf("kind = %s", errors.KindOf(err))
	}
}
