package refactor

import (
	"context"
	"strings"
	"testing"

	refxerrors "refx/internal/errors"
)

const mathSource = `public class MathHelper
{
    public int Add(int a, int b)
    {
        return a + b;
    }
}
`

func TestExtractMethodScenario(t *testing.T) {
	e := newEngine()
	out, err := e.ExtractMethod(context.Background(), mathSource, "return a + b;", "AddNumbers")
	if err != nil {
		t.Fatalf("ExtractMethod: %v", err)
	}

	if len(out.UsedIdentifiers) != 2 || out.UsedIdentifiers[0] != "a" || out.UsedIdentifiers[1] != "b" {
		t.Errorf("usedIdentifiers = %v, want [a b]", out.UsedIdentifiers)
	}
	if out.ReturnType != "int" {
		t.Errorf("returnType = %q, want int", out.ReturnType)
	}
	if !strings.Contains(out.ModifiedCode, "return AddNumbers(a, b);") {
		t.Errorf("call site not replaced by an invocation:\n%s", out.ModifiedCode)
	}
	if !strings.Contains(out.ModifiedCode, "private int AddNumbers(int a, int b)") {
		t.Errorf("extracted method signature wrong:\n%s", out.ModifiedCode)
	}
	if !strings.Contains(out.ExtractedArtifact, "return a + b;") {
		t.Errorf("artifact missing the selection:\n%s", out.ExtractedArtifact)
	}
}

func TestExtractMethodExactMatchOnly(t *testing.T) {
	e := newEngine()
	// Different whitespace than the source: exact match is the contract.
	_, err := e.ExtractMethod(context.Background(), mathSource, "return a+b;", "AddNumbers")
	if err == nil {
		t.Fatal("expected NotFound for inexact selection")
	}
	if refxerrors.KindOf(err) != refxerrors.NotFound {
		t.Errorf("kind = %s, want NOT_FOUND", refxerrors.KindOf(err))
	}
}

func TestExtractMethodVoidSelection(t *testing.T) {
	source := `public class Greeter
{
    public void Greet(string name)
    {
        System.Console.WriteLine(name);
    }
}
`
	e := newEngine()
	out, err := e.ExtractMethod(context.Background(), source, "System.Console.WriteLine(name);", "Print")
	if err != nil {
		t.Fatal(err)
	}
	if out.ReturnType != "void" {
		t.Errorf("returnType = %q, want void", out.ReturnType)
	}
	if !strings.Contains(out.ModifiedCode, "Print(name);") {
		t.Errorf("call site missing:\n%s", out.ModifiedCode)
	}
	if got := out.UsedIdentifiers; len(got) != 1 || got[0] != "name" {
		t.Errorf("usedIdentifiers = %v, want [name]", got)
	}
}

func TestExtractMethodIdentifierContainingReturnIsNotAReturn(t *testing.T) {
	source := `public class Status
{
    private int returnCode;

    public int Update()
    {
        returnCode = 5;
        return returnCode;
    }
}
`
	e := newEngine()
	out, err := e.ExtractMethod(context.Background(), source, "returnCode = 5;", "SetCode")
	if err != nil {
		t.Fatalf("ExtractMethod: %v", err)
	}

	if out.ReturnType != "void" {
		t.Errorf("returnType = %q, want void: the selection has no return statement", out.ReturnType)
	}
	if strings.Contains(out.ModifiedCode, "return SetCode();") {
		t.Errorf("call site must not become an early return:\n%s", out.ModifiedCode)
	}
	if !strings.Contains(out.ModifiedCode, "SetCode();") {
		t.Errorf("call site not replaced:\n%s", out.ModifiedCode)
	}
	if !strings.Contains(out.ExtractedArtifact, "private void SetCode()") {
		t.Errorf("extracted method signature wrong:\n%s", out.ExtractedArtifact)
	}
}

func TestExtractMethodLocalDeclaredInsideSelectionIsNotFree(t *testing.T) {
	source := `public class C
{
    public int M(int seed)
    {
        int doubled = seed * 2;
        return doubled;
    }
}
`
	e := newEngine()
	out, err := e.ExtractMethod(context.Background(), source,
		"int doubled = seed * 2;\n        return doubled;", "Compute")
	if err != nil {
		t.Fatal(err)
	}
	if len(out.UsedIdentifiers) != 1 || out.UsedIdentifiers[0] != "seed" {
		t.Errorf("usedIdentifiers = %v, want [seed] (doubled is declared inside)", out.UsedIdentifiers)
	}
}

func TestExtractMethodNameCollisionReportsConflict(t *testing.T) {
	e := newEngine()
	out, err := e.ExtractMethod(context.Background(), mathSource, "return a + b;", "Add")
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Conflicts) == 0 {
		t.Error("extracting onto an existing method name must report a conflict")
	}
}

const shapeSource = `public class Rectangle
{
    private int cachedArea;

    public int Width { get; set; }
    public int Height { get; set; }

    public int Area()
    {
        return Width * Height;
    }

    private void Invalidate() { }
}
`

func TestExtractInterfaceDefaultsToPublicMembers(t *testing.T) {
	e := newEngine()
	out, err := e.ExtractInterface(context.Background(), shapeSource, "Rectangle", "IRectangle", nil)
	if err != nil {
		t.Fatalf("ExtractInterface: %v", err)
	}

	artifact := out.ExtractedArtifact
	if !strings.Contains(artifact, "public interface IRectangle") {
		t.Errorf("artifact missing interface declaration:\n%s", artifact)
	}
	if !strings.Contains(artifact, "int Area();") {
		t.Errorf("public method missing from interface:\n%s", artifact)
	}
	if !strings.Contains(artifact, "int Width { get; set; }") {
		t.Errorf("public property missing from interface:\n%s", artifact)
	}
	if strings.Contains(artifact, "Invalidate") {
		t.Errorf("private member leaked into interface:\n%s", artifact)
	}
	if strings.Contains(artifact, "cachedArea") {
		t.Errorf("private field leaked into interface:\n%s", artifact)
	}

	if !strings.Contains(out.ModifiedCode, "Rectangle : IRectangle") {
		t.Errorf("class base list not updated:\n%s", out.ModifiedCode)
	}
}

func TestExtractInterfaceMemberFilter(t *testing.T) {
	e := newEngine()
	out, err := e.ExtractInterface(context.Background(), shapeSource, "Rectangle", "IArea", []string{"Area"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.ExtractedArtifact, "Area();") {
		t.Error("requested member missing")
	}
	if strings.Contains(out.ExtractedArtifact, "Width") {
		t.Error("unrequested member included")
	}
}

func TestExtractInterfaceClassNotFound(t *testing.T) {
	e := newEngine()
	_, err := e.ExtractInterface(context.Background(), shapeSource, "Circle", "ICircle", nil)
	if err == nil {
		t.Fatal("expected NotFound")
	}
	if refxerrors.KindOf(err) != refxerrors.NotFound {
		t.Errorf("kind = %s, want NOT_FOUND", refxerrors.KindOf(err))
	}
}

func TestIntroduceVariableStructuralMatch(t *testing.T) {
	source := `public class C
{
    public int M(int x)
    {
        return Compute( x ) + Compute(x);
    }
}
`
	e := newEngine()
	out, err := e.IntroduceVariable(context.Background(), source, "Compute(x)", "result", PlacementLocal)
	if err != nil {
		t.Fatalf("IntroduceVariable: %v", err)
	}

	// Both renderings match structurally despite different whitespace.
	if out.ChangeCount != 3 {
		t.Errorf("changeCount = %d, want 3 (two replacements + declaration)", out.ChangeCount)
	}
	if !strings.Contains(out.ModifiedCode, "return result + result;") {
		t.Errorf("occurrences not replaced:\n%s", out.ModifiedCode)
	}
	if !strings.Contains(out.ModifiedCode, "var result = Compute( x );") {
		t.Errorf("declaration missing or mistyped:\n%s", out.ModifiedCode)
	}
	if out.ReturnType != "var" {
		t.Errorf("call expressions take the inferred placeholder type, got %q", out.ReturnType)
	}
}

func TestIntroduceVariableLiteralType(t *testing.T) {
	source := `public class C
{
    public int M()
    {
        return 42;
    }
}
`
	e := newEngine()
	out, err := e.IntroduceVariable(context.Background(), source, "42", "answer", PlacementLocal)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.ModifiedCode, "int answer = 42;") {
		t.Errorf("literal type not inferred:\n%s", out.ModifiedCode)
	}
}

func TestIntroduceVariableFieldPlacement(t *testing.T) {
	source := `public class C
{
    public int M()
    {
        return 10 * 3;
    }
}
`
	e := newEngine()
	out, err := e.IntroduceVariable(context.Background(), source, "10 * 3", "factor", PlacementField)
	if err != nil {
		t.Fatal(err)
	}
	// Binary expressions infer var, which maps to object for members.
	if !strings.Contains(out.ModifiedCode, "private object factor = 10 * 3;") {
		t.Errorf("field declaration missing:\n%s", out.ModifiedCode)
	}
	if !strings.Contains(out.ModifiedCode, "return factor;") {
		t.Errorf("occurrence not replaced:\n%s", out.ModifiedCode)
	}
}

func TestIntroduceVariableNotFound(t *testing.T) {
	e := newEngine()
	_, err := e.IntroduceVariable(context.Background(), mathSource, "x * y", "product", PlacementLocal)
	if err == nil {
		t.Fatal("expected NotFound")
	}
	if refxerrors.KindOf(err) != refxerrors.NotFound {
		t.Errorf("kind = %s, want NOT_FOUND", refxerrors.KindOf(err))
	}
}
