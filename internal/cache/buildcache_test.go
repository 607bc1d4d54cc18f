package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"refx/internal/buildgate"
)

func openTemp(t *testing.T) *BuildCache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "build.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutGetRoundTrip(t *testing.T) {
	c := openTemp(t)
	ctx := context.Background()

	want := &buildgate.Result{
		Status:         buildgate.StatusFailure,
		ChosenTarget:   "/src/App.sln",
		ErrorSummary:   "Program.cs(1,1): error CS0103: nope",
		ErrorCount:     7,
		FailedProjects: []string{"Web.csproj", "Worker.csproj"},
	}
	if err := c.Put(ctx, "/src/App.sln", "fp1", want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := c.Get(ctx, "/src/App.sln", "fp1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Status != want.Status || got.ErrorCount != want.ErrorCount {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if len(got.FailedProjects) != 2 {
		t.Errorf("failedProjects = %v", got.FailedProjects)
	}
}

func TestFingerprintIsPartOfKey(t *testing.T) {
	c := openTemp(t)
	ctx := context.Background()

	res := &buildgate.Result{Status: buildgate.StatusSuccess, ChosenTarget: "App.sln"}
	if err := c.Put(ctx, "App.sln", "old-fingerprint", res); err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := c.Get(ctx, "App.sln", "new-fingerprint"); ok {
		t.Error("changed fingerprint must miss the cache")
	}
}

func TestFingerprintChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "Program.cs")
	if err := os.WriteFile(file, []byte("class A { }"), 0o644); err != nil {
		t.Fatal(err)
	}

	fp1, err := Fingerprint([]string{file})
	if err != nil {
		t.Fatal(err)
	}

	// Ensure mtime granularity cannot mask the change.
	time.Sleep(10 * time.Millisecond)
	if err := os.WriteFile(file, []byte("class A { int x; }"), 0o644); err != nil {
		t.Fatal(err)
	}

	fp2, err := Fingerprint([]string{file})
	if err != nil {
		t.Fatal(err)
	}
	if fp1 == fp2 {
		t.Error("fingerprint did not change with file content")
	}
}

func TestFingerprintOrderIndependent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "A.cs")
	b := filepath.Join(dir, "B.cs")
	os.WriteFile(a, []byte("class A {}"), 0o644)
	os.WriteFile(b, []byte("class B {}"), 0o644)

	fp1, _ := Fingerprint([]string{a, b})
	fp2, _ := Fingerprint([]string{b, a})
	if fp1 != fp2 {
		t.Error("fingerprint should not depend on input order")
	}
}
