package main

import (
	"os"
	"path/filepath"
	"testing"

	"refx/internal/config"
)

func TestLoadConfigFlagOverrides(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.FileName),
		[]byte("[logging]\nlevel = \"warn\"\nformat = \"text\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rootFlag = dir
	logLevelFlag = "debug"
	logFormatFlag = ""
	t.Cleanup(func() { rootFlag, logLevelFlag, logFormatFlag = ".", "", "" })

	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, flag must win over the file", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("format = %q, file value must survive without a flag", cfg.Logging.Format)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	rootFlag = dir
	initForce = false
	t.Cleanup(func() { rootFlag = "." })

	if err := runInit(initCmd, nil); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, config.FileName)
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, append(before, []byte("# edited\n")...), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := runInit(initCmd, nil); err != nil {
		t.Fatal(err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(after) == string(before) {
		t.Error("second init without --force must not overwrite")
	}
}
