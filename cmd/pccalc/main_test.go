package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeRace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"PC1START.csv": "h\nM,START,10:00:00.00,7\n",
		"PC1GOAL.csv":  "h\nM,GOAL,10:05:00.00,7\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func writeConfig(t *testing.T, csvDir, storePath string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "source:\n  type: dir\n  dir: " + csvDir + "\nstore:\n  path: " + storePath + "\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_Save(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "results.json")
	cfg := writeConfig(t, writeRace(t), storePath)

	var out bytes.Buffer
	if code := run([]string{"-config", cfg, "-format", "json", "-save"}, &out); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.Contains(out.String(), `"success": true`) && !strings.Contains(out.String(), `"success":true`) {
		t.Errorf("stdout = %s", out.String())
	}
	if _, err := os.Stat(storePath); err != nil {
		t.Errorf("report not saved: %v", err)
	}
}

func TestRun_SaveFailureExitsNonZero(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := writeConfig(t, writeRace(t), filepath.Join(blocker, "results.json"))

	var out bytes.Buffer
	if code := run([]string{"-config", cfg, "-format", "json", "-save"}, &out); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	// The report is still printed.
	if out.Len() == 0 {
		t.Error("no report written to stdout")
	}
}

func TestRun_NoSaveIgnoresStorePath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := writeConfig(t, writeRace(t), filepath.Join(blocker, "results.json"))

	if code := run([]string{"-config", cfg, "-format", "json"}, &bytes.Buffer{}); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
}

func TestRun_BadFlags(t *testing.T) {
	for _, args := range [][]string{
		{"-format", "xml"},
		{"-order", "sideways"},
		{"-nope"},
	} {
		if code := run(args, &bytes.Buffer{}); code != 2 {
			t.Errorf("run(%v) = %d, want 2", args, code)
		}
	}
}
