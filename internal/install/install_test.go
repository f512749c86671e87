package install

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"webinstall/internal/config"
	"webinstall/internal/errs"
)

func TestRunRejectsConfigWithNoMountRoots(t *testing.T) {
	cfg := config.DefaultConfig()
	result := Run(context.Background(), cfg, t.TempDir())

	if result.Success {
		t.Fatal("Run() with no mount roots should not succeed")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Errors = %v, want exactly one", result.Errors)
	}
	var configErr *errs.ConfigInvalidError
	if !errorAs(result.Errors[0], &configErr) {
		t.Errorf("error = %v, want *errs.ConfigInvalidError", result.Errors[0])
	}
}

func TestRunHonorsCancelledContext(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "src"), 0755); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Mount = map[string]string{filepath.Join(root, "src"): "/src"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Run(ctx, cfg, root)
	if result.Success {
		t.Fatal("Run() with an already-cancelled context should not succeed")
	}
	if len(result.Errors) != 1 || result.Errors[0] != context.Canceled {
		t.Fatalf("Errors = %v, want [context.Canceled]", result.Errors)
	}
}

func TestStorageTypeDetectsS3URL(t *testing.T) {
	cases := map[string]string{
		"s3://my-bucket/prefix": "s3",
		"/local/web_modules":    "fs",
		"./web_modules":         "fs",
		"s3://":                 "s3",
		"":                      "fs",
	}
	for dest, want := range cases {
		if got := storageType(dest); got != want {
			t.Errorf("storageType(%q) = %q, want %q", dest, got, want)
		}
	}
}

func errorAs(err error, target **errs.ConfigInvalidError) bool {
	ce, ok := err.(*errs.ConfigInvalidError)
	if ok {
		*target = ce
	}
	return ok
}

func TestScanAllReportsInvalidUTF8AsFatal(t *testing.T) {
	dir := t.TempDir()
	badFile := filepath.Join(dir, "broken.js")
	if err := os.WriteFile(badFile, []byte{0xff, 0xfe, 0xfd}, 0644); err != nil {
		t.Fatal(err)
	}
	goodFile := filepath.Join(dir, "ok.js")
	if err := os.WriteFile(goodFile, []byte(`import React from "react";`), 0644); err != nil {
		t.Fatal(err)
	}

	_, warnings, fatal := scanAll([]string{badFile, goodFile}, 0)
	if len(fatal) != 1 {
		t.Fatalf("fatal = %v, want exactly one ParseFailureError", fatal)
	}
	var parseErr *errs.ParseFailureError
	if pe, ok := fatal[0].(*errs.ParseFailureError); ok {
		parseErr = pe
	}
	if parseErr == nil {
		t.Fatalf("fatal[0] = %v, want *errs.ParseFailureError", fatal[0])
	}
	if parseErr.File != badFile {
		t.Errorf("File = %q, want %q", parseErr.File, badFile)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
}

func TestScanAllParsesValidFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.js")
	if err := os.WriteFile(path, []byte(`import React from "react";`), 0644); err != nil {
		t.Fatal(err)
	}

	targets, warnings, fatal := scanAll([]string{path}, 4)
	if len(fatal) != 0 || len(warnings) != 0 {
		t.Fatalf("fatal=%v warnings=%v, want none", fatal, warnings)
	}
	if len(targets) != 1 || targets[0].Specifier != "react" {
		t.Errorf("targets = %v, want one target for \"react\"", targets)
	}
}
