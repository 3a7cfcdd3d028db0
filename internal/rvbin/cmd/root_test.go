package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rvbin/internal/encoder"
)

var defaultImage = []byte{
	0xEF, 0x00, 0xC0, 0x00,
	0x13, 0x01, 0x30, 0x06,
	0x63, 0x00, 0x00, 0x00,
	0x93, 0x01, 0xD0, 0x04,
	0x67, 0x80, 0x00, 0x00,
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	out, err := execute(t)
	if err != nil {
		t.Fatalf("rvbin failed: %v", err)
	}
	if out != "Successfully created test.bin (20 bytes)\n" {
		t.Errorf("output = %q", out)
	}

	got, err := os.ReadFile(filepath.Join(dir, "test.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, defaultImage) {
		t.Errorf("test.bin = % X", got)
	}
}

func TestRootCustomWords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nop-ret.bin")

	out, err := execute(t, "-o", path, "-w", "0x00000013", "--word", "0x00008067")
	if err != nil {
		t.Fatalf("rvbin failed: %v", err)
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	want := fmt.Sprintf("Successfully created %s (%d bytes)\n", path, fi.Size())
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
	got, _ := os.ReadFile(path)
	if !bytes.Equal(got, []byte{0x13, 0, 0, 0, 0x67, 0x80, 0, 0}) {
		t.Errorf("file = % X", got)
	}
}

func TestRootCwd(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()

	if _, err := execute(t, "--cwd", dir); err != nil {
		t.Fatalf("rvbin failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "test.bin")); err != nil {
		t.Errorf("test.bin not written into --cwd: %v", err)
	}
}

func TestRootConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "rvbin.json")
	cfg := map[string]any{
		"output": filepath.Join(dir, "from-config.bin"),
		"words":  []string{"0x00000063"},
	}
	data, _ := json.Marshal(cfg)
	if err := os.WriteFile(cfgPath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("config values", func(t *testing.T) {
		out, err := execute(t, "--config", cfgPath)
		if err != nil {
			t.Fatalf("rvbin failed: %v", err)
		}
		if !strings.Contains(out, "from-config.bin (4 bytes)") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("flags override config", func(t *testing.T) {
		override := filepath.Join(dir, "override.bin")
		out, err := execute(t, "--config", cfgPath, "-o", override, "-w", "0x13", "-w", "0x13")
		if err != nil {
			t.Fatalf("rvbin failed: %v", err)
		}
		if !strings.Contains(out, "override.bin (8 bytes)") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("missing config", func(t *testing.T) {
		if _, err := execute(t, "--config", filepath.Join(dir, "nope.json")); err == nil {
			t.Error("missing config accepted")
		}
	})
}

func TestRootErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("word out of range", func(t *testing.T) {
		path := filepath.Join(dir, "range.bin")
		_, err := execute(t, "-o", path, "-w", "0x13", "-w", "0x1_0000_0000")
		if !errors.Is(err, encoder.ErrRange) {
			t.Errorf("error = %v, want ErrRange", err)
		}
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
			t.Error("output created despite range error")
		}
	})

	t.Run("word not a number", func(t *testing.T) {
		if _, err := execute(t, "-o", filepath.Join(dir, "nan.bin"), "-w", "addi"); err == nil {
			t.Error("mnemonic accepted as word")
		}
	})

	t.Run("unwritable output", func(t *testing.T) {
		out, err := execute(t, "-o", filepath.Join(dir, "missing", "test.bin"))
		if !errors.Is(err, encoder.ErrIO) {
			t.Errorf("error = %v, want ErrIO", err)
		}
		if out != "" {
			t.Errorf("printed %q on failure", out)
		}
	})

	t.Run("positional argument", func(t *testing.T) {
		if _, err := execute(t, "extra"); err == nil {
			t.Error("positional argument accepted")
		}
	})

	t.Run("empty output", func(t *testing.T) {
		if _, err := execute(t, "-o", ""); err == nil {
			t.Error("empty output path accepted")
		}
	})
}

func TestPrintSummary(t *testing.T) {
	var plain bytes.Buffer
	printSummary(&plain, "test.bin", 20, false)
	if plain.String() != "Successfully created test.bin (20 bytes)\n" {
		t.Errorf("plain summary = %q", plain.String())
	}

	var styled bytes.Buffer
	printSummary(&styled, "test.bin", 20, true)
	if !strings.Contains(styled.String(), "test.bin") || !strings.Contains(styled.String(), "20 bytes") {
		t.Errorf("styled summary = %q", styled.String())
	}
}

func TestSchemaCommand(t *testing.T) {
	out, err := execute(t, "schema")
	if err != nil {
		t.Fatalf("schema failed: %v", err)
	}

	var schema map[string]any
	if err := json.Unmarshal([]byte(out), &schema); err != nil {
		t.Fatalf("schema is not JSON: %v\n%s", err, out)
	}
	for _, field := range []string{"output", "words", "debug"} {
		if !strings.Contains(out, `"`+field+`"`) {
			t.Errorf("schema missing %q", field)
		}
	}
}
