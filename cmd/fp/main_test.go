package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// project writes an fp.toml plus the given files into a temp dir.
func project(t *testing.T, manifest string, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "fp.toml"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	for name, src := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func runFp(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunPrintsResult(t *testing.T) {
	dir := project(t, "", map[string]string{"main.fp": "let a = 2\nlet b = { let c = a * 3 c }\nb + 1"})
	cfg := filepath.Join(dir, "fp.toml")

	code, out, errOut := runFp(t, "", "-config", cfg, "run", filepath.Join(dir, "main.fp"))
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, errOut)
	}
	if out != "7\n" {
		t.Fatalf("expected 7, got %q", out)
	}
}

func TestRunUsesProjectEntry(t *testing.T) {
	dir := project(t, "[project]\nentry = \"main.fp\"\n", map[string]string{"main.fp": `"a" + "b"`})

	code, out, errOut := runFp(t, "", "-config", filepath.Join(dir, "fp.toml"), "run")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, errOut)
	}
	if out != "\"ab\"\n" {
		t.Fatalf("expected \"ab\", got %q", out)
	}
}

func TestRunReportsFaults(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"parse", "let = 1", "main.fp:1:5: error FP0001"},
		{"compile", "missing + 1", "main.fp:1:1: error FP1003"},
		{"runtime", "1 + true", "main.fp:1:3: error FP2005"},
	}

	for _, tt := range tests {
		dir := project(t, "", map[string]string{"main.fp": tt.src})
		code, _, errOut := runFp(t, "", "-config", filepath.Join(dir, "fp.toml"), "run", filepath.Join(dir, "main.fp"))
		if code != 1 {
			t.Fatalf("%s: expected exit 1, got %d", tt.name, code)
		}
		if !strings.Contains(errOut, tt.want) {
			t.Fatalf("%s: expected %q in output, got %q", tt.name, tt.want, errOut)
		}
	}
}

func TestManifestStepLimitAndOverride(t *testing.T) {
	dir := project(t, "[vm]\nmax_steps = 3\n", map[string]string{"main.fp": "1 + 2 + 3"})
	cfg := filepath.Join(dir, "fp.toml")
	src := filepath.Join(dir, "main.fp")

	code, _, errOut := runFp(t, "", "-config", cfg, "run", src)
	if code != 1 || !strings.Contains(errOut, "max instruction count exceeded (3)") {
		t.Fatalf("expected step limit fault, got %d: %q", code, errOut)
	}

	code, out, errOut := runFp(t, "", "-config", cfg, "-max-steps", "100", "run", src)
	if code != 0 || out != "6\n" {
		t.Fatalf("expected 6 with override, got %d: %q %q", code, out, errOut)
	}
}

func TestBuildThenExec(t *testing.T) {
	dir := project(t, "", map[string]string{"main.fp": "let x = 40\nif x > 1 { x + 2 } else { 0 }"})
	cfg := filepath.Join(dir, "fp.toml")
	out := filepath.Join(dir, "out.fpc")

	code, _, errOut := runFp(t, "", "-config", cfg, "build", "-o", out, filepath.Join(dir, "main.fp"))
	if code != 0 {
		t.Fatalf("build failed with %d: %s", code, errOut)
	}

	code, stdout, errOut := runFp(t, "", "-config", cfg, "exec", out)
	if code != 0 {
		t.Fatalf("exec failed with %d: %s", code, errOut)
	}
	if stdout != "42\n" {
		t.Fatalf("expected 42, got %q", stdout)
	}

	code, stdout, _ = runFp(t, "", "-config", cfg, "dis", out)
	if code != 0 || !strings.Contains(stdout, "== code ==") {
		t.Fatalf("expected disassembly, got %d: %q", code, stdout)
	}
}

func TestReplSubcommand(t *testing.T) {
	dir := project(t, "[repl]\nprompt = \"fp> \"\n", nil)

	code, out, _ := runFp(t, "let a = 4\na * a\n", "-config", filepath.Join(dir, "fp.toml"), "repl")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "fp> ") || !strings.Contains(out, "16\n") {
		t.Fatalf("unexpected repl output %q", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	dir := project(t, "", nil)
	code, _, errOut := runFp(t, "", "-config", filepath.Join(dir, "fp.toml"), "frobnicate")
	if code != 2 || !strings.Contains(errOut, "unknown command: frobnicate") {
		t.Fatalf("expected usage error, got %d: %q", code, errOut)
	}
}

func TestPipedStdinRunsProgram(t *testing.T) {
	dir := project(t, "", map[string]string{"prog.fp": "let a = 5\na * 2"})
	in, err := os.Open(filepath.Join(dir, "prog.fp"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer in.Close()

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", filepath.Join(dir, "fp.toml")}, in, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
	}
	if stdout.String() != "10\n" {
		t.Fatalf("expected 10, got %q", stdout.String())
	}
}

func TestToolsUsage(t *testing.T) {
	dir := project(t, "", nil)
	code, _, errOut := runFp(t, "", "-config", filepath.Join(dir, "fp.toml"), "tools", "upgrade")
	if code != 2 || !strings.Contains(errOut, "usage: fp tools install") {
		t.Fatalf("expected usage error, got %d: %q", code, errOut)
	}
}
