package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// E2EAsmTestSpec is a single end-to-end assembly test case
type E2EAsmTestSpec struct {
	Name         string   `yaml:"name"`
	Input        string   `yaml:"input"`
	Expect       []string `yaml:"expect"`        // must appear in output
	ExpectUnique []string `yaml:"expect_unique"` // must appear exactly once
	ExpectNot    []string `yaml:"expect_not"`    // must not appear
	Skip         string   `yaml:"skip,omitempty"`
}

// E2EAsmTestFile is the e2e_asm.yaml file structure
type E2EAsmTestFile struct {
	Tests []E2EAsmTestSpec `yaml:"tests"`
}

// runCLI invokes the root command on a temp source file
func runCLI(t *testing.T, src string, flags ...string) (string, string, error) {
	t.Helper()

	showAST, showIR, showASM, outFile, verbose = false, false, false, "", ""

	dir := t.TempDir()
	file := filepath.Join(dir, "input.mc")
	if err := os.WriteFile(file, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(append(flags, file))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestShowIR(t *testing.T) {
	out, _, err := runCLI(t, "int main() { return 0; }", "--show-ir")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "define i32 @main() {") {
		t.Errorf("missing IR header:\n%s", out)
	}
	if !strings.Contains(out, "exit %t0") {
		t.Errorf("missing exit:\n%s", out)
	}
}

func TestShowAST(t *testing.T) {
	out, _, err := runCLI(t, "int main() { return 42; }", "--show-ast")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"compile-unit", "func-def", "id main", "return", "literal 42"} {
		if !strings.Contains(out, want) {
			t.Errorf("AST dump missing %q:\n%s", want, out)
		}
	}
}

func TestShowASM(t *testing.T) {
	out, _, err := runCLI(t, "int main() { return 0; }", "--show-asm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "main:") || !strings.Contains(out, "bx\tlr") {
		t.Errorf("assembly output incomplete:\n%s", out)
	}
}

func TestOutputFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.s")

	_, _, err := runCLI(t, "int main() { return 0; }", "-o", target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("output file not written: %v", err)
	}
	if !strings.Contains(string(data), "main:") {
		t.Errorf("output file incomplete:\n%s", data)
	}
}

func TestParseErrorExit(t *testing.T) {
	_, errOut, err := runCLI(t, "int main( { return 0; }")
	if err == nil {
		t.Fatal("expected an error for bad syntax")
	}
	if !strings.Contains(errOut, "line 1") {
		t.Errorf("diagnostics should carry the line:\n%s", errOut)
	}
}

func TestLoweringDiagnostics(t *testing.T) {
	src := `int f() { return nope; }
int g() { break; return 0; }
int main() { return 0; }`
	_, errOut, err := runCLI(t, src)
	if err == nil {
		t.Fatal("expected an error for diagnostics")
	}
	// Both functions report, with file:line prefixes
	if !strings.Contains(errOut, ":1: undefined") {
		t.Errorf("missing undefined diagnostic:\n%s", errOut)
	}
	if !strings.Contains(errOut, ":2: misplaced control") {
		t.Errorf("missing misplaced-control diagnostic:\n%s", errOut)
	}
}

func TestE2EAsm(t *testing.T) {
	data, err := os.ReadFile("../../testdata/e2e_asm.yaml")
	if err != nil {
		t.Skipf("e2e_asm.yaml not found: %v", err)
	}

	var file E2EAsmTestFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		t.Fatalf("failed to parse e2e_asm.yaml: %v", err)
	}

	for _, tc := range file.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			if tc.Skip != "" {
				t.Skip(tc.Skip)
			}

			out, errOut, err := runCLI(t, tc.Input, "--show-asm")
			if err != nil {
				t.Fatalf("compile failed: %v\n%s", err, errOut)
			}

			for _, want := range tc.Expect {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
			for _, want := range tc.ExpectUnique {
				if n := strings.Count(out, want); n != 1 {
					t.Errorf("%q appears %d times, want 1:\n%s", want, n, out)
				}
			}
			for _, bad := range tc.ExpectNot {
				if strings.Contains(out, bad) {
					t.Errorf("output must not contain %q:\n%s", bad, out)
				}
			}
		})
	}
}
