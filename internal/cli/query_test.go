package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/lineage/pkg/errors"
)

// diamond: A→B, A→C, B→D, C→D, D→E.
const diamondCSV = "parent,child,label\nA,B\nA,C\nB,D\nC,D,Dee\nD,E\n"

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// isolate points config and cache lookups at empty temp directories.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
}

// execute runs the root command and returns stdout and status output.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	status := quietStatus(t)

	var out bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), status.String(), err
}

func TestQueryCommands(t *testing.T) {
	isolate(t)
	csv := writeCSV(t, "icd.csv", diamondCSV)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"parents", []string{"parents", "D"}, "B\nC\n"},
		{"children", []string{"children", "A"}, "B\nC\n"},
		{"siblings", []string{"siblings", "B"}, "C\n"},
		{"ancestors", []string{"ancestors", "E"}, "A\nB\nC\nD\n"},
		{"ancestors depth", []string{"ancestors", "E", "--max-depth", "1"}, "D\n"},
		{"descendants", []string{"descendants", "B"}, "D\nE\n"},
		{"lca", []string{"lca", "B", "C"}, "A\n"},
		{"lca paths strategy", []string{"lca", "B", "C", "--strategy", "paths"}, "A\n"},
		{"roots", []string{"roots"}, "A\n"},
		{"leaves", []string{"leaves"}, "E\n"},
		{"paths", []string{"paths", "A", "E"}, "A > B > D > E\nA > C > D > E\n"},
		{"paths limited", []string{"paths", "A", "E", "--limit", "1"}, "A > B > D > E\n... (truncated)\n"},
		{"edgelist", []string{"parents", "D", "--shape", "edgelist"}, "B -> D\nC -> D\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, append([]string{"--no-cache", "-c", csv}, tt.args...)...)
			if err != nil {
				t.Fatalf("%v: %v", tt.args, err)
			}
			if out != tt.want {
				t.Errorf("%v = %q, want %q", tt.args, out, tt.want)
			}
		})
	}
}

func TestQueryJSON(t *testing.T) {
	isolate(t)
	csv := writeCSV(t, "icd.csv", diamondCSV)

	out, _, err := execute(t, "--no-cache", "-c", csv, "ancestors", "D", "-f", "json")
	if err != nil {
		t.Fatal(err)
	}
	var resp struct {
		Op      string   `json:"op"`
		Targets []string `json:"targets"`
		Codes   []string `json:"codes"`
		Absent  bool     `json:"absent"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid json %q: %v", out, err)
	}
	if resp.Op != "ancestors" || strings.Join(resp.Codes, ",") != "A,B,C" || resp.Absent {
		t.Errorf("response = %+v", resp)
	}
}

func TestQueryUnknownCode(t *testing.T) {
	isolate(t)
	csv := writeCSV(t, "icd.csv", diamondCSV)

	out, status, err := execute(t, "--no-cache", "-c", csv, "parents", "ZZZ")
	if err != nil {
		t.Fatal(err)
	}
	if out != "(no result)\n" {
		t.Errorf("out = %q, want (no result)", out)
	}
	if !strings.Contains(status, "unknown code: ZZZ") {
		t.Errorf("status = %q, want unknown code warning", status)
	}
}

func TestQueryFamilyDepthZero(t *testing.T) {
	isolate(t)
	csv := writeCSV(t, "icd.csv", diamondCSV)

	out, _, err := execute(t, "--no-cache", "-c", csv, "family", "D", "--max-depth", "0")
	if err != nil {
		t.Fatal(err)
	}
	if out != "D\nE\n" {
		t.Errorf("family D depth 0 = %q, want D and E", out)
	}
}

func TestQueryErrors(t *testing.T) {
	isolate(t)
	csv := writeCSV(t, "icd.csv", diamondCSV)

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"zero depth", []string{"ancestors", "D", "--max-depth", "0"}, errors.ErrCodeInvalidDepth},
		{"bad format", []string{"parents", "D", "-f", "png"}, errors.ErrCodeInvalidFormat},
		{"bad shape", []string{"parents", "D", "--shape", "tree"}, errors.ErrCodeInvalidShape},
		{"bad strategy", []string{"lca", "B", "--strategy", "magic"}, errors.ErrCodeInvalidArgument},
		{"negative limit", []string{"paths", "A", "E", "--limit", "-1"}, errors.ErrCodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, append([]string{"--no-cache", "-c", csv}, tt.args...)...)
			if !errors.Is(err, tt.code) {
				t.Errorf("%v error = %v, want %s", tt.args, err, tt.code)
			}
		})
	}
}

func TestQueryNoSources(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, "--no-cache", "roots")
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("error = %v, want INVALID_CONFIG", err)
	}
}

func TestQueryOutputFile(t *testing.T) {
	isolate(t)
	csv := writeCSV(t, "icd.csv", diamondCSV)
	path := filepath.Join(t.TempDir(), "family.dot")

	out, status, err := execute(t, "--no-cache", "-c", csv, "family", "D", "-f", "dot", "-o", path)
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Errorf("stdout = %q, want nothing when writing to a file", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "digraph") {
		t.Errorf("file content = %q, want DOT", data)
	}
	if !strings.Contains(status, "family of D") {
		t.Errorf("status = %q, want title", status)
	}
}

func TestQueryCached(t *testing.T) {
	isolate(t)
	csv := writeCSV(t, "icd.csv", diamondCSV)

	first, _, err := execute(t, "-c", csv, "descendants", "A")
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := execute(t, "-c", csv, "descendants", "A")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("cached answer %q differs from %q", second, first)
	}
}

func TestOnlyFlag(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	for name, content := range map[string]string{
		"icd.csv": diamondCSV,
		"atc.csv": "parent,child\nX,Y\n",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	out, _, err := execute(t, "--no-cache", "-c", dir, "roots")
	if err != nil {
		t.Fatal(err)
	}
	if out != "A\nX\n" {
		t.Errorf("roots of both = %q", out)
	}

	out, _, err = execute(t, "--no-cache", "-c", dir, "--only", "atc", "roots")
	if err != nil {
		t.Fatal(err)
	}
	if out != "X\n" {
		t.Errorf("roots of atc = %q", out)
	}
}
