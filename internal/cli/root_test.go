package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/gitlane/internal/gittest"
	"github.com/matzehuels/gitlane/pkg/errors"
)

var diamondText = strings.Join([]string{
	"   ", " *  Merge feature", " |\\",
	" | \\  ", " *  |  main work", " |  | ",
	" |  | ", " |  *  feature work", " | /  ",
	" |/", " *  base", "   ",
}, "\n") + "\n"

// run executes the root command with a config file under a temporary
// directory and returns what it wrote to stdout.
func run(t *testing.T, config string, args ...string) (string, error) {
	t.Helper()
	return runWithStatus(t, io.Discard, config, args...)
}

// runWithStatus is run with status lines written to status.
func runWithStatus(t *testing.T, status io.Writer, config string, args ...string) (string, error) {
	t.Helper()
	statusOut = status
	t.Cleanup(func() { statusOut = os.Stderr })

	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	if config != "" {
		if err := os.WriteFile(cfgPath, []byte(config), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", cfgPath, "--no-cache"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestGraphCommand(t *testing.T) {
	repo, _ := gittest.Diamond(t)

	got, err := run(t, "", repo.Dir)
	if err != nil {
		t.Fatalf("gitlane error: %v", err)
	}
	if got != diamondText {
		t.Errorf("output =\n%s\nwant\n%s", got, diamondText)
	}
}

func TestGraphCommandEmptyRepository(t *testing.T) {
	repo := gittest.New(t)

	got, err := run(t, "", repo.Dir)
	if err != nil {
		t.Fatalf("gitlane error: %v", err)
	}
	if got != "" {
		t.Errorf("output = %q, want nothing", got)
	}
}

func TestGraphCommandNotARepository(t *testing.T) {
	got, err := run(t, "", t.TempDir())
	if !errors.Is(err, errors.ErrCodeRepoNotFound) {
		t.Errorf("error = %v, want REPO_NOT_FOUND", err)
	}
	if got != "" {
		t.Errorf("output = %q, want nothing", got)
	}
}

func TestGraphCommandFlags(t *testing.T) {
	repo, h := gittest.Diamond(t)

	tests := []struct {
		name   string
		config string
		args   []string
		check  func(t *testing.T, out string)
	}{
		{
			name: "max count",
			args: []string{"-n", "2"},
			check: func(t *testing.T, out string) {
				if n := strings.Count(out, "\n"); n != 6 {
					t.Errorf("%d lines, want 6", n)
				}
			},
		},
		{
			name:   "config max count",
			config: "max_count = 1\n",
			check: func(t *testing.T, out string) {
				if n := strings.Count(out, "\n"); n != 3 {
					t.Errorf("%d lines, want 3", n)
				}
			},
		},
		{
			name:   "flag overrides config",
			config: "max_count = 1\n",
			args:   []string{"--max-count", "3"},
			check: func(t *testing.T, out string) {
				if n := strings.Count(out, "\n"); n != 9 {
					t.Errorf("%d lines, want 9", n)
				}
			},
		},
		{
			name: "hash and decorate",
			args: []string{"--hash", "--decorate"},
			check: func(t *testing.T, out string) {
				want := " *  " + h[0].String()[:7] + " (HEAD, master) Merge feature\n"
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			},
		},
		{
			name:   "config decorate",
			config: "decorate = true\n",
			check: func(t *testing.T, out string) {
				if !strings.Contains(out, "(HEAD, master) Merge feature") {
					t.Errorf("output not decorated:\n%s", out)
				}
			},
		},
		{
			name: "color always",
			args: []string{"--color", "always"},
			check: func(t *testing.T, out string) {
				if !strings.Contains(out, "\x1b[") {
					t.Errorf("no escape sequences in colored output:\n%q", out)
				}
				if !strings.Contains(out, "Merge feature") {
					t.Errorf("label missing:\n%s", out)
				}
			},
		},
		{
			name: "color never",
			args: []string{"--color", "never"},
			check: func(t *testing.T, out string) {
				if out != diamondText {
					t.Errorf("output =\n%s\nwant\n%s", out, diamondText)
				}
			},
		},
		{
			name: "json",
			args: []string{"--format", "json"},
			check: func(t *testing.T, out string) {
				var layout struct {
					Width int               `json:"width"`
					Rows  []json.RawMessage `json:"rows"`
				}
				if err := json.Unmarshal([]byte(out), &layout); err != nil {
					t.Fatalf("invalid JSON: %v", err)
				}
				if layout.Width != 2 || len(layout.Rows) != 4 {
					t.Errorf("width %d, %d rows", layout.Width, len(layout.Rows))
				}
			},
		},
		{
			name: "dot",
			args: []string{"-f", "dot"},
			check: func(t *testing.T, out string) {
				if !strings.HasPrefix(out, "digraph") {
					t.Errorf("not DOT: %.40q", out)
				}
			},
		},
		{
			name: "check order",
			args: []string{"--check-order"},
			check: func(t *testing.T, out string) {
				if out != diamondText {
					t.Errorf("output =\n%s\nwant\n%s", out, diamondText)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.config, append([]string{repo.Dir}, tt.args...)...)
			if err != nil {
				t.Fatalf("gitlane %v error: %v", tt.args, err)
			}
			tt.check(t, out)
		})
	}
}

func TestGraphCommandErrors(t *testing.T) {
	repo, _ := gittest.Diamond(t)

	tests := []struct {
		name   string
		config string
		args   []string
		want   string
	}{
		{"bad format", "", []string{"--format", "png"}, "png"},
		{"bad color", "", []string{"--color", "sometimes"}, "sometimes"},
		{"negative count", "", []string{"-n", "-1"}, "max"},
		{"bad pattern", "", []string{"--refs", "heads/["}, "heads/["},
		{"bad config", "colour = 'auto'\n", nil, "unknown keys"},
		{"too many args", "", []string{"extra"}, "accepts at most 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.config, append([]string{repo.Dir}, tt.args...)...)
			if err == nil {
				t.Fatal("gitlane succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestBrowseRejectsBadColor(t *testing.T) {
	repo, _ := gittest.Diamond(t)
	_, err := run(t, "", "browse", repo.Dir, "--color", "sometimes")
	if err == nil || !strings.Contains(err.Error(), "sometimes") {
		t.Errorf("error = %v, want it to mention %q", err, "sometimes")
	}
}

func TestGraphCommandOutputFile(t *testing.T) {
	repo, _ := gittest.Diamond(t)
	path := filepath.Join(t.TempDir(), "graph.txt")

	var status bytes.Buffer
	out, err := runWithStatus(t, &status, "", repo.Dir, "-o", path)
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Errorf("stdout = %q, want nothing", out)
	}
	for _, want := range []string{"Wrote text graph (", path, "4 commits"} {
		if !strings.Contains(status.String(), want) {
			t.Errorf("status output missing %q:\n%s", want, status.String())
		}
	}
	if strings.Contains(status.String(), "Reading history") {
		t.Errorf("spinner drew to a non-terminal:\n%s", status.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != diamondText {
		t.Errorf("file =\n%s\nwant\n%s", data, diamondText)
	}
}

func TestRootCommandStructure(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	for _, name := range []string{"browse", "serve", "cache", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	for _, flag := range []string{"refs", "max-count", "format", "output", "hash", "decorate", "color", "no-cache", "refresh", "check-order"} {
		if root.Flags().Lookup(flag) == nil {
			t.Errorf("flag --%s missing", flag)
		}
	}
	browse, _, _ := root.Find([]string{"browse"})
	if browse.Flags().Lookup("color") == nil {
		t.Error("browse flag --color missing")
	}
}
