package history

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
)

func hash(name string) plumbing.Hash {
	var h plumbing.Hash
	copy(h[:], name)
	return h
}

func commit(name string, minute int, parents ...string) Commit {
	c := Commit{
		Hash:    hash(name),
		Summary: name,
		When:    time.Date(2024, 1, 1, 0, minute, 0, 0, time.UTC),
	}
	for _, p := range parents {
		c.ParentHashes = append(c.ParentHashes, hash(p))
	}
	return c
}

func summaries(commits []Commit) string {
	names := make([]string, len(commits))
	for i, c := range commits {
		names[i] = c.Summary
	}
	return strings.Join(names, " ")
}

func TestOrder(t *testing.T) {
	tests := []struct {
		name    string
		commits []Commit
		want    string
	}{
		{
			name:    "empty",
			commits: nil,
			want:    "",
		},
		{
			name: "chain in any input order",
			commits: []Commit{
				commit("a", 1),
				commit("c", 3, "b"),
				commit("b", 2, "a"),
			},
			want: "c b a",
		},
		{
			name: "newer branch first",
			commits: []Commit{
				commit("base", 0),
				commit("old", 1, "base"),
				commit("new", 2, "base"),
			},
			want: "new old base",
		},
		{
			name: "parent never before child despite clock skew",
			commits: []Commit{
				commit("child", 1, "parent"),
				commit("parent", 5),
			},
			want: "child parent",
		},
		{
			name: "merge waits for both children",
			commits: []Commit{
				commit("base", 0),
				commit("x", 1, "base"),
				commit("y", 3, "base"),
				commit("m", 4, "x", "y"),
				commit("late", 2, "base"),
			},
			want: "m y late x base",
		},
		{
			name: "equal times ordered by hash",
			commits: []Commit{
				commit("b", 1),
				commit("a", 1),
			},
			want: "a b",
		},
		{
			name: "equal times compare every hash byte",
			commits: []Commit{
				commit("b", 1),
				commit("ab", 1),
				commit("aa", 1),
			},
			want: "aa ab b",
		},
		{
			name: "missing parents ignored",
			commits: []Commit{
				commit("a", 1, "gone"),
				commit("b", 2, "a", "gone"),
			},
			want: "b a",
		},
		{
			name: "duplicate parents",
			commits: []Commit{
				commit("root", 0),
				commit("dup", 1, "root", "root"),
			},
			want: "dup root",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := summaries(Order(tt.commits)); got != tt.want {
				t.Errorf("Order() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOrderDoesNotModifyInput(t *testing.T) {
	in := []Commit{commit("a", 1), commit("b", 2, "a")}
	before := slices.Clone(in)
	Order(in)
	for i := range in {
		if in[i].Hash != before[i].Hash {
			t.Fatalf("input reordered: %q", summaries(in))
		}
	}
}

func TestTruncate(t *testing.T) {
	in := []Commit{commit("a", 3), commit("b", 2), commit("c", 1)}
	tests := []struct {
		n    int
		want string
	}{
		{0, "a b c"},
		{-1, "a b c"},
		{2, "a b"},
		{3, "a b c"},
		{10, "a b c"},
	}
	for _, tt := range tests {
		if got := summaries(Truncate(in, tt.n)); got != tt.want {
			t.Errorf("Truncate(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"fix bug\n", "fix bug"},
		{"  fix bug  \n\nbody\n", "fix bug"},
		{"\n\nfirst\nsecond", "first"},
		{"title   \r\nbody", "title"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Summary(tt.message); got != tt.want {
			t.Errorf("Summary(%q) = %q, want %q", tt.message, got, tt.want)
		}
	}
}

func TestLabel(t *testing.T) {
	c := Commit{
		Hash:    plumbing.NewHash("abc1234def5678abc1234def5678abc1234def56"),
		Summary: "add parser",
		Refs:    []string{"main", "v1"},
	}
	tests := []struct {
		opts LabelOptions
		want string
	}{
		{LabelOptions{}, "add parser"},
		{LabelOptions{Hash: true}, "abc1234 add parser"},
		{LabelOptions{Decorate: true}, "(main, v1) add parser"},
		{LabelOptions{Hash: true, Decorate: true}, "abc1234 (main, v1) add parser"},
	}
	for _, tt := range tests {
		if got := c.Label(tt.opts); got != tt.want {
			t.Errorf("Label(%+v) = %q, want %q", tt.opts, got, tt.want)
		}
	}

	c.Refs = nil
	if got := c.Label(LabelOptions{Decorate: true}); got != "add parser" {
		t.Errorf("Label without refs = %q, want %q", got, "add parser")
	}
}

func TestCommitJSON(t *testing.T) {
	c := commit("m", 7, "x", "y")
	c.Author = "Ada"
	c.Refs = []string{"main"}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if !strings.Contains(string(data), `"hash":"`+c.Hash.String()+`"`) {
		t.Errorf("hash not encoded as hex: %s", data)
	}

	var got Commit
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if got.Hash != c.Hash || !slices.Equal(got.ParentHashes, c.ParentHashes) {
		t.Errorf("hashes = %v %v, want %v %v", got.Hash, got.ParentHashes, c.Hash, c.ParentHashes)
	}
	if got.Summary != c.Summary || got.Author != c.Author || !got.When.Equal(c.When) {
		t.Errorf("Unmarshal() = %+v, want %+v", got, c)
	}
}
