package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ctrlvocab/internal/logging"
	"ctrlvocab/internal/testsupport"
)

func TestSplitTerminator(t *testing.T) {
	cases := []struct {
		line, value, term string
	}{
		{"abc\n", "abc", "\n"},
		{"abc\r\n", "abc", "\r\n"},
		{"abc", "abc", ""},
		{"\n", "", "\n"},
		{"a\rb\n", "a\rb", "\n"},
	}
	for _, tc := range cases {
		value, term := splitTerminator(tc.line)
		if value != tc.value || term != tc.term {
			t.Fatalf("splitTerminator(%q) = %q, %q", tc.line, value, term)
		}
	}
}

func TestReaderBatchesAndSequences(t *testing.T) {
	dir := t.TempDir()
	a := testsupport.WriteLines(t, dir, "a.txt", "1", "2", "3")
	b := testsupport.WriteLines(t, dir, "b.txt", "4", "5")

	out := make(chan []Record, 8)
	r := &Reader{
		sources:   []string{a, b},
		destFor:   func(i int) int { return i },
		batchSize: 2,
		out:       out,
		logger:    logging.NewNop(),
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var sizes []int
	var got []Record
	for batch := range out {
		sizes = append(sizes, len(batch))
		got = append(got, batch...)
	}
	if diff := cmp.Diff([]int{2, 2, 1}, sizes); diff != "" {
		t.Fatalf("batch sizes (-want +got):\n%s", diff)
	}
	want := []Record{
		{Dest: 0, Seq: 0, Value: "1", Terminator: "\n", Source: 0},
		{Dest: 0, Seq: 1, Value: "2", Terminator: "\n", Source: 0},
		{Dest: 0, Seq: 2, Value: "3", Terminator: "\n", Source: 0},
		{Dest: 1, Seq: 0, Value: "4", Terminator: "\n", Source: 1},
		{Dest: 1, Seq: 1, Value: "5", Terminator: "\n", Source: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("records (-want +got):\n%s", diff)
	}
}

func TestReaderMissingSourceKeepsChannelOpen(t *testing.T) {
	out := make(chan []Record, 1)
	r := &Reader{
		sources:   []string{filepath.Join(t.TempDir(), "nope.txt")},
		destFor:   func(int) int { return 0 },
		batchSize: 10,
		out:       out,
		logger:    logging.NewNop(),
	}
	if err := r.Run(context.Background()); err == nil {
		t.Fatal("expected error for missing source")
	}
	select {
	case _, ok := <-out:
		t.Fatalf("channel should stay open and empty, got ok=%v", ok)
	default:
	}
}
