package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"ctrlvocab/internal/faults"
	"ctrlvocab/internal/pipeline"
	"ctrlvocab/internal/prompt"
	"ctrlvocab/internal/snapshot"
	"ctrlvocab/internal/testsupport"
	"ctrlvocab/internal/vocab"
)

func runPipeline(t *testing.T, opts pipeline.Options) pipeline.Result {
	t.Helper()
	p, err := pipeline.New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Held != 0 {
		t.Fatalf("expected empty reorder buffer, %d records held", res.Held)
	}
	return res
}

func applyMapping(store *vocab.Store, lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		canonical, _ := store.Lookup(store.Key(line))
		out = append(out, canonical)
	}
	return out
}

func TestKnownMappingAppliedLineByLine(t *testing.T) {
	dir := t.TempDir()
	first := []string{"Red", "green", "BLUE", "red", "Green", "blue", "red"}
	second := []string{"blue", "RED", "green"}
	srcA := testsupport.WriteLines(t, dir, "a.txt", first...)
	srcB := testsupport.WriteLines(t, dir, "b.txt", second...)
	dstA := filepath.Join(dir, "out", "a.txt")
	dstB := filepath.Join(dir, "out", "b.txt")
	if err := os.MkdirAll(filepath.Dir(dstA), 0o755); err != nil {
		t.Fatal(err)
	}

	store := testsupport.NewStore(t, map[string]string{"red": "R", "green": "G", "blue": "B"})
	asker := prompt.NewRecordingPrompter(prompt.NewScriptedPrompter(nil))
	res := runPipeline(t, pipeline.Options{
		Sources:      []string{srcA, srcB},
		Destinations: []string{dstA, dstB},
		BatchSize:    2,
		Store:        store,
		Prompter:     asker,
	})

	if len(asker.Exchanges()) != 0 || res.Prompts != 0 {
		t.Fatalf("expected no prompts, got %v", asker.Values())
	}
	if diff := cmp.Diff(applyMapping(store, first), testsupport.ReadLines(t, dstA)); diff != "" {
		t.Fatalf("destination a mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(applyMapping(store, second), testsupport.ReadLines(t, dstB)); diff != "" {
		t.Fatalf("destination b mismatch (-want +got):\n%s", diff)
	}
	if res.Total != len(first)+len(second) {
		t.Fatalf("expected %d records, got %d", len(first)+len(second), res.Total)
	}
	if diff := cmp.Diff(map[string]int{"R": 4, "G": 3, "B": 3}, res.Counts); diff != "" {
		t.Fatalf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestEquivalentValuesPromptedOnce(t *testing.T) {
	dir := t.TempDir()
	lines := []string{"Foo", "FOO", "x", "foo", "fOo", "X"}
	src := testsupport.WriteLines(t, dir, "in.txt", lines...)

	store := vocab.NewStore(vocab.NewKeyer(false, false))
	asker := prompt.NewRecordingPrompter(prompt.NewScriptedPrompter(map[string]string{"foo": "canonical", "x": "ex"}))
	res := runPipeline(t, pipeline.Options{
		Sources:  []string{src},
		Store:    store,
		Prompter: asker,
	})

	if diff := cmp.Diff([]string{"Foo", "x"}, asker.Values()); diff != "" {
		t.Fatalf("prompted values mismatch (-want +got):\n%s", diff)
	}
	want := []string{"canonical", "canonical", "ex", "canonical", "canonical", "ex"}
	if diff := cmp.Diff(want, res.Values); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestCaseSensitiveKeysPromptSeparately(t *testing.T) {
	dir := t.TempDir()
	src := testsupport.WriteLines(t, dir, "in.txt", "Foo", "foo", "Foo")

	store := vocab.NewStore(vocab.NewKeyer(true, false))
	asker := prompt.NewRecordingPrompter(prompt.NewScriptedPrompter(map[string]string{"Foo": "upper"}))
	res := runPipeline(t, pipeline.Options{Sources: []string{src}, Store: store, Prompter: asker})

	if diff := cmp.Diff([]string{"Foo", "foo"}, asker.Values()); diff != "" {
		t.Fatalf("prompted values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"upper", "foo", "upper"}, res.Values); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestSecondRunWithExportedMappingAsksNothing(t *testing.T) {
	dir := t.TempDir()
	lines := []string{"Apple", "banana", "APPLE", "cherry", "Banana"}
	src := testsupport.WriteLines(t, dir, "in.txt", lines...)
	exported := filepath.Join(dir, "mapping.json")
	ctx := context.Background()

	firstStore := vocab.NewStore(vocab.NewKeyer(false, false))
	first := prompt.NewRecordingPrompter(prompt.NewScriptedPrompter(map[string]string{"Apple": "fruit:apple", "cherry": "fruit:cherry"}))
	firstRes := runPipeline(t, pipeline.Options{Sources: []string{src}, Store: firstStore, Prompter: first})
	if len(first.Exchanges()) != 3 {
		t.Fatalf("expected three prompts on the first run, got %v", first.Values())
	}
	if err := snapshot.Save(ctx, exported, firstStore.Snapshot(), snapshot.Options{}); err != nil {
		t.Fatalf("export: %v", err)
	}

	imported, err := snapshot.Load(ctx, exported, snapshot.Options{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	secondStore := vocab.NewStore(vocab.NewKeyer(false, false))
	secondStore.Merge(imported)
	second := prompt.NewRecordingPrompter(prompt.NewScriptedPrompter(nil))
	secondRes := runPipeline(t, pipeline.Options{Sources: []string{src}, Store: secondStore, Prompter: second})

	if n := len(second.Exchanges()); n != 0 {
		t.Fatalf("expected no prompts on the second run, got %v", second.Values())
	}
	if diff := cmp.Diff(firstRes.Values, secondRes.Values); diff != "" {
		t.Fatalf("second run output differs (-first +second):\n%s", diff)
	}
}

func TestOrderPreservedWhenAnswersArriveLate(t *testing.T) {
	dir := t.TempDir()
	var linesA, linesB []string
	for i := 0; i < 60; i++ {
		linesA = append(linesA, fmt.Sprintf("v%d", i%7))
		linesB = append(linesB, fmt.Sprintf("v%d", (i*3)%11))
	}
	srcA := testsupport.WriteLines(t, dir, "a.txt", linesA...)
	srcB := testsupport.WriteLines(t, dir, "b.txt", linesB...)
	dstA := filepath.Join(dir, "a.out")
	dstB := filepath.Join(dir, "b.out")

	answers := map[string]string{}
	delays := map[string]time.Duration{}
	for i := 0; i < 11; i++ {
		v := fmt.Sprintf("v%d", i)
		answers[v] = strings.ToUpper(v)
		delays[v] = time.Duration(11-i) * time.Millisecond
	}
	// Odd values are already known and resolve immediately, overtaking the
	// even values that wait for an answer.
	seed := map[string]string{}
	for i := 1; i < 11; i += 2 {
		v := fmt.Sprintf("v%d", i)
		seed[v] = answers[v]
	}

	store := testsupport.NewStore(t, seed)
	asker := &testsupport.DelayedPrompter{Answers: answers, Delays: delays}
	runPipeline(t, pipeline.Options{
		Sources:      []string{srcA, srcB},
		Destinations: []string{dstA, dstB},
		BatchSize:    5,
		Store:        store,
		Prompter:     asker,
	})

	upper := func(lines []string) []string {
		out := make([]string, len(lines))
		for i, l := range lines {
			out[i] = strings.ToUpper(l)
		}
		return out
	}
	if diff := cmp.Diff(upper(linesA), testsupport.ReadLines(t, dstA)); diff != "" {
		t.Fatalf("destination a out of order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(upper(linesB), testsupport.ReadLines(t, dstB)); diff != "" {
		t.Fatalf("destination b out of order (-want +got):\n%s", diff)
	}
	if n := len(asker.Asked()); n != 6 {
		t.Fatalf("expected 6 prompts for the even values, got %v", asker.Asked())
	}
}

func TestFooBarScenario(t *testing.T) {
	dir := t.TempDir()
	src := testsupport.WriteLines(t, dir, "in.txt", "Foo", "foo", "Bar")
	exported := filepath.Join(dir, "mapping.json")

	store := vocab.NewStore(vocab.NewKeyer(false, false))
	asker := prompt.NewRecordingPrompter(prompt.NewScriptedPrompter(map[string]string{"Foo": "foo", "Bar": "bar"}))
	res := runPipeline(t, pipeline.Options{Sources: []string{src}, Store: store, Prompter: asker})

	if diff := cmp.Diff([]string{"foo", "foo", "bar"}, res.Values); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if res.Prompts != 2 || len(asker.Exchanges()) != 2 {
		t.Fatalf("expected exactly two prompts, got %d (%v)", res.Prompts, asker.Values())
	}
	if err := snapshot.Save(context.Background(), exported, store.Snapshot(), snapshot.Options{}); err != nil {
		t.Fatalf("export: %v", err)
	}
	got, err := snapshot.Load(context.Background(), exported, snapshot.Options{})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"foo": "foo", "bar": "bar"}, got); diff != "" {
		t.Fatalf("exported mapping mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyAnswerKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	src := testsupport.WriteLines(t, dir, "in.txt", "Mixed Case", "mixed case")

	store := vocab.NewStore(vocab.NewKeyer(false, false))
	res := runPipeline(t, pipeline.Options{Sources: []string{src}, Store: store, Prompter: prompt.NewScriptedPrompter(nil)})

	if diff := cmp.Diff([]string{"Mixed Case", "Mixed Case"}, res.Values); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if got, _ := store.Lookup("mixed case"); got != "Mixed Case" {
		t.Fatalf("expected stored original, got %q", got)
	}
}

func TestLineEndingsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	text := "a\r\nb\n\nc"
	src := testsupport.WriteText(t, dir, "in.txt", text)
	dst := filepath.Join(dir, "out.txt")

	store := vocab.NewStore(vocab.NewKeyer(false, false))
	runPipeline(t, pipeline.Options{
		Sources:      []string{src},
		Destinations: []string{dst},
		Store:        store,
		Prompter:     prompt.NewScriptedPrompter(nil),
	})

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != text {
		t.Fatalf("expected byte-exact copy %q, got %q", text, data)
	}
}

func TestFuseMergesSourcesInOrder(t *testing.T) {
	dir := t.TempDir()
	srcA := testsupport.WriteText(t, dir, "a.txt", "one\ntwo")
	srcB := testsupport.WriteLines(t, dir, "b.txt", "three", "ONE")
	dst := filepath.Join(dir, "fused.txt")

	store := vocab.NewStore(vocab.NewKeyer(false, false))
	runPipeline(t, pipeline.Options{
		Sources:      []string{srcA, srcB},
		Destinations: []string{dst},
		Fuse:         true,
		BatchSize:    1,
		Store:        store,
		Prompter:     prompt.NewScriptedPrompter(map[string]string{"one": "1", "two": "2", "three": "3"}),
	})

	if diff := cmp.Diff([]string{"1", "2", "3", "1"}, testsupport.ReadLines(t, dst)); diff != "" {
		t.Fatalf("fused output mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptySourceProducesEmptyDestination(t *testing.T) {
	dir := t.TempDir()
	src := testsupport.WriteText(t, dir, "in.txt", "")
	dst := filepath.Join(dir, "out.txt")

	res := runPipeline(t, pipeline.Options{
		Sources:      []string{src},
		Destinations: []string{dst},
		Store:        vocab.NewStore(vocab.NewKeyer(false, false)),
		Prompter:     prompt.NewScriptedPrompter(nil),
	})
	if res.Total != 0 {
		t.Fatalf("expected no records, got %d", res.Total)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("destination missing: %v", err)
	}
	if info.Size() != 0 {
		t.Fatalf("expected empty destination, got %d bytes", info.Size())
	}
}

func TestMergedKeyResolvesWaitingRecords(t *testing.T) {
	dir := t.TempDir()
	src := testsupport.WriteLines(t, dir, "in.txt", "a", "b", "a", "b")

	store := vocab.NewStore(vocab.NewKeyer(false, false))
	asker := prompt.Func(func(_ context.Context, q prompt.Question) (string, error) {
		// Stands in for a mapping file edited while the operator answers.
		store.Merge(map[string]string{"b": "B"})
		return strings.ToUpper(q.Value), nil
	})
	res := runPipeline(t, pipeline.Options{Sources: []string{src}, Store: store, Prompter: asker})

	if diff := cmp.Diff([]string{"A", "B", "A", "B"}, res.Values); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if res.Prompts != 1 {
		t.Fatalf("expected one prompt, got %d", res.Prompts)
	}
}

func TestKeyMergedWhileAskingKeepsMergedValue(t *testing.T) {
	dir := t.TempDir()
	src := testsupport.WriteLines(t, dir, "in.txt", "Foo", "foo")

	store := vocab.NewStore(vocab.NewKeyer(false, false))
	asker := prompt.Func(func(context.Context, prompt.Question) (string, error) {
		store.Merge(map[string]string{"foo": "merged"})
		// Let the converter release the waiting records before answering.
		time.Sleep(200 * time.Millisecond)
		return "typed", nil
	})
	res := runPipeline(t, pipeline.Options{Sources: []string{src}, Store: store, Prompter: asker})

	if diff := cmp.Diff([]string{"merged", "merged"}, res.Values); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"foo": "merged"}, store.Snapshot()); diff != "" {
		t.Fatalf("mapping disagrees with output (-want +got):\n%s", diff)
	}
	if res.Prompts != 1 || res.Skipped != 1 {
		t.Fatalf("expected one prompt and one skipped answer, got prompts=%d skipped=%d", res.Prompts, res.Skipped)
	}
	if learned := store.Learned(); len(learned) != 0 {
		t.Fatalf("discarded answer must not count as learned: %v", learned)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	store := vocab.NewStore(vocab.NewKeyer(false, false))
	asker := prompt.NewScriptedPrompter(nil)

	cases := []struct {
		name string
		opts pipeline.Options
	}{
		{"no sources", pipeline.Options{Store: store, Prompter: asker}},
		{"no store", pipeline.Options{Sources: []string{"a"}, Prompter: asker}},
		{"no prompter", pipeline.Options{Sources: []string{"a"}, Store: store}},
		{"destination count", pipeline.Options{Sources: []string{"a", "b"}, Destinations: []string{"x"}, Store: store, Prompter: asker}},
		{"fuse destinations", pipeline.Options{Sources: []string{"a", "b"}, Destinations: []string{"x", "y"}, Fuse: true, Store: store, Prompter: asker}},
		{"negative buffer", pipeline.Options{Sources: []string{"a"}, InputBuffer: -1, Store: store, Prompter: asker}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := pipeline.New(tc.opts)
			if !errors.Is(err, faults.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			if faults.ExitCode(err) != 2 {
				t.Fatalf("expected exit code 2, got %d", faults.ExitCode(err))
			}
		})
	}
}

func TestMissingSourceAbortsRun(t *testing.T) {
	dir := t.TempDir()
	good := testsupport.WriteLines(t, dir, "good.txt", "a")
	dstGood := filepath.Join(dir, "good.out")
	dstMissing := filepath.Join(dir, "missing.out")

	p, err := pipeline.New(pipeline.Options{
		Sources:      []string{good, filepath.Join(dir, "missing.txt")},
		Destinations: []string{dstGood, dstMissing},
		Store:        vocab.NewStore(vocab.NewKeyer(false, false)),
		Prompter:     prompt.NewScriptedPrompter(nil),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = p.Run(context.Background())
	if !errors.Is(err, faults.ErrIO) {
		t.Fatalf("expected I/O error, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".out") || strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("incomplete run left %s behind", e.Name())
		}
	}
}

func TestPromptAbortStopsRun(t *testing.T) {
	dir := t.TempDir()
	src := testsupport.WriteLines(t, dir, "in.txt", "a", "b")
	dst := filepath.Join(dir, "out.txt")

	asker := prompt.Func(func(context.Context, prompt.Question) (string, error) {
		return "", prompt.ErrInputClosed
	})
	p, err := pipeline.New(pipeline.Options{
		Sources:      []string{src},
		Destinations: []string{dst},
		Store:        vocab.NewStore(vocab.NewKeyer(false, false)),
		Prompter:     asker,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = p.Run(context.Background())
	if !errors.Is(err, faults.ErrAborted) || !errors.Is(err, prompt.ErrInputClosed) {
		t.Fatalf("expected aborted error, got %v", err)
	}
	if _, statErr := os.Stat(dst); !os.IsNotExist(statErr) {
		t.Fatal("aborted run must not publish the destination")
	}
}

func TestCancelWhileWaitingForOperator(t *testing.T) {
	dir := t.TempDir()
	src := testsupport.WriteLines(t, dir, "in.txt", "a")

	asked := make(chan struct{})
	asker := prompt.Func(func(ctx context.Context, _ prompt.Question) (string, error) {
		close(asked)
		<-ctx.Done()
		return "", ctx.Err()
	})
	p, err := pipeline.New(pipeline.Options{
		Sources:  []string{src},
		Store:    vocab.NewStore(vocab.NewKeyer(false, false)),
		Prompter: asker,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := p.Run(ctx)
		done <- err
	}()
	<-asked
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not stop after cancellation")
	}
}

func TestRunOnlyOnce(t *testing.T) {
	dir := t.TempDir()
	src := testsupport.WriteLines(t, dir, "in.txt", "a")
	p, err := pipeline.New(pipeline.Options{
		Sources:  []string{src},
		Store:    testsupport.NewStore(t, map[string]string{"a": "a"}),
		Prompter: prompt.NewScriptedPrompter(nil),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("expected second Run to fail")
	}
}

func TestQuestionsCarryClosestKnownValue(t *testing.T) {
	dir := t.TempDir()
	src := testsupport.WriteLines(t, dir, "in.txt", "the netherland", "qqq")

	store := testsupport.NewStore(t, map[string]string{"nl": "Netherlands", "be": "Belgium"})
	asker := prompt.NewRecordingPrompter(prompt.NewScriptedPrompter(nil))
	runPipeline(t, pipeline.Options{Sources: []string{src}, Store: store, Prompter: asker, Suggest: true})

	ex := asker.Exchanges()
	if len(ex) != 2 {
		t.Fatalf("expected two questions, got %d", len(ex))
	}
	if ex[0].Question.Suggestion != "Netherlands" {
		t.Fatalf("expected Netherlands suggestion, got %q", ex[0].Question.Suggestion)
	}
	if ex[1].Question.Suggestion != "" {
		t.Fatalf("expected no suggestion for an unrelated value, got %q", ex[1].Question.Suggestion)
	}
}
