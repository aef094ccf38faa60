package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// runIDWidth is how many characters of the correlation id the console shows.
const runIDWidth = 8

// prettyHandler renders one line per record:
//
//	2026-01-02 15:04:05 INF [pipeline/converter] batch converted run=1a2b3c4d parked=3
//
// The component and stage attributes form the tag and the correlation id is
// shortened. Everything else follows as key=value pairs, last write wins.
type prettyHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	preset    []field
	groups    []string
	addSource bool
}

type field struct {
	key   string
	value slog.Value
}

// line accumulates the parts of one rendered record.
type line struct {
	component string
	stage     string
	runID     string
	fields    []field
	index     map[string]int
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &prettyHandler{mu: &sync.Mutex{}, writer: w, level: lvl, addSource: addSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	if !h.Enabled(context.Background(), record.Level) {
		return nil
	}

	ln := &line{index: make(map[string]int, record.NumAttrs()+len(h.preset))}
	for _, f := range h.preset {
		ln.add(f.key, f.value)
	}
	record.Attrs(func(attr slog.Attr) bool {
		ln.collect(h.groups, attr)
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var b strings.Builder
	b.Grow(96 + len(ln.fields)*24)
	b.WriteString(formatTimestamp(ts))
	b.WriteByte(' ')
	b.WriteString(levelTag(record.Level))
	if tag := ln.tag(); tag != "" {
		b.WriteString(" [")
		b.WriteString(tag)
		b.WriteByte(']')
	}
	b.WriteByte(' ')
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(msg)
	if ln.runID != "" {
		b.WriteString(" run=")
		b.WriteString(ln.runID)
	}
	for _, f := range ln.fields {
		b.WriteByte(' ')
		b.WriteString(f.key)
		b.WriteByte('=')
		b.WriteString(formatValue(f.value))
	}
	if h.addSource {
		if src := record.Source(); src != nil {
			b.WriteString(" src=")
			b.WriteString(filepath.Base(src.File))
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(src.Line))
		}
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, b.String())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.preset = append([]field(nil), h.preset...)
	for _, attr := range attrs {
		flatten(&clone.preset, h.groups, attr)
	}
	return &clone
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func (ln *line) collect(prefix []string, attr slog.Attr) {
	var flat []field
	flatten(&flat, prefix, attr)
	for _, f := range flat {
		ln.add(f.key, f.value)
	}
}

func flatten(dst *[]field, prefix []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		next := prefix
		if attr.Key != "" {
			next = append(append([]string(nil), prefix...), attr.Key)
		}
		for _, child := range value.Group() {
			flatten(dst, next, child)
		}
		return
	}
	key := attr.Key
	if len(prefix) > 0 {
		key = strings.Join(prefix, ".") + "." + key
	}
	*dst = append(*dst, field{key: key, value: value})
}

func (ln *line) add(key string, value slog.Value) {
	switch key {
	case "":
		return
	case FieldComponent:
		ln.component = attrString(value)
		return
	case FieldStage:
		ln.stage = attrString(value)
		return
	case FieldCorrelationID:
		id := attrString(value)
		if len(id) > runIDWidth {
			id = id[:runIDWidth]
		}
		ln.runID = id
		return
	}
	if pos, ok := ln.index[key]; ok {
		ln.fields[pos].value = value
		return
	}
	ln.index[key] = len(ln.fields)
	ln.fields = append(ln.fields, field{key: key, value: value})
}

func (ln *line) tag() string {
	switch {
	case ln.component != "" && ln.stage != "":
		return ln.component + "/" + ln.stage
	case ln.component != "":
		return ln.component
	default:
		return ln.stage
	}
}

func levelTag(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERR"
	case level >= slog.LevelWarn:
		return "WRN"
	case level >= slog.LevelInfo:
		return "INF"
	default:
		return "DBG"
	}
}
