package prompt

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-isatty"
)

// Styles accepted by ForStyle.
const (
	StyleAuto = "auto"
	StyleLine = "line"
	StyleTUI  = "tui"
)

type fdHolder interface {
	Fd() uintptr
}

// IsTerminal reports whether v is a file attached to a terminal.
func IsTerminal(v any) bool {
	f, ok := v.(fdHolder)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ForStyle picks the interactive prompter for style. Auto uses the TUI only
// when both in and out are terminals; out is the writer the prompt is drawn
// on, which need not be the one results go to.
func ForStyle(style string, in io.Reader, out io.Writer, template string) (Prompter, error) {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case "", StyleAuto:
		if IsTerminal(in) && IsTerminal(out) {
			return NewTUIPrompter(in, out, template), nil
		}
		return NewLinePrompter(in, out, template), nil
	case StyleLine:
		return NewLinePrompter(in, out, template), nil
	case StyleTUI:
		return NewTUIPrompter(in, out, template), nil
	default:
		return nil, fmt.Errorf("unknown prompt style %q (want auto, line or tui)", style)
	}
}
