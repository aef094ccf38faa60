package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

type lineResult struct {
	text string
	err  error
}

// LinePrompter writes the question to out and reads one line from in.
type LinePrompter struct {
	in       io.Reader
	out      io.Writer
	template string

	start sync.Once
	lines chan lineResult
	done  chan struct{}
	stop  sync.Once
}

// NewLinePrompter builds a prompter over in and out. The template defaults
// to DefaultTemplate.
func NewLinePrompter(in io.Reader, out io.Writer, template string) *LinePrompter {
	return &LinePrompter{
		in:       in,
		out:      out,
		template: template,
		lines:    make(chan lineResult),
		done:     make(chan struct{}),
	}
}

// Ask shows the question and waits for a line or for ctx to end.
func (p *LinePrompter) Ask(ctx context.Context, q Question) (string, error) {
	p.start.Do(func() { go p.readLines() })

	if _, err := io.WriteString(p.out, FormatQuestion(p.template, q.Value)); err != nil {
		return "", fmt.Errorf("write prompt: %w", err)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-p.lines:
		if !ok {
			return "", ErrInputClosed
		}
		if res.err != nil {
			return "", res.err
		}
		return res.text, nil
	}
}

// Close stops the background reader once it returns from its current read.
func (p *LinePrompter) Close() error {
	p.stop.Do(func() { close(p.done) })
	return nil
}

// readLines owns the input stream. A blocked read on a terminal cannot be
// interrupted, so the goroutine outlives a cancelled Ask until the next line
// or EOF arrives.
func (p *LinePrompter) readLines() {
	defer close(p.lines)
	reader := bufio.NewReader(p.in)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if !errors.Is(err, io.EOF) {
				select {
				case p.lines <- lineResult{err: fmt.Errorf("read answer: %w", err)}:
				case <-p.done:
				}
			}
			return
		}
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		select {
		case p.lines <- lineResult{text: line}:
		case <-p.done:
			return
		}
	}
}
