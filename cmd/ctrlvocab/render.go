package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"ctrlvocab/internal/report"
)

const (
	ansiReset = "\x1b[0m"
	ansiBlue  = "\x1b[34m"
)

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.ToUpper(strings.TrimSpace(title)))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func writeSection(out io.Writer, title, body string, colorize bool) {
	fmt.Fprintln(out)
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, body)
}

func mappingTable(entries []report.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		origin := "imported"
		if entry.Learned {
			origin = "learned"
		}
		rows = append(rows, []string{entry.Key, entry.Value, origin})
	}
	return renderTable(tableSpec{
		headers: []string{"Key", "Canonical", "Origin"},
		rows:    rows,
		footer:  []string{"", strconv.Itoa(len(entries)) + " keys", ""},
	})
}

func percentageTable(shares []report.Share, total int) string {
	totalPercent := "-"
	if total > 0 {
		totalPercent = formatPercent(100)
	}
	rows := make([][]string, 0, len(shares))
	for _, share := range shares {
		rows = append(rows, []string{
			share.Value,
			strconv.Itoa(share.Count),
			formatPercent(share.Percent),
		})
	}
	return renderTable(tableSpec{
		headers: []string{"Canonical", "Count", "Percent"},
		rows:    rows,
		aligns:  []columnAlignment{alignLeft, alignRight, alignRight},
		footer:  []string{"total", strconv.Itoa(total), totalPercent},
	})
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64) + "%"
}
