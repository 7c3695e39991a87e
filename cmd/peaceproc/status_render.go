package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type checkState int

const (
	checkOK checkState = iota
	checkWarn
	checkFail
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	checkLabelWidth = 22
	checkIndent     = "  "
)

func renderCheckLine(label string, state checkState, detail string, colorize bool) string {
	text := fmt.Sprintf("[%s]", checkStateLabel(state))
	if detail != "" {
		text += " " + detail
	}
	line := fmt.Sprintf("%s%-*s %s", checkIndent, checkLabelWidth, label+":", text)
	if colorize {
		return checkStateColor(state) + line + ansiReset
	}
	return line
}

func checkStateLabel(state checkState) string {
	switch state {
	case checkOK:
		return "OK"
	case checkWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

func checkStateColor(state checkState) string {
	switch state {
	case checkOK:
		return ansiGreen
	case checkWarn:
		return ansiYellow
	default:
		return ansiRed
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
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
