// Package report renders lex and parse failures for the terminal: the
// offending source line with a caret under the failing column, so a user
// can locate and fix the line directly.
package report

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/entforge/entkit/internal/token"
)

const tabWidth = 8

var (
	errorStyle   = color.New(color.FgRed, color.Bold)
	fileStyle    = color.New(color.FgCyan, color.Bold)
	lineStyle    = color.New(color.FgBlue, color.Bold)
	messageStyle = color.New(color.FgRed, color.Bold)
)

// positioned is implemented by lexer and parser errors.
type positioned interface {
	error
	Position() token.Position
}

// Format renders err against the source it came from. Errors without
// position information fall back to a plain one-line message.
func Format(filename, src string, err error) string {
	perr, ok := err.(positioned)
	if !ok {
		return errorStyle.Sprint("error: ") + err.Error() + "\n"
	}

	pos := perr.Position()
	var b strings.Builder
	b.WriteString(errorStyle.Sprint("error: "))
	b.WriteString(perr.Error())
	b.WriteByte('\n')
	b.WriteString(lineStyle.Sprint(" --> "))
	b.WriteString(fileStyle.Sprintf("%s:%d:%d", filename, pos.Line, pos.Column))
	b.WriteByte('\n')

	lines := strings.Split(src, "\n")
	if pos.Line < 1 || pos.Line > len(lines) {
		return b.String()
	}
	line := expandTabs(lines[pos.Line-1])

	lineNumberStr := fmt.Sprintf("%d", pos.Line)
	padding := strings.Repeat(" ", len(lineNumberStr))
	b.WriteString(lineStyle.Sprintf(" %s|\n", padding))
	b.WriteString(lineStyle.Sprintf("%s | ", lineNumberStr))
	b.WriteString(line + "\n")

	visualColumn := calculateVisualColumn(lines[pos.Line-1], pos.Column)
	b.WriteString(lineStyle.Sprintf(" %s| ", padding))
	b.WriteString(strings.Repeat(" ", visualColumn))
	b.WriteString(messageStyle.Sprint("^\n"))

	return b.String()
}

func expandTabs(line string) string {
	var expanded strings.Builder
	for i, ch := range line {
		if ch == '\t' {
			spaceCount := tabWidth - (i % tabWidth)
			expanded.WriteString(strings.Repeat(" ", spaceCount))
		} else {
			expanded.WriteRune(ch)
		}
	}
	return expanded.String()
}

func calculateVisualColumn(line string, column int) int {
	visualColumn := 0
	for i, ch := range line {
		if i+1 == column {
			break
		}
		if ch == '\t' {
			visualColumn += tabWidth - (visualColumn % tabWidth)
		} else {
			visualColumn++
		}
	}
	return visualColumn
}
