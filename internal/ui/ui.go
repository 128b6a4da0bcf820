package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	successMark = color.New(color.FgGreen, color.Bold).SprintFunc()
	errorMark   = color.New(color.FgRed, color.Bold).SprintFunc()
	warnMark    = color.New(color.FgYellow, color.Bold).SprintFunc()
	infoMark    = color.New(color.FgBlue).SprintFunc()
	promptMark  = color.New(color.FgGreen, color.Bold).SprintFunc()
	bannerLine  = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// Console is the operator-facing terminal surface: colored status lines
// and line-oriented prompts. Input and output are injectable so prompt
// flows can be driven from tests.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

func New(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Default returns a console bound to stdin/stdout.
func Default() *Console {
	return New(os.Stdin, os.Stdout)
}

func (c *Console) Success(format string, a ...any) {
	fmt.Fprintf(c.out, "%s %s\n", successMark("✔"), fmt.Sprintf(format, a...))
}

func (c *Console) Error(format string, a ...any) {
	fmt.Fprintf(c.out, "%s %s\n", errorMark("✘"), fmt.Sprintf(format, a...))
}

func (c *Console) Warn(format string, a ...any) {
	fmt.Fprintf(c.out, "%s %s\n", warnMark("!"), fmt.Sprintf(format, a...))
}

func (c *Console) Info(format string, a ...any) {
	fmt.Fprintf(c.out, "%s %s\n", infoMark("·"), fmt.Sprintf(format, a...))
}

// Banner prints a framed title block followed by free-form lines.
func (c *Console) Banner(title string, lines ...string) {
	rule := strings.Repeat("=", len(title)+8)
	fmt.Fprintln(c.out, bannerLine(rule))
	fmt.Fprintln(c.out, bannerLine("    "+title))
	fmt.Fprintln(c.out, bannerLine(rule))
	for _, line := range lines {
		fmt.Fprintln(c.out, line)
	}
}

// Ask prints the prompt and reads one line. Surrounding whitespace and
// quotes are stripped (operators paste paths and keys with quotes).
// Returns io.EOF when the input source is exhausted.
func (c *Console) Ask(prompt string) (string, error) {
	fmt.Fprintf(c.out, "%s ", promptMark(prompt))
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	line = strings.TrimSpace(line)
	if len(line) >= 2 {
		if (strings.HasPrefix(line, `"`) && strings.HasSuffix(line, `"`)) ||
			(strings.HasPrefix(line, `'`) && strings.HasSuffix(line, `'`)) {
			line = line[1 : len(line)-1]
		}
	}
	return line, nil
}

// Confirm asks a yes/no question and re-prompts until it gets one of
// y/yes/n/no (case-insensitive).
func (c *Console) Confirm(prompt string) (bool, error) {
	for {
		answer, err := c.Ask(prompt + " (y/n):")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		c.Error("Please answer y or n")
	}
}
