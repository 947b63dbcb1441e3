package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// linePrompter asks questions on out and reads one answer line from in.
type linePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *linePrompter {
	return &linePrompter{in: bufio.NewReader(in), out: out}
}

// Prompt implements installer.Prompter.
func (p *linePrompter) Prompt(question string) (string, error) {
	if _, err := fmt.Fprintf(p.out, "%s [y/n]: ", question); err != nil {
		return "", err
	}

	line, err := p.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) || line == "" {
			return "", fmt.Errorf("no answer: %w", err)
		}
	}
	return line, nil
}
