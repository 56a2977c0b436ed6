package admin

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// TerminalPasswordReader reads from the controlling terminal without echo.
// When stdin is not a terminal the next line of stdin is used, so the tool
// can be scripted.
func TerminalPasswordReader(in *os.File, out io.Writer) PasswordReader {
	lines := bufio.NewReader(in)
	return func(prompt string) (string, error) {
		fd := int(in.Fd())
		if !term.IsTerminal(fd) {
			line, err := lines.ReadString('\n')
			if err != nil && line == "" {
				return "", fmt.Errorf("reading password: %w", err)
			}
			return strings.TrimRight(line, "\r\n"), nil
		}

		fmt.Fprint(out, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
}
