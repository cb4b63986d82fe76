package admincli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/dmitrijs2005/userkeeper/internal/shared"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// readLine reads one line and trims it. A final line without a newline is
// still returned.
func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echo when stdin is a terminal and
// as a plain line otherwise, so scripts can pipe it in.
func (a *App) promptPassword(prompt string) (string, error) {
	if _, err := fmt.Fprint(a.out, prompt); err != nil {
		return "", err
	}

	fd := int(os.Stdin.Fd())
	if a.stdinIsTTY && isTerminal(fd) {
		pw, err := readPassword(fd)
		fmt.Fprintln(a.out)
		defer shared.WipeByteArray(pw)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}

	line, err := readLine(a.in)
	if errors.Is(err, io.EOF) {
		return "", nil
	}
	return line, err
}
