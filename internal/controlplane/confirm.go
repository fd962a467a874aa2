package controlplane

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirmer gates destructive operations. Implementations must block until
// the operator answers; a false return aborts the operation silently.
type Confirmer interface {
	Confirm(prompt string) bool
}

// TerminalConfirmer prompts on Out and reads a y/N answer from In.
type TerminalConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (t TerminalConfirmer) Confirm(prompt string) bool {
	_, _ = fmt.Fprintf(t.Out, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(t.In).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// AutoConfirm answers every prompt without asking (--yes flows).
type AutoConfirm struct{}

func (AutoConfirm) Confirm(string) bool { return true }
