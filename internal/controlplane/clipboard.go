package controlplane

import (
	"errors"
	"os/exec"
	"strings"
)

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	Write(text string) error
}

// CommandClipboard shells out to the first available clipboard tool.
type CommandClipboard struct{}

var clipboardTools = [][]string{
	{"pbcopy"},
	{"wl-copy"},
	{"xclip", "-selection", "clipboard"},
	{"xsel", "--clipboard", "--input"},
}

func (CommandClipboard) Write(text string) error {
	for _, tool := range clipboardTools {
		if _, err := exec.LookPath(tool[0]); err != nil {
			continue
		}
		cmd := exec.Command(tool[0], tool[1:]...)
		cmd.Stdin = strings.NewReader(text)
		return cmd.Run()
	}
	return errors.New("no clipboard tool found")
}

// FallbackClipboard tries Primary first and falls back to Fallback.
type FallbackClipboard struct {
	Primary  Clipboard
	Fallback Clipboard
}

func (f FallbackClipboard) Write(text string) error {
	if f.Primary != nil {
		if err := f.Primary.Write(text); err == nil {
			return nil
		}
	}
	if f.Fallback != nil {
		return f.Fallback.Write(text)
	}
	return errors.New("clipboard unavailable")
}
