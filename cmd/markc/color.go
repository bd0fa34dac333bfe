package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

func resolveColor(mode string, out io.Writer) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "on", "always":
		return true, nil
	case "off", "never":
		return false, nil
	case "", "auto":
		return isTerminal(out), nil
	}
	return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
}

// setColor switches fatih/color globally; the version banner and summaries
// use package-level colors.
func setColor(enabled bool) {
	color.NoColor = !enabled
}
