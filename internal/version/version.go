// Package version holds build metadata for the markc CLI. The variables can
// be overridden at build time via -ldflags "-X markc/internal/version.Version=...".
package version

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	// Version is the semantic version without decoration.
	Version = "0.3.0-dev"

	GitCommit = ""
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Colored paints major, minor and patch differently; anything after the
// patch number is left plain.
func Colored(v string) string {
	core, suffix := v, ""
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		core, suffix = v[:i], v[i:]
	}
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return v
	}
	return majorColor.Sprint(parts[0]) + "." + minorColor.Sprint(parts[1]) + "." + patchColor.Sprint(parts[2]) + suffix
}

// Fprint writes the version block shown by markc version.
func Fprint(w io.Writer, name string) error {
	if _, err := fmt.Fprintf(w, "%s %s\n", name, Colored(Version)); err != nil {
		return err
	}
	if GitCommit != "" {
		commit := GitCommit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		if _, err := fmt.Fprintf(w, "commit: %s\n", commit); err != nil {
			return err
		}
	}
	if BuildDate != "" {
		if _, err := fmt.Fprintf(w, "built:  %s\n", BuildDate); err != nil {
			return err
		}
	}
	return nil
}
