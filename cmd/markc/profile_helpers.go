package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"markc/internal/prof"
)

// setupProfiling starts the profilers requested by the persistent flags. The
// cleanup is safe to call more than once.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	var p prof.Paths
	var err error
	if p.CPU, err = cmd.Flags().GetString("cpuprofile"); err != nil {
		return nil, fmt.Errorf("failed to get cpuprofile flag: %w", err)
	}
	if p.Mem, err = cmd.Flags().GetString("memprofile"); err != nil {
		return nil, fmt.Errorf("failed to get memprofile flag: %w", err)
	}
	if p.Trace, err = cmd.Flags().GetString("runtime-trace"); err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	if p == (prof.Paths{}) {
		return func() {}, nil
	}
	session, err := prof.Start(p)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := session.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "profile: %v\n", err)
		}
	}, nil
}
