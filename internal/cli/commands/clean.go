package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pg-lang-server/pgls/internal/daemon"
)

// NewCleanCommand creates the clean command.
func NewCleanCommand() *cobra.Command {
	var projectDir string

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale daemon socket and PID files",
		Long: `Remove the Unix-domain socket and PID file pgls's background server
leaves behind for this project, for when a prior run-server process was
killed without going through stop.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClean(cmd, projectDir)
		},
	}

	cmd.Flags().StringVar(&projectDir, "project-dir", ".", "project whose daemon files to remove")

	return cmd
}

func runClean(cmd *cobra.Command, projectDir string) error {
	removed := 0
	for _, path := range []string{daemon.SocketPath(projectDir), daemon.PIDPath(projectDir)} {
		err := os.Remove(path)
		if err == nil {
			removed++
			continue
		}
		if !os.IsNotExist(err) {
			return fmt.Errorf("clean: remove %s: %w", path, err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d stale daemon file(s)\n", removed)
	return nil
}
