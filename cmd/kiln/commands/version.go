package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/build"
	"go.trai.ch/kiln/internal/core/domain"
)

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the kiln version and the host platform it resolves by default",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "kiln version %s\n", build.Version)
			_, _ = fmt.Fprintf(w, "  commit:   %s\n", build.Commit)
			_, _ = fmt.Fprintf(w, "  built:    %s\n", build.Date)
			_, _ = fmt.Fprintf(w, "  go:       %s\n", runtime.Version())
			_, _ = fmt.Fprintf(w, "  platform: %s\n", domain.HostPlatform())
		},
	}
}
