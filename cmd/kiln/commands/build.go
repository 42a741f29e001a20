package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Resolve, fetch, configure, build and install",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := buildOptions(cmd)
			opts.ArtifactCache, _ = cmd.Flags().GetString("artifact-cache")
			return c.app.Build(cmd.Context(), opts)
		},
	}
	addResolveFlags(cmd.Flags())
	cmd.Flags().String("artifact-cache", "", "Artifact cache root (defaults to $KILN_ARTIFACT_CACHE or the user cache directory)")
	return cmd
}
