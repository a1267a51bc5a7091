package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // We are using global variables for version information.
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "bftbrain",
		Short:        "Feature registry and experience service for adaptive BFT protocol selection",
		SilenceUsage: true,
	}
	root.AddCommand(
		serveCommand(),
		featuresCommand(),
		versionCommand(),
		validateConfigCommand(),
	)
	return root
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Shows version information",
		Args:  cobra.NoArgs,
		Run: func(c *cobra.Command, _ []string) {
			out := c.OutOrStdout()
			_, _ = fmt.Fprintln(out, "bftbrain")
			_, _ = fmt.Fprintf(out, "Version: %s\n", version)
			_, _ = fmt.Fprintf(out, "Build time: %s\n", buildTime)
			_, _ = fmt.Fprintf(out, "Git commit: %s\n", gitCommit)
		},
	}
}
