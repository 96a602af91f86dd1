package cmd

import (
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// githubRepoSlug is the GitHub repository releases are fetched from.
var githubRepoSlug = "stayware/mcp-propertyhub"

// newSelfUpdateCmd creates the Cobra command that updates the binary in place
// from the latest GitHub release.
func newSelfUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "self-update",
		Short: "Update mcp-propertyhub to the latest version",
		Long: `Update mcp-propertyhub in place by downloading the latest release
from GitHub and replacing the current binary.

The running binary must have been installed from a release build; a
development build has no release to compare against and cannot be updated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelfUpdate(cmd, rootCmd.Version)
		},
	}
}

// runSelfUpdate checks GitHub for a newer release and replaces the current
// executable when one is available.
func runSelfUpdate(cmd *cobra.Command, version string) error {
	if version == "" || version == "dev" {
		return fmt.Errorf("cannot self-update a development version (current version: %q)", version)
	}

	ctx := cmd.Context()

	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(githubRepoSlug))
	if err != nil {
		return fmt.Errorf("failed to detect latest version: %w", err)
	}
	if !found {
		return fmt.Errorf("no release found for %s", githubRepoSlug)
	}

	if latest.LessOrEqual(version) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Current version %s is the latest\n", version)
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updating from %s to %s...\n", version, latest.Version())
	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		return fmt.Errorf("failed to update binary: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully updated to version %s\n", latest.Version())
	return nil
}
