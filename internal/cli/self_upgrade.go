package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/spf13/cobra"
)

const releaseRepo = "seuros/funnelscope"

var (
	selfUpgradeRequested bool
	selfUpgradeCheckOnly bool
	selfUpgradeAutoYes   bool
)

// Swapped in tests.
var (
	detectLatest = selfupdate.DetectLatest
	updateTo     = selfupdate.UpdateTo
)

func setupSelfUpgrade() {
	RootCmd.PersistentFlags().BoolVar(&selfUpgradeRequested, "self-upgrade", false, "Upgrade Funnelscope to the latest release and exit")
	RootCmd.PersistentFlags().BoolVar(&selfUpgradeCheckOnly, "self-upgrade-check", false, "Only check whether a newer Funnelscope release is available")
	RootCmd.PersistentFlags().BoolVar(&selfUpgradeAutoYes, "self-upgrade-yes", false, "Skip the confirmation prompt of --self-upgrade")

	existingPreRun := RootCmd.PersistentPreRunE
	RootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if existingPreRun != nil {
			if err := existingPreRun(cmd, args); err != nil {
				return err
			}
		}
		if !selfUpgradeRequested && !selfUpgradeCheckOnly {
			return nil
		}
		if err := runSelfUpgrade(cmd.OutOrStdout(), os.Stdin, selfUpgradeCheckOnly, selfUpgradeAutoYes); err != nil {
			return err
		}
		os.Exit(0)
		return nil
	}
}

// currentVersion parses the build version; dev builds have none.
func currentVersion(raw string) (semver.Version, error) {
	v := strings.TrimSpace(strings.TrimPrefix(raw, "v"))
	if v == "" || v == "dev" {
		return semver.Version{}, errors.New("self-upgrade is only available for release builds")
	}
	current, err := semver.Parse(v)
	if err != nil {
		return semver.Version{}, fmt.Errorf("invalid current version %q: %w", raw, err)
	}
	return current, nil
}

func runSelfUpgrade(out io.Writer, in io.Reader, checkOnly, autoYes bool) error {
	current, err := currentVersion(Version)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Current version: v%s\n", current)

	latest, found, err := detectLatest(releaseRepo)
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}
	if !found {
		return fmt.Errorf("no releases found for %s", releaseRepo)
	}
	fmt.Fprintf(out, "Latest release:  v%s\n", latest.Version)

	if !latest.Version.GT(current) {
		fmt.Fprintln(out, "Funnelscope is already up to date")
		return nil
	}
	if checkOnly {
		fmt.Fprintf(out, "Upgrade available: v%s --> v%s\n", current, latest.Version)
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to determine executable path: %w", err)
	}
	fmt.Fprintf(out, "  * Executable: %q\n", exe)
	fmt.Fprintf(out, "  * Target: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if latest.AssetURL != "" {
		fmt.Fprintf(out, "  * Download: %s\n", latest.AssetURL)
	}

	if !autoYes && !confirm(out, in, "Replace the current binary? [Y/n] ") {
		fmt.Fprintln(out, "Update cancelled.")
		return nil
	}

	if err := updateTo(latest.AssetURL, exe); err != nil {
		return fmt.Errorf("self-upgrade failed: %w", err)
	}
	fmt.Fprintf(out, "Updated Funnelscope to v%s\n", latest.Version)
	return nil
}

func confirm(out io.Writer, in io.Reader, prompt string) bool {
	fmt.Fprint(out, prompt)
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "" || response == "y" || response == "yes"
}
