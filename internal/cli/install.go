package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pkgsmith/internal/app"
	"pkgsmith/internal/shared"
	"pkgsmith/internal/types"
)

type installOptions struct {
	Force bool
}

func newInstallCommand() *cobra.Command {
	opts := installOptions{}
	cmd := &cobra.Command{
		Use:   "install <package>[@version]",
		Short: "Install a package and its dependencies from source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd.Context(), args[0], opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Re-fetch and rebuild even when already installed")
	return cmd
}

func runInstall(ctx context.Context, ref string, opts installOptions) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	name, version := shared.SplitNameVersion(ref)
	report, err := service.Install(ctx, app.InstallRequest{
		Name:    name,
		Version: version,
		Force:   opts.Force,
	})
	printReport(report)
	return err
}

func printReport(report types.ExecutionReport) {
	for _, id := range report.Completed {
		fmt.Printf("installed: %s\n", id)
	}
	for _, id := range report.Skipped {
		fmt.Printf("already installed: %s\n", id)
	}
	if !report.Ok() {
		fmt.Printf("failed: %s (%s phase)\n", report.Failed, report.FailedPhase)
		if len(report.NotAttempted) > 0 {
			fmt.Printf("not attempted: %s\n", strings.Join(report.NotAttempted, ", "))
		}
	}
}
