package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pkgsmith/internal/app"
	"pkgsmith/internal/shared"
)

type buildOptions struct {
	Force bool
}

func newBuildCommand() *cobra.Command {
	opts := buildOptions{}
	cmd := &cobra.Command{
		Use:   "build <package>[@version]",
		Short: "Fetch and compile a package without installing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), args[0], opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Re-fetch the source before building")
	return cmd
}

func runBuild(ctx context.Context, ref string, opts buildOptions) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	name, version := shared.SplitNameVersion(ref)
	report, err := service.Build(ctx, app.InstallRequest{
		Name:    name,
		Version: version,
		Force:   opts.Force,
	})
	if err != nil {
		return err
	}
	for _, id := range report.Completed {
		fmt.Printf("built: %s\n", id)
	}
	return nil
}
