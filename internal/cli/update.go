package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update <dir-or-git-url>",
		Short: "Merge manifests from a directory or git repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd.Context(), args[0])
		},
	}
}

func runUpdate(ctx context.Context, source string) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	names, err := service.Update(ctx, source)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Printf("updated: %s\n", name)
	}
	fmt.Printf("merged %d package(s)\n", len(names))
	return nil
}
