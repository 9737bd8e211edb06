package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <package>",
		Short: "Remove an installed package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd.Context(), args[0])
		},
	}
}

func runRemove(ctx context.Context, name string) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	if err := service.Remove(ctx, name); err != nil {
		return err
	}
	fmt.Printf("removed: %s\n", name)
	return nil
}
