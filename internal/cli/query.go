package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd.Context())
		},
	}
}

func runList(ctx context.Context) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	records, err := service.List(ctx)
	if err != nil {
		return err
	}
	for _, record := range records {
		fmt.Printf("%s %s\n", record.Name, record.Version)
	}
	return nil
}

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <package>",
		Short: "Show a package's manifest and install state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd.Context(), args[0])
		},
	}
}

func runInfo(ctx context.Context, name string) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	info, err := service.Info(ctx, name)
	if err != nil {
		return err
	}
	fmt.Printf("name: %s\n", info.Manifest.Name)
	if head, ok := info.Manifest.Head(); ok {
		fmt.Printf("latest: %s\n", head.Version)
		if head.Description != "" {
			fmt.Printf("description: %s\n", head.Description)
		}
		if deps := head.AllDependencies(); len(deps) > 0 {
			fmt.Printf("dependencies: %s\n", strings.Join(deps, ", "))
		}
	}
	versions := make([]string, 0, len(info.Manifest.Versions))
	for _, entry := range info.Manifest.Versions {
		versions = append(versions, entry.Version)
	}
	fmt.Printf("versions: %s\n", strings.Join(versions, ", "))
	if info.Installed != nil {
		fmt.Printf("installed: %s (at %s)\n", info.Installed.Version, info.Installed.InstalledAt.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Println("installed: no")
	}
	return nil
}

func newSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search package names and descriptions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), args[0])
		},
	}
}

func runSearch(ctx context.Context, query string) error {
	service, err := newAppService()
	if err != nil {
		return err
	}
	hits, err := service.Search(ctx, query)
	if err != nil {
		return err
	}
	for _, manifest := range hits {
		head, _ := manifest.Head()
		if head.Description != "" {
			fmt.Printf("%s %s - %s\n", manifest.Name, head.Version, head.Description)
			continue
		}
		fmt.Printf("%s %s\n", manifest.Name, head.Version)
	}
	return nil
}
