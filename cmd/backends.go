package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "Manage resolver backends",
}

var backendsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List resolver backends and the active selection",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := buildApp(ctx, nil)
		if err != nil {
			return err
		}
		defer a.close(context.Background())

		active := a.registry.Active(ctx)
		for _, b := range a.registry.List() {
			marker := " "
			if b.ID == active.ID {
				marker = "*"
			}
			fmt.Printf("%s %-12s %s\n", marker, b.ID, b.DisplayName)
		}
		return nil
	},
}

var backendsUseCmd = &cobra.Command{
	Use:   "use <ID>",
	Short: "Switch the active resolver backend",
	Long: `Persist a new resolver backend selection. The switch takes effect
immediately for subsequent resolve calls, including links still queued in
running batches.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := buildApp(ctx, nil)
		if err != nil {
			return err
		}
		defer a.close(context.Background())

		if err := a.registry.SetActive(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("active backend set to %s\n", args[0])
		return nil
	},
}

func init() {
	backendsCmd.AddCommand(backendsListCmd, backendsUseCmd)
	rootCmd.AddCommand(backendsCmd)
}
