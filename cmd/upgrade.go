package cmd

import (
	"context"
	"fmt"
	"os"

	internalApp "github.com/haierkeys/fast-note-graph-service/internal/app"
	"github.com/haierkeys/fast-note-graph-service/internal/upgrade"

	"github.com/spf13/cobra"
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade database schema and link data to the latest version",
	Long: `Upgrade database schema and link data to the latest version.

This command creates missing tables, then applies every pending data migration
up to the running version. Already applied migrations are skipped, so it is
safe to run it multiple times.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")

		a, closeApp, err := openApp(configPath)
		if err != nil {
			fmt.Printf("Failed to start: %v\n", err)
			os.Exit(1)
		}
		defer closeApp()

		fmt.Println("Starting database upgrade...")

		if err := upgrade.Execute(context.Background(), a.DB, a.Logger(), internalApp.Version); err != nil {
			fmt.Printf("Upgrade failed: %v\n", err)
			closeApp()
			os.Exit(1)
		}

		fmt.Println("Database upgrade completed successfully!")
	},
}

func init() {
	rootCmd.AddCommand(upgradeCmd)
	upgradeCmd.Flags().StringP("config", "c", "", "config file path")
}
