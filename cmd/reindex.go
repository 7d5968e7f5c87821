package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/haierkeys/fast-note-graph-service/internal/dto"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex [--uid N] [--note ID]",
	Short: "Re-parse note bodies and rebuild the link graph",
	Long: `Re-parse note bodies and rebuild the link graph.

Without --uid every user's notes are reindexed. Links that point at notes
created after their source was last written are picked up this way.`,
	Run: func(cmd *cobra.Command, args []string) {
		fs := cmd.Flags()
		configPath, _ := fs.GetString("config")
		uid, _ := fs.GetInt64("uid")
		noteID, _ := fs.GetString("note")

		if noteID != "" && uid <= 0 {
			fmt.Println("--note requires --uid")
			os.Exit(1)
		}

		a, closeApp, err := openApp(configPath)
		if err != nil {
			fmt.Printf("Failed to start: %v\n", err)
			os.Exit(1)
		}
		defer closeApp()

		ctx := context.Background()
		if err := a.Dao.AutoMigrate(ctx); err != nil {
			fmt.Printf("Failed to migrate database: %v\n", err)
			closeApp()
			os.Exit(1)
		}

		var result *dto.GraphReindexResult
		if uid > 0 {
			result, err = a.GraphService.Reindex(ctx, uid, &dto.GraphReindexRequest{NoteID: noteID})
		} else {
			result, err = a.GraphService.ReindexAll(ctx)
		}
		if err != nil {
			fmt.Printf("Reindex failed: %v\n", err)
			closeApp()
			os.Exit(1)
		}

		fmt.Printf("notes: %d, inserted: %d, deleted: %d, failed: %d\n",
			result.Notes, result.Inserted, result.Deleted, result.Failed)
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
	fs := reindexCmd.Flags()
	fs.StringP("config", "c", "", "config file path")
	fs.Int64P("uid", "u", 0, "owner id, 0 reindexes every owner")
	fs.StringP("note", "n", "", "reindex a single note of --uid")
}
