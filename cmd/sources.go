package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dwhload/internal/config"
	"dwhload/internal/storage"
	"dwhload/internal/ui"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect the bulk load sources",
}

var sourcesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the copy sources exist and are readable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadUnresolvedConfig()
		if err != nil {
			return err
		}

		src := config.Sources(cfg)
		var checker *storage.Checker
		if usesS3(src) {
			client, err := storage.NewS3Client(cfg.S3.Region, cfg.S3.Anonymous)
			if err != nil {
				return err
			}
			checker = storage.NewChecker(client)
		} else {
			checker = storage.NewChecker(nil)
		}

		statuses, checkErr := checker.Check(cmd.Context(), src)
		fmt.Fprint(cmd.OutOrStdout(), ui.NewRenderer(ui.ColorEnabled()).Sources(statuses))
		if checkErr != nil {
			return checkErr
		}
		ui.ShowSuccess(fmt.Sprintf("%d sources available", len(statuses)))
		return nil
	},
}

func usesS3(src storage.Sources) bool {
	for _, uri := range []string{src.LogData, src.LogJSONPath, src.SongData} {
		if strings.HasPrefix(uri, "s3://") {
			return true
		}
	}
	return false
}

func init() {
	sourcesCmd.AddCommand(sourcesCheckCmd)
	rootCmd.AddCommand(sourcesCmd)
}
