package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dwhload/internal/ui"
)

var (
	rootFlags struct {
		configFile string
		dialect    string
		logLevel   string
		logMode    string
		trace      bool
		yes        bool
	}

	rootCmd = &cobra.Command{
		Use:   "dwhload",
		Short: "Load song-play event logs into a star-schema warehouse",
		Long: `dwhload resets, loads and transforms the song-play warehouse.

Statements run in four phases, always in this order:
  drop    drop the staging and star-schema tables
  create  create them if absent
  copy    truncate staging and bulk copy the JSON logs from S3
  insert  fill the fact and dimension tables from staging`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ui.Out = cmd.OutOrStdout()
		},
	}
)

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&rootFlags.configFile, "config", "c", "", "config file (YAML or dwh.cfg INI); default dwhload.yaml, dwh.cfg or ~/.dwhload/config.yaml")
	flags.StringVar(&rootFlags.dialect, "dialect", "", "warehouse dialect: redshift, snowflake or sqlite")
	flags.StringVar(&rootFlags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&rootFlags.logMode, "log-mode", "", "log format: development or production")
	flags.BoolVar(&rootFlags.trace, "trace", false, "export trace spans to stderr")
	flags.BoolVarP(&rootFlags.yes, "yes", "y", false, "do not ask before destructive phases")

	bindFlags()
}

func bindFlags() {
	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("warehouse.dialect", flags.Lookup("dialect"))
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("logging.mode", flags.Lookup("log-mode"))
}
