package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"dwhload/internal/catalog"
	"dwhload/internal/config"
	"dwhload/internal/ui"
)

var statementsFlags struct {
	sql bool
}

var statementsCmd = &cobra.Command{
	Use:   "statements [phase...]",
	Short: "List the catalog statements of the configured dialect",
	Example: `  dwhload statements
  dwhload statements insert --sql --dialect sqlite`,
	RunE: func(cmd *cobra.Command, args []string) error {
		phases, err := parsePhases(args)
		if err != nil {
			return err
		}
		if len(phases) == 0 {
			phases = catalog.Phases
		}

		cfg, err := loadUnresolvedConfig()
		if err != nil {
			return err
		}
		c, err := catalog.New(cfg.Warehouse.Dialect, config.CatalogOptions(cfg))
		if err != nil {
			return err
		}

		var statements []catalog.Statement
		for _, p := range catalog.Phases {
			for _, want := range phases {
				if p == want {
					statements = append(statements, c.Phase(p)...)
				}
			}
		}

		out := cmd.OutOrStdout()
		if statementsFlags.sql {
			for _, s := range statements {
				fmt.Fprintf(out, "-- %s\n%s\n\n", s.Name, s.SQL)
			}
			return nil
		}
		fmt.Fprint(out, ui.NewRenderer(ui.ColorEnabled()).Statements(statements))
		return nil
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Describe the staging and star-schema tables",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, t := range catalog.Tables() {
			ui.ShowHeader(fmt.Sprintf("%s (%s)", t.Name, t.Kind))
			table := ui.NewTable()
			table.AddHeader("Column", "Type", "Key")
			for _, col := range t.Columns {
				key := ""
				switch {
				case col.PrimaryKey:
					key = "primary key"
				case col.NotNull:
					key = "not null"
				}
				table.AddRow(col.Name, col.Type, key)
			}
			table.Render()
		}
	},
}

func init() {
	statementsCmd.Flags().BoolVar(&statementsFlags.sql, "sql", false, "print the full SQL text")
	rootCmd.AddCommand(statementsCmd, tablesCmd)
}
