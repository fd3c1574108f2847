package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"dwhload/internal/catalog"
	"dwhload/internal/pipeline"
	"dwhload/internal/ui"
	"dwhload/pkg/errors"
)

var runFlags struct {
	phases []string
	dryRun bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full load: drop, create, copy, insert",
	Long: `Run the selected phases in the fixed order drop, create, copy, insert.

Phases given out of order are still executed in that order. The run stops at
the first failing statement and prints the engine error unchanged.`,
	Example: `  dwhload run
  dwhload run --phases copy,insert
  dwhload run --dry-run --dialect snowflake`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		phases, err := parsePhases(runFlags.phases)
		if err != nil {
			return err
		}
		return runPhases(cmd, runFlags.dryRun, phases...)
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate every table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPhases(cmd, runFlags.dryRun, catalog.PhaseDrop, catalog.PhaseCreate)
	},
}

// phaseCommand builds the single-phase commands drop, create, copy, insert
func phaseCommand(p catalog.Phase, short string) *cobra.Command {
	var dryRun bool
	c := &cobra.Command{
		Use:   string(p),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPhases(cmd, dryRun, p)
		},
	}
	c.Flags().BoolVar(&dryRun, "dry-run", false, "print the statements without executing them")
	return c
}

func parsePhases(names []string) ([]catalog.Phase, error) {
	var phases []catalog.Phase
	for _, n := range names {
		p, err := catalog.ParsePhase(n)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, err.Error())
		}
		phases = append(phases, p)
	}
	return phases, nil
}

func runPhases(cmd *cobra.Command, dryRun bool, phases ...catalog.Phase) error {
	a, err := newApp(dryRun)
	if err != nil {
		return err
	}
	defer a.close()

	selected := phases
	if len(selected) == 0 {
		selected = catalog.Phases
	}
	if !dryRun && !rootFlags.yes {
		if err := confirmDestructive(selected); err != nil {
			return err
		}
	}

	r, err := a.runner(cmd.Context(), dryRun)
	if err != nil {
		return err
	}

	rep, runErr := r.Run(cmd.Context(), phases...)
	a.pushMetrics(r)

	renderer := ui.NewRenderer(ui.ColorEnabled())
	if rep != nil {
		if dryRun {
			printDryRun(cmd, rep)
		} else {
			fmt.Fprint(cmd.OutOrStdout(), renderer.Report(rep))
		}
	}
	if runErr != nil {
		return runErr
	}

	if !dryRun {
		ui.ShowSuccess(fmt.Sprintf("Run %s finished %d statements in %s",
			rep.RunID, len(rep.Statements), rep.Duration.Round(time.Millisecond)))
	}
	return nil
}

func confirmDestructive(phases []catalog.Phase) error {
	destructive := lo.Filter(phases, func(p catalog.Phase, _ int) bool { return p.Destructive() })
	if len(destructive) == 0 {
		return nil
	}
	names := lo.Map(destructive, func(p catalog.Phase, _ int) string { return string(p) })
	ok, err := ui.Confirm(fmt.Sprintf("The %s phase discards existing rows. Continue?", strings.Join(names, " and ")), false)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeUserAborted, "Confirmation failed").
			WithSuggestions("Pass --yes to run without a prompt")
	}
	if !ok {
		return errors.New(errors.ErrCodeUserAborted, "Run cancelled")
	}
	return nil
}

func printDryRun(cmd *cobra.Command, rep *pipeline.Report) {
	out := cmd.OutOrStdout()
	for _, s := range rep.Statements {
		fmt.Fprintf(out, "-- %s (%s)\n%s\n\n", s.Name, s.Phase, s.SQL)
	}
}

func init() {
	runCmd.Flags().StringSliceVarP(&runFlags.phases, "phases", "p", nil, "phases to run (drop, create, copy, insert); default all")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "print the statements without executing them")
	resetCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "print the statements without executing them")

	rootCmd.AddCommand(runCmd, resetCmd,
		phaseCommand(catalog.PhaseDrop, "Drop every staging and star-schema table"),
		phaseCommand(catalog.PhaseCreate, "Create every table if absent"),
		phaseCommand(catalog.PhaseCopy, "Truncate staging and bulk copy the source logs"),
		phaseCommand(catalog.PhaseInsert, "Fill the fact and dimension tables from staging"),
	)
}
