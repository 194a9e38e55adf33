package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/garyjia/pharmacy-audit/internal/aig"
)

func newRulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and export AIG rule tables",
	}
	cmd.AddCommand(newRulesExportCmd(a), newRulesCheckCmd())
	return cmd
}

func newRulesExportCmd(a *app) *cobra.Command {
	var out string
	var builtin bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the active rule table as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table := aig.DefaultTable()
			if !builtin {
				var err error
				if table, err = a.rules(""); err != nil {
					return err
				}
			}
			doc, err := aig.Marshal(table)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(doc)
				return err
			}
			if err := os.WriteFile(out, doc, 0644); err != nil {
				return fmt.Errorf("failed to write rules: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rules to %s\n", len(table.Rules()), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&builtin, "builtin", false, "export the built-in table, ignoring the configured file")
	return cmd
}

func newRulesCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Validate a rule table file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := aig.LoadFile(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s: %d rules, %d sheets\n", args[0], len(table.Rules()), len(table.Sheets()))
			for _, r := range table.Shadowed() {
				fmt.Fprintf(w, "  shadowed: %q on sheet %d\n", r.Label, r.Sheet)
			}
			return nil
		},
	}
}
