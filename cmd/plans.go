package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/demandcascade/app"
	"github.com/kilianp07/demandcascade/scenario"
)

var plansYear int

var plansCmd = &cobra.Command{
	Use:   "plans <scenario.yaml>",
	Short: "Fit the switch curves of a scenario and print the service shares of one year",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlans,
}

func init() {
	plansCmd.Flags().IntVarP(&plansYear, "year", "y", 0, "year to evaluate (defaults to the end year)")
	rootCmd.AddCommand(plansCmd)
}

func runPlans(cmd *cobra.Command, args []string) error {
	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	svc, err := app.NewWithScenario(sc, app.Options{})
	if err != nil {
		return err
	}
	year := plansYear
	if year == 0 {
		year = sc.EndYear
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ENDUSE\tMODE\tTECHNOLOGY\tSHARE"); err != nil {
		return err
	}
	for _, p := range svc.Plans() {
		mode, err := p.Mode(year)
		if err != nil {
			return err
		}
		shares, _ := p.CurrentServiceShares(year)
		for _, tech := range sortedKeys(shares) {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\n", p.EndUse, mode, tech, shares[tech]); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
