package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/demandcascade/scenario"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles <scenario.yaml>",
	Short: "Validate the load profiles of a scenario and print their peak factors",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfiles,
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}

func runProfiles(cmd *cobra.Command, args []string) error {
	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	stock, err := sc.ProfileStock()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tPEAK_YD_FACTOR\tVALID"); err != nil {
		return err
	}
	var invalid int
	for _, p := range stock.Profiles() {
		status := "ok"
		if err := p.Validate(); err != nil {
			status = err.Error()
			invalid++
		}
		if _, err := fmt.Fprintf(w, "%s\t%.6f\t%s\n", p.ID(), p.PeakYDFactor(), status); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if invalid > 0 {
		return fmt.Errorf("%d invalid load profiles", invalid)
	}
	return nil
}
