package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"enchant/internal/library"
	"enchant/internal/preflight"
)

type doctorReport struct {
	Checks []preflight.Result `json:"checks"`
	Stats  *library.Stats     `json:"stats,omitempty"`
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, ffmpeg and repository contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := doctorReport{Checks: preflight.RunAll(cmd.Context(), cfg)}

			statsErr := ctx.withLibrary(cmd, func(lib *library.Library) error {
				stats, err := lib.Stats(cmd.Context())
				if err != nil {
					return err
				}
				report.Stats = &stats
				return nil
			})
			if statsErr != nil {
				report.Checks = append(report.Checks, preflight.Result{Name: "Repository", Detail: statsErr.Error()})
			}

			if jsonOutput {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				printDoctorReport(cmd, report)
			}

			if failed := preflight.Failed(report.Checks); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	return cmd
}

func printDoctorReport(cmd *cobra.Command, report doctorReport) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	fmt.Fprintln(out, "Checks")
	for _, check := range report.Checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}

	if report.Stats == nil {
		return
	}
	fmt.Fprintln(out, "\nRepository")
	fmt.Fprintln(out, renderTable(
		[]string{"Item", "Value"},
		[][]string{
			{"Path", report.Stats.Repo},
			{"Objects", strconv.Itoa(report.Stats.Objects)},
			{"Movies", strconv.Itoa(report.Stats.Movies)},
			{"Indexed lines", strconv.Itoa(report.Stats.Documents)},
			{"Index", report.Stats.IndexPath},
		},
		[]columnAlignment{alignLeft, alignLeft},
	))
}
