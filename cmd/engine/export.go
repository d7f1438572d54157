package main

import (
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"remotejobs-engine/internal/export"
	"remotejobs-engine/internal/filter"
)

func (a *app) exportCmd() *cobra.Command {
	var (
		c      filter.Criteria
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fetch listings once and write the matching ones to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			c, err := resolveCriteria(cmd, a.cfg, c)
			if err != nil {
				return err
			}

			_, jobs, err := loadJobs(cmd.Context(), a.cfg, c)
			if err != nil {
				return err
			}

			path := out
			if path == "" {
				path = filepath.Join(a.cfg.ExportDir(), f.FileName())
			}
			if err := export.SaveFile(path, f, jobs); err != nil {
				return err
			}
			pterm.Success.WithWriter(cmd.OutOrStdout()).Printfln("Wrote %d jobs to %s", len(jobs), path)
			return nil
		},
	}

	installCriteriaFlags(cmd, &c)
	cmd.Flags().StringVarP(&format, "format", "f", string(export.CSV), "output format: csv, xlsx or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default <export_dir>/jobs.<format>)")
	return cmd
}
