package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"remotejobs-engine/internal/domain"
	"remotejobs-engine/internal/filter"
	"remotejobs-engine/internal/scrape/remoteok"
	"remotejobs-engine/internal/scrape/util"
)

const descriptionWidth = 160

func (a *app) fetchCmd() *cobra.Command {
	var (
		c            filter.Criteria
		progress     bool
		descriptions bool
		limit        int
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch listings once and print the ones matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := resolveCriteria(cmd, a.cfg, c)
			if err != nil {
				return err
			}

			var opts []remoteok.Option
			var bar *pb.ProgressBar
			if progress {
				opts = append(opts, remoteok.WithProgress(func(body io.Reader, size int64) io.Reader {
					bar = pb.Full.New(0).SetTotal(size).Set(pb.Bytes, true).SetWriter(cmd.ErrOrStderr()).Start()
					return bar.NewProxyReader(body)
				}))
			}

			all, jobs, err := loadJobs(cmd.Context(), a.cfg, c, opts...)
			if bar != nil {
				bar.Finish()
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			shown := jobs
			if limit > 0 && len(shown) > limit {
				shown = shown[:limit]
			}
			if err := printJobs(w, shown, time.Now(), descriptions); err != nil {
				return err
			}
			printStats(w, filter.ComputeStats(all, jobs))
			return nil
		},
	}

	installCriteriaFlags(cmd, &c)
	cmd.Flags().BoolVar(&progress, "progress", false, "show a download progress bar")
	cmd.Flags().BoolVar(&descriptions, "descriptions", false, "print a short plain-text description under each job")
	cmd.Flags().IntVar(&limit, "limit", 0, "print at most this many jobs, 0 for all")
	return cmd
}

func printJobs(w io.Writer, jobs []domain.JobRecord, now time.Time, descriptions bool) error {
	if len(jobs) == 0 {
		pterm.Warning.WithWriter(w).Println("No jobs match the current filters.")
		return nil
	}

	data := [][]string{{"Title", "Company", "Tags", "Posted", "URL"}}
	for _, j := range jobs {
		data = append(data, []string{j.Title, j.Company, strings.Join(j.Tags, ", "), posted(j, now), j.URL})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	fmt.Fprintln(w, table)

	if !descriptions {
		return nil
	}
	for _, j := range jobs {
		text := util.Snippet(util.HTMLToText(j.Description), descriptionWidth)
		if text == "" {
			continue
		}
		fmt.Fprintf(w, "%s\n  %s\n\n", pterm.Bold.Sprint(j.Title), text)
	}
	return nil
}

func posted(j domain.JobRecord, now time.Time) string {
	if !j.HasEpoch() {
		return "unknown"
	}
	return humanize.RelTime(time.Unix(*j.Epoch, 0), now, "ago", "from now")
}

func printStats(w io.Writer, s filter.Stats) {
	pterm.Info.WithWriter(w).Printfln("%s of %s jobs from %s companies",
		humanize.Comma(int64(s.Filtered)), humanize.Comma(int64(s.Total)), humanize.Comma(int64(s.Companies)))
}
