package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"remotejobs-engine/internal/config"
	"remotejobs-engine/internal/domain"
	"remotejobs-engine/internal/filter"
	"remotejobs-engine/internal/scrape/remoteok"
	"remotejobs-engine/internal/store"
)

func installCriteriaFlags(cmd *cobra.Command, c *filter.Criteria) {
	f := cmd.Flags()
	f.StringVar(&c.Skill, "skill", "", "keep jobs tagged with this skill")
	f.StringVar(&c.Keyword, "keyword", "", "keep jobs whose title contains this text")
	f.StringVar(&c.Seniority, "seniority", "", "keep jobs whose title names this level (junior, mid, senior, none)")
	f.StringVar(&c.Location, "location", "", "keep jobs whose location or tags match")
	f.IntVar(&c.Days, "days", 0, "keep jobs posted within this many days, 0 for no limit (default from config)")
	f.BoolVar(&c.SalaryOnly, "salary-only", false, "keep jobs with salary-looking tags")
	f.StringVar(&c.MultiSkill, "multi-skill", "", "comma separated skills that must all be tagged")
	f.StringVar(&c.Search, "search", "", "free text matched against title, company and tags")
}

// resolveCriteria fills in config defaults for flags left unset and checks the result.
func resolveCriteria(cmd *cobra.Command, cfg config.Config, c filter.Criteria) (filter.Criteria, error) {
	if !cmd.Flags().Changed("days") {
		c.Days = cfg.Filters.DefaultDays
	}
	if err := c.Validate(cfg.FilterLimits()); err != nil {
		return c, err
	}
	return c, nil
}

// loadJobs performs one uncached fetch and applies c.
func loadJobs(ctx context.Context, cfg config.Config, c filter.Criteria, opts ...remoteok.Option) (all, jobs []domain.JobRecord, err error) {
	board := store.NewBoard(remoteok.New(cfg.ScraperConfig(), opts...), remoteok.Parse)

	out := board.Refresh(ctx, true)
	if out.Kind == store.Failed {
		return nil, nil, fmt.Errorf("could not fetch listings: %w", out.Err)
	}

	all = board.Jobs()
	return all, cfg.FilterEngine().Run(all, c), nil
}
