package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abhisek/amcdrill/internal/persist"
	"github.com/abhisek/amcdrill/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show practice statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.User == "" {
			return errNoUser
		}
		limit, _ := cmd.Flags().GetInt("recent")

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		mirror, err := st.MirrorRepo().Get(ctx, cfg.User)
		if err != nil {
			return err
		}
		journal := st.SessionRepo()
		totals, err := journal.Totals(ctx, cfg.User)
		if err != nil {
			return err
		}
		recent, err := journal.Recent(ctx, cfg.User, limit)
		if err != nil {
			return err
		}

		printStats(cmd.OutOrStdout(), cfg.User, mirror, totals, recent, time.Now())
		return nil
	},
}

func init() {
	statsCmd.Flags().Int("recent", 10, "Number of recent sessions to list")
}

func printStats(w io.Writer, user string, mirror persist.MirrorStats, totals store.Totals, recent []store.SessionRecord, now time.Time) {
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	good := color.New(color.FgGreen).SprintFunc()

	fmt.Fprintf(w, "%s %s\n\n", bold("Stats for"), bold(user))

	best := "-"
	if mirror.BestScore != nil {
		best = humanize.Comma(int64(*mirror.BestScore))
	}
	last := "never"
	if mirror.LastSession != nil {
		last = humanize.RelTime(*mirror.LastSession, now, "ago", "from now")
	}
	fmt.Fprintf(w, "  Sessions:      %s\n", humanize.Comma(int64(len(mirror.Sessions))))
	fmt.Fprintf(w, "  Best score:    %s\n", good(best))
	fmt.Fprintf(w, "  Last session:  %s\n", last)

	if totals.Sessions > 0 {
		fmt.Fprintf(w, "\n%s\n", bold("Local journal"))
		fmt.Fprintf(w, "  Problems:      %s attempted, %s correct (%.0f%%)\n",
			humanize.Comma(int64(totals.Attempted)), humanize.Comma(int64(totals.Correct)), totals.Accuracy()*100)
		fmt.Fprintf(w, "  Time spent:    %s\n", totals.TotalTime.Round(time.Second))
	}

	if len(recent) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", bold("Recent sessions"))
	for _, r := range recent {
		set := r.Contest
		if r.Year > 0 {
			set = fmt.Sprintf("%s %d", r.Contest, r.Year)
		}
		fmt.Fprintf(w, "  %-14s %-9s %2d/%-2d  %8s  %s\n",
			set, r.Mode, r.Score, r.Attempted, r.TotalTime.Round(time.Second),
			dim(humanize.Time(r.CompletedAt)))
	}
}
