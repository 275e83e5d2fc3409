package display

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/ramonehamilton/skillrating/internal/metrics"
	"github.com/ramonehamilton/skillrating/internal/simulation"
	"github.com/ramonehamilton/skillrating/internal/storage/models"
	"github.com/ramonehamilton/skillrating/internal/trueskill"
)

// WriteLeaderboard writes players ranked by exposed rating. A limit of 0
// writes everyone. A performance column is added when the run tracked it.
func WriteLeaderboard(w io.Writer, model *trueskill.Model, report *simulation.Report, limit int) error {
	board := report.Leaderboard()
	if limit > 0 && limit < len(board) {
		board = board[:limit]
	}

	withPerf := len(board) > 0 && board[0].Performance != nil

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "#\tPlayer\tMu\tSigma\tExposed\tHidden\tDeviation\tMatches\t")
	if withPerf {
		fmt.Fprintf(tw, "Performance\t")
	}
	fmt.Fprintln(tw)
	for i, p := range board {
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%.1f\t%.1f\t%.1f\t%s\t%d\t",
			i+1, p.Name, p.Visible.Mu, p.Visible.Sigma, p.Exposed, p.HiddenSkill,
			FormatSkillChange(model, p.Deviation), p.Matches)
		if withPerf {
			if p.Performance != nil {
				fmt.Fprintf(tw, "%.1f\t", p.Performance.Mu)
			} else {
				fmt.Fprintf(tw, "-\t")
			}
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// WriteStoredLeaderboard writes leaderboard rows read from the roster store.
func WriteStoredLeaderboard(w io.Writer, entries []*models.LeaderboardEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No rated players.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "#\tPlayer\tMu\tSigma\tMatches\t\n")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%.1f\t%d\t\n", i+1, e.Name, e.Mu, e.Sigma, e.MatchesPlayed)
	}
	return tw.Flush()
}

// WriteReport writes a summary of a simulation run.
func WriteReport(w io.Writer, report *simulation.Report) error {
	d := report.Deviations
	_, err := fmt.Fprintf(w,
		"Track %s: %d players, %d matches in %s\n"+
			"  |visible - hidden|: mean %.1f, p50 %.1f, p90 %.1f, max %.1f\n"+
			"  weakest beats strongest: %.2f%%\n",
		report.Track, len(report.Players), report.Matches, report.Duration.Round(time.Millisecond),
		report.MeanAbsDeviation, d.P50, d.P90, report.MaxDeviation,
		report.ExtremesWinProbability*100,
	)
	return err
}

// WriteStats writes the counters and latencies of a simulation.
func WriteStats(w io.Writer, stats *metrics.SimulationStats) error {
	_, err := fmt.Fprintf(w,
		"Matches: %d (%.1f/s, %d errors) in %s\n"+
			"  match latency ms: mean %.2f, p90 %.2f, p99 %.2f\n"+
			"  match quality: mean %.3f, min %.3f\n"+
			"  |mu change| per match: mean %.2f, p99 %.2f\n",
		stats.MatchesPlayed, stats.MatchesPerSec, stats.RatingErrors, stats.Elapsed,
		stats.MatchLatency.Mean, stats.MatchLatency.P90, stats.MatchLatency.P99,
		stats.MatchQuality.Mean, stats.MatchQuality.Min,
		stats.SkillChange.Mean, stats.SkillChange.P99,
	)
	return err
}
