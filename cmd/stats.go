package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/singular/internal/srs"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning progress and active weaknesses",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, st, _, err := buildService(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		now := time.Now().UTC()

		stats, err := svc.ProgressStats(ctx, now)
		if err != nil {
			return err
		}

		rows := [][]string{
			{"Total cards", fmt.Sprintf("%d", stats.TotalCards)},
			{"New", fmt.Sprintf("%d", stats.ByState[srs.StateNew])},
			{"Learning", fmt.Sprintf("%d", stats.ByState[srs.StateLearning])},
			{"Review", fmt.Sprintf("%d", stats.ByState[srs.StateReview])},
			{"Relearning", fmt.Sprintf("%d", stats.ByState[srs.StateRelearning])},
			{"Due now", fmt.Sprintf("%d", stats.DueNow)},
			{"Mastered", fmt.Sprintf("%d", stats.Mastered)},
			{"Reviews (7d)", fmt.Sprintf("%d", stats.Reviews7d)},
			{"Accuracy (7d)", fmt.Sprintf("%.1f%%", stats.Accuracy7d)},
		}
		fmt.Println(renderTable(
			[]string{"Metric", "Value"},
			rows,
			[]columnAlignment{alignLeft, alignRight},
		))

		snap, err := svc.Snapshot(ctx, now)
		if err != nil {
			return err
		}

		fmt.Printf("\nDaily new-card limit: %d\n", snap.DailyNewLimit)
		if !snap.HasActiveWeaknesses {
			fmt.Println("No active weaknesses detected.")
			return nil
		}

		fmt.Printf("Recommended practice: %s\n\n", snap.RecommendedCategory)
		prows := make([][]string, 0, len(snap.ActivePatterns))
		for _, p := range snap.ActivePatterns {
			prows = append(prows, []string{
				string(p.Type),
				fmt.Sprintf("%d", p.SampleSize),
				fmt.Sprintf("%.0f%%", p.ErrorRate*100),
				fmt.Sprintf("%.2f", p.Severity),
				p.LastSeen.Format("2006-01-02"),
			})
		}
		fmt.Println(renderTable(
			[]string{"Pattern", "Sample", "Error rate", "Severity", "Last seen"},
			prows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
		))
		return nil
	},
}
