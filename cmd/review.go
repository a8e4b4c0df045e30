package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/singular/internal/srs"
)

var reviewCmd = &cobra.Command{
	Use:   "review <card-id>",
	Short: "Record an answer for a card",
	Long: "Record an answer for a card. Pass --quality for a self-rated\n" +
		"answer, or --correct/--wrong (optionally with --latency-ms and\n" +
		"--error-category) for an auto-graded one.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sig, err := signalFromFlags(cmd)
		if err != nil {
			return err
		}

		svc, st, _, err := buildService(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		res, err := svc.RecordAttempt(cmd.Context(), args[0], sig, time.Now().UTC())
		if err != nil {
			return err
		}

		fmt.Printf("Quality %d — %s\n", res.Quality, res.Feedback)
		fmt.Printf("State: %s, next review in %d day(s) (%s)\n",
			res.NewState, res.NewIntervalDays, res.NextDue.Format("2006-01-02"))
		return nil
	},
}

func signalFromFlags(cmd *cobra.Command) (srs.Signal, error) {
	quality, _ := cmd.Flags().GetInt("quality")
	correct, _ := cmd.Flags().GetBool("correct")
	wrong, _ := cmd.Flags().GetBool("wrong")
	latency, _ := cmd.Flags().GetInt("latency-ms")
	errCat, _ := cmd.Flags().GetString("error-category")

	graded := correct || wrong
	if cmd.Flags().Changed("quality") && graded {
		return srs.Signal{}, fmt.Errorf("--quality and --correct/--wrong are mutually exclusive")
	}
	if correct && wrong {
		return srs.Signal{}, fmt.Errorf("--correct and --wrong are mutually exclusive")
	}

	if graded {
		return srs.Signal{
			Kind:          srs.SignalAutoGraded,
			Correct:       correct,
			LatencyMs:     latency,
			ErrorCategory: errCat,
		}, nil
	}
	if !cmd.Flags().Changed("quality") {
		return srs.Signal{}, fmt.Errorf("one of --quality or --correct/--wrong is required")
	}
	return srs.Signal{Kind: srs.SignalSelfRated, Rating: quality}, nil
}

func init() {
	reviewCmd.Flags().Int("quality", -1, "Self-rated quality 0-5")
	reviewCmd.Flags().Bool("correct", false, "Auto-graded answer was correct")
	reviewCmd.Flags().Bool("wrong", false, "Auto-graded answer was wrong")
	reviewCmd.Flags().Int("latency-ms", 0, "Response latency in milliseconds")
	reviewCmd.Flags().String("error-category", "", "Error category identified by the grader")
}
