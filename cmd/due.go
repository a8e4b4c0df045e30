package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/singular/internal/srs"
)

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "Show the review queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, st, cfg, err := buildService(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			limit = cfg.Intake.DefaultLimit
		}
		includeNew, _ := cmd.Flags().GetBool("new")

		now := time.Now().UTC()
		queue, err := svc.DueCards(cmd.Context(), now, limit, includeNew)
		if err != nil {
			return err
		}
		if len(queue) == 0 {
			fmt.Println("Nothing due. Come back later.")
			return nil
		}

		rows := make([][]string, 0, len(queue))
		for _, cs := range queue {
			due := "now"
			if cs.State.State == srs.StateNew {
				due = "new"
			} else if days := cs.State.OverdueDays(now); days >= 1 {
				due = fmt.Sprintf("%.0fd overdue", days)
			}
			rows = append(rows, []string{
				cs.Card.ID,
				string(cs.Card.Category),
				string(cs.State.State),
				due,
				cs.Card.Front,
			})
		}
		fmt.Println(renderTable(
			[]string{"ID", "Category", "State", "Due", "Front"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		))
		return nil
	},
}

func init() {
	dueCmd.Flags().Int("limit", 0, "Maximum cards to list (default from config)")
	dueCmd.Flags().Bool("new", true, "Include new cards up to the daily quota")
}
