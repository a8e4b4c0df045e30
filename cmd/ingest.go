package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/singular/internal/card"
)

// ingestFileCard mirrors the JSON the content-generation pipeline emits per
// card. Missing ids are minted at ingestion.
type ingestFileCard struct {
	ID       string `json:"id"`
	Lesson   string `json:"lesson"`
	Category string `json:"category"`
	SubType  string `json:"sub_type"`
	Front    string `json:"front"`
	Back     string `json:"back"`
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <cards.json>",
	Short: "Import generated cards and start tracking them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read cards file: %w", err)
		}

		var fileCards []ingestFileCard
		if err := json.Unmarshal(raw, &fileCards); err != nil {
			return fmt.Errorf("parse cards file: %w", err)
		}
		if len(fileCards) == 0 {
			return fmt.Errorf("no cards in %s", args[0])
		}

		cards := make([]card.Card, 0, len(fileCards))
		for _, fc := range fileCards {
			cards = append(cards, card.Card{
				ID:       fc.ID,
				Lesson:   fc.Lesson,
				Category: card.Category(fc.Category),
				SubType:  card.SubType(fc.SubType),
				Front:    fc.Front,
				Back:     fc.Back,
			})
		}

		svc, st, _, err := buildService(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := svc.Ingest(cmd.Context(), cards, time.Now().UTC())
		if err != nil {
			return err
		}
		fmt.Printf("Ingested %d cards.\n", n)
		return nil
	},
}
