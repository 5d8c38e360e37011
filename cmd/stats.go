package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/davidbz/repeatguard/internal/domain"
)

func newStatsCmd() *cobra.Command {
	var identity string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show how similar an identity's recent prompts are to each other",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(service *domain.SimilarityService) error {
				stats, err := service.GetUserStats(cmd.Context(), identity)
				if err != nil {
					return err
				}

				fmt.Printf("Messages: %d\n", stats.TotalMessages)
				fmt.Printf("Average similarity: %.1f%%\n", stats.AverageSimilarity*100)
				if len(stats.TopSimilarPairs) == 0 {
					return nil
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "\nSIMILARITY\tFIRST PROMPT\tSECOND PROMPT")
				for _, pair := range stats.TopSimilarPairs {
					fmt.Fprintf(w, "%.1f%%\t%s\t%s\n", pair.Similarity*100, pair.FirstPrompt, pair.SecondPrompt)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&identity, "identity", "", "wallet address to analyze")
	_ = cmd.MarkFlagRequired("identity")

	return cmd
}
