package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/davidbz/repeatguard/internal/domain"
)

func newCheckCmd() *cobra.Command {
	var (
		identity  string
		prompt    string
		jobID     string
		duplicate bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a prompt through the engine and print the enriched request",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(service *domain.SimilarityService) error {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")

				if duplicate {
					return enc.Encode(service.IsPromptTooSimilar(cmd.Context(), prompt, identity, jobID))
				}

				return enc.Encode(service.ProcessRequest(cmd.Context(), domain.ChatRequest{
					Prompt: prompt,
					JobID:  jobID,
				}, identity))
			})
		},
	}

	cmd.Flags().StringVar(&identity, "identity", "", "wallet address whose history is searched")
	cmd.Flags().StringVar(&prompt, "prompt", "", "prompt to check")
	cmd.Flags().StringVar(&jobID, "job", "", "current job id, excluded from history")
	cmd.Flags().BoolVar(&duplicate, "duplicate", false, "only report whether the prompt is too similar to history")
	_ = cmd.MarkFlagRequired("identity")
	_ = cmd.MarkFlagRequired("prompt")

	return cmd
}
