package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davidbz/repeatguard/internal/domain"
)

func newIngestCmd() *cobra.Command {
	var (
		identity string
		jobID    string
		prompt   string
		response string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Append a prompt and its response to an identity's history",
		Long: "Append a prompt and its response to an identity's history.\n\n" +
			"A running server keeps serving its cached history until the cache TTL expires.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(writer domain.HistoryWriter) error {
				ctx := cmd.Context()

				user, err := writer.Append(ctx, identity, domain.StoredMessage{
					Role:    domain.RoleUser,
					Content: domain.PlainText(prompt),
					JobID:   jobID,
				})
				if err != nil {
					return fmt.Errorf("failed to store prompt: %w", err)
				}

				assistant, err := writer.Append(ctx, identity, domain.StoredMessage{
					Role:    domain.RoleAssistant,
					Content: domain.PlainText(response),
					JobID:   jobID,
				})
				if err != nil {
					return fmt.Errorf("failed to store response: %w", err)
				}

				fmt.Printf("stored %s (#%d) and %s (#%d)\n", user.ID, user.OrderIndex, assistant.ID, assistant.OrderIndex)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&identity, "identity", "", "wallet address owning the history")
	cmd.Flags().StringVar(&jobID, "job", "", "job id of the exchange")
	cmd.Flags().StringVar(&prompt, "prompt", "", "user prompt")
	cmd.Flags().StringVar(&response, "response", "", "assistant response")
	for _, name := range []string{"identity", "prompt", "response"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}
