package cli

import (
	"context"
	"fmt"

	"github.com/beam-cloud/satchel/pkg/repository"
	"github.com/beam-cloud/satchel/pkg/types"
	"github.com/spf13/cobra"
)

var tokenName string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage webhook tokens",
}

var tokenCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a webhook token",
	RunE: func(cmd *cobra.Command, args []string) error {
		var backend repository.BackendRepository
		var token *types.WebhookToken
		var rawToken string

		err := RunSpinnerWithResult("Creating token...", func() error {
			var err error
			backend, err = openBackend()
			if err != nil {
				return err
			}

			token, rawToken, err = backend.CreateWebhookToken(context.Background(), tokenName)
			return err
		})

		if backend != nil {
			defer backend.Close()
		}

		if err != nil {
			PrintFormattedError(err)
			return nil
		}

		if PrintJSON(map[string]string{"id": token.ExternalId, "name": token.Name, "token": rawToken}) {
			return nil
		}

		PrintSuccess("Token created")
		PrintNewline()

		// Show the token prominently - it's a one-time display
		fmt.Printf("  %s\n", BoldStyle.Render("Token:"))
		fmt.Printf("  %s\n", CodeStyle.Render(rawToken))
		PrintNewline()

		PrintKeyValue("ID", token.ExternalId)
		PrintKeyValue("Name", token.Name)
		PrintNewline()

		PrintWarning("Save this token! It won't be shown again.")
		return nil
	},
}

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List webhook tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openBackend()
		if err != nil {
			PrintFormattedError(err)
			return nil
		}
		defer backend.Close()

		tokens, err := backend.ListWebhookTokens(context.Background())
		if err != nil {
			PrintFormattedError(err)
			return nil
		}

		// JSON output
		if PrintJSON(tokens) {
			return nil
		}

		if len(tokens) == 0 {
			PrintInfo("No tokens found")
			PrintHint("Create one with: satchel token create --name <name>")
			return nil
		}

		PrintHeader("Webhook Tokens")

		table := NewTable("ID", "NAME", "CREATED", "LAST USED")
		for _, t := range tokens {
			lastUsed := "-"
			if t.LastUsedAt != nil {
				lastUsed = FormatRelativeTime(*t.LastUsedAt)
			}
			table.AddRow(t.ExternalId, t.Name, FormatRelativeTime(t.CreatedAt), lastUsed)
		}
		table.Print()
		PrintNewline()

		return nil
	},
}

var tokenRevokeCmd = &cobra.Command{
	Use:   "revoke <token_id>",
	Short: "Revoke a webhook token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var backend repository.BackendRepository

		err := RunSpinnerWithResult("Revoking token...", func() error {
			var err error
			backend, err = openBackend()
			if err != nil {
				return err
			}

			return backend.RevokeWebhookToken(context.Background(), args[0])
		})

		if backend != nil {
			defer backend.Close()
		}

		if err != nil {
			PrintFormattedError(err)
			return nil
		}

		PrintSuccessf("Token %s revoked", CodeStyle.Render(args[0]))
		return nil
	},
}

func init() {
	tokenCreateCmd.Flags().StringVar(&tokenName, "name", "Webhook Token", "Token name")

	tokenCmd.AddCommand(tokenCreateCmd)
	tokenCmd.AddCommand(tokenListCmd)
	tokenCmd.AddCommand(tokenRevokeCmd)
}
