package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/beam-cloud/satchel/pkg/repository"
	"github.com/beam-cloud/satchel/pkg/types"
	"github.com/spf13/cobra"
)

var (
	connUser         string
	connRefreshToken string
	connAccessToken  string
)

var connectionCmd = &cobra.Command{
	Use:     "connection",
	Aliases: []string{"conn"},
	Short:   "Manage Drive connections",
}

var connectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List connected users",
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openBackend()
		if err != nil {
			PrintFormattedError(err)
			return nil
		}
		defer backend.Close()

		connections, err := backend.ListConnections(context.Background())
		if err != nil {
			PrintFormattedError(err)
			return nil
		}

		// JSON output
		if PrintJSON(connections) {
			return nil
		}

		if len(connections) == 0 {
			PrintInfo("No connections found")
			PrintHint("Users connect by sending SETUP in the chat")
			return nil
		}

		PrintHeader("Drive Connections")

		table := NewTable("USER", "CONNECTED", "UPDATED")
		for _, c := range connections {
			table.AddRow(c.UserId, FormatRelativeTime(c.CreatedAt), FormatRelativeTime(c.UpdatedAt))
		}
		table.Print()
		PrintNewline()

		return nil
	},
}

var connectionShowCmd = &cobra.Command{
	Use:   "show <user_id>",
	Short: "Show a user's connection details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openBackend()
		if err != nil {
			PrintFormattedError(err)
			return nil
		}
		defer backend.Close()

		userId := types.CanonicalUserID(args[0])
		connection, err := backend.GetConnection(context.Background(), userId)
		if err != nil {
			PrintFormattedError(err)
			return nil
		}
		if connection == nil {
			PrintErrorMsg(fmt.Sprintf("No connection found for %s", userId))
			return nil
		}

		creds, err := repository.DecodeCredentials(connection)
		if err != nil {
			PrintFormattedError(err)
			return nil
		}

		refreshToken := "missing"
		if creds.RefreshToken != "" {
			refreshToken = "present"
		}
		accessToken := "none cached"
		if creds.AccessToken != "" {
			accessToken = "cached"
			if creds.ExpiresAt != nil {
				accessToken = fmt.Sprintf("cached, expires %s", creds.ExpiresAt.Format(time.RFC3339))
			}
		}

		if PrintJSON(map[string]interface{}{
			"user_id":       connection.UserId,
			"external_id":   connection.ExternalId,
			"refresh_token": refreshToken,
			"access_token":  accessToken,
			"created_at":    connection.CreatedAt,
			"updated_at":    connection.UpdatedAt,
		}) {
			return nil
		}

		PrintHeader("Connection")
		PrintKeyValue("User", connection.UserId)
		PrintKeyValue("ID", connection.ExternalId)
		PrintKeyValue("Refresh token", refreshToken)
		PrintKeyValue("Access token", accessToken)
		PrintKeyValue("Connected", FormatRelativeTime(connection.CreatedAt))
		PrintKeyValue("Updated", FormatRelativeTime(connection.UpdatedAt))
		PrintNewline()

		return nil
	},
}

var connectionClearCmd = &cobra.Command{
	Use:   "clear <user_id>",
	Short: "Remove a user's connection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var backend repository.BackendRepository
		userId := types.CanonicalUserID(args[0])

		err := RunSpinnerWithResult("Removing connection...", func() error {
			var err error
			backend, err = openBackend()
			if err != nil {
				return err
			}

			return backend.DeleteConnection(context.Background(), userId)
		})

		if backend != nil {
			defer backend.Close()
		}

		if errors.Is(err, sql.ErrNoRows) {
			PrintErrorMsg(fmt.Sprintf("No connection found for %s", userId))
			return nil
		}
		if err != nil {
			PrintFormattedError(err)
			return nil
		}

		PrintSuccessf("Connection for %s removed", CodeStyle.Render(userId))
		return nil
	},
}

var connectionSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Store a connection from an existing refresh token",
	Long: `Store Drive credentials directly, bypassing the SETUP flow.

Useful when migrating credentials from another deployment or seeding a
test environment with a refresh token obtained elsewhere.

Examples:
  satchel connection seed --user +14155550100 --refresh-token 1//0abc...
  satchel connection seed --user whatsapp:+14155550100 --refresh-token 1//0abc... --access-token ya29...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if connUser == "" || connRefreshToken == "" {
			PrintErrorMsg("Both --user and --refresh-token are required")
			return nil
		}

		var backend repository.BackendRepository
		userId := types.CanonicalUserID(connUser)
		creds := &types.DriveCredentials{
			RefreshToken: connRefreshToken,
			AccessToken:  connAccessToken,
		}

		err := RunSpinnerWithResult("Storing connection...", func() error {
			var err error
			backend, err = openBackend()
			if err != nil {
				return err
			}

			_, err = backend.SaveConnection(context.Background(), userId, creds)
			return err
		})

		if backend != nil {
			defer backend.Close()
		}

		if err != nil {
			PrintFormattedError(err)
			return nil
		}

		PrintSuccessf("Connection stored for %s", CodeStyle.Render(userId))
		return nil
	},
}

func init() {
	connectionSeedCmd.Flags().StringVar(&connUser, "user", "", "Chat sender id (e.g. whatsapp:+14155550100)")
	connectionSeedCmd.Flags().StringVar(&connRefreshToken, "refresh-token", "", "OAuth refresh token")
	connectionSeedCmd.Flags().StringVar(&connAccessToken, "access-token", "", "OAuth access token (optional)")

	connectionCmd.AddCommand(connectionListCmd)
	connectionCmd.AddCommand(connectionShowCmd)
	connectionCmd.AddCommand(connectionClearCmd)
	connectionCmd.AddCommand(connectionSeedCmd)
}
