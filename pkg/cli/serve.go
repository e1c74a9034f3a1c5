package cli

import (
	"github.com/beam-cloud/satchel/pkg/gateway"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the satchel gateway",
	Long:  "Start the webhook gateway and serve until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := gateway.NewGateway()
		if err != nil {
			PrintFormattedError(err)
			return nil
		}

		if err := gw.Start(); err != nil {
			PrintFormattedError(err)
			return nil
		}

		return nil
	},
}
