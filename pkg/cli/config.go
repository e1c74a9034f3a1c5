package cli

import (
	"fmt"

	"github.com/beam-cloud/satchel/pkg/common"
	"github.com/beam-cloud/satchel/pkg/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect gateway configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  "Print the merged configuration: embedded defaults, then the --config file, then CONFIG_JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		configManager, err := common.NewConfigManager[types.AppConfig]()
		if err != nil {
			PrintFormattedError(err)
			return nil
		}

		if PrintJSON(configManager.Print()) {
			return nil
		}

		out, err := yaml.Marshal(configManager.Raw())
		if err != nil {
			PrintFormattedError(err)
			return nil
		}

		fmt.Print(string(out))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
