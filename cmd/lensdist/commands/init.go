package commands

import (
	"github.com/spf13/cobra"

	"lensdist/pkg/config"
)

func (a *app) initConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write the default configuration to --config",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CreateDefaultConfigFile(a.configPath); err != nil {
				return err
			}
			a.logger.Infow("configuration written", "path", a.configPath)
			return nil
		},
	}
}
