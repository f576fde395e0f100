package commands

import (
	"os"

	"github.com/spf13/cobra"

	"lensdist/pkg/analysis"
	"lensdist/pkg/sip"
)

func (a *app) sipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sip",
		Short: "Print the SIP coefficients of the configured lens as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.newAnalyzer().Resolve()
			if err != nil {
				return err
			}
			set, err := sip.FromModel(res.Model, a.cfg.Image.Width, a.cfg.Image.Height)
			if err != nil {
				return err
			}
			a.logger.Debugw("converted", "model", res.Model.String(), "scale", set.Scale)
			return analysis.WriteKeywords(os.Stdout, set.Keywords())
		},
	}
}
