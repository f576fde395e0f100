package commands

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) plotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plots",
		Short: "Write distance heatmaps, distortion curves and sip.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			res, err := a.newAnalyzer().Process(cmd.Context())
			if err != nil {
				return err
			}

			for _, art := range res.Artifacts {
				if art.Err != nil {
					fmt.Printf("  %-16s FAILED: %v\n", art.Name, art.Err)
					continue
				}
				fmt.Printf("  %-16s %s\n", art.Name, art.Path)
			}
			a.logger.Infow("analysis finished", "elapsed", time.Since(start), "output", a.cfg.Output.Dir)

			if failed := res.Failed(); len(failed) > 0 {
				return errors.Errorf("%d of %d artifacts failed", len(failed), len(res.Artifacts))
			}
			return nil
		},
	}
}
