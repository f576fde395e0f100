package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"lensdist/pkg/analysis"
)

func (a *app) curveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "curve",
		Short: "Print the relative distortion and its derivative over the image radius",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.newAnalyzer().Resolve()
			if err != nil {
				return err
			}
			curve, err := analysis.SampleCurve(res.Model, res.Geometry, a.cfg.Output.Samples)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetTitle(fmt.Sprintf("%s at %gmm (%s)", res.Lens.ID(), res.FocalLength, res.Model))
			t.AppendHeader(table.Row{"h (mm)", "ru", "D (%)", "dD/dh (1/mm)"})
			for i, x := range curve.Radius {
				t.AppendRow(table.Row{
					fmt.Sprintf("%.3f", x),
					fmt.Sprintf("%.4f", res.Geometry.Normalize(x)),
					fmt.Sprintf("%.4f", curve.Distortion[i]),
					fmt.Sprintf("%.5f", curve.Derivative[i]),
				})
			}
			t.Render()
			return nil
		},
	}
}
