package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lensdist/pkg/analysis"
	"lensdist/pkg/config"
	"lensdist/pkg/geometry"
	"lensdist/pkg/lensdb"
)

// app holds the state shared by one command tree.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	db     *lensdb.Database
	logger *zap.SugaredLogger

	// overrides applied on top of the config file
	lensMaker   string
	lensModel   string
	focalLength float64
	width       int
	height      int
}

// Execute builds the command tree and runs it.
func Execute() error {
	root, _ := newRootCmd()
	return root.Execute()
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:           "lensdist",
		Short:         "Lens distortion fields and SIP coefficient export",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "lensdist.yaml", "configuration file")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	flags.StringVar(&a.lensMaker, "lens-maker", "", "lens maker (overrides config)")
	flags.StringVar(&a.lensModel, "lens-model", "", "lens model (overrides config)")
	flags.Float64Var(&a.focalLength, "focal", 0, "focal length in mm (overrides config)")
	flags.IntVar(&a.width, "width", 0, "image width in px (overrides config)")
	flags.IntVar(&a.height, "height", 0, "image height in px (overrides config)")

	root.AddCommand(a.plotsCmd(), a.sipCmd(), a.curveCmd(), a.initConfigCmd())
	return root, a
}

func (a *app) setup(cmd *cobra.Command) error {
	var err error
	if a.logger, err = newLogger(a.verbose); err != nil {
		return err
	}
	if cmd.Name() == "init-config" {
		return nil
	}
	if a.cfg, err = config.LoadConfig(a.configPath); err != nil {
		return err
	}
	a.applyOverrides(cmd)
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	if a.cfg.Database.Path == "" {
		a.db, err = lensdb.Default()
	} else {
		a.db, err = lensdb.Load(a.cfg.Database.Path)
	}
	return err
}

func (a *app) applyOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("lens-maker") {
		a.cfg.Lens.Maker = a.lensMaker
		a.cfg.Lens.Model = ""
	}
	if flags.Changed("lens-model") {
		a.cfg.Lens.Model = a.lensModel
	}
	if flags.Changed("focal") {
		a.cfg.Shot.FocalLength = a.focalLength
	}
	if flags.Changed("width") {
		a.cfg.Image.Width = a.width
	}
	if flags.Changed("height") {
		a.cfg.Image.Height = a.height
	}
}

func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	zcfg := zap.NewDevelopmentConfig()
	zcfg.DisableStacktrace = true
	if !verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	l, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

func (a *app) newAnalyzer() *analysis.Analyzer {
	engine := geometry.NewCachedEngine(geometry.NewModifier())
	return analysis.NewAnalyzer(a.cfg, a.db, engine, a.logger)
}
