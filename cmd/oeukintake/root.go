package main

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mrsinham/oeukintake/cmd/oeukintake/wizard/components"
	"github.com/mrsinham/oeukintake/internal/config"
	"github.com/mrsinham/oeukintake/internal/logging"
)

// app holds what every subcommand shares once flags are parsed.
type app struct {
	envFile string
	logFile string

	cfg    *config.Config
	logger zerolog.Logger
	closer io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "oeukintake",
		Short:         "Offshore medical intake questionnaire",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.envFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logging.New(cfg.Env, cfg.LogLevel, cmd.ErrOrStderr())
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.closer != nil {
				return a.closer.Close()
			}
			return nil
		},
		RunE: func(c *cobra.Command, _ []string) error { return c.Help() },
	}
	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Settings file in KEY=value form; the environment wins")

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newWizardCmd(a))
	cmd.AddCommand(newReviewCmd(a))
	cmd.AddCommand(newExportCmd(a))
	cmd.AddCommand(newCatalogCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// useLogFile points the logger at a file, for commands that own the terminal.
func (a *app) useLogFile() error {
	w, err := logging.OpenFile(a.logFile)
	if err != nil {
		return err
	}
	a.closer = w
	a.logger = logging.New("production", a.cfg.LogLevel, w)
	return nil
}

func (a *app) branding() components.Branding {
	return components.Branding{
		Name:     a.cfg.PracticeName,
		Subtitle: a.cfg.PracticeSubtitle,
		Contact:  a.cfg.PracticeContact,
	}
}

func addLogFileFlag(cmd *cobra.Command, a *app) {
	cmd.Flags().StringVar(&a.logFile, "log-file", logging.DefaultFile(), `Log destination while the screen is in use ("-" disables)`)
}
