package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mrsinham/oeukintake/cmd/oeukintake/review"
	"github.com/mrsinham/oeukintake/cmd/oeukintake/wizard"
	"github.com/mrsinham/oeukintake/internal/client"
	"github.com/mrsinham/oeukintake/internal/photo"
	"github.com/mrsinham/oeukintake/internal/questionnaire"
)

func newWizardCmd(a *app) *cobra.Command {
	var (
		catalogFile string
		noCamera    bool
	)
	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Fill in the questionnaire, one question per screen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.AutoAdvanceDelay < 0 {
				return fmt.Errorf("AUTO_ADVANCE_DELAY must not be negative, got %s", a.cfg.AutoAdvanceDelay)
			}
			cat, err := loadCatalog(catalogFile)
			if err != nil {
				return err
			}
			if err := a.useLogFile(); err != nil {
				return err
			}

			var cam photo.Camera
			if !noCamera {
				cam = photo.NewCommandCamera(a.cfg.CameraCommand)
			}
			a.logger.Info().Str("api", a.cfg.APIURL).Int("steps", len(cat.Steps)).Msg("wizard started")
			return wizard.Run(cmd.Context(), wizard.Options{
				Catalog:          cat,
				Submitter:        client.New(a.cfg.APIURL, client.WithLogger(a.logger)),
				Branding:         a.branding(),
				Camera:           cam,
				Fs:               afero.NewOsFs(),
				AutoAdvanceDelay: a.cfg.AutoAdvanceDelay,
				Logger:           a.logger,
			})
		},
	}
	cmd.Flags().StringVar(&catalogFile, "catalog", "", "Step catalog YAML (default: built-in questionnaire)")
	cmd.Flags().BoolVar(&noCamera, "no-camera", false, "Only offer file selection for the photo")
	addLogFileFlag(cmd, a)
	return cmd
}

func newReviewCmd(a *app) *cobra.Command {
	var (
		exportDir   string
		institution string
	)
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Browse submitted questionnaires as a physician",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.useLogFile(); err != nil {
				return err
			}
			if institution == "" {
				institution = a.cfg.PracticeName
			}
			return review.Run(cmd.Context(), review.Options{
				Backend:         client.New(a.cfg.APIURL, client.WithLogger(a.logger)),
				Branding:        a.branding(),
				ExportDir:       exportDir,
				InstitutionName: institution,
				Logger:          a.logger,
			})
		},
	}
	cmd.Flags().StringVar(&exportDir, "export-dir", "dicom_export", "Default directory offered for DICOM export")
	cmd.Flags().StringVar(&institution, "institution", "", "DICOM institution name (default: practice name)")
	addLogFileFlag(cmd, a)
	return cmd
}

func loadCatalog(path string) (*questionnaire.Catalog, error) {
	if path == "" {
		return questionnaire.Default()
	}
	return readCatalog(afero.NewOsFs(), path)
}
