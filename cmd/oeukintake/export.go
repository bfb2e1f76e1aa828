package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrsinham/oeukintake/internal/client"
	"github.com/mrsinham/oeukintake/internal/dicom"
	"github.com/mrsinham/oeukintake/internal/record"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		outDir      string
		institution string
		remote      bool
		dicomdir    bool
	)
	cmd := &cobra.Command{
		Use:   "export-dicom <record-id>...",
		Short: "Write the photo and signature of records as DICOM Secondary Capture files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, len(args))
			for i, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil || id <= 0 {
					return fmt.Errorf("invalid record id %q", arg)
				}
				ids[i] = id
			}

			ctx := cmd.Context()
			var get func(context.Context, int64) (*record.Record, error)
			if remote {
				get = client.New(a.cfg.APIURL, client.WithLogger(a.logger)).Get
			} else {
				if err := a.cfg.Validate(); err != nil {
					return err
				}
				repo, err := openStore(ctx, a)
				if err != nil {
					return err
				}
				defer repo.Close()
				get = repo.Get
			}

			if institution == "" {
				institution = a.cfg.PracticeName
			}
			opts := dicom.Options{InstitutionName: institution}
			for _, id := range ids {
				rec, err := get(ctx, id)
				if err != nil {
					return fmt.Errorf("record %d: %w", id, err)
				}
				files, err := dicom.ExportRecord(rec, outDir, opts)
				if err != nil {
					return fmt.Errorf("record %d: %w", id, err)
				}
				for _, f := range files {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%dx%d\n", f.Path, f.Kind, f.Columns, f.Rows)
				}
				a.logger.Info().Int64("id", id).Int("files", len(files)).Str("dir", outDir).Msg("dicom export")
			}
			if !dicomdir {
				return nil
			}
			path, err := dicom.WriteDICOMDIR(outDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\tindex\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "output", "o", "dicom_export", "Output directory")
	cmd.Flags().StringVar(&institution, "institution", "", "DICOM institution name (default: practice name)")
	cmd.Flags().BoolVar(&dicomdir, "dicomdir", true, "Rebuild the DICOMDIR index of the output directory")
	cmd.Flags().BoolVar(&remote, "remote", false, "Fetch records from API_URL instead of the database")
	return cmd
}
