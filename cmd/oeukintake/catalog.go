package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrsinham/oeukintake/internal/questionnaire"
	"github.com/mrsinham/oeukintake/internal/record"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the questionnaire step catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "print",
		Short: "Print the built-in catalog as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := questionnaire.Default()
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cat); err != nil {
				return fmt.Errorf("encode catalog: %w", err)
			}
			return enc.Close()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "validate [file]",
		Short: "Check a catalog against the stored field set",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				cat *questionnaire.Catalog
				err error
			)
			if len(args) == 0 {
				cat, err = questionnaire.Default()
			} else {
				cat, err = readCatalog(afero.NewOsFs(), args[0])
			}
			if err != nil {
				return err
			}
			sections := map[string]bool{}
			for _, s := range cat.Steps {
				sections[s.Section] = true
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Catalog OK: %d steps in %d sections\n", len(cat.Steps), len(sections))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema submissions are validated against",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(record.SubmissionSchema())
		},
	})
	return cmd
}

// readCatalog parses a catalog file and checks it against the field set.
func readCatalog(fs afero.Fs, path string) (*questionnaire.Catalog, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	cat, err := questionnaire.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cat.CheckFields(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}
