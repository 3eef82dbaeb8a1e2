package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/partsdesk/internal/core"
)

func newTemplateCmd() *cobra.Command {
	var (
		format  string
		kind    string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an import template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := templateSchema(kind)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if outPath != "" && outPath != "-" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			switch format {
			case "csv":
				err = core.WriteTemplateCSV(w, schema)
			case "xlsx":
				err = core.WriteTemplateXLSX(w, schema)
			default:
				return fmt.Errorf("%w: format %q (use csv or xlsx)", core.ErrUnsupportedFile, format)
			}
			if err != nil {
				return err
			}
			if outPath != "" && outPath != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", outPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "template format: csv or xlsx")
	cmd.Flags().StringVar(&kind, "kind", "", "component kind; purchase items when empty")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (stdout when empty)")
	return cmd
}

func templateSchema(kind string) (core.ImportSchema, error) {
	if kind == "" {
		s, ok := core.GetSchema(core.ItemSchemaKey)
		if !ok {
			return core.ImportSchema{}, fmt.Errorf("item schema not registered")
		}
		return s, nil
	}
	k, err := core.ParseComponentKind(kind)
	if err != nil {
		return core.ImportSchema{}, err
	}
	return core.ComponentSchema(k)
}
