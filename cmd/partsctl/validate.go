package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/partsdesk/internal/core"
)

type validateOptions struct {
	file    string
	kind    string
	asJSON  bool
	maxSize int64
}

// errInvalidFile makes the command exit non-zero after printing the report.
var errInvalidFile = errors.New("file has validation errors")

func newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an item or component import file offline",
		Long: "Runs the same checks as the import endpoint and prints every row error.\n" +
			"Without --kind the file is checked as purchase items.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "CSV or XLSX file to validate")
	cmd.Flags().StringVar(&opts.kind, "kind", "", "component kind (resistor, capacitor, transistor, mosfet)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	cmd.Flags().Int64Var(&opts.maxSize, "max-size", 10<<20, "maximum file size in bytes")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runValidate(out io.Writer, opts *validateOptions) error {
	f, err := os.Open(opts.file)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := core.ReadLimited(f, opts.maxSize)
	if err != nil {
		return err
	}
	name := filepath.Base(opts.file)

	var (
		report any
		rows   int
		valid  int
		errs   []core.ValidationError
	)
	if opts.kind == "" {
		res := core.ImportItems(name, data)
		report, rows, valid, errs = res, res.TotalRows, len(res.ValidItems), res.Errors
	} else {
		kind, err := core.ParseComponentKind(opts.kind)
		if err != nil {
			return err
		}
		res, comps, err := core.ParseComponents(kind, name, data)
		if err != nil {
			return err
		}
		report, rows, valid, errs = res, res.TotalRows, len(comps), res.Errors
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "%s: %d rows, %d valid, %d errors\n", name, rows, valid, len(errs))
		for _, ve := range errs {
			fmt.Fprintf(out, "  %s\n", ve.Error())
		}
	}

	if len(errs) > 0 {
		return errInvalidFile
	}
	return nil
}
