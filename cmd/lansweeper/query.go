package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newQueryCmd(a *app) *cobra.Command {
	var (
		file string
		vars string
	)
	cmd := &cobra.Command{
		Use:   "query [document]",
		Short: "Run a raw GraphQL query and print the data as JSON",
		Long: `Run an arbitrary GraphQL query. The document is taken from the
argument, from --file, or from stdin when neither is given:

  lansweeper query '{ me { id email } }'
  lansweeper query -f assets.graphql --vars '{"siteId":"abc"}'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc string
			switch {
			case len(args) == 1:
				doc = args[0]
			case file != "":
				b, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read query file: %w", err)
				}
				doc = string(b)
			default:
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read query from stdin: %w", err)
				}
				doc = string(b)
			}

			var variables map[string]any
			if vars != "" {
				if err := json.Unmarshal([]byte(vars), &variables); err != nil {
					return fmt.Errorf("parse --vars: %w", err)
				}
			}

			c, err := a.newClient()
			if err != nil {
				return err
			}
			raw, err := c.Raw(cmd.Context(), doc, variables)
			if err != nil {
				return err
			}
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("decode data: %w", err)
			}
			return a.printJSON(cmd.OutOrStdout(), v)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the query document from a file")
	cmd.Flags().StringVar(&vars, "vars", "", "query variables as a JSON object")
	return cmd
}
