package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/c360studio/semforge/export"
	"github.com/c360studio/semforge/rules"
)

func exportCmd() *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export <conceptual-sheet>",
		Short: "Export a conceptual model as an RDF ontology",
		Long: `Export serializes a conceptual sheet as an RDF ontology: classes
become rdfs:Class resources with subclass assertions, properties
become rdf:Property resources with domain and range.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := rules.LoadInformationRules(args[0])
			if err != nil {
				return err
			}
			if found := info.Validate(); found.HasErrors() {
				printIssues(args[0], found)
				return fmt.Errorf("conceptual model is invalid")
			}

			rendered, err := export.NewOntologyExporter(info).Export(export.Format(format))
			if err != nil {
				return err
			}

			if out == "" {
				fmt.Print(rendered)
				return nil
			}
			return os.WriteFile(out, []byte(rendered), 0644)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatTurtle), "Output format (turtle, ntriples)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")

	return cmd
}
