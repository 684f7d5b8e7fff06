package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/semforge/convert"
	"github.com/c360studio/semforge/rules"
)

func convertCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "convert <sheet>",
		Short: "Convert between conceptual and physical sheets",
		Long: `Convert reads one sheet and emits the other kind: a conceptual
sheet becomes a physical sheet with derived views and containers, a
physical sheet becomes a conceptual one. The direction is inferred
from the sheet's metadata.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			var rendered []byte
			if isPhysicalSheet(data) {
				dms, err := rules.ParseDMSRules(data)
				if err != nil {
					return err
				}
				info, found := convert.DMSToInformation(dms)
				printIssues(args[0], found)
				if err := found.AsError(); err != nil {
					return err
				}
				rendered, err = rules.MarshalInformationRules(info)
				if err != nil {
					return err
				}
			} else {
				info, err := rules.ParseInformationRules(data)
				if err != nil {
					return err
				}
				if found := info.Validate(); found.HasErrors() {
					printIssues(args[0], found)
					return fmt.Errorf("conceptual model is invalid")
				}
				dms, found := convert.InformationToDMS(info)
				printIssues(args[0], found)
				if err := found.AsError(); err != nil {
					return err
				}
				rendered, err = rules.MarshalDMSRules(dms)
				if err != nil {
					return err
				}
			}

			if out == "" {
				_, err = os.Stdout.Write(rendered)
				return err
			}
			return os.WriteFile(out, rendered, 0644)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")

	return cmd
}

// isPhysicalSheet reports whether a sheet's metadata carries a space,
// the distinguishing field of the physical form.
func isPhysicalSheet(data []byte) bool {
	var probe struct {
		Metadata struct {
			Space string `yaml:"space"`
		} `yaml:"metadata"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return false
	}
	return probe.Metadata.Space != ""
}
