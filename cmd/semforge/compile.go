package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/c360studio/semforge/rules"
	"github.com/c360studio/semforge/schema"
)

func compileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <sheet>",
		Short: "Compile a physical sheet into store resources",
		Long: `Compile turns a physical sheet into the deployable resource set:
spaces, containers with derived storage properties, views with
compiled filters, and the data model listing. Findings from the
compilation are printed alongside the summary.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dms, err := rules.LoadDMSRules(args[0])
			if err != nil {
				return err
			}

			compiled, found := schema.Build(dms)
			printIssues(args[0], found)
			if err := found.AsError(); err != nil {
				return err
			}

			printSchema(compiled)
			return nil
		},
	}

	return cmd
}

func printSchema(s *schema.Schema) {
	fmt.Printf("spaces (%d):\n", len(s.Spaces))
	for _, space := range s.Spaces {
		fmt.Printf("  %s\n", space.Space)
	}

	fmt.Printf("containers (%d):\n", len(s.Containers))
	for _, c := range s.Containers {
		names := make([]string, 0, len(c.Properties))
		for name := range c.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Printf("  %s  properties=%v constraints=%d indexes=%d\n",
			c.Container, names, len(c.Constraints), len(c.Indexes))
	}

	fmt.Printf("views (%d):\n", len(s.Views))
	for _, v := range s.Views {
		fmt.Printf("  %s  properties=%d filter=%s\n",
			v.View, len(v.Properties), filterName(v.Filter))
	}

	fmt.Printf("data model %s:%s(version=%s) views=%d\n",
		s.DataModel.Space, s.DataModel.ExternalID, s.DataModel.Version, len(s.DataModel.Views))
}

func filterName(f schema.Filter) string {
	switch f.(type) {
	case schema.HasDataFilter:
		return "hasData"
	case schema.NodeTypeFilter:
		return "nodeType"
	default:
		return "none"
	}
}
