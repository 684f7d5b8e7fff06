package main

import (
	"context"
	"fmt"
	"iter"

	"github.com/spf13/cobra"

	"github.com/c360studio/semforge/loader"
	"github.com/c360studio/semforge/rules"
)

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <physical-sheet> <conceptual-sheet>",
		Short: "Show the instance load order of a model pairing",
		Long: `Plan prints the order views would be processed in during a load:
views whose containers require other containers' data come after
their providers, and node views come before edge views. Plan is a dry
run and reads no instance data.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dms, err := rules.LoadDMSRules(args[0])
			if err != nil {
				return err
			}
			info, err := rules.LoadInformationRules(args[1])
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			l, err := loader.New(dms, info, dryRunReader{}, nil, cfg.Loader.InstanceSpace)
			if err != nil {
				return err
			}

			plan, err := l.Plan(cmd.Context())
			if err != nil {
				return err
			}

			for i, vp := range plan {
				fmt.Printf("%2d. %s  usage=%s type=%s\n",
					i+1, vp.View.View, vp.View.Usage(), vp.Type)
			}
			return nil
		},
	}

	return cmd
}

// dryRunReader reports one instance per type so planning keeps every
// view, and yields no data.
type dryRunReader struct{}

func (dryRunReader) CountByType(ctx context.Context, rdfType string) (int, error) {
	return 1, nil
}

func (dryRunReader) ReadByType(ctx context.Context, rdfType string) iter.Seq2[loader.RawInstance, error] {
	return func(yield func(loader.RawInstance, error) bool) {}
}

func (dryRunReader) ListObjectURIs(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {}
}
