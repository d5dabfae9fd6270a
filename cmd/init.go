package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func newInitCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the test/init document to confirm Firestore connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, opts)
		},
	}
	addStrictFlag(cmd, opts)
	return cmd
}

func runInit(cmd *cobra.Command, opts *options) error {
	e, err := opts.load(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), e.cfg.Timeout)
	defer cancel()

	res := e.initializer().Run(ctx)
	if !res.OK() && opts.strict {
		return failedErr(res)
	}
	return nil
}
