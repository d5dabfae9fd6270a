package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newbeeR2020/habit-tracker-setup/internal/firebase"
)

func newPingCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the Admin SDK and an Auth client can be initialised",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = e.log.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), e.cfg.Timeout)
			defer cancel()

			if err := ping(ctx, e); err != nil {
				e.log.Error("firebase ping failed", zap.Error(err))
				fmt.Fprintf(cmd.OutOrStdout(), "✗ Firebase ping failed: %v\n", err)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Firebase Admin SDK initialized and Auth client ready!")
			return nil
		},
	}
}

func ping(ctx context.Context, e *env) error {
	sa, err := e.credential()
	if err != nil {
		return err
	}
	app, err := firebase.NewApp(ctx, e.firebaseConfig(), sa)
	if err != nil {
		return err
	}
	_, err = firebase.AuthClient(ctx, app)
	return err
}
