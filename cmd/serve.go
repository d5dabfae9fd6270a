package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newbeeR2020/habit-tracker-setup/internal/firebase"
	"github.com/newbeeR2020/habit-tracker-setup/internal/server"
	"github.com/newbeeR2020/habit-tracker-setup/internal/setup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /api/setup for authenticated callers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = e.log.Sync() }()
			if addr != "" {
				e.cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), e)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :4000)")
	return cmd
}

type timeoutRunner struct {
	in      *setup.Initializer
	timeout time.Duration
}

func (r timeoutRunner) Run(ctx context.Context) setup.Result {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.in.Run(ctx)
}

func serve(ctx context.Context, e *env) error {
	sa, err := e.credential()
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	fbCfg := e.firebaseConfig()
	app, err := firebase.NewApp(ctx, fbCfg, sa)
	if err != nil {
		return err
	}
	authClient, err := firebase.AuthClient(ctx, app)
	if err != nil {
		return err
	}

	in := setup.New(sa, firebase.NewConnector(fbCfg, e.log),
		setup.WithProject(fbCfg.Project(sa)),
		setup.WithLogger(e.log),
		setup.WithTarget(e.cfg.Target()),
	)
	handler := server.New(timeoutRunner{in: in, timeout: e.cfg.Timeout}, authClient, e.cfg.Server.AllowedOrigins, e.log).Handler()

	srv := &http.Server{
		Addr:              e.cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		e.log.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		e.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
