// Package cmd provides the command-line interface of the habit tracker
// database setup tool.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newbeeR2020/habit-tracker-setup/internal/config"
	"github.com/newbeeR2020/habit-tracker-setup/internal/credential"
	"github.com/newbeeR2020/habit-tracker-setup/internal/firebase"
	"github.com/newbeeR2020/habit-tracker-setup/internal/logger"
	"github.com/newbeeR2020/habit-tracker-setup/internal/setup"
)

type options struct {
	configFile  string
	project     string
	credentials string
	noColor     bool
	strict      bool
}

// NewRootCmd builds the command tree. Running the root without a subcommand
// performs init.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "habit-setup",
		Short:         "Initialise the habit tracker Firestore database",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "config file (default ./config.yaml)")
	pf.StringVar(&opts.project, "project", "", "Firebase project ID")
	pf.StringVar(&opts.credentials, "credentials", "", "path to a service account key file")
	pf.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	addStrictFlag(root, opts)

	root.AddCommand(newInitCmd(opts), newPingCmd(opts), newServeCmd(opts))
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

type env struct {
	cfg      *config.Config
	log      *zap.Logger
	reporter *setup.Reporter
}

func (o *options) load(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}
	if o.project != "" {
		cfg.ProjectID = o.project
	}
	if o.credentials != "" {
		cfg.CredentialsFile = o.credentials
		cfg.CredentialsJSON = ""
	}

	log, err := logger.New(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:      cfg,
		log:      log,
		reporter: setup.NewReporter(cmd.OutOrStdout(), o.noColor),
	}, nil
}

func (e *env) firebaseConfig() firebase.Config {
	return firebase.Config{ProjectID: e.cfg.ProjectID, EmulatorHost: e.cfg.EmulatorHost}
}

// initializer builds the setup run from configuration. A credential that
// cannot be loaded is handed over as is, so Run reports it like any other
// credential failure.
func (e *env) initializer() *setup.Initializer {
	sa, err := e.cfg.Credential()
	fbCfg := e.firebaseConfig()
	return setup.New(sa, firebase.NewConnector(fbCfg, e.log),
		setup.WithCredentialError(err),
		setup.WithProject(fbCfg.Project(sa)),
		setup.WithLogger(e.log),
		setup.WithReporter(e.reporter),
		setup.WithTarget(e.cfg.Target()),
	)
}

func (e *env) credential() (credential.ServiceAccount, error) {
	sa, err := e.cfg.Credential()
	if err != nil {
		return credential.ServiceAccount{}, err
	}
	if err := sa.Validate(); err != nil {
		return credential.ServiceAccount{}, err
	}
	return sa, nil
}

func addStrictFlag(cmd *cobra.Command, opts *options) {
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "exit non-zero when setup fails")
}

func failedErr(res setup.Result) error {
	return fmt.Errorf("database setup failed (%s): %w", res.Kind, res.Err)
}
