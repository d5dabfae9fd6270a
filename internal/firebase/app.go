// Package firebase builds Firebase Admin clients for the setup tool.
package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/newbeeR2020/habit-tracker-setup/internal/credential"
	"github.com/newbeeR2020/habit-tracker-setup/internal/setup"
)

const emulatorHostEnv = "FIRESTORE_EMULATOR_HOST"

// Config selects the project and, optionally, a local emulator.
type Config struct {
	ProjectID    string
	EmulatorHost string
}

// Project is the project the app is built for: the configured one when set,
// otherwise the credential's project_id.
func (c Config) Project(sa credential.ServiceAccount) string {
	if c.ProjectID != "" {
		return c.ProjectID
	}
	return sa.ProjectID
}

// NewApp initialises the Admin SDK with the given service account.
func NewApp(ctx context.Context, cfg Config, sa credential.ServiceAccount) (*firebase.App, error) {
	projectID := cfg.Project(sa)

	var opts []option.ClientOption
	if cfg.EmulatorHost != "" {
		// the Firestore client picks the emulator up from the environment
		if err := os.Setenv(emulatorHostEnv, cfg.EmulatorHost); err != nil {
			return nil, fmt.Errorf("set %s: %w", emulatorHostEnv, err)
		}
		opts = append(opts, option.WithoutAuthentication())
	} else {
		opts = append(opts, option.WithCredentialsJSON(sa.JSON()))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	return app, nil
}

// AuthClient returns the Admin SDK auth client.
func AuthClient(ctx context.Context, app *firebase.App) (*auth.Client, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init auth client: %w", err)
	}
	return client, nil
}

// Connector opens Firestore through a fresh Admin SDK app.
type Connector struct {
	cfg Config
	log *zap.Logger
}

var _ setup.Connector = (*Connector)(nil)

// NewConnector returns a Connector for cfg; a nil log discards.
func NewConnector(cfg Config, log *zap.Logger) *Connector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Connector{cfg: cfg, log: log}
}

// Connect builds the app and its Firestore client.
func (c *Connector) Connect(ctx context.Context, sa credential.ServiceAccount) (setup.Store, error) {
	app, err := NewApp(ctx, c.cfg, sa)
	if err != nil {
		return nil, err
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firestore client: %w", err)
	}
	if c.cfg.EmulatorHost != "" {
		c.log.Info("connected to firestore emulator", zap.String("host", c.cfg.EmulatorHost))
	} else {
		c.log.Debug("connected to firestore", zap.String("project", c.cfg.Project(sa)))
	}
	return NewStore(client), nil
}

// Store adapts a Firestore client to setup.Store.
type Store struct {
	client *firestore.Client
}

// NewStore wraps an open Firestore client.
func NewStore(client *firestore.Client) *Store {
	return &Store{client: client}
}

// Set overwrites collection/doc with data.
func (s *Store) Set(ctx context.Context, collection, doc string, data map[string]interface{}) error {
	if _, err := s.client.Collection(collection).Doc(doc).Set(ctx, data); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, doc, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
