// Package setup performs the one-shot Firestore bootstrap write for the habit
// tracker project.
package setup

import (
	"context"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"

	"github.com/newbeeR2020/habit-tracker-setup/internal/credential"
)

const (
	DefaultCollection = "test"
	DefaultDocument   = "init"
	DefaultMessage    = "Database initialized"
)

// Store is the single write primitive the initializer needs.
type Store interface {
	Set(ctx context.Context, collection, doc string, data map[string]interface{}) error
	Close() error
}

// Connector opens a Store authenticated with the given credential.
type Connector interface {
	Connect(ctx context.Context, sa credential.ServiceAccount) (Store, error)
}

// Target is the document the initializer writes.
type Target struct {
	Collection string
	Document   string
	Message    string
}

// Path returns the slash-joined document path.
func (t Target) Path() string {
	return t.Collection + "/" + t.Document
}

// DefaultTarget is test/init.
func DefaultTarget() Target {
	return Target{
		Collection: DefaultCollection,
		Document:   DefaultDocument,
		Message:    DefaultMessage,
	}
}

// Document builds the payload: the message plus a server-assigned timestamp.
func Document(message string) map[string]interface{} {
	return map[string]interface{}{
		"message":   message,
		"timestamp": firestore.ServerTimestamp,
	}
}

// Option configures an Initializer.
type Option func(*Initializer)

// WithLogger sets the structured logger; the default discards.
func WithLogger(log *zap.Logger) Option {
	return func(in *Initializer) { in.log = log }
}

// WithReporter enables the console banners.
func WithReporter(r *Reporter) Option {
	return func(in *Initializer) { in.reporter = r }
}

// WithTarget overrides the test/init document.
func WithTarget(t Target) Option {
	return func(in *Initializer) { in.target = t }
}

// WithProject names the project the connector writes to. It defaults to the
// credential's project_id.
func WithProject(projectID string) Option {
	return func(in *Initializer) { in.project = projectID }
}

// WithCredentialError records that the credential could not be loaded. Run
// then reports it as a credential failure without connecting.
func WithCredentialError(err error) Option {
	return func(in *Initializer) { in.credErr = err }
}

// Initializer writes the init document once per Run.
type Initializer struct {
	cred      credential.ServiceAccount
	credErr   error
	connector Connector
	target    Target
	project   string
	log       *zap.Logger
	reporter  *Reporter
}

// New returns an Initializer for cred that opens its store through connector.
func New(cred credential.ServiceAccount, connector Connector, opts ...Option) *Initializer {
	in := &Initializer{
		cred:      cred,
		connector: connector,
		target:    DefaultTarget(),
		project:   cred.ProjectID,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Run validates the credential, connects, and sets the init document.
// Failures are classified and reported, never returned or panicked.
func (in *Initializer) Run(ctx context.Context) Result {
	path := in.target.Path()
	log := in.log.With(zap.String("project", in.project), zap.String("path", path))

	if in.reporter != nil {
		in.reporter.Start()
	}
	log.Info("setting up firestore database")

	res := in.run(ctx, path)
	if res.OK() {
		log.Info("database setup completed")
	} else {
		log.Error("database setup failed", zap.Stringer("kind", res.Kind), zap.Error(res.Err))
	}

	if in.reporter != nil {
		in.reporter.Report(res, in.project)
	}
	return res
}

func (in *Initializer) run(ctx context.Context, path string) Result {
	if in.credErr != nil {
		return Fail(path, in.credErr)
	}
	if err := in.cred.Validate(); err != nil {
		return Fail(path, err)
	}

	store, err := in.connector.Connect(ctx, in.cred)
	if err != nil {
		return Fail(path, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			in.log.Warn("closing store", zap.Error(err))
		}
	}()

	if err := store.Set(ctx, in.target.Collection, in.target.Document, Document(in.target.Message)); err != nil {
		return Fail(path, err)
	}
	return Result{Kind: KindSuccess, Path: path}
}
