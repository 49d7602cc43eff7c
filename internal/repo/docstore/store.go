// Package docstore implements the service store contracts on Cloud Firestore.
//
// Collections:
//   - users:          one document per account, keyed by user id
//   - messages:       one document per exchange, keyed by message id
//   - user_sessions:  optional session metadata, keyed by "<user>_<session>"
//   - idempotency:    replay records, keyed by "<user>_<session>_<key>"
//
// Queries that combine user_id/session_id equality with created_at ordering
// need the composite indexes in deploy/firestore.indexes.json.
//
// Missing documents map to repo.ErrNotFound and create conflicts map to
// repo.ErrDuplicate, so services treat every backend the same way.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tbourn/food-chat-backend/internal/repo"
)

// Collection names.
const (
	ColUsers       = "users"
	ColMessages    = "messages"
	ColSessions    = "user_sessions"
	ColIdempotency = "idempotency"
)

// Options configures a Firestore connection.
type Options struct {
	ProjectID       string
	DatabaseID      string // "(default)" when empty
	CredentialsFile string // optional; application default credentials otherwise
}

// Store is a Firestore-backed implementation of the service store contracts.
type Store struct {
	client *firestore.Client
}

// Open dials Firestore. FIRESTORE_EMULATOR_HOST is honoured by the client.
func Open(ctx context.Context, o Options) (*Store, error) {
	if strings.TrimSpace(o.ProjectID) == "" {
		return nil, errors.New("docstore: project id is required")
	}
	dbID := o.DatabaseID
	if dbID == "" {
		dbID = firestore.DefaultDatabaseID
	}
	var opts []option.ClientOption
	if o.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(o.CredentialsFile))
	}
	c, err := firestore.NewClientWithDatabase(ctx, o.ProjectID, dbID, opts...)
	if err != nil {
		return nil, fmt.Errorf("docstore: new client: %w", err)
	}
	return &Store{client: c}, nil
}

// New wraps an existing client.
func New(c *firestore.Client) *Store { return &Store{client: c} }

// Name returns the backend label.
func (s *Store) Name() string { return "firestore" }

// Close releases the client.
func (s *Store) Close() error { return s.client.Close() }

// Ping issues a cheap read so health checks reflect connectivity.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collection(ColUsers).Limit(1).Documents(ctx).GetAll()
	return err
}

func (s *Store) col(name string) *firestore.CollectionRef { return s.client.Collection(name) }

// mapErr translates gRPC status codes to the repo sentinels.
func mapErr(err error) error {
	switch status.Code(err) {
	case codes.OK:
		return err
	case codes.NotFound:
		return repo.ErrNotFound
	case codes.AlreadyExists:
		return repo.ErrDuplicate
	}
	return err
}
