package docstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tbourn/food-chat-backend/internal/domain"
	"github.com/tbourn/food-chat-backend/internal/repo"
)

// GetIdempotency returns the live record for the tuple or repo.ErrNotFound.
// Expired documents are treated as absent; they are overwritten by the next
// create for the same tuple.
func (s *Store) GetIdempotency(ctx context.Context, userID, sessionID, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, repo.ErrNotFound
	}
	snap, err := s.col(ColIdempotency).Doc(domain.IdempotencyID(userID, sessionID, key)).Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	rec, err := decodeIdempotency(snap)
	if err != nil {
		return nil, err
	}
	if !rec.ExpiresAt.After(now) {
		return nil, repo.ErrNotFound
	}
	return rec, nil
}

// CreateIdempotency stores rec unless a live record for the tuple exists.
func (s *Store) CreateIdempotency(ctx context.Context, rec *domain.Idempotency) error {
	rec.ID = domain.IdempotencyID(rec.UserID, rec.SessionID, rec.Key)
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	ref := s.col(ColIdempotency).Doc(rec.ID)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			prev, derr := decodeIdempotency(snap)
			if derr != nil {
				return derr
			}
			if prev.ExpiresAt.After(rec.CreatedAt) {
				return repo.ErrDuplicate
			}
		}
		return tx.Set(ref, rec)
	})
}

func decodeIdempotency(snap *firestore.DocumentSnapshot) (*domain.Idempotency, error) {
	var rec domain.Idempotency
	if err := snap.DataTo(&rec); err != nil {
		return nil, err
	}
	rec.ID = snap.Ref.ID
	return &rec, nil
}

func isNotFound(err error) bool { return errors.Is(err, repo.ErrNotFound) }
