package docstore

import (
	"context"

	"cloud.google.com/go/firestore"

	"github.com/tbourn/food-chat-backend/internal/domain"
)

// CreateSessionMeta writes the metadata document under its deterministic id.
// A second create for the same session returns repo.ErrDuplicate.
func (s *Store) CreateSessionMeta(ctx context.Context, m *domain.SessionMeta) error {
	m.ID = domain.SessionMetaID(m.UserID, m.SessionID)
	_, err := s.col(ColSessions).Doc(m.ID).Create(ctx, m)
	return mapErr(err)
}

func (s *Store) GetSessionMeta(ctx context.Context, userID, sessionID string) (*domain.SessionMeta, error) {
	snap, err := s.col(ColSessions).Doc(domain.SessionMetaID(userID, sessionID)).Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	return decodeSession(snap)
}

// ListSessionMetas returns the user's metadata documents, newest first.
func (s *Store) ListSessionMetas(ctx context.Context, userID string) ([]domain.SessionMeta, error) {
	snaps, err := s.col(ColSessions).
		Where("user_id", "==", userID).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]domain.SessionMeta, 0, len(snaps))
	for _, snap := range snaps {
		m, err := decodeSession(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, nil
}

// DeleteSessionMeta deletes the metadata document and reports whether it
// existed.
func (s *Store) DeleteSessionMeta(ctx context.Context, userID, sessionID string) (bool, error) {
	ref := s.col(ColSessions).Doc(domain.SessionMetaID(userID, sessionID))
	_, err := ref.Delete(ctx, firestore.Exists)
	if err == nil {
		return true, nil
	}
	if err = mapErr(err); isNotFound(err) {
		return false, nil
	}
	return false, err
}

func decodeSession(snap *firestore.DocumentSnapshot) (*domain.SessionMeta, error) {
	var m domain.SessionMeta
	if err := snap.DataTo(&m); err != nil {
		return nil, err
	}
	m.ID = snap.Ref.ID
	return &m, nil
}
