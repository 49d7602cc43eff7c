package docstore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/tbourn/food-chat-backend/internal/domain"
	"github.com/tbourn/food-chat-backend/internal/repo"
)

// CreateMessage writes m under a new document id.
func (s *Store) CreateMessage(ctx context.Context, m *domain.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.SessionID == "" {
		m.SessionID = domain.DefaultSessionID
	}
	if m.MessageType == "" {
		m.MessageType = domain.MessageTypeConversation
	}
	_, err := s.col(ColMessages).Doc(m.ID).Create(ctx, m)
	return mapErr(err)
}

// GetMessage returns the message if it belongs to userID.
func (s *Store) GetMessage(ctx context.Context, userID, id string) (*domain.Message, error) {
	snap, err := s.col(ColMessages).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	m, err := decodeMessage(snap)
	if err != nil {
		return nil, err
	}
	if m.UserID != userID {
		return nil, repo.ErrNotFound
	}
	return m, nil
}

// ListMessages returns matches newest first.
func (s *Store) ListMessages(ctx context.Context, q domain.MessageQuery) ([]domain.Message, error) {
	query := s.messageScope(q.UserID, q.SessionID).OrderBy("created_at", firestore.Desc)
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	it := query.Documents(ctx)
	defer it.Stop()

	out := []domain.Message{}
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, mapErr(err)
		}
		m, err := decodeMessage(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, nil
}

// DeleteMessages removes every matching message through a BulkWriter and
// returns how many documents were deleted.
func (s *Store) DeleteMessages(ctx context.Context, userID, sessionID string) (int64, error) {
	refs, err := s.messageScope(userID, sessionID).Select().Documents(ctx).GetAll()
	if err != nil {
		return 0, mapErr(err)
	}
	if len(refs) == 0 {
		return 0, nil
	}

	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
	for _, snap := range refs {
		job, err := bw.Delete(snap.Ref)
		if err != nil {
			bw.End()
			return 0, err
		}
		jobs = append(jobs, job)
	}
	bw.End()

	var deleted int64
	var firstErr error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted++
	}
	return deleted, firstErr
}

// HasMessages reports whether the session holds at least one message.
func (s *Store) HasMessages(ctx context.Context, userID, sessionID string) (bool, error) {
	docs, err := s.messageScope(userID, sessionID).Select().Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return false, mapErr(err)
	}
	return len(docs) > 0, nil
}

// MessageStats returns the match count and the newest created_at.
func (s *Store) MessageStats(ctx context.Context, userID, sessionID string) (int64, *time.Time, error) {
	scope := s.messageScope(userID, sessionID)
	n, err := count(ctx, scope)
	if err != nil {
		return 0, nil, mapErr(err)
	}
	if n == 0 {
		return 0, nil, nil
	}
	docs, err := scope.OrderBy("created_at", firestore.Desc).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return 0, nil, mapErr(err)
	}
	if len(docs) == 0 {
		return n, nil, nil
	}
	m, err := decodeMessage(docs[0])
	if err != nil {
		return 0, nil, err
	}
	latest := m.CreatedAt
	return n, &latest, nil
}

func (s *Store) messageScope(userID, sessionID string) firestore.Query {
	q := s.col(ColMessages).Where("user_id", "==", userID)
	if sessionID != "" {
		q = q.Where("session_id", "==", sessionID)
	}
	return q
}

func decodeMessage(snap *firestore.DocumentSnapshot) (*domain.Message, error) {
	var m domain.Message
	if err := snap.DataTo(&m); err != nil {
		return nil, err
	}
	m.ID = snap.Ref.ID
	return &m, nil
}

// aggregateInt unwraps a count aggregation result.
func aggregateInt(v any) int64 {
	switch x := v.(type) {
	case *firestorepb.Value:
		return x.GetIntegerValue()
	case int64:
		return x
	case int:
		return int64(x)
	}
	return 0
}
