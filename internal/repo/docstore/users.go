package docstore

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tbourn/food-chat-backend/internal/domain"
	"github.com/tbourn/food-chat-backend/internal/repo"
)

// CreateUser writes u inside a transaction that first checks the email is
// unused, so two concurrent registrations cannot both succeed.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	ref := s.col(ColUsers).Doc(u.ID)
	q := s.col(ColUsers).Where("email", "==", u.Email).Limit(1)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Documents(q).GetAll()
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return repo.ErrDuplicate
		}
		return tx.Create(ref, u)
	})
	return mapErr(err)
}

// GetUser fetches a user document by id.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	snap, err := s.col(ColUsers).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	return decodeUser(snap)
}

// GetUserByEmail looks a user up by lower-cased email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	it := s.col(ColUsers).
		Where("email", "==", strings.ToLower(strings.TrimSpace(email))).
		Limit(1).
		Documents(ctx)
	defer it.Stop()

	snap, err := it.Next()
	if err == iterator.Done {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return decodeUser(snap)
}

// CountUsers runs a server-side count aggregation.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	return count(ctx, s.col(ColUsers).Query)
}

// SavePreferences replaces the preferences field, creating a shell user when
// the account document does not exist.
func (s *Store) SavePreferences(ctx context.Context, userID string, p domain.Preferences, at time.Time) error {
	ref := s.col(ColUsers).Doc(userID)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
			shell := &domain.User{
				ID:                   userID,
				Username:             "user_" + userID,
				Email:                "user_" + strings.ToLower(userID) + "@placeholder.local",
				Preferences:          p,
				PreferencesUpdatedAt: &at,
				CreatedAt:            at,
			}
			return tx.Create(ref, shell)
		case err != nil:
			return err
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "preferences", Value: p},
			{Path: "preferences_updated_at", Value: at},
		})
	})
}

func decodeUser(snap *firestore.DocumentSnapshot) (*domain.User, error) {
	var u domain.User
	if err := snap.DataTo(&u); err != nil {
		return nil, err
	}
	u.ID = snap.Ref.ID
	u.Preferences.Normalize()
	return &u, nil
}

// count returns the number of documents matched by q.
func count(ctx context.Context, q firestore.Query) (int64, error) {
	res, err := q.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, err
	}
	return aggregateInt(res["all"]), nil
}
