package domain

import "time"

// Idempotency records the outcome of a chat send made with an Idempotency-Key,
// keyed by (user_id, session_id, key). A retry with the same key replays the
// stored exchange instead of calling the agent again.
type Idempotency struct {
	ID        string    `json:"id"         firestore:"-"          gorm:"type:varchar(255);primaryKey"`
	UserID    string    `json:"user_id"    firestore:"user_id"    gorm:"type:varchar(64);not null;uniqueIndex:ux_user_session_key,priority:1"`
	SessionID string    `json:"session_id" firestore:"session_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_user_session_key,priority:2"`
	Key       string    `json:"key"        firestore:"key"        gorm:"type:varchar(200);not null;uniqueIndex:ux_user_session_key,priority:3"`
	MessageID string    `json:"message_id" firestore:"message_id" gorm:"type:char(36);not null"`
	Status    int       `json:"status"     firestore:"status"     gorm:"not null"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
	ExpiresAt time.Time `json:"expires_at" firestore:"expires_at" gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }

// IdempotencyID returns the deterministic document id for a key tuple.
func IdempotencyID(userID, sessionID, key string) string {
	return userID + "_" + sessionID + "_" + key
}
