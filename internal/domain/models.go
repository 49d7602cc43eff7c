// Package domain defines the persistence models for users, chat messages,
// sessions, and idempotency records. The same types are mapped by GORM for
// the SQL stores and by the Firestore client for the document store, so each
// field carries gorm, firestore, and json tags.
package domain

import "time"

// DefaultSessionID is the session identifier used when a client does not
// name one.
const DefaultSessionID = "default"

// MessageTypeConversation is the only message type currently written.
const MessageTypeConversation = "conversation"

// User is a registered account.
//
// Fields:
//   - ID: UUID primary key; also the Firestore document id.
//   - Username: display name supplied at registration.
//   - Email: unique, stored lower-cased.
//   - PasswordHash: bcrypt hash; never serialized.
//   - Preferences: embedded food preferences document.
//   - PreferencesUpdatedAt: stamped on every preference write.
//   - CreatedAt: registration time.
type User struct {
	ID                   string      `json:"id"                               firestore:"-"                                gorm:"type:char(36);primaryKey"`
	Username             string      `json:"username"                         firestore:"username"                         gorm:"type:varchar(100);not null"`
	Email                string      `json:"email"                            firestore:"email"                            gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	PasswordHash         string      `json:"-"                                firestore:"password_hash"                    gorm:"type:varchar(255);not null"`
	Preferences          Preferences `json:"preferences"                      firestore:"preferences"                      gorm:"type:text;serializer:json"`
	PreferencesUpdatedAt *time.Time  `json:"preferences_updated_at,omitempty" firestore:"preferences_updated_at,omitempty"`
	CreatedAt            time.Time   `json:"created_at"                       firestore:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Public returns the projection of u that is safe to return to clients.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// PublicUser is a User without credentials or preferences.
type PublicUser struct {
	ID        string    `json:"id"         example:"4b7f3f8e-5a1c-4c52-9a53-0f5f1f6b2d11"`
	Username  string    `json:"username"   example:"kavleen"`
	Email     string    `json:"email"      example:"k@example.com"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageMetadata holds values derived from the exchange text when it is saved.
type MessageMetadata struct {
	UserMessageTokens       int  `json:"user_message_tokens"       firestore:"user_message_tokens"`
	AssistantResponseTokens int  `json:"assistant_response_tokens" firestore:"assistant_response_tokens"`
	IsGreeting              bool `json:"is_greeting"               firestore:"is_greeting"`
	ContainsFoodKeywords    bool `json:"contains_food_keywords"    firestore:"contains_food_keywords"`
}

// Message is one user/assistant exchange. Messages are immutable once written
// and are only removed by bulk deletion of a user's or session's history.
//
// Fields:
//   - ID: UUID primary key.
//   - UserID / SessionID: owner and grouping key (indexed together).
//   - UserMessage / AssistantResponse: the exchange text.
//   - MessageLength / ResponseLength: rune counts of the two texts.
//   - MessageType: always "conversation".
//   - Metadata: derived token counts and keyword flags.
//   - CreatedAt: write time; ordering key for history reads.
type Message struct {
	ID                string          `json:"id"                 firestore:"-"                  gorm:"type:char(36);primaryKey"`
	UserID            string          `json:"user_id"            firestore:"user_id"            gorm:"type:varchar(64);not null;index:idx_user_session_msgs,priority:1"`
	SessionID         string          `json:"session_id"         firestore:"session_id"         gorm:"type:varchar(64);not null;index:idx_user_session_msgs,priority:2"`
	UserMessage       string          `json:"user_message"       firestore:"user_message"       gorm:"type:text;not null"`
	AssistantResponse string          `json:"assistant_response" firestore:"assistant_response" gorm:"type:text;not null"`
	MessageLength     int             `json:"message_length"     firestore:"message_length"`
	ResponseLength    int             `json:"response_length"    firestore:"response_length"`
	MessageType       string          `json:"message_type"       firestore:"message_type"       gorm:"type:varchar(32);not null;default:'conversation'"`
	Metadata          MessageMetadata `json:"metadata"           firestore:"metadata"           gorm:"type:text;serializer:json"`
	CreatedAt         time.Time       `json:"created_at"         firestore:"created_at"         gorm:"index:idx_user_session_msgs,priority:3"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// MessageQuery selects a user's messages, optionally scoped to one session.
// Stores return matches newest first, capped at Limit when Limit > 0.
type MessageQuery struct {
	UserID    string
	SessionID string
	Limit     int
}

// SessionMeta is the optional metadata document written when a session is
// created explicitly. It is not authoritative for message counts.
type SessionMeta struct {
	ID          string    `json:"-"            firestore:"-"            gorm:"type:varchar(160);primaryKey"`
	UserID      string    `json:"user_id"      firestore:"user_id"      gorm:"type:varchar(64);not null;index"`
	SessionID   string    `json:"session_id"   firestore:"session_id"   gorm:"type:varchar(64);not null"`
	SessionName string    `json:"session_name" firestore:"session_name" gorm:"type:varchar(255);not null"`
	Status      string    `json:"status"       firestore:"status"       gorm:"type:varchar(16);not null;default:'active'"`
	CreatedAt   time.Time `json:"created_at"   firestore:"created_at"`
}

// TableName returns the database table name for SessionMeta.
func (SessionMeta) TableName() string { return "user_sessions" }

// SessionMetaID returns the deterministic document id for a session's metadata.
func SessionMetaID(userID, sessionID string) string { return userID + "_" + sessionID }

// SessionInfo is the derived per-session view produced by grouping messages.
type SessionInfo struct {
	SessionID           string     `json:"session_id"`
	SessionName         string     `json:"session_name,omitempty"`
	MessageCount        int        `json:"message_count"`
	TotalTokens         int        `json:"total_tokens"`
	FoodRelatedMessages int        `json:"food_related_messages"`
	GreetingMessages    int        `json:"greeting_messages"`
	FirstMessage        *time.Time `json:"first_message"`
	LastMessage         *time.Time `json:"last_message"`
	LastActivity        *time.Time `json:"last_activity"`
}

// Summary aggregates a user's recent conversation.
type Summary struct {
	TotalMessages        int        `json:"total_messages"`
	FirstMessage         *time.Time `json:"first_message"`
	LastMessage          *time.Time `json:"last_message"`
	ConversationDuration *string    `json:"conversation_duration"`
	RecentTopics         []string   `json:"recent_topics"`
}

// ChatReply is returned by a chat send.
type ChatReply struct {
	Message     string `json:"message"`
	UserMessage string `json:"user_message"`
	SessionID   string `json:"session_id"`
	Timestamp   string `json:"timestamp"`

	// MessageID is the stored exchange id; empty when nothing was persisted.
	MessageID string `json:"-"`
}

// UserContext describes what the assistant currently knows about a user.
type UserContext struct {
	HasPreferences      bool        `json:"has_preferences"`
	PreferencesComplete bool        `json:"preferences_complete"`
	MissingPreferences  []string    `json:"missing_preferences"`
	Preferences         Preferences `json:"preferences"`
	TotalMessages       int         `json:"total_messages"`
	SessionsCount       int         `json:"sessions_count"`
	RecentTopics        []string    `json:"recent_topics"`
}
