package archive

import (
	"time"
)

/** --------------------ENTITIES-------------------- */
// Message is an archived chatroom message. The primary key is the relay's
// own event id so redelivered frames collapse into one row.
type Message struct {
	ID             string    `gorm:"primaryKey" json:"id"`
	ChatroomID     int64     `gorm:"not null;index" json:"chatroomId"`
	SenderID       int64     `gorm:"not null" json:"senderId"`
	SenderUsername string    `gorm:"not null" json:"senderUsername"`
	Content        string    `gorm:"nullable" json:"content"`
	Type           string    `gorm:"nullable" json:"type"` // message || reply || celebration
	PostedAt       time.Time `gorm:"not null" json:"postedAt"`
	Deleted        bool      `gorm:"default:false" json:"deleted"`
	AIModerated    bool      `gorm:"default:false" json:"aiModerated"`
	ArchivedAt     time.Time `gorm:"autoCreateTime" json:"archivedAt"`
}

/** -------------------- DTOs -------------------- */
// Response
type MessageResponse struct {
	ID             string    `json:"id"`
	ChatroomID     int64     `json:"chatroomId"`
	SenderID       int64     `json:"senderId"`
	SenderUsername string    `json:"senderUsername"`
	Content        string    `json:"content,omitempty"`
	Type           string    `json:"type,omitempty"`
	PostedAt       time.Time `json:"postedAt"`
	Deleted        bool      `json:"deleted"`
}

type ChatroomStats struct {
	ChatroomID int64 `json:"chatroomId"`
	Messages   int64 `json:"messages"`
}

func (m *Message) ToResponse() *MessageResponse {
	return &MessageResponse{
		ID:             m.ID,
		ChatroomID:     m.ChatroomID,
		SenderID:       m.SenderID,
		SenderUsername: m.SenderUsername,
		Content:        m.Content,
		Type:           m.Type,
		PostedAt:       m.PostedAt,
		Deleted:        m.Deleted,
	}
}
