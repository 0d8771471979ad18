package archive

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageRepository interface {
	Create(ctx context.Context, msg *Message) error
	MarkDeleted(ctx context.Context, messageID string, aiModerated bool) error
	ClearChatroom(ctx context.Context, chatroomID int64) error
	FindRecentByChatroom(ctx context.Context, chatroomID int64, limit int) ([]*Message, error)
	CountByChatroom(ctx context.Context, chatroomID int64) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *Message) error {
	// The relay redelivers frames after hiccups; keep the first copy.
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(msg).Error
}

func (r *messageRepository) MarkDeleted(ctx context.Context, messageID string, aiModerated bool) error {
	return r.db.WithContext(ctx).Model(&Message{}).
		Where("id = ?", messageID).
		Updates(map[string]interface{}{"deleted": true, "ai_moderated": aiModerated}).Error
}

func (r *messageRepository) ClearChatroom(ctx context.Context, chatroomID int64) error {
	return r.db.WithContext(ctx).Model(&Message{}).
		Where("chatroom_id = ?", chatroomID).
		Update("deleted", true).Error
}

func (r *messageRepository) FindRecentByChatroom(ctx context.Context, chatroomID int64, limit int) ([]*Message, error) {
	var msgs []*Message
	err := r.db.WithContext(ctx).
		Where("chatroom_id = ?", chatroomID).
		Order("posted_at DESC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

func (r *messageRepository) CountByChatroom(ctx context.Context, chatroomID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Message{}).
		Where("chatroom_id = ?", chatroomID).
		Count(&count).Error
	return count, err
}
