package mysql

import (
	"context"

	"gorm.io/gorm"

	"Twincord/internal/model"
)

type MessageRepository struct {
	DB *gorm.DB
}

// AppendMessage 单行插入，自增ID决定顺序
func (r *MessageRepository) AppendMessage(ctx context.Context, m *model.Message) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

func (r *MessageRepository) ListMessages(ctx context.Context, communityID string) ([]model.Message, error) {
	var list []model.Message
	err := r.DB.WithContext(ctx).
		Where("community_id = ?", communityID).
		Order("id ASC").
		Find(&list).Error
	return list, err
}
