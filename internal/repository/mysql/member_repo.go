package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Twincord/internal/model"
)

type CommunityMemberRepository struct {
	DB *gorm.DB
}

// Join 幂等插入：已存在 (community_id, user_id) 时不报错，joined=false
func (r *CommunityMemberRepository) Join(ctx context.Context, communityID, userID string) (bool, error) {
	res := insertMember(r.DB.WithContext(ctx), communityID, userID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// insertMember MySQL 下渲染为 ON DUPLICATE KEY UPDATE id=id，已存在时影响行数为 0
func insertMember(db *gorm.DB, communityID, userID string) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&model.CommunityMember{CommunityID: communityID, UserID: userID})
}

func (r *CommunityMemberRepository) IsMember(ctx context.Context, communityID, userID string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.CommunityMember{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error
	return count > 0, err
}

// MembersOf 按加入顺序返回各社区的成员ID
func (r *CommunityMemberRepository) MembersOf(ctx context.Context, communityIDs ...string) (map[string][]string, error) {
	var rows []model.CommunityMember
	err := r.DB.WithContext(ctx).
		Select("community_id", "user_id").
		Where("community_id IN ?", communityIDs).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(communityIDs))
	for _, m := range rows {
		out[m.CommunityID] = append(out[m.CommunityID], m.UserID)
	}
	return out, nil
}
