package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"Twincord/internal/model"
)

type CommunityRepository struct {
	DB *gorm.DB
}

// CreateCommunity 同一事务内写入社区并让创建者加入
func (r *CommunityRepository) CreateCommunity(ctx context.Context, c *model.Community) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		mRepo := &CommunityMemberRepository{DB: tx}

		if err := tx.Create(c).Error; err != nil {
			return err
		}
		if _, err := mRepo.Join(ctx, c.ID, c.CreatorID); err != nil {
			return err
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return model.ErrDuplicateCode
	}
	if err != nil {
		return err
	}
	c.Members = []string{c.CreatorID}
	return nil
}

func (r *CommunityRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Community{}).Where("code = ?", code).Count(&n).Error
	return n > 0, err
}

func (r *CommunityRepository) FindCommunityByID(ctx context.Context, id string) (*model.Community, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *CommunityRepository) FindCommunityByCode(ctx context.Context, code string) (*model.Community, error) {
	return r.findOne(ctx, "code = ?", code)
}

// ListCommunities 按创建时间倒序；memberID 非空时只查其加入的社区
func (r *CommunityRepository) ListCommunities(ctx context.Context, memberID string) ([]model.Community, error) {
	q := r.DB.WithContext(ctx).Model(&model.Community{})
	if memberID != "" {
		q = q.Where("id IN (?)", r.DB.Model(&model.CommunityMember{}).
			Select("community_id").
			Where("user_id = ?", memberID))
	}
	var list []model.Community
	if err := q.Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := make([]string, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	members, err := (&CommunityMemberRepository{DB: r.DB}).MembersOf(ctx, ids...)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Members = members[list[i].ID]
	}
	return list, nil
}

func (r *CommunityRepository) CountCommunities(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Community{}).Count(&n).Error
	return n, err
}

func (r *CommunityRepository) AddMember(ctx context.Context, communityID, userID string) (bool, error) {
	return (&CommunityMemberRepository{DB: r.DB}).Join(ctx, communityID, userID)
}

func (r *CommunityRepository) IsMember(ctx context.Context, communityID, userID string) (bool, error) {
	return (&CommunityMemberRepository{DB: r.DB}).IsMember(ctx, communityID, userID)
}

func (r *CommunityRepository) findOne(ctx context.Context, query string, arg any) (*model.Community, error) {
	var c model.Community
	if err := r.DB.WithContext(ctx).Where(query, arg).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	members, err := (&CommunityMemberRepository{DB: r.DB}).MembersOf(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Members = members[c.ID]
	if c.Members == nil {
		c.Members = []string{}
	}
	return &c, nil
}
