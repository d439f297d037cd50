package repo

import (
	"context"
	"errors"
	"time"

	"proxydesk/internal/storage/model"
	"proxydesk/pkg/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileSnapshot 档案集合快照：有序档案列表加当前选中项
type ProfileSnapshot struct {
	Items   []model.Profile   `json:"items"`
	Current domain.ProfileUID `json:"current,omitempty"`
}

// ProfileRepo 配置档案仓库
type ProfileRepo struct {
	BaseRepository[model.Profile]
}

// NewProfileRepo 创建配置档案仓库实例
func NewProfileRepo(db *gorm.DB) *ProfileRepo {
	return &ProfileRepo{
		BaseRepository: *NewBaseRepository[model.Profile](db),
	}
}

// List 列出所有档案（按创建时间升序）
func (r *ProfileRepo) List(ctx context.Context) ([]model.Profile, error) {
	var records []model.Profile
	if err := r.Db.WithContext(ctx).Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ListSelectable 列出可被选中的档案（仅 local / remote）
func (r *ProfileRepo) ListSelectable(ctx context.Context) ([]model.Profile, error) {
	var records []model.Profile
	err := r.Db.WithContext(ctx).
		Where("type IN ?", []string{string(domain.ProfileTypeLocal), string(domain.ProfileTypeRemote)}).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// GetByUID 根据业务 UID 获取档案，未找到时返回 nil
func (r *ProfileRepo) GetByUID(ctx context.Context, uid domain.ProfileUID) (*model.Profile, error) {
	var record model.Profile
	if err := r.Db.WithContext(ctx).Where("uid = ?", string(uid)).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Current 获取当前选中档案的 UID，无选中时返回空
func (r *ProfileRepo) Current(ctx context.Context) (domain.ProfileUID, error) {
	var record model.Profile
	if err := r.Db.WithContext(ctx).Where("is_current = ?", true).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return domain.ProfileUID(record.UID), nil
}

// SetCurrent 持久化地切换当前选中档案（只能有一个选中）
func (r *ProfileRepo) SetCurrent(ctx context.Context, uid domain.ProfileUID) error {
	return r.Db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 先取消旧的选中
		if err := tx.Model(&model.Profile{}).Where("is_current = ?", true).Update("is_current", false).Error; err != nil {
			return err
		}
		res := tx.Model(&model.Profile{}).Where("uid = ?", string(uid)).Update("is_current", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrProfileNotFound
		}
		return nil
	})
}

// Snapshot 重新读取档案集合的真实状态。
// 当前选中项若不在可选子集中，Current 为空但列表照常返回。
func (r *ProfileRepo) Snapshot(ctx context.Context) (*ProfileSnapshot, error) {
	items, err := r.ListSelectable(ctx)
	if err != nil {
		return nil, err
	}

	current, err := r.Current(ctx)
	if err != nil {
		return nil, err
	}

	snap := &ProfileSnapshot{Items: items}
	for _, item := range items {
		if domain.ProfileUID(item.UID) == current {
			snap.Current = current
			break
		}
	}
	return snap, nil
}

// Import 导入新档案并分配 UID
func (r *ProfileRepo) Import(ctx context.Context, p *model.Profile) (*model.Profile, error) {
	if p.UID == "" {
		p.UID = uuid.New().String()
	}
	if p.Type == "" {
		p.Type = string(domain.ProfileTypeRemote)
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()

	if err := r.Db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// Rename 重命名档案
func (r *ProfileRepo) Rename(ctx context.Context, uid domain.ProfileUID, newName string) error {
	res := r.Db.WithContext(ctx).Model(&model.Profile{}).Where("uid = ?", string(uid)).Updates(map[string]any{
		"name":       newName,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

// DeleteByUID 根据 UID 删除档案
func (r *ProfileRepo) DeleteByUID(ctx context.Context, uid domain.ProfileUID) error {
	return r.Db.WithContext(ctx).Delete(&model.Profile{}, "uid = ?", string(uid)).Error
}
