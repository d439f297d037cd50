package repo

import (
	"context"
	"errors"
	"time"

	"proxydesk/internal/storage/model"

	"gorm.io/gorm"
)

// SettingsRepo 设置仓库
type SettingsRepo struct {
	BaseRepository[model.Setting]
}

// NewSettingsRepo 创建设置仓库实例
func NewSettingsRepo(db *gorm.DB) *SettingsRepo {
	return &SettingsRepo{
		BaseRepository: *NewBaseRepository[model.Setting](db),
	}
}

// Get 获取设置值
func (r *SettingsRepo) Get(ctx context.Context, key string) (string, error) {
	var setting model.Setting
	result := r.Db.WithContext(ctx).Where("key = ?", key).First(&setting)
	if result.Error != nil {
		return "", result.Error
	}
	return setting.Value, nil
}

// GetWithDefault 获取设置值，不存在时返回默认值
func (r *SettingsRepo) GetWithDefault(ctx context.Context, key, defaultValue string) string {
	val, err := r.Get(ctx, key)
	if err != nil {
		return defaultValue
	}
	return val
}

// Set 设置值（存在则更新，不存在则创建）
func (r *SettingsRepo) Set(ctx context.Context, key, value string) error {
	setting := model.Setting{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	return r.Db.WithContext(ctx).Save(&setting).Error
}

// SetMultiple 批量设置
func (r *SettingsRepo) SetMultiple(ctx context.Context, kvs map[string]string) error {
	return r.Db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for key, value := range kvs {
			setting := model.Setting{
				Key:       key,
				Value:     value,
				UpdatedAt: now,
			}
			if err := tx.Save(&setting).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteByKey 根据 key 删除设置
func (r *SettingsRepo) DeleteByKey(ctx context.Context, key string) error {
	return r.Db.WithContext(ctx).Delete(&model.Setting{}, "key = ?", key).Error
}

// GetAll 获取所有设置
func (r *SettingsRepo) GetAll(ctx context.Context) (map[string]string, error) {
	var settings []model.Setting
	if err := r.Db.WithContext(ctx).Find(&settings).Error; err != nil {
		return nil, err
	}

	result := make(map[string]string)
	for _, s := range settings {
		result[s.Key] = s.Value
	}
	return result, nil
}

// TakePendingProfile 取走跨页面传递的待激活档案 UID。
// 读取和删除在同一个事务里完成，保证每个标记只会被消费一次。
func (r *SettingsRepo) TakePendingProfile(ctx context.Context) (string, bool, error) {
	var uid string
	taken := false

	err := r.Db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var setting model.Setting
		if err := tx.Where("key = ?", model.SettingKeyPendingProfile).First(&setting).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if err := tx.Delete(&model.Setting{}, "key = ?", model.SettingKeyPendingProfile).Error; err != nil {
			return err
		}

		uid = setting.Value
		taken = setting.Value != ""
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return uid, taken, nil
}

// PeekPendingProfile 查看待激活标记但不消费
func (r *SettingsRepo) PeekPendingProfile(ctx context.Context) (string, bool) {
	val := r.GetWithDefault(ctx, model.SettingKeyPendingProfile, "")
	return val, val != ""
}

// SetPendingProfile 写入待激活标记，由档案下载等入口在跳转前调用
func (r *SettingsRepo) SetPendingProfile(ctx context.Context, uid string) error {
	return r.Set(ctx, model.SettingKeyPendingProfile, uid)
}

// GetTheme 获取主题
func (r *SettingsRepo) GetTheme(ctx context.Context) string {
	return r.GetWithDefault(ctx, model.SettingKeyTheme, "system")
}

// SetTheme 设置主题
func (r *SettingsRepo) SetTheme(ctx context.Context, theme string) error {
	return r.Set(ctx, model.SettingKeyTheme, theme)
}

// GetLanguage 获取界面语言
func (r *SettingsRepo) GetLanguage(ctx context.Context) string {
	return r.GetWithDefault(ctx, model.SettingKeyLanguage, "zh")
}

// SetLanguage 设置界面语言
func (r *SettingsRepo) SetLanguage(ctx context.Context, lang string) error {
	return r.Set(ctx, model.SettingKeyLanguage, lang)
}
