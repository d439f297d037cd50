package repo

import (
	"context"
	"time"

	"proxydesk/internal/storage/model"
	"proxydesk/pkg/domain"

	"gorm.io/gorm"
)

// ProxyStateRepo 代理配置仓库（单行表）
type ProxyStateRepo struct {
	BaseRepository[model.ProxyState]
}

// NewProxyStateRepo 创建代理配置仓库实例
func NewProxyStateRepo(db *gorm.DB) *ProxyStateRepo {
	return &ProxyStateRepo{
		BaseRepository: *NewBaseRepository[model.ProxyState](db),
	}
}

// Get 读取代理配置快照，行不存在时按默认值创建
func (r *ProxyStateRepo) Get(ctx context.Context) (domain.ProxyConfig, error) {
	record := model.ProxyState{ID: model.ProxyStateRowID}
	err := r.Db.WithContext(ctx).
		Where(model.ProxyState{ID: model.ProxyStateRowID}).
		FirstOrCreate(&record).Error
	if err != nil {
		return domain.ProxyConfig{}, err
	}

	return domain.ProxyConfig{
		EnableSystemProxy: record.EnableSystemProxy,
		EnableTunMode:     record.EnableTunMode,
		PrimaryAction:     domain.ProxyMode(record.PrimaryAction),
	}, nil
}

// Patch 一次性写入两个接管开关。
// 两个标志在同一条 UPDATE 里落库，其他读取方不会看到半应用状态。
func (r *ProxyStateRepo) Patch(ctx context.Context, patch domain.ProxyPatch) error {
	return r.Db.WithContext(ctx).
		Model(&model.ProxyState{ID: model.ProxyStateRowID}).
		Updates(map[string]any{
			"enable_system_proxy": patch.EnableSystemProxy,
			"enable_tun_mode":     patch.EnableTunMode,
			"updated_at":          time.Now(),
		}).Error
}

// SetPrimaryAction 更新一键开关偏好的接管策略
func (r *ProxyStateRepo) SetPrimaryAction(ctx context.Context, mode domain.ProxyMode) error {
	return r.Db.WithContext(ctx).
		Model(&model.ProxyState{ID: model.ProxyStateRowID}).
		Updates(map[string]any{
			"primary_action": string(mode),
			"updated_at":     time.Now(),
		}).Error
}

// EnsureRow 保证单行记录存在，应用启动时调用
func (r *ProxyStateRepo) EnsureRow(ctx context.Context, defaultAction domain.ProxyMode) error {
	return r.Db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := model.ProxyState{
			ID:            model.ProxyStateRowID,
			PrimaryAction: string(defaultAction),
		}
		return tx.Where(model.ProxyState{ID: model.ProxyStateRowID}).FirstOrCreate(&record).Error
	})
}
