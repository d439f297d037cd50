package db

import (
	"context"
	"time"

	"proxydesk/internal/logger"

	glog "gorm.io/gorm/logger"
)

// 本地 SQLite 上正常查询都在毫秒级，超过该耗时记为慢查询
const slowQueryThreshold = 200 * time.Millisecond

// gormLogger 把 GORM 的内部日志桥接到应用统一日志。
// 默认只记录 Warn 以上，避免首页高频的状态回读刷屏。
type gormLogger struct {
	log   logger.Logger
	level glog.LogLevel
}

// NewLogger 创建 GORM 日志桥接
func NewLogger(l logger.Logger) glog.Interface {
	return &gormLogger{log: l, level: glog.Warn}
}

// LogMode 实现 logger.Interface 接口，返回指定级别的副本
func (g *gormLogger) LogMode(level glog.LogLevel) glog.Interface {
	clone := *g
	clone.level = level
	return &clone
}

// Info 打印 info 级别日志
func (g *gormLogger) Info(ctx context.Context, msg string, data ...any) {
	if g.level >= glog.Info {
		g.log.Info(msg, data...)
	}
}

// Warn 打印 warn 级别日志
func (g *gormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if g.level >= glog.Warn {
		g.log.Warn(msg, data...)
	}
}

// Error 打印 error 级别日志
func (g *gormLogger) Error(ctx context.Context, msg string, data ...any) {
	if g.level >= glog.Error {
		g.log.Error(msg, data...)
	}
}

// Trace 记录 SQL 执行详情，执行错误和慢查询分级上报
func (g *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= glog.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []any{
		"sql", sql,
		"rows", rows,
		"elapsed", elapsed.String(),
	}

	switch {
	case err != nil && g.level >= glog.Error:
		g.log.Error("SQL 执行失败", append(fields, "error", err)...)
	case elapsed > slowQueryThreshold && g.level >= glog.Warn:
		g.log.Warn("慢查询", append(fields, "threshold", slowQueryThreshold.String())...)
	case g.level == glog.Info:
		g.log.Debug("SQL 执行", fields...)
	}
}
