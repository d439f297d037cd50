package domain

import "errors"

// 开关相关错误
var (
	ErrTunUnavailable = errors.New("TUN requires Service Mode or Admin Mode")
)

// 配置档案相关错误
var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrProfileNotSelectable = errors.New("profile type not selectable")
)

// 运行内核相关错误
var (
	ErrCoreUnreachable = errors.New("proxy core unreachable")
	ErrCoreApplyFailed = errors.New("profile apply rejected by core")
)

// 数据库相关错误
var (
	ErrDatabaseNotInitialized = errors.New("database not initialized")
	ErrRecordNotFound         = errors.New("record not found")
)
