package gui

import (
	"errors"
	"strings"

	"proxydesk/pkg/domain"
)

// 错误码常量
const (
	CodeTunUnavailable       = "TUN_UNAVAILABLE"
	CodeProfileNotFound      = "PROFILE_NOT_FOUND"
	CodeProfileNotSelectable = "PROFILE_NOT_SELECTABLE"
	CodeCoreUnreachable      = "CORE_UNREACHABLE"
	CodeCoreApplyFailed      = "CORE_APPLY_FAILED"
	CodeDatabaseError        = "DATABASE_ERROR"
	CodeCancelled            = "CANCELLED"
	CodeUnknown              = "UNKNOWN_ERROR"
)

// 错误映射表（仅返回错误码，前端根据错误码进行国际化）
var errorMappings = map[error]string{
	domain.ErrTunUnavailable:         CodeTunUnavailable,
	domain.ErrProfileNotFound:        CodeProfileNotFound,
	domain.ErrProfileNotSelectable:   CodeProfileNotSelectable,
	domain.ErrCoreUnreachable:        CodeCoreUnreachable,
	domain.ErrCoreApplyFailed:        CodeCoreApplyFailed,
	domain.ErrDatabaseNotInitialized: CodeDatabaseError,
}

// translateError 将领域错误转换为错误码
func (a *App) translateError(err error) (code, message string) {
	if err == nil {
		return "", ""
	}

	for domainErr, errorCode := range errorMappings {
		if errors.Is(err, domainErr) {
			a.log.Err(err, "业务错误", "code", errorCode)
			return errorCode, ""
		}
	}

	// 处理网络相关错误
	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "dial tcp") {
		a.log.Err(err, "内核连接错误")
		return CodeCoreUnreachable, ""
	}

	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") {
		a.log.Err(err, "内核请求超时")
		return CodeCoreUnreachable, ""
	}

	a.log.Err(err, "未知错误")
	return CodeUnknown, err.Error()
}
