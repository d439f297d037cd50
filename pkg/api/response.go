package api

// Response 是前后端通信的统一响应信封。
// 失败时 Code 携带稳定的错误码供前端做国际化，Message 仅在
// 没有对应错误码时兜底展示。
type Response[T any] struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

// OK 构造携带数据的成功响应
func OK[T any](data T) Response[T] {
	return Response[T]{
		Success: true,
		Data:    data,
	}
}

// OKEmpty 构造无业务数据的成功响应
func OKEmpty() Response[EmptyData] {
	return OK(EmptyData{})
}

// Fail 构造失败响应
func Fail[T any](code, message string) Response[T] {
	return Response[T]{
		Success: false,
		Code:    code,
		Message: message,
	}
}

// EmptyData 用于无业务数据返回的场景
type EmptyData struct{}
