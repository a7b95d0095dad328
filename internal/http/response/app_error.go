package response

// AppError 处理器错误：业务码、文案 key 与原始错误
type AppError struct {
	Code int
	Key  string
	Data interface{}
	Err  error
}

// NewAppError 创建处理器错误
func NewAppError(code int, key string, err error) *AppError {
	return &AppError{Code: code, Key: key, Err: err}
}

// WithData 附带响应数据
func (e *AppError) WithData(data interface{}) *AppError {
	e.Data = data
	return e
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Key
	}
	return e.Key + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}
