package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 结构性错误（参数缺失、模型未就绪、存储故障）使用此类型
//   - 算法内的预期边界情况（零方差物品、无可用邻居、缺失物品均值）不是错误，
//     由 model / rank 转换为明确的数据（相似度 0、预测缺席、跳过评分）
//   - 支持 errors.Is / errors.As，Err 保存底层原因
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "INVALID_INPUT"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "model", "predict"）
	Err     error  // 底层错误，可为空
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is 按 Module + Code 比较，使包装过的错误也能匹配哨兵错误。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Module == t.Module && e.Code == t.Code
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 以 base 的 Module/Code 包装底层错误。
func WrapDomainError(base *DomainError, err error) *DomainError {
	return &DomainError{
		Module:  base.Module,
		Code:    base.Code,
		Message: base.Message,
		Err:     err,
	}
}

// GetDomainError 获取错误链中的 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleStore    = "store"
	ModuleModel    = "model"
	ModulePredict  = "predict"
	ModulePipeline = "pipeline"
	ModuleConfig   = "config"
)

var (
	// ErrModelNotReady 表示打分时没有可用的相似度模型
	ErrModelNotReady = NewDomainError(ModulePredict, ErrorCodeUnavailable, "predict: similarity model not ready")

	// ErrInvalidUser 表示缺少用户标识
	ErrInvalidUser = NewDomainError(ModulePredict, ErrorCodeInvalidInput, "predict: user id is required")

	// ErrInvalidRating 表示评分值不是有限实数
	ErrInvalidRating = NewDomainError(ModuleModel, ErrorCodeInvalidInput, "model: rating value must be finite")

	// ErrConfigInvalid 表示应用或 Pipeline 配置不合法
	ErrConfigInvalid = NewDomainError(ModuleConfig, ErrorCodeInvalidInput, "config: invalid configuration")

	// ErrUnknownNodeType 表示 Pipeline 配置中引用了未注册的 Node 类型
	ErrUnknownNodeType = NewDomainError(ModuleConfig, ErrorCodeNotSupported, "config: unknown node type")
)

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool { return hasCode(err, ErrorCodeNotSupported) }

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool { return hasCode(err, ErrorCodeUnavailable) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }
