package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Adapter 错误：SCHEMA_ERROR（输入缺少必需列，调用方可修正）
//   - Config 错误：CONFIG_NOT_FOUND（未知数据集，部署/配置缺陷）
//   - Registry 错误：MODEL_NOT_FOUND（模型工件缺失或无法反序列化）
//   - Orchestrator 错误：INVALID_INPUT（如相似检索的空查询文本）
type DomainError struct {
	Code    string // 错误代码（如 "SCHEMA_ERROR", "MODEL_NOT_FOUND"）
	Message string // 错误消息
	Module  string // 模块名称（如 "adapter", "config", "registry"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*DomainError)
	return ok
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound       = "NOT_FOUND"        // 资源不存在
	ErrorCodeSchema         = "SCHEMA_ERROR"     // 输入缺少该数据集模型必需的列
	ErrorCodeConfigNotFound = "CONFIG_NOT_FOUND" // 数据集配置不存在
	ErrorCodeModelNotFound  = "MODEL_NOT_FOUND"  // 模型工件不存在或加载失败
	ErrorCodeInvalidInput   = "INVALID_INPUT"    // 输入无效
	ErrorCodeNotSupported   = "NOT_SUPPORTED"    // 操作不支持
	ErrorCodeInternalError  = "INTERNAL_ERROR"   // 内部错误
)

// 模块名称常量
const (
	ModuleAdapter    = "adapter"    // 数据集适配模块
	ModuleConfig     = "config"     // 配置模块
	ModuleRegistry   = "registry"   // 模型注册表模块
	ModuleInference  = "inference"  // 推理编排模块
	ModuleSimilarity = "similarity" // 相似检索模块
	ModuleStore      = "store"      // 存储模块
)

// 通用错误检查函数

// IsSchemaError 检查错误是否为 SCHEMA_ERROR
func IsSchemaError(err error) bool {
	return hasCode(err, ErrorCodeSchema)
}

// IsConfigNotFound 检查错误是否为 CONFIG_NOT_FOUND
func IsConfigNotFound(err error) bool {
	return hasCode(err, ErrorCodeConfigNotFound)
}

// IsModelNotFound 检查错误是否为 MODEL_NOT_FOUND
func IsModelNotFound(err error) bool {
	return hasCode(err, ErrorCodeModelNotFound)
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return hasCode(err, ErrorCodeInvalidInput)
}

func hasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}
