// Package errors 定义命令执行过程中的错误分类。
//
// 错误分为两类：
//   - 致命错误：InvalidInput（参数校验失败）、OperationFailed（图像引擎调用失败），
//     直接返回到命令顶层，进程以非零状态退出。
//   - 可累积错误：Processing（单个文件处理失败）、IO / Serialization（导出失败）、
//     ResourceExhausted（重名文件尝试次数耗尽），收集后统一展示，不中断流程。
//
// 判断错误类型：
//
//	if errors.Is(err, errors.ErrInvalidInput) { ... }
//	if errors.IsKind(err, errors.KindProcessing) { ... }
package errors

import (
	"errors"
	"fmt"
)

var (
	Is = errors.Is
	As = errors.As
)

// Kind 错误类别
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindOperationFailed
	KindProcessing
	KindIO
	KindSerialization
	KindResourceExhausted
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindOperationFailed:
		return "operation failed"
	case KindProcessing:
		return "processing error"
	case KindIO:
		return "io error"
	case KindSerialization:
		return "serialization error"
	case KindResourceExhausted:
		return "resource exhausted"
	default:
		return "unknown"
	}
}

// 每种类别对应的哨兵错误，配合 errors.Is 使用
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrOperationFailed   = errors.New("operation failed")
	ErrProcessing        = errors.New("processing error")
	ErrIO                = errors.New("io error")
	ErrSerialization     = errors.New("serialization error")
	ErrResourceExhausted = errors.New("resource exhausted")
)

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindOperationFailed:
		return ErrOperationFailed
	case KindProcessing:
		return ErrProcessing
	case KindIO:
		return ErrIO
	case KindSerialization:
		return ErrSerialization
	case KindResourceExhausted:
		return ErrResourceExhausted
	default:
		return nil
	}
}

// Error 是本项目统一的错误类型
type Error struct {
	Kind    Kind
	Message string
	Path    string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is 让 errors.Is(err, ErrInvalidInput) 之类的判断按类别匹配
func (e *Error) Is(target error) bool {
	if s := e.Kind.sentinel(); s != nil && target == s {
		return true
	}
	return false
}

// WithPath 记录出错的文件或目录
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithCause 记录底层错误
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// InvalidInput 参数或路径不合法，在调用引擎之前失败
func InvalidInput(format string, args ...any) *Error {
	return newError(KindInvalidInput, format, args...)
}

// OperationFailed 图像引擎调用本身失败
func OperationFailed(cause error, format string, args ...any) *Error {
	return newError(KindOperationFailed, format, args...).WithCause(cause)
}

// Processing 单个文件处理失败
func Processing(path string, cause error, format string, args ...any) *Error {
	return newError(KindProcessing, format, args...).WithPath(path).WithCause(cause)
}

// IO 文件读写失败
func IO(path string, cause error, format string, args ...any) *Error {
	return newError(KindIO, format, args...).WithPath(path).WithCause(cause)
}

// Serialization 序列化失败
func Serialization(cause error, format string, args ...any) *Error {
	return newError(KindSerialization, format, args...).WithCause(cause)
}

// ResourceExhausted 有限资源（例如重命名尝试次数）耗尽
func ResourceExhausted(path string, format string, args ...any) *Error {
	return newError(KindResourceExhausted, format, args...).WithPath(path)
}

// KindOf 返回错误链上第一个 *Error 的类别
func KindOf(err error) Kind {
	var e *Error
	if As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind 判断错误链上是否存在指定类别的错误
func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	s := kind.sentinel()
	if s == nil {
		return false
	}
	return Is(err, s)
}
