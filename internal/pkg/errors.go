package pkg

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindNotFound
	KindPermissionDenied
	KindResourceExhausted
	KindUnavailable
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindNotFound:
		return "NotFound"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindResourceExhausted:
		return "ResourceExhausted"
	case KindUnavailable:
		return "Unavailable"
	case KindUnauthenticated:
		return "Unauthenticated"
	default:
		return "Internal"
	}
}

// Error 业务错误：Msg 可以直接返回给客户端，Err 只写日志
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func InvalidArgument(msg string) error { return &Error{Kind: KindInvalidArgument, Msg: msg} }

func NotFound(msg string) error { return &Error{Kind: KindNotFound, Msg: msg} }

func PermissionDenied(msg string) error { return &Error{Kind: KindPermissionDenied, Msg: msg} }

func ResourceExhausted(msg string) error { return &Error{Kind: KindResourceExhausted, Msg: msg} }

func Unauthenticated(msg string) error { return &Error{Kind: KindUnauthenticated, Msg: msg} }

func Unavailable(msg string, err error) error {
	return &Error{Kind: KindUnavailable, Msg: msg, Err: err}
}

// KindOf 非 *Error 一律视为 Internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage 返回可以暴露给客户端的错误信息
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return "Server error"
}

// HTTPStatus 错误类型到 HTTP 状态码的映射
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
