package domain

import "errors"

// Kind 错误分类，transport 层按 Kind 映射状态码
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindForbidden
	KindInvalidState
	KindPrecondition
	KindDuplicateResponse
	KindDuplicateRating
	KindInsufficientFunds
	KindConflict
	KindInvalidCredentials
	KindInvalidToken
	KindExpiredToken
)

// Error 业务错误；Is 只比较 Kind，因此 errors.Is(err, ErrNotFound) 对任意消息都成立
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation         = &Error{Kind: KindValidation, Msg: "validation failed"}
	ErrNotFound           = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrForbidden          = &Error{Kind: KindForbidden, Msg: "forbidden"}
	ErrInvalidState       = &Error{Kind: KindInvalidState, Msg: "invalid state"}
	ErrPrecondition       = &Error{Kind: KindPrecondition, Msg: "precondition failed"}
	ErrDuplicateResponse  = &Error{Kind: KindDuplicateResponse, Msg: "already responded"}
	ErrDuplicateRating    = &Error{Kind: KindDuplicateRating, Msg: "already rated"}
	ErrInsufficientFunds  = &Error{Kind: KindInsufficientFunds, Msg: "insufficient funds"}
	ErrConflict           = &Error{Kind: KindConflict, Msg: "already exists"}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Msg: "invalid credentials"}
	ErrInvalidToken       = &Error{Kind: KindInvalidToken, Msg: "invalid token"}
	ErrExpiredToken       = &Error{Kind: KindExpiredToken, Msg: "token expired"}
)

func Validation(msg string) error   { return &Error{Kind: KindValidation, Msg: msg} }
func NotFound(msg string) error     { return &Error{Kind: KindNotFound, Msg: msg} }
func Forbidden(msg string) error    { return &Error{Kind: KindForbidden, Msg: msg} }
func InvalidState(msg string) error { return &Error{Kind: KindInvalidState, Msg: msg} }
func Precondition(msg string) error { return &Error{Kind: KindPrecondition, Msg: msg} }

// KindOf 返回 err 链上第一个业务错误的 Kind，非业务错误返回 0
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
