package service

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	InternalServerError = 500
	ServiceUnavailable  = 503
)

var (
	ErrParamInvalid   = errors.New("参数错误")
	UnauthorizedError = errors.New("权限不足")
	UnExpectedError   = errors.New("系统异常，请稍后重试")

	// 聊天核心错误分类
	ErrValidation        = errors.New("事件参数校验失败")
	ErrUnknownEvent      = errors.New("未知事件")
	ErrNotFound          = errors.New("目标不存在")
	ErrStoreUnavailable  = errors.New("存储暂不可用")
	ErrUnknownConnection = errors.New("未知连接")
	ErrInvalidState      = errors.New("连接状态不允许该操作")
)

// errorCodes 错误分类到业务码，按顺序匹配错误链，先匹配到的生效
var errorCodes = []struct {
	err  error
	code int
}{
	{ErrStoreUnavailable, ServiceUnavailable},
	{ErrNotFound, NotFound},
	{ErrValidation, BadRequest},
	{ErrUnknownEvent, BadRequest},
	{ErrParamInvalid, BadRequest},
	{UnauthorizedError, Unauthorized},
	{ErrUnknownConnection, BadRequest},
	{ErrInvalidState, BadRequest},
	{UnExpectedError, InternalServerError},
}

// Classify 返回错误对应的业务码与可以展示给客户端的分类错误，未归类时 ok 为 false
func Classify(err error) (code int, public error, ok bool) {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code, ec.err, true
		}
	}
	return InternalServerError, UnExpectedError, false
}

// storeErr 在存储边界对 Redis 错误归类：key 不存在视为 NotFound，其余视为存储不可用
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrValidation), errors.Is(err, ErrStoreUnavailable):
		return err
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
