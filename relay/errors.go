package relay

import (
	"errors"
	"net/http"
	"strings"
)

// ErrorKind 对应 relay 边界上的错误分类。
type ErrorKind string

const (
	KindInvalidRequest    ErrorKind = "invalid_request"
	KindConfiguration     ErrorKind = "configuration"
	KindRateLimited       ErrorKind = "rate_limited"
	KindCreditsExhausted  ErrorKind = "credits_exhausted"
	KindUpstreamService   ErrorKind = "upstream_service"
	KindMalformedFrame    ErrorKind = "malformed_frame"
	KindToolArgumentParse ErrorKind = "tool_argument_parse"
	KindPersistence       ErrorKind = "persistence"
)

const (
	MessageRateLimited      = "Rate limit exceeded. Please try again in a moment."
	MessageCreditsExhausted = "AI credits depleted. Please add credits in Settings."
	MessageUpstreamService  = "AI service error"
)

// ErrDownstreamClosed 表示下游消费者已断开，pump 不再重试。
var ErrDownstreamClosed = errors.New("downstream consumer closed")

type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf 返回错误分类；非 *Error 返回空串。
func KindOf(err error) ErrorKind {
	var relayErr *Error
	if errors.As(err, &relayErr) && relayErr != nil {
		return relayErr.Kind
	}
	return ""
}

func StatusFromError(err error) int {
	var relayErr *Error
	if errors.As(err, &relayErr) && relayErr != nil && relayErr.Status != 0 {
		return relayErr.Status
	}
	return http.StatusInternalServerError
}

func MessageFromError(err error) string {
	var relayErr *Error
	if errors.As(err, &relayErr) && relayErr != nil && strings.TrimSpace(relayErr.Message) != "" {
		return relayErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
