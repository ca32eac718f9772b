package chatclient

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LubyRuffy/kanbanchat/board"
	"github.com/LubyRuffy/kanbanchat/openaiapi"
	"github.com/sirupsen/logrus"
)

const (
	DefaultRefreshDelay = 500 * time.Millisecond
	readBufferSize      = 4 << 10
)

// ErrBusy 表示当前会话已有请求在进行中。
var ErrBusy = errors.New("a chat request is already in flight")

type SessionConfig struct {
	// Client 必填。
	Client *Client
	// RefreshDelay 判定创建任务后调用 OnTaskCreated 前的延迟，默认 500ms。
	RefreshDelay time.Duration
	// DisableHeuristic 关闭 created/added 文本匹配，只依赖显式事件与 tool_calls 信号。
	DisableHeuristic bool
	// OnUpdate 消息列表变化时以副本回调。
	OnUpdate func([]Message)
	// OnTaskCreated 看板需要刷新时回调。
	OnTaskCreated func()
	// AfterFunc 可选，默认 time.AfterFunc。
	AfterFunc func(d time.Duration, f func())
	Logger    logrus.FieldLogger
}

// Session 是单个聊天会话：同一时刻最多一个请求在途。
type Session struct {
	cfg SessionConfig

	mu       sync.Mutex
	messages []Message
	inFlight atomic.Bool
}

func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Client == nil {
		return nil, errors.New("Client is required")
	}
	if cfg.RefreshDelay <= 0 {
		cfg.RefreshDelay = DefaultRefreshDelay
	}
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Session{
		cfg:      cfg,
		messages: []Message{{Role: RoleAssistant, Content: Greeting}},
	}, nil
}

// Messages 返回消息列表副本。
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Busy 是否有请求在途。
func (s *Session) Busy() bool { return s.inFlight.Load() }

// Send 发送一条用户消息并消费流式回复。空白输入被忽略；已有请求在途时返回 ErrBusy。
// 传输层失败（网络、非成功状态、无响应体）只追加一条错误消息，并返回该错误。
func (s *Session) Send(ctx context.Context, text string, tasks []board.Summary) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.inFlight.Store(false)

	history := s.update(func(msgs []Message) []Message {
		return append(msgs, Message{Role: RoleUser, Content: text})
	})

	consumer, err := s.stream(ctx, history, tasks)
	if err != nil {
		s.cfg.Logger.WithError(err).Warn("chat request failed")
		s.update(func(msgs []Message) []Message {
			return append(msgs, Message{Role: RoleAssistant, Content: errorMessagePrefix + err.Error()})
		})
		return err
	}

	if TaskCreated(consumer.ToolCallSeen(), consumer.Event(), consumer.AssistantText(), !s.cfg.DisableHeuristic) && s.cfg.OnTaskCreated != nil {
		s.cfg.AfterFunc(s.cfg.RefreshDelay, s.cfg.OnTaskCreated)
	}
	return nil
}

func (s *Session) stream(ctx context.Context, history []Message, tasks []board.Summary) (*Consumer, error) {
	req := ChatRequest{
		Messages: make([]openaiapi.ChatMessage, 0, len(history)),
		Tasks:    tasks,
	}
	for _, m := range history {
		req.Messages = append(req.Messages, openaiapi.ChatMessage{Role: m.Role, Content: m.Content})
	}

	body, err := s.cfg.Client.StreamChat(ctx, req)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	consumer := &Consumer{}
	render := func(fragments []string) {
		if len(fragments) == 0 {
			return
		}
		text := consumer.AssistantText()
		s.update(func(msgs []Message) []Message { return Upsert(msgs, text) })
	}

	buf := make([]byte, readBufferSize)
	for !consumer.Done() {
		n, readErr := body.Read(buf)
		if n > 0 {
			render(consumer.Feed(buf[:n]))
		}
		if readErr == nil {
			continue
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		return nil, readErr
	}
	render(consumer.Flush())
	return consumer, nil
}

// update 在锁内修改消息列表，并以副本通知 OnUpdate。
func (s *Session) update(fn func([]Message) []Message) []Message {
	s.mu.Lock()
	s.messages = fn(s.messages)
	snapshot := append([]Message(nil), s.messages...)
	s.mu.Unlock()

	if s.cfg.OnUpdate != nil {
		s.cfg.OnUpdate(snapshot)
	}
	return snapshot
}
