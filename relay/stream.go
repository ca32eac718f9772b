package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/LubyRuffy/kanbanchat/openaiapi"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	maxGatewayErrBytes = 8 << 10
	readBufferSize     = 4 << 10
	pipeCapacity       = 16
)

// Stream 是一次已建立的上游流式响应，只能 Pump 一次。
type Stream struct {
	id       string
	body     io.ReadCloser
	finalize Finalizer
	logger   logrus.FieldLogger
}

// Open 校验凭据并向网关发起流式请求。返回 *Error 时流尚未开始，调用方应输出 JSON 错误体。
func (r *Relay) Open(ctx context.Context, in ChatInput) (*Stream, error) {
	apiKey, err := r.cfg.Credentials.APIKey(ctx)
	if err != nil || strings.TrimSpace(apiKey) == "" {
		if err == nil {
			err = errors.New("empty api key")
		}
		r.cfg.Logger.WithField("kind", KindConfiguration).WithError(err).Error("upstream credential unavailable")
		return nil, &Error{
			Kind:    KindConfiguration,
			Status:  http.StatusInternalServerError,
			Message: err.Error(),
			Err:     err,
		}
	}

	conversation, err := buildConversation(in)
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Status: http.StatusBadRequest, Message: err.Error(), Err: err}
	}

	payload := openaiapi.ChatRequest{
		Model:    r.cfg.Model,
		Messages: gatewayMessages(conversation),
		Stream:   true,
		Tools:    []openaiapi.Tool{CreateTaskTool()},
	}

	resp, err := r.doGatewayRequest(ctx, apiKey, payload)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	return &Stream{
		id:       id,
		body:     resp.Body,
		finalize: r.finalizeToolCall,
		logger:   r.cfg.Logger.WithField("request_id", id),
	}, nil
}

func (r *Relay) doGatewayRequest(ctx context.Context, apiKey string, payload openaiapi.ChatRequest) (*http.Response, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.GatewayURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := r.cfg.HTTPClient.Do(req)
	if err != nil {
		r.cfg.Logger.WithField("kind", KindUpstreamService).WithError(err).Error("AI gateway request failed")
		return nil, &Error{
			Kind:    KindUpstreamService,
			Status:  http.StatusInternalServerError,
			Message: MessageUpstreamService,
			Err:     fmt.Errorf("gateway request failed: %w", err),
		}
	}
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return resp, nil
	}

	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return nil, &Error{Kind: KindRateLimited, Status: http.StatusTooManyRequests, Message: MessageRateLimited}
	case http.StatusPaymentRequired:
		return nil, &Error{Kind: KindCreditsExhausted, Status: http.StatusPaymentRequired, Message: MessageCreditsExhausted}
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxGatewayErrBytes))
	r.cfg.Logger.WithFields(logrus.Fields{
		"kind":   KindUpstreamService,
		"status": resp.StatusCode,
		"body":   strings.TrimSpace(string(body)),
	}).Error("AI gateway error")
	return nil, &Error{
		Kind:    KindUpstreamService,
		Status:  http.StatusInternalServerError,
		Message: MessageUpstreamService,
		Err:     fmt.Errorf("gateway responded with status %d", resp.StatusCode),
	}
}

func (s *Stream) ID() string { return s.id }

// Close 释放上游响应体；Pump 结束时会自动调用。
func (s *Stream) Close() error {
	return s.body.Close()
}

// Pump 把转换后的帧写往下游，直到输出 [DONE]、上游结束或下游断开。
//
// 生产者 goroutine 读取上游并经 schema.Pipe 把帧交给消费者，消费者写入 w 并调用 flush；
// 两者由 errgroup 托管。下游写失败会关闭管道读端，生产者在下一次 Send 时观察到并退出，
// 同时取消 ctx 关闭上游响应体，解除阻塞中的读。返回值是第一个失败原因（ErrDownstreamClosed 表示下游断开）。
func (s *Stream) Pump(ctx context.Context, w io.Writer, flush func()) error {
	defer s.body.Close()
	if flush == nil {
		flush = func() {}
	}

	sr, sw := schema.Pipe[[]byte](pipeCapacity)
	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, func() { _ = s.body.Close() })
	defer stop()

	g.Go(func() error {
		defer sw.Close()
		return s.produce(gctx, sw)
	})
	g.Go(func() error {
		defer sr.Close()
		for {
			frame, err := sr.Recv()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			if _, err := w.Write(frame); err != nil {
				return fmt.Errorf("%w: %v", ErrDownstreamClosed, err)
			}
			flush()
		}
	})
	return g.Wait()
}

func (s *Stream) produce(ctx context.Context, sw *schema.StreamWriter[[]byte]) error {
	t := NewTransformer(s.finalize, s.logger)
	emit := func(frame []byte) error {
		if closed := sw.Send(frame, nil); closed {
			return ErrDownstreamClosed
		}
		return nil
	}

	buf := make([]byte, readBufferSize)
	for {
		n, readErr := s.body.Read(buf)
		if n > 0 {
			if err := t.Feed(ctx, buf[:n], emit); err != nil {
				return err
			}
			if t.Done() {
				return nil
			}
		}
		if readErr == nil {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(readErr, io.EOF) {
			return t.Close(ctx, emit)
		}
		s.logger.WithError(readErr).Error("stream processing error")
		if err := t.Close(ctx, emit); err != nil {
			return err
		}
		return fmt.Errorf("upstream read failed: %w", readErr)
	}
}
