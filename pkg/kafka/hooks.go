package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// ConsumerHook observes the lifecycle of message handling. BeforeHandle may
// rewrite the context, message, or payload before the handler runs.
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, topic string, m kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error)
	AfterHandle(ctx context.Context, topic string, m kafka.Message, data []byte, err error)
	OnError(ctx context.Context, topic string, m kafka.Message, data []byte, err error)
}

// NoopHook is the default hook.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ string, m kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	return ctx, m, data, nil
}

func (NoopHook) AfterHandle(context.Context, string, kafka.Message, []byte, error) {}

func (NoopHook) OnError(context.Context, string, kafka.Message, []byte, error) {}

// HookFuncs adapts plain functions to ConsumerHook. Nil fields are skipped.
type HookFuncs struct {
	Before func(ctx context.Context, topic string, m kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error)
	After  func(ctx context.Context, topic string, m kafka.Message, data []byte, err error)
	Err    func(ctx context.Context, topic string, m kafka.Message, data []byte, err error)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, topic string, m kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	if h.Before != nil {
		return h.Before(ctx, topic, m, data)
	}
	return ctx, m, data, nil
}

func (h HookFuncs) AfterHandle(ctx context.Context, topic string, m kafka.Message, data []byte, err error) {
	if h.After != nil {
		h.After(ctx, topic, m, data, err)
	}
}

func (h HookFuncs) OnError(ctx context.Context, topic string, m kafka.Message, data []byte, err error) {
	if h.Err != nil {
		h.Err(ctx, topic, m, data, err)
	}
}
