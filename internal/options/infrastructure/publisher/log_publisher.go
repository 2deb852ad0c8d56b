package publisher

import (
	"context"
	"log/slog"

	"github.com/wyfcoding/optionvault/internal/options/domain"
)

// LogEventPublisher 把事件写到日志的发布者，测试与单机演示使用。
type LogEventPublisher struct {
	logger *slog.Logger
}

// NewLogEventPublisher 创建日志事件发布者。
func NewLogEventPublisher(logger *slog.Logger) domain.EventPublisher {
	return &LogEventPublisher{logger: logger.With("module", "event_publisher")}
}

// Publish 记录事件。
func (p *LogEventPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	p.logger.InfoContext(ctx, "domain event", "topic", topic, "key", key, "event", event)
	return nil
}
