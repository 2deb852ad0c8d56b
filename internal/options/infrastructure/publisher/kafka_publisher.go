package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/messagequeue/kafka"

	"github.com/wyfcoding/optionvault/internal/options/domain"
)

// KafkaEventPublisher 把领域事件发布到 kafka，供外部观察者消费。
// 事件只是状态变更的通知，不参与共识，发布失败由调用方降级为日志。
type KafkaEventPublisher struct {
	producer *kafka.Producer
}

// NewKafkaEventPublisher 创建 kafka 事件发布者。
func NewKafkaEventPublisher(producer *kafka.Producer) domain.EventPublisher {
	return &KafkaEventPublisher{producer: producer}
}

// Publish 序列化事件并按系列 ID 作为分区键发送。
func (p *KafkaEventPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	envelope := map[string]any{
		"event_id": idgen.GenIDString(),
		"payload":  event,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.producer.PublishToTopic(ctx, topic, []byte(key), data)
}
