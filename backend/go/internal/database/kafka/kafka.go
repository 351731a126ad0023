package kafka

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"Paggo/backend/go/internal/config"
	"Paggo/backend/go/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// EnsureTopic 连接到第一个 broker，主题不存在时自动创建。
func EnsureTopic(ctx context.Context, cfg *config.KafkaConfig, log *logger.Logger) error {
	if len(cfg.Brokers) == 0 {
		return fmt.Errorf("未配置 Kafka brokers")
	}
	if cfg.Topic == "" {
		return fmt.Errorf("未配置 Kafka topic")
	}

	dialer := &kafka.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Brokers[0])
	if err != nil {
		return fmt.Errorf("kafka 初始化连接失败: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("无法读取 Kafka 分区信息: %w", err)
	}
	for _, p := range partitions {
		if p.Topic == cfg.Topic {
			return nil
		}
	}

	// 主题创建必须发给 controller
	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("无法获取 Kafka controller: %w", err)
	}
	ctrlConn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("连接 Kafka controller 失败: %w", err)
	}
	defer ctrlConn.Close()

	err = ctrlConn.CreateTopics(kafka.TopicConfig{
		Topic:             cfg.Topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		return fmt.Errorf("自动创建 Kafka 主题失败: %w", err)
	}
	log.WithPayload(map[string]interface{}{"topic": cfg.Topic}).Info("已创建 Kafka 主题")
	return nil
}

// NewWriter 创建绑定到事件主题的 writer。
func NewWriter(cfg *config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{}, // 同一文档的事件落在同一分区
		BatchTimeout:           10 * time.Millisecond,
		BatchSize:              100,
		AllowAutoTopicCreation: false,
	}
}

// HealthCheck 返回一个通过拨号第一个 broker 检查连通性的函数。
func HealthCheck(cfg *config.KafkaConfig) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers[0])
		if err != nil {
			return err
		}
		defer conn.Close()
		_, err = conn.Controller()
		return err
	}
}
