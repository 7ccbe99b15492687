package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/shopbot/pkg/repository"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// MongoSink stores entries in the audit log collection.
type MongoSink struct {
	repo    *repository.MongoRepository
	service string
}

func NewMongoSink(repo *repository.MongoRepository, service string) *MongoSink {
	return &MongoSink{repo: repo, service: service}
}

func (s *MongoSink) Name() string { return "mongo" }

func (s *MongoSink) Write(ctx context.Context, e Entry) error {
	return s.repo.CreateAuditLog(ctx, &repository.AuditLog{
		Service:   s.service,
		Action:    e.Action,
		EntityID:  e.UserID,
		Data:      bson.M(e.Data),
		CreatedAt: e.At,
	})
}

// messageWriter abstracts kafka.Writer for testability.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes entries as JSON, keyed by user id so one shopper's
// events stay on one partition.
type KafkaSink struct {
	writer messageWriter
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Write(ctx context.Context, e Entry) error {
	b, err := json.Marshal(&e)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return s.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.UserID), Value: b})
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// LogSink writes entries to the service log. It is used when no store is
// configured.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("audit")}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Write(ctx context.Context, e Entry) error {
	s.logger.Info("Audit",
		zap.String("action", e.Action),
		zap.String("user_id", e.UserID),
		zap.Any("data", e.Data))
	return nil
}
