package alerts

import (
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/soltixdb/insights/internal/config"
)

// Backend types
const (
	TypeMemory = "memory"
	TypeNATS   = "nats"
	TypeRedis  = "redis"
	TypeKafka  = "kafka"
)

// NewQueue creates the queue backend selected by cfg.Type (memory by default)
func NewQueue(cfg config.AlertsConfig) (Queue, error) {
	switch strings.ToLower(cfg.Type) {
	case "", TypeMemory:
		return NewMemoryQueue(), nil

	case TypeNATS:
		var opts []nats.Option
		if cfg.Username != "" {
			opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
		}
		opts = append(opts, nats.Name("insights-alerts"), nats.MaxReconnects(-1))
		return NewNATSQueue(cfg.URL, cfg.Subject, opts...)

	case TypeRedis:
		return NewRedisQueue(RedisConfig{
			URL:      cfg.URL,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisStream,
			Group:    cfg.RedisGroup,
		})

	case TypeKafka:
		return NewKafkaQueue(KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.KafkaGroupID,
		})

	default:
		return nil, fmt.Errorf("unsupported alert queue type: %s (supported: memory, nats, redis, kafka)", cfg.Type)
	}
}
