package services

import (
	"context"
	"time"

	"github.com/orbio/invoice-gateway/pkg/redis"
)

type HealthService struct {
	redis redis.RedisAdapter
}

func NewHealthService(redisAdapter redis.RedisAdapter) *HealthService {
	return &HealthService{redis: redisAdapter}
}

func (s *HealthService) Get() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.redis.Client().Ping(ctx).Err()
}
