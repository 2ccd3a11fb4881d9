package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// byteStore is the raw key/value half of domain.Cache.
type byteStore interface {
	Get(ctx context.Context, namespace string, key string) ([]byte, error)
	Set(ctx context.Context, namespace string, key string, value []byte, ttl time.Duration) error
}

func getDashboard(ctx context.Context, s byteStore, namespace, key string) (*domain.Dashboard, error) {
	data, err := s.Get(ctx, namespace, key)
	if err != nil || data == nil {
		return nil, err
	}

	var d domain.Dashboard
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode cached dashboard: %w", err)
	}
	return &d, nil
}

func setDashboard(ctx context.Context, s byteStore, namespace, key string, d *domain.Dashboard, ttl time.Duration) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode dashboard: %w", err)
	}
	return s.Set(ctx, namespace, key, data, ttl)
}
