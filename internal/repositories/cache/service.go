package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"merx/internal/models"

	"github.com/redis/go-redis/v9"
)

// CacheService wraps Redis for the two cache concerns the engine has:
// resolved-tenant lookups on the hot request path, and sliding velocity
// counters feeding risk scoring. Both are best-effort; callers fall back
// to SQL when Redis is unavailable.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// Key generation
func (s *CacheService) GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

// HashKey digests a secret so it can appear in a cache key without storing
// the secret itself.
func HashKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Tenant caching

const tenantCacheTTL = 5 * time.Minute

func (s *CacheService) CacheTenant(ctx context.Context, tenant *models.Tenant) error {
	if tenant == nil {
		return errors.New("cannot cache nil tenant")
	}

	keys := []string{
		s.GenerateKey("tenant", "id", tenant.ID),
		s.GenerateKey("tenant", "subdomain", tenant.Subdomain),
		s.GenerateKey("tenant", "apikey", HashKey(tenant.APIKey)),
	}
	for _, key := range keys {
		if err := s.SetWithTTL(ctx, key, tenant, tenantCacheTTL); err != nil {
			return err
		}
	}
	return nil
}

func (s *CacheService) GetTenantBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, bool) {
	var tenant models.Tenant
	found, err := s.Get(ctx, s.GenerateKey("tenant", "subdomain", subdomain), &tenant)
	if err != nil || !found {
		return nil, false
	}
	return &tenant, true
}

func (s *CacheService) GetTenantByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, bool) {
	var tenant models.Tenant
	found, err := s.Get(ctx, s.GenerateKey("tenant", "apikey", HashKey(apiKey)), &tenant)
	if err != nil || !found {
		return nil, false
	}
	return &tenant, true
}

func (s *CacheService) InvalidateTenant(ctx context.Context, tenant *models.Tenant) error {
	if tenant == nil {
		return nil
	}
	return s.Delete(ctx,
		s.GenerateKey("tenant", "id", tenant.ID),
		s.GenerateKey("tenant", "subdomain", tenant.Subdomain),
		s.GenerateKey("tenant", "apikey", HashKey(tenant.APIKey)),
	)
}

// Velocity counters

// IncrementCounter bumps a sliding-window counter, setting the window TTL
// on first increment.
func (s *CacheService) IncrementCounter(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		s.client.Expire(ctx, key, window)
	}
	return count, nil
}

// GetCounter reads a counter, returning ok=false on any miss or error so
// callers fall back to SQL.
func (s *CacheService) GetCounter(ctx context.Context, key string) (int64, bool) {
	val, err := s.client.Get(ctx, key).Int64()
	if err != nil {
		return 0, false
	}
	return val, true
}

func (s *CacheService) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// Client exposes the raw connection for health checks.
func (s *CacheService) Client() *redis.Client {
	return s.client
}

func (s *CacheService) Close() error {
	return s.client.Close()
}
