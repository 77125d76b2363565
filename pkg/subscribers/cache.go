package subscribers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/derrickgolden/easyisp-engine/pkg/observability"
	"github.com/derrickgolden/easyisp-engine/pkg/radius"
)

// CachedService layers a Redis read cache over a Service, plus a small
// in-process LRU of encoded rate-limit attributes keyed by package and NAS
// vendor. Provisioning jobs re-encode the same handful of packages
// constantly; the attribute string only changes when the package does.
type CachedService struct {
	Service

	redis    *redis.Client
	ttl      map[string]time.Duration
	policies *lru.LRU[string, string]
	metrics  *observability.Metrics
}

// CacheConfig tunes the cache layers. Zero values fall back to defaults;
// Metrics may be nil.
type CacheConfig struct {
	SubscriberTTL time.Duration
	PackageTTL    time.Duration
	PolicyEntries int
	Metrics       *observability.Metrics
}

// NewCachedService wraps a Service with caching using default TTLs.
func NewCachedService(inner Service, client *redis.Client) *CachedService {
	return NewCachedServiceWithConfig(inner, client, CacheConfig{})
}

// NewCachedServiceWithConfig wraps a Service with tuned cache layers.
func NewCachedServiceWithConfig(inner Service, client *redis.Client, cfg CacheConfig) *CachedService {
	if cfg.SubscriberTTL <= 0 {
		cfg.SubscriberTTL = 2 * time.Minute
	}
	if cfg.PackageTTL <= 0 {
		cfg.PackageTTL = 15 * time.Minute
	}
	if cfg.PolicyEntries <= 0 {
		cfg.PolicyEntries = 256
	}
	return &CachedService{
		Service: inner,
		redis:   client,
		ttl: map[string]time.Duration{
			"subscriber": cfg.SubscriberTTL,
			"package":    cfg.PackageTTL,
		},
		policies: lru.NewLRU[string, string](cfg.PolicyEntries, nil, cfg.PackageTTL),
		metrics:  cfg.Metrics,
	}
}

func subscriberKey(id int64) string { return fmt.Sprintf("subscriber:%d", id) }
func packageKey(id int64) string    { return fmt.Sprintf("package:%d", id) }

func policyKey(id int64, vendor string) string {
	return fmt.Sprintf("policy:%d:%s", id, strings.ToLower(vendor))
}

func (c *CachedService) countHit(cacheType, keyType string) {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(cacheType, keyType).Inc()
	}
}

func (c *CachedService) countMiss(cacheType, keyType string) {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.WithLabelValues(cacheType, keyType).Inc()
	}
}

// GetSubscriber retrieves a subscriber, trying the cache first.
func (c *CachedService) GetSubscriber(ctx context.Context, id int64) (*Subscriber, error) {
	key := subscriberKey(id)

	if cached, err := c.redis.Get(ctx, key).Result(); err == nil {
		var sub Subscriber
		if err := json.Unmarshal([]byte(cached), &sub); err == nil {
			c.countHit("redis", "subscriber")
			return &sub, nil
		}
		// Corrupt entry: drop it and fall through to storage.
		c.redis.Del(ctx, key)
	}
	c.countMiss("redis", "subscriber")

	sub, err := c.Service.GetSubscriber(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(sub); err == nil {
		c.redis.Set(ctx, key, data, c.ttl["subscriber"])
	}
	return sub, nil
}

// GetPackage retrieves a package, trying the cache first.
func (c *CachedService) GetPackage(ctx context.Context, id int64) (*Package, error) {
	key := packageKey(id)

	if cached, err := c.redis.Get(ctx, key).Result(); err == nil {
		var pkg Package
		if err := json.Unmarshal([]byte(cached), &pkg); err == nil {
			c.countHit("redis", "package")
			return &pkg, nil
		}
		c.redis.Del(ctx, key)
	}
	c.countMiss("redis", "package")

	pkg, err := c.Service.GetPackage(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(pkg); err == nil {
		c.redis.Set(ctx, key, data, c.ttl["package"])
	}
	return pkg, nil
}

// PolicyString returns the encoded rate-limit attribute for a package under
// the given vendor profile, serving repeat lookups from the in-process LRU.
// A nil profile encodes the bare positional form.
func (c *CachedService) PolicyString(ctx context.Context, packageID int64, profile *radius.Profile) (string, error) {
	vendor := ""
	if profile != nil {
		vendor = profile.Vendor
	}
	key := policyKey(packageID, vendor)

	if value, ok := c.policies.Get(key); ok {
		c.countHit("lru", "policy")
		return value, nil
	}
	c.countMiss("lru", "policy")

	pkg, err := c.GetPackage(ctx, packageID)
	if err != nil {
		return "", err
	}

	var value string
	if profile != nil {
		value, err = profile.EncodeFor(pkg.QoS())
	} else {
		value, err = radius.Encode(pkg.QoS())
	}
	if err != nil {
		return "", fmt.Errorf("package %d: %w", packageID, err)
	}

	c.policies.Add(key, value)
	return value, nil
}

// SetParent updates the link and invalidates the subscriber's cache entry.
func (c *CachedService) SetParent(ctx context.Context, id int64, parentID *int64, independent bool) error {
	if err := c.Service.SetParent(ctx, id, parentID, independent); err != nil {
		return err
	}
	return c.InvalidateSubscriber(ctx, id)
}

// SweepExpired delegates to storage and invalidates every affected entry.
func (c *CachedService) SweepExpired(ctx context.Context, now time.Time) ([]int64, error) {
	ids, err := c.Service.SweepExpired(ctx, now)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := c.InvalidateSubscriber(ctx, id); err != nil {
			return ids, err
		}
	}
	return ids, nil
}

// InvalidateSubscriber drops a subscriber from the cache.
func (c *CachedService) InvalidateSubscriber(ctx context.Context, id int64) error {
	return c.redis.Del(ctx, subscriberKey(id)).Err()
}

// InvalidatePackage drops a package and every vendor variant of its encoded
// policy from the caches. Called after a package is edited so the next
// encode sees the new QoS columns.
func (c *CachedService) InvalidatePackage(ctx context.Context, id int64) error {
	prefix := fmt.Sprintf("policy:%d:", id)
	for _, key := range c.policies.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.policies.Remove(key)
		}
	}
	return c.redis.Del(ctx, packageKey(id)).Err()
}
