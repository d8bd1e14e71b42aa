package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tickrunner/internal/config"
	"tickrunner/internal/network"
	"tickrunner/internal/options"
	"tickrunner/internal/runner"
)

const (
	heartbeatKeyPrefix = "HEARTBEAT:"
	redisTimeout       = 5 * time.Second
)

var ipv4Addresses = network.IPv4Addresses

// Beat is the value stored under the heartbeat key.
type Beat struct {
	ID        string    `json:"id"`
	Service   string    `json:"service"`
	RunID     string    `json:"run_id"`
	Hostname  string    `json:"hostname"`
	IP        string    `json:"ip,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	SkewMs    int64     `json:"skew_ms"` // local minus server
	Sequence  int       `json:"sequence"`
}

// Heartbeat publishes a liveness key to Redis on every tick and measures the
// clock skew against the Redis server.
type Heartbeat struct {
	runner.BaseService
	identity

	client   *redis.Client
	id       string
	hostname string
	ip       string
	ttl      time.Duration

	beats    int
	lastSkew int64
}

// HeartbeatBuilder returns the builder for the heartbeat service.
func HeartbeatBuilder(deps Deps) runner.Builder {
	opts := []options.Option{
		{Name: "id", Usage: "heartbeat id (defaults to the hostname)", Kind: options.String},
		{Name: "ttl", Usage: "expiry of the heartbeat key", Kind: options.Duration, Default: 30 * time.Second},
		{Name: "interval", Shorthand: "i", Usage: "pause between beats", Kind: options.Duration, Default: 5 * time.Second},
		{Name: "ip-pattern", Usage: "regexp selecting the reported IPv4 address", Kind: options.String},
	}
	return runner.NewBuilder("heartbeat", opts, func(args options.Args) (runner.Service, error) {
		return newHeartbeat(deps, args)
	})
}

func newHeartbeat(deps Deps, args options.Args) (*Heartbeat, error) {
	ttl := args.Duration("ttl")
	if ttl <= 0 {
		return nil, fmt.Errorf("--ttl must be positive, got %v", ttl)
	}
	interval := args.Duration("interval")
	if interval <= 0 {
		return nil, fmt.Errorf("--interval must be positive, got %v", interval)
	}
	if interval >= ttl {
		return nil, fmt.Errorf("--interval %v must be shorter than --ttl %v", interval, ttl)
	}

	cfg := deps.config()
	hostname := config.GetHostname(cfg)
	id := args.String("id")
	if id == "" {
		id = hostname
	}

	ident := newIdentity("heartbeat")
	addrs, err := ipv4Addresses()
	if err != nil {
		ident.log.Warn().Err(err).Msg("Failed to list IPv4 addresses, beats carry no IP")
		addrs = nil
	}
	ip, err := network.PreferredIP(addrs, args.String("ip-pattern"))
	if err != nil {
		return nil, err
	}

	h := &Heartbeat{
		identity: ident,
		client:   newRedisClient(cfg.Redis, cfg.SOCKSProxy),
		id:       id,
		hostname: hostname,
		ip:       ip,
		ttl:      ttl,
	}
	h.Clock = deps.clock()
	h.Interval = interval
	return h, nil
}

func newRedisClient(cfg config.RedisConfig, socks config.SOCKSConfig) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if dial := network.ContextDialFunc(socks); dial != nil {
		opts.Dialer = dial
	}
	return redis.NewClient(opts)
}

// Key returns the Redis key this heartbeat writes.
func (h *Heartbeat) Key() string {
	return heartbeatKeyPrefix + h.id
}

// LastSkew returns the most recently measured skew in milliseconds.
func (h *Heartbeat) LastSkew() int64 {
	return h.lastSkew
}

// Tick writes one beat and then pauses for the interval.
func (h *Heartbeat) Tick() {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	err := h.beat(ctx)
	cancel()
	if err != nil {
		h.log.Warn().Err(err).Str("key", h.Key()).Msg("Heartbeat failed")
	}

	h.BaseService.Tick()
}

func (h *Heartbeat) beat(ctx context.Context) error {
	serverTime, err := h.client.Time(ctx).Result()
	if err != nil {
		return fmt.Errorf("redis TIME failed: %w", err)
	}
	now := h.Clock.Now()
	skew := now.UnixMilli() - serverTime.UnixMilli()

	h.beats++
	value, err := json.Marshal(Beat{
		ID:        h.id,
		Service:   h.name,
		RunID:     h.runID,
		Hostname:  h.hostname,
		IP:        h.ip,
		Timestamp: now.UTC(),
		SkewMs:    skew,
		Sequence:  h.beats,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal beat: %w", err)
	}

	if err := h.client.Set(ctx, h.Key(), value, h.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s failed: %w", h.Key(), err)
	}
	h.lastSkew = skew

	h.log.Debug().
		Str("key", h.Key()).
		Int64("skew_ms", skew).
		Int("sequence", h.beats).
		Msg("Heartbeat written")
	return nil
}

// Finalize removes the heartbeat key and closes the Redis client.
func (h *Heartbeat) Finalize() {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := h.client.Del(ctx, h.Key()).Err(); err != nil {
		h.log.Warn().Err(err).Str("key", h.Key()).Msg("Failed to delete heartbeat key")
	}
	if err := h.client.Close(); err != nil {
		h.log.Warn().Err(err).Msg("Failed to close Redis client")
	}
	h.log.Info().Int("beats", h.beats).Msg("Heartbeat stopped")
}
