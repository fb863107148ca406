package record

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store keeps records in Redis with a TTL and a per-player index.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(redisURL string, ttl time.Duration) (*Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for record store")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{rdb: rdb, ttl: ttl}, nil
}

func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// Create inserts a fresh record for the given participants and returns it.
func (s *Store) Create(ctx context.Context, owner, guest string) (*Record, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, fmt.Errorf("owner required")
	}
	rec := &Record{
		ID:        uuid.NewString(),
		Owner:     owner,
		Guest:     strings.TrimSpace(guest),
		Status:    "waiting",
		CreatedAt: time.Now(),
	}
	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// SaveFinished upserts a finished record and indexes its participants.
func (s *Store) SaveFinished(ctx context.Context, rec *Record) error {
	if rec == nil {
		return nil
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now()
	}
	rec.Status = "finished"
	return s.save(ctx, rec)
}

// Get returns the record by ID, or nil when absent.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	raw, err := s.rdb.Get(ctx, keyRecord(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// IDsByPlayer lists record IDs a player participated in.
func (s *Store) IDsByPlayer(ctx context.Context, identity string) ([]string, error) {
	return s.rdb.SMembers(ctx, keyPlayerIdx(identity)).Result()
}

func (s *Store) save(ctx context.Context, rec *Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, keyRecord(rec.ID), raw, s.ttl).Err(); err != nil {
		return err
	}
	for _, p := range []string{rec.Owner, rec.Guest} {
		if strings.TrimSpace(p) == "" {
			continue
		}
		key := keyPlayerIdx(p)
		if err := s.rdb.SAdd(ctx, key, rec.ID).Err(); err != nil {
			return err
		}
		// keep the index from outliving its records
		_ = s.rdb.Expire(ctx, key, s.ttl).Err()
	}
	return nil
}

func keyRecord(id string) string       { return "rec:game:" + strings.TrimSpace(id) }
func keyPlayerIdx(ident string) string { return "rec:index:player:" + strings.TrimSpace(ident) }

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
