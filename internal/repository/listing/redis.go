// Package listing provides the Redis-backed listing catalog source. Each
// listing lives under one key as a JSON document; startup reads the whole
// keyspace once, after which the in-memory corpus serves all traffic.
package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/roosthq/roost/internal/corpus"
	"github.com/roosthq/roost/internal/domain"
)

var _ corpus.Source = (*Store)(nil)

// Config holds connection parameters for the listing store.
type Config struct {
	Addrs     []string
	Password  string
	KeyPrefix string
}

// Store reads listings from Redis via rueidis.
type Store struct {
	client    rueidis.Client
	keyPrefix string
	logger    *zap.Logger
}

// NewStore connects to Redis.
func NewStore(cfg Config, logger *zap.Logger) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Password:     cfg.Password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client, keyPrefix: cfg.KeyPrefix, logger: logger}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for listing store: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// FetchAll scans the listing keyspace and decodes every document. Documents
// that fail to decode are counted, not fatal; the corpus adapter decides
// whether the catalog as a whole is usable.
func (s *Store) FetchAll(ctx context.Context) ([]corpus.RawListing, int, error) {
	keys, err := s.scanKeys(ctx, s.keyPrefix+"*")
	if err != nil {
		return nil, 0, fmt.Errorf("scan listing keys: %v: %w", err, domain.ErrCorpusLoad)
	}
	// SCAN order is unspecified; sort for a stable corpus fingerprint.
	sort.Strings(keys)

	records := make([]corpus.RawListing, 0, len(keys))
	undecodable := 0
	for _, key := range keys {
		cmd := s.client.B().Get().Key(key).Build()
		data, err := s.client.Do(ctx, cmd).AsBytes()
		if err != nil {
			if rueidis.IsRedisNil(err) {
				continue // key expired between SCAN and GET
			}
			return nil, 0, fmt.Errorf("get listing %s: %v: %w", key, err, domain.ErrCorpusLoad)
		}

		var rec corpus.RawListing
		if err := json.Unmarshal(data, &rec); err != nil {
			undecodable++
			s.logger.Warn("Skipping undecodable listing document",
				zap.String("key", key),
				zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records, undecodable, nil
}

func (s *Store) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		cmd := s.client.B().Scan().Cursor(cursor).Match(pattern).Count(100).Build()
		res, err := s.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, err
		}
		keys = append(keys, res.Elements...)
		cursor = res.Cursor
		if cursor == 0 {
			return keys, nil
		}
	}
}
