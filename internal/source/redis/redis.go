// Package redis loads and stores records as Redis/Valkey hashes.
//
// Layout under a key prefix P:
//
//	P zcta:<code>  hash with the canonical record fields
//	P meta         JSON {"count": N, "ingestedAt": "..."} written last
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/postalgeo/internal/db"
	"github.com/kailas-cloud/postalgeo/internal/domain"
	"github.com/kailas-cloud/postalgeo/internal/domain/postal"
	"github.com/kailas-cloud/postalgeo/internal/source"
)

// Name identifies this backend.
const Name = "redis"

// DefaultPrefix namespaces dataset keys.
const DefaultPrefix = "postalgeo:"

// batchSize bounds keys per pipelined round-trip.
const batchSize = 500

// Store is the subset of the db facade this package needs.
type Store interface {
	db.Pinger
	db.HashStore
	db.KVStore
}

// Meta describes the last completed ingest.
type Meta struct {
	Count      int       `json:"count"`
	IngestedAt time.Time `json:"ingestedAt"`
}

var _ source.Source = (*Source)(nil)

// Source reads hashes written by Replace.
type Source struct {
	store  Store
	prefix string
}

// New creates a source. An empty prefix means DefaultPrefix.
func New(store Store, prefix string) *Source {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Source{store: store, prefix: prefix}
}

// Name returns the backend name.
func (s *Source) Name() string { return Name }

// Ping checks connectivity.
func (s *Source) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	return nil
}

func (s *Source) recordKey(code string) string { return s.prefix + "zcta:" + code }
func (s *Source) metaKey() string              { return s.prefix + "meta" }

// Load reads every record hash. When a meta key is present its count must
// match the number of hashes found, so a half-finished ingest is not served.
func (s *Source) Load(ctx context.Context) ([]postal.Record, error) {
	keys, err := s.store.Scan(ctx, s.recordKey("*"))
	if err != nil {
		return nil, fmt.Errorf("%w: scan: %w", domain.ErrSourceUnavailable, err)
	}
	sort.Strings(keys)

	meta, err := s.Meta(ctx)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
	case err != nil:
		return nil, err
	case meta.Count != len(keys):
		return nil, fmt.Errorf("%w: meta reports %d records, found %d",
			domain.ErrSourceUnavailable, meta.Count, len(keys))
	}

	out := make([]postal.Record, 0, len(keys))
	for start := 0; start < len(keys); start += batchSize {
		end := min(start+batchSize, len(keys))
		hashes, err := s.store.HGetAllMulti(ctx, keys[start:end])
		if err != nil {
			return nil, fmt.Errorf("%w: fetch: %w", domain.ErrSourceUnavailable, err)
		}
		for i, h := range hashes {
			if len(h) == 0 {
				return nil, fmt.Errorf("%w: key %s vanished during load", domain.ErrSourceUnavailable, keys[start+i])
			}
			rec, err := source.Decode(source.MapGetter(h))
			if err != nil {
				return nil, fmt.Errorf("key %s: %w", keys[start+i], err)
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

// Meta returns the last ingest metadata, or db.ErrKeyNotFound.
func (s *Source) Meta(ctx context.Context) (Meta, error) {
	raw, err := s.store.Get(ctx, s.metaKey())
	if errors.Is(err, db.ErrKeyNotFound) {
		return Meta{}, err
	}
	if err != nil {
		return Meta{}, fmt.Errorf("%w: read meta: %w", domain.ErrSourceUnavailable, err)
	}
	var m Meta
	if err := json.Unmarshal(raw, &m); err != nil {
		return Meta{}, fmt.Errorf("%w: decode meta: %w", domain.ErrSourceUnavailable, err)
	}
	return m, nil
}

// Replace writes recs as hashes, deletes hashes for codes no longer present
// and finally records the meta key.
func (s *Source) Replace(ctx context.Context, recs []postal.Record, now time.Time) error {
	existing, err := s.store.Scan(ctx, s.recordKey("*"))
	if err != nil {
		return fmt.Errorf("scan existing: %w", err)
	}

	keep := make(map[string]struct{}, len(recs))
	for start := 0; start < len(recs); start += batchSize {
		end := min(start+batchSize, len(recs))
		items := make([]db.HashSetItem, 0, end-start)
		for i := start; i < end; i++ {
			key := s.recordKey(recs[i].Code())
			keep[key] = struct{}{}
			items = append(items, db.HashSetItem{Key: key, Fields: source.Encode(&recs[i])})
		}
		if err := s.store.HSetMulti(ctx, items); err != nil {
			return fmt.Errorf("write records: %w", err)
		}
	}

	var stale []string
	for _, k := range existing {
		if _, ok := keep[k]; !ok && strings.HasPrefix(k, s.recordKey("")) {
			stale = append(stale, k)
		}
	}
	for start := 0; start < len(stale); start += batchSize {
		end := min(start+batchSize, len(stale))
		if err := s.store.DelMulti(ctx, stale[start:end]); err != nil {
			return fmt.Errorf("delete stale records: %w", err)
		}
	}

	raw, err := json.Marshal(Meta{Count: len(recs), IngestedAt: now.UTC()})
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	if err := s.store.Set(ctx, s.metaKey(), raw); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return nil
}
