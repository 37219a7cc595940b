package redis

import (
	"context"
	"path"
	"sort"

	"github.com/kailas-cloud/postalgeo/internal/db"
)

// mockStore is an in-memory Store with optional failure hooks.
type mockStore struct {
	hashes map[string]map[string]string
	values map[string][]byte

	pingErr    error
	scanErr    error
	hgetAllErr error
	getErr     error
}

func newMockStore() *mockStore {
	return &mockStore{
		hashes: make(map[string]map[string]string),
		values: make(map[string][]byte),
	}
}

func (m *mockStore) Ping(_ context.Context) error { return m.pingErr }

func (m *mockStore) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	for _, it := range items {
		h := make(map[string]string, len(it.Fields))
		for k, v := range it.Fields {
			h[k] = v
		}
		m.hashes[it.Key] = h
	}
	return nil
}

func (m *mockStore) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllErr != nil {
		return nil, m.hgetAllErr
	}
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = m.hashes[k]
		if out[i] == nil {
			out[i] = map[string]string{}
		}
	}
	return out, nil
}

func (m *mockStore) DelMulti(_ context.Context, keys []string) error {
	for _, k := range keys {
		delete(m.hashes, k)
		delete(m.values, k)
	}
	return nil
}

func (m *mockStore) Scan(_ context.Context, pattern string) ([]string, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	var keys []string
	for k := range m.hashes {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	m.values[key] = value
	return nil
}
