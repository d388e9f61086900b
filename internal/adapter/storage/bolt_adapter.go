package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/rl1809/inventory-console/internal/core/domain"
	"github.com/rl1809/inventory-console/internal/port"
)

var (
	sessionBucket    = []byte("session")
	preferenceBucket = []byte("preferences")
	tokensKey        = []byte("tokens")
)

const (
	PrefChartData = "dashboard_chart_data"
	PrefChartType = "dashboard_chart_type"
)

type preference struct {
	def     string
	allowed []string
}

var preferences = map[string]preference{
	PrefChartData: {def: "sales", allowed: []string{"sales", "orders", "inventory"}},
	PrefChartType: {def: "area", allowed: []string{"area", "bar", "line", "pie", "radar"}},
}

// BoltStore keeps the console's session and display preferences in a local
// bbolt file.
type BoltStore struct {
	db *bolt.DB
}

var (
	_ port.SessionStore    = (*BoltStore)(nil)
	_ port.PreferenceStore = (*BoltStore)(nil)
)

func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open state file: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{sessionBucket, preferenceBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) LoadTokens(ctx context.Context) (port.Tokens, error) {
	var tokens port.Tokens
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(sessionBucket).Get(tokensKey)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &tokens)
	})
	if err != nil {
		return port.Tokens{}, fmt.Errorf("load tokens: %w", err)
	}
	return tokens, nil
}

func (s *BoltStore) SaveTokens(ctx context.Context, tokens port.Tokens) error {
	data, err := json.Marshal(tokens)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Put(tokensKey, data)
	})
}

func (s *BoltStore) ClearTokens(ctx context.Context) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Delete(tokensKey)
	})
}

// GetPreference returns the stored value, the preference's own default when
// unset, or def for keys it does not know.
func (s *BoltStore) GetPreference(ctx context.Context, key, def string) (string, error) {
	if pref, ok := preferences[key]; ok && def == "" {
		def = pref.def
	}
	value := def
	err := s.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket(preferenceBucket).Get([]byte(key)); data != nil {
			value = string(data)
		}
		return nil
	})
	return value, err
}

// SetPreference rejects values outside a known preference's allowed set.
func (s *BoltStore) SetPreference(ctx context.Context, key, value string) error {
	if pref, ok := preferences[key]; ok && !slices.Contains(pref.allowed, value) {
		return &domain.ValidationError{Fields: []string{key}}
	}
	if err := domain.RequireFields("key", key, "value", value); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(preferenceBucket).Put([]byte(key), []byte(value))
	})
}

// PreferenceKeys lists the known preferences with their allowed values.
func PreferenceKeys() map[string][]string {
	out := make(map[string][]string, len(preferences))
	for k, p := range preferences {
		out[k] = slices.Clone(p.allowed)
	}
	return out
}
