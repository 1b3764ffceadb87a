// Package badger persists the known-keyword vocabulary in BadgerDB.
package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

const (
	keywordPrefix = "kw:"
	// writeBatch bounds the keywords updated per transaction.
	writeBatch = 500
)

// KeywordCount pairs a known keyword with the number of times it was added.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   uint64 `json:"count"`
}

// KeywordStore is a set of known keywords with occurrence counters.
type KeywordStore struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to the badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(strings.TrimSpace(fmt.Sprintf(msg, items...)))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(strings.TrimSpace(fmt.Sprintf(msg, items...)))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Debug(strings.TrimSpace(fmt.Sprintf(msg, items...)))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(strings.TrimSpace(fmt.Sprintf(msg, items...)))
}

// Open opens the keyword store at dir, creating the directory if needed.
// With inMemory set, dir is ignored and nothing touches disk.
func Open(dir string, inMemory bool) (*KeywordStore, error) {
	logger := slog.Default().With("component", "keyword-store")

	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create keyword store dir: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open keyword store: %w", err)
	}
	return &KeywordStore{db: db, logger: logger}, nil
}

// Add records one occurrence of each keyword. Keywords are lowercased and
// trimmed; empty ones are skipped.
func (s *KeywordStore) Add(ctx context.Context, keywords ...string) error {
	counts := make(map[string]uint64)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			counts[kw]++
		}
	}
	pending := make([]string, 0, len(counts))
	for kw := range counts {
		pending = append(pending, kw)
	}
	sort.Strings(pending)

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := min(len(pending), writeBatch)
		batch := pending[:n]
		pending = pending[n:]

		err := s.db.Update(func(txn *badger.Txn) error {
			for _, kw := range batch {
				key := makeKeywordKey(kw)
				current, err := readCount(txn, key)
				if err != nil {
					return err
				}
				if err := txn.Set(key, encodeCount(current+counts[kw])); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("add keywords: %w", err)
		}
	}
	return nil
}

// All returns every known keyword in lexical order.
func (s *KeywordStore) All(ctx context.Context) ([]string, error) {
	keywords := []string{}
	err := s.scan(ctx, false, func(kw string, _ uint64) {
		keywords = append(keywords, kw)
	})
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}
	return keywords, nil
}

// Count returns the number of distinct known keywords.
func (s *KeywordStore) Count(ctx context.Context) (int, error) {
	n := 0
	err := s.scan(ctx, false, func(string, uint64) { n++ })
	if err != nil {
		return 0, fmt.Errorf("count keywords: %w", err)
	}
	return n, nil
}

// Top returns up to limit keywords ordered by occurrence count, highest
// first. Ties are broken lexically. A non-positive limit returns all.
func (s *KeywordStore) Top(ctx context.Context, limit int) ([]KeywordCount, error) {
	var out []KeywordCount
	err := s.scan(ctx, true, func(kw string, c uint64) {
		out = append(out, KeywordCount{Keyword: kw, Count: c})
	})
	if err != nil {
		return nil, fmt.Errorf("rank keywords: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close closes the underlying database.
func (s *KeywordStore) Close() error {
	return s.db.Close()
}

func (s *KeywordStore) scan(ctx context.Context, withValues bool, fn func(string, uint64)) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keywordPrefix)
		opts.PrefetchValues = withValues
		iter := txn.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := iter.Item()
			kw := strings.TrimPrefix(string(item.Key()), keywordPrefix)
			var count uint64
			if withValues {
				if err := item.Value(func(val []byte) error {
					count = decodeCount(val)
					return nil
				}); err != nil {
					return err
				}
			}
			fn(kw, count)
		}
		return nil
	})
}

func makeKeywordKey(kw string) []byte {
	return []byte(keywordPrefix + kw)
}

func readCount(txn *badger.Txn, key []byte) (uint64, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var count uint64
	err = item.Value(func(val []byte) error {
		count = decodeCount(val)
		return nil
	})
	return count, err
}

func encodeCount(n uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return buf
}

func decodeCount(val []byte) uint64 {
	if len(val) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(val)
}
