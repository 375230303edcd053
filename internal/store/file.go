package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"trainbot/core/logger"
	"trainbot/internal/domain"
)

// fileStore keeps all records in memory and rewrites the whole JSON snapshot
// on every mutation. The in-memory map is authoritative; the file is a
// best-effort durability layer.
type fileStore struct {
	mu    sync.Mutex
	path  string
	users map[int64]domain.UserRecord
}

// NewFileStore loads (or initializes) the JSON snapshot at path.
func NewFileStore(path string) (Store, error) {
	s := &fileStore{
		path:  path,
		users: make(map[int64]domain.UserRecord),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	logger.Store.LogAttrs(context.Background(), slog.LevelInfo, "store.open",
		slog.String("backend", "file"),
		slog.String("path", path),
		slog.Int("users", len(s.users)),
	)
	return s, nil
}

func (s *fileStore) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("store: read %s: %w", s.path, err)
	}
	if len(raw) == 0 {
		return nil
	}

	var snapshot map[string]json.RawMessage
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return fmt.Errorf("store: parse %s: %w", s.path, err)
	}

	migrated := 0
	for key, val := range snapshot {
		uid, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		var rec domain.UserRecord
		if err := json.Unmarshal(val, &rec); err == nil {
			rec.ID = uid
			s.users[uid] = rec
			continue
		}
		// Legacy snapshots stored a bare display name per uid.
		var name string
		if err := json.Unmarshal(val, &name); err == nil {
			s.users[uid] = domain.UserRecord{ID: uid, Name: name}
			migrated++
		}
	}
	if migrated > 0 {
		logger.Store.LogAttrs(context.Background(), slog.LevelInfo, "store.migrate_legacy",
			slog.Int("count", migrated),
		)
	}
	return nil
}

// persist writes the whole snapshot atomically. Callers hold s.mu.
func (s *fileStore) persist(op string) error {
	snapshot := make(map[string]domain.UserRecord, len(s.users))
	for uid, rec := range s.users {
		snapshot[strconv.FormatInt(uid, 10)] = rec
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return &PersistenceError{Op: op, Err: err}
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return &PersistenceError{Op: op, Err: err}
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return &PersistenceError{Op: op, Err: err}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return &PersistenceError{Op: op, Err: err}
	}
	return nil
}

func (s *fileStore) Get(_ context.Context, uid int64) (domain.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.users[uid]; ok {
		return rec, nil
	}
	rec := domain.UserRecord{ID: uid}
	s.users[uid] = rec
	if err := s.persist("create"); err != nil {
		return rec, err
	}
	return rec, nil
}

func (s *fileStore) Update(_ context.Context, uid int64, mutate func(*domain.UserRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[uid]
	if !ok {
		rec = domain.UserRecord{ID: uid}
	}
	mutate(&rec)
	rec.ID = uid
	s.users[uid] = rec
	return s.persist("update")
}

func (s *fileStore) All(_ context.Context) ([]domain.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.UserRecord, 0, len(s.users))
	for _, rec := range s.users {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fileStore) Close() error { return nil }
