package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	logx "wisdombot/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.audit.jsonl       (append-only JSON Lines)
//   - <prefix>.subs.snapshot.json (periodic snapshot)
//   - <prefix>.subs.journal.jsonl (append-only journal)
//
// The journal is periodically compacted into the snapshot.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	auditFile *os.File

	subsSnapshotPath string
	subsJournalFile  *os.File
	subs             map[int64]struct{}

	subsWrites int
}

type subRecord struct {
	ChatID  int64 `json:"chat_id"`
	Removed bool  `json:"removed,omitempty"`
}

const compactEvery = 200

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	auditPath := prefix + ".audit.jsonl"
	snapPath := prefix + ".subs.snapshot.json"
	journalPath := prefix + ".subs.journal.jsonl"

	af, err := os.OpenFile(auditPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	subs := map[int64]struct{}{}
	if err := loadSubsSnapshot(snapPath, subs); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("subscriber snapshot unreadable", logx.String("path", snapPath), logx.Err(err))
	}
	if err := replaySubsJournal(journalPath, subs); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("subscriber journal unreadable", logx.String("path", journalPath), logx.Err(err))
	}

	jf, err := os.OpenFile(journalPath, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o600)
	if err != nil {
		_ = af.Close()
		return nil, err
	}

	return &fileStore{
		log:              log,
		auditFile:        af,
		subsSnapshotPath: snapPath,
		subsJournalFile:  jf,
		subs:             subs,
	}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err1, err2 error
	if s.auditFile != nil {
		err1 = s.auditFile.Close()
		s.auditFile = nil
	}
	if s.subsJournalFile != nil {
		err2 = s.subsJournalFile.Close()
		s.subsJournalFile = nil
	}
	return errors.Join(err1, err2)
}

func (s *fileStore) AppendAudit(_ context.Context, e AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auditFile == nil {
		return errors.New("audit file closed")
	}
	return json.NewEncoder(s.auditFile).Encode(e)
}

func (s *fileStore) AddSubscriber(_ context.Context, chatID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subsJournalFile == nil {
		return false, errors.New("subscriber journal closed")
	}
	if !addSub(s.subs, chatID) {
		return false, nil
	}
	if err := s.journalLocked(subRecord{ChatID: chatID}); err != nil {
		delete(s.subs, chatID)
		return false, err
	}
	return true, nil
}

func (s *fileStore) RemoveSubscriber(_ context.Context, chatID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subsJournalFile == nil {
		return false, errors.New("subscriber journal closed")
	}
	if !removeSub(s.subs, chatID) {
		return false, nil
	}
	if err := s.journalLocked(subRecord{ChatID: chatID, Removed: true}); err != nil {
		s.subs[chatID] = struct{}{}
		return false, err
	}
	return true, nil
}

func (s *fileStore) Subscribers(context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedIDs(s.subs), nil
}

func (s *fileStore) journalLocked(r subRecord) error {
	if err := json.NewEncoder(s.subsJournalFile).Encode(r); err != nil {
		return err
	}
	s.subsWrites++
	if s.subsWrites%compactEvery == 0 {
		// Best-effort compact.
		if err := s.compactLocked(); err != nil {
			s.log.Debug("subscriber compact failed", logx.Err(err))
		}
	}
	return nil
}

func (s *fileStore) compactLocked() error {
	tmp := s.subsSnapshotPath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(sortedIDs(s.subs)); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.subsSnapshotPath); err != nil {
		return err
	}
	if err := s.subsJournalFile.Truncate(0); err != nil {
		return err
	}
	_, err = s.subsJournalFile.Seek(0, 2)
	return err
}

func loadSubsSnapshot(path string, out map[int64]struct{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var ids []int64
	if err := json.NewDecoder(f).Decode(&ids); err != nil {
		return err
	}
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return nil
}

func replaySubsJournal(path string, out map[int64]struct{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r subRecord
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil || r.ChatID == 0 {
			continue
		}
		if r.Removed {
			delete(out, r.ChatID)
		} else {
			out[r.ChatID] = struct{}{}
		}
	}
	return sc.Err()
}
