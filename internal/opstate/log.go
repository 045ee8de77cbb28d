package opstate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"emperror.dev/errors"
	"github.com/stackctl/stackctl/internal/gitrepo"
)

const logFileName = "operation_log.json"

// maxLogEntries caps the append-only log at a reasonable length; the oldest
// entries are dropped once it's exceeded.
const maxLogEntries = 200

// BackupRestoredKind marks a log entry recording that undo consumed a set of
// backup refs to restore branches to an earlier state. Appending this entry
// is how chain-undo knows a given operation was already undone.
const BackupRestoredKind Kind = "backup-restored"

// LogEntry is one record in the OperationLog.
type LogEntry struct {
	Kind        Kind     `json:"kind"`
	Branches    []string `json:"branches"`
	CompletedAt int64    `json:"completedAtUnixNano"`
	Undone      bool     `json:"undone"`
}

// Log is the append-only record of completed operations.
type Log struct {
	path string
}

func NewLog(repo gitrepo.Repo) *Log {
	return &Log{path: filepath.Join(repo.AdminDir(), logFileName)}
}

func (l *Log) readAll() ([]LogEntry, error) {
	bs, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read operation log")
	}
	var entries []LogEntry
	if err := json.Unmarshal(bs, &entries); err != nil {
		return nil, errors.Wrap(err, "operation log is corrupt")
	}
	return entries, nil
}

func (l *Log) writeAll(entries []LogEntry) error {
	if len(entries) > maxLogEntries {
		entries = entries[len(entries)-maxLogEntries:]
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	bs, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".operation_log.*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(bs); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, l.path)
}

// Append adds a completed-operation entry to the log, trimming the oldest
// entries beyond maxLogEntries.
func (l *Log) Append(kind Kind, branches []string, completedAt time.Time) error {
	entries, err := l.readAll()
	if err != nil {
		return err
	}
	entries = append(entries, LogEntry{
		Kind:        kind,
		Branches:    branches,
		CompletedAt: completedAt.UnixNano(),
		Undone:      false,
	})
	return l.writeAll(entries)
}

// GetLastUndoableOperation returns the most recent non-undone entry whose
// kind is Sync or Restack — the two operation kinds that routinely snapshot
// backups before mutating.
func (l *Log) GetLastUndoableOperation() (*LogEntry, int, error) {
	entries, err := l.readAll()
	if err != nil {
		return nil, -1, err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Undone {
			continue
		}
		if e.Kind == KindSync || e.Kind == KindRestack {
			return &e, i, nil
		}
	}
	return nil, -1, nil
}

// MarkUndone flags the entry at index as undone and appends a
// BackupRestored entry recording the undo itself.
func (l *Log) MarkUndone(index int) error {
	entries, err := l.readAll()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(entries) {
		return errors.Errorf("operation log index %d out of range", index)
	}
	entries[index].Undone = true
	entries = append(entries, LogEntry{
		Kind:        BackupRestoredKind,
		Branches:    entries[index].Branches,
		CompletedAt: nowFunc().UnixNano(),
		Undone:      false,
	})
	return l.writeAll(entries)
}

// nowFunc is a seam for tests; production code always uses time.Now.
var nowFunc = time.Now
