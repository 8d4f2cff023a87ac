package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// MovePolicy parameterizes the retry behaviour of a Mover per call site.
type MovePolicy struct {
	// Attempts is the number of direct rename attempts before falling back.
	Attempts int
	// Backoff is the fixed wait between rename attempts.
	Backoff time.Duration
	// CopyFallback enables copy-then-delete when every rename attempt fails.
	CopyFallback bool
}

// DefaultMovePolicy matches the historical behaviour: one retry after a
// short wait, then copy-then-delete.
var DefaultMovePolicy = MovePolicy{
	Attempts:     2,
	Backoff:      150 * time.Millisecond,
	CopyFallback: true,
}

// Mover performs filesystem move/rename operations with bounded retry and a
// copy-then-delete fallback for transient lock errors.
type Mover struct {
	policy MovePolicy
	logger *slog.Logger

	// sleep is replaceable in tests.
	sleep func(time.Duration)
}

// NewMover creates a Mover with the given policy.
func NewMover(policy MovePolicy, logger *slog.Logger) *Mover {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Mover{policy: policy, logger: logger, sleep: time.Sleep}
}

// Move renames oldPath to newPath. On a transient lock/permission error it
// waits and retries per the policy; if every rename fails it falls back to a
// recursive copy followed by a best-effort delete of the old path. Failure
// to delete the old path is logged, never returned: the new copy is
// authoritative at that point.
//
// Callers check destination existence beforehand; Move assumes newPath does
// not exist.
func (m *Mover) Move(oldPath, newPath string) error {
	var renameErr error
	for attempt := 1; attempt <= m.policy.Attempts; attempt++ {
		renameErr = os.Rename(oldPath, newPath)
		if renameErr == nil {
			return nil
		}
		// A cross-device rename can never succeed; go straight to the copy
		// fallback instead of burning retries.
		if isCrossDevice(renameErr) {
			break
		}
		if !isTransient(renameErr) {
			return fmt.Errorf("move %s to %s: %w", oldPath, newPath, renameErr)
		}
		if attempt < m.policy.Attempts {
			m.logger.Warn("rename failed, retrying",
				"from", oldPath, "to", newPath, "attempt", attempt, "error", renameErr)
			m.sleep(m.policy.Backoff)
		}
	}

	if !m.policy.CopyFallback {
		return fmt.Errorf("move %s to %s: %w", oldPath, newPath, renameErr)
	}

	m.logger.Warn("rename failed, falling back to copy",
		"from", oldPath, "to", newPath, "error", renameErr)

	if err := copyTree(oldPath, newPath); err != nil {
		return fmt.Errorf("copy fallback %s to %s: %w", oldPath, newPath, err)
	}
	if err := os.RemoveAll(oldPath); err != nil {
		m.logger.Error("failed to remove old path after copy; continuing",
			"path", oldPath, "error", err)
	}
	return nil
}

// isTransient reports whether a rename error is worth retrying: the lock and
// permission class of failures that clear once another process lets go of
// the tree.
func isTransient(err error) bool {
	if errors.Is(err, fs.ErrPermission) {
		return true
	}
	for _, errno := range []syscall.Errno{syscall.EACCES, syscall.EPERM, syscall.EBUSY, syscall.ETXTBSY} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

// copyTree recursively copies a file or directory subtree. Destination
// directories are created with the source's permission bits.
func copyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyFile(src, dst, info.Mode())
	}

	if err := os.MkdirAll(dst, info.Mode().Perm()); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := copyTree(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string, mode fs.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, mode.Perm())
}
