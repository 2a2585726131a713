// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TJDev Engineering

// Package store persists vault container files. All writes are atomic
// (write to a temp file, then rename) so a crash mid-save leaves either the
// old file or the new one, never a truncated hybrid. Vault files are
// owner-only; anything group- or other-accessible is rejected on read
// before parsing.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tjdeveng/KeepTower-sub001/internal/logger"
)

// backupTimeLayout is filename-safe and sorts lexicographically in
// chronological order. Nanoseconds keep back-to-back backups distinct.
const backupTimeLayout = "20060102T150405.000000000"

const backupInfix = ".backup."

// FileService is the concrete [VaultFiles] implementation backed by the
// local filesystem.
type FileService struct {
	log *logger.Logger
}

// NewFileService constructs a FileService.
func NewFileService(log *logger.Logger) *FileService {
	return &FileService{log: log}
}

// Read implements [VaultFiles]. It rejects files with group or other
// permission bits before reading a single byte, so a world-readable vault
// is reported as a permission problem rather than parsed and leaked.
func (f *FileService) Read(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("stat vault file: %w", err)
	}

	if info.Mode().Perm()&0o077 != 0 {
		f.log.Warn().Str("path", path).Str("mode", info.Mode().String()).
			Msg("vault file accessible by group or other, refusing to read")
		return nil, fmt.Errorf("%w: %s has mode %04o", ErrPermissionDenied, path, info.Mode().Perm())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vault file: %w", err)
	}
	return data, nil
}

// Write implements [VaultFiles]. The data lands in a temp file in the
// target directory, is fsynced, renamed over path, and the directory entry
// is fsynced too. The file is created 0600 before any data is written.
func (f *FileService) Write(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrFileWrite, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: chmod temp file: %v", ErrFileWrite, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write temp file: %v", ErrFileWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync temp file: %v", ErrFileWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp file: %v", ErrFileWrite, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: rename into place: %v", ErrFileWrite, err)
	}

	// Sync the directory so the rename itself survives a crash.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	f.log.Debug().Str("path", path).Int("bytes", len(data)).Msg("vault file written")
	return nil
}

// CreateBackup implements [VaultFiles].
func (f *FileService) CreateBackup(path string) (string, error) {
	data, err := f.Read(path)
	if err != nil {
		return "", err
	}

	backupPath := path + backupInfix + time.Now().UTC().Format(backupTimeLayout)
	if err := f.Write(backupPath, data); err != nil {
		return "", err
	}

	f.log.Info().Str("backup", backupPath).Msg("backup created")
	return backupPath, nil
}

// ListBackups implements [VaultFiles]. Backups are returned newest first;
// the timestamp layout makes lexicographic and chronological order agree.
func (f *FileService) ListBackups(path string) ([]string, error) {
	matches, err := filepath.Glob(path + backupInfix + "*")
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}

	backups := matches[:0]
	for _, m := range matches {
		if strings.HasPrefix(m, path+backupInfix) {
			backups = append(backups, m)
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(backups)))
	return backups, nil
}

// CleanupBackups implements [VaultFiles]. A negative keep is treated as
// zero, deleting every backup.
func (f *FileService) CleanupBackups(path string, keep int) error {
	backups, err := f.ListBackups(path)
	if err != nil {
		return err
	}
	if keep < 0 {
		keep = 0
	}
	if len(backups) <= keep {
		return nil
	}

	for _, old := range backups[keep:] {
		if err := os.Remove(old); err != nil {
			return fmt.Errorf("remove old backup %s: %w", old, err)
		}
		f.log.Debug().Str("backup", old).Msg("old backup removed")
	}
	return nil
}

// RestoreLatestBackup implements [VaultFiles].
func (f *FileService) RestoreLatestBackup(path string) error {
	backups, err := f.ListBackups(path)
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("%w: %s", ErrNoBackups, path)
	}

	data, err := f.Read(backups[0])
	if err != nil {
		return err
	}
	if err := f.Write(path, data); err != nil {
		return err
	}

	f.log.Info().Str("backup", backups[0]).Str("path", path).Msg("backup restored")
	return nil
}
