package store

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const backupTimeFormat = "20060102150405"

// Backup copies the current book files into backups/<timestamp>/ and
// returns the backup directory. The caller holds the book lock, so no
// mutating command runs while the copy is in flight.
func (s *Store) Backup(now time.Time) (string, error) {
	dst := filepath.Join(s.dir, backupsDir, now.Format(backupTimeFormat))
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", PersistenceError{Op: "creating backup dir", Path: dst, Err: err}
	}

	for _, name := range []string{treeFile, journalFile} {
		src := filepath.Join(s.dir, name)
		if err := copyFile(src, filepath.Join(dst, name)); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue // journal may not exist yet
			}
			return "", PersistenceError{Op: "copying backup", Path: src, Err: err}
		}
	}
	s.log.Info().Str("dir", dst).Msg("backup written")
	return dst, nil
}

// PurgeBackups deletes backup directories whose timestamp is before
// cutoff. It returns the deleted directory names.
func (s *Store) PurgeBackups(cutoff time.Time) ([]string, error) {
	root := filepath.Join(s.dir, backupsDir)
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, PersistenceError{Op: "reading backups dir", Path: root, Err: err}
	}

	var deleted []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		ts, err := time.Parse(backupTimeFormat, e.Name())
		if err != nil {
			continue // not one of ours
		}
		if ts.Before(cutoff) {
			path := filepath.Join(root, e.Name())
			if err := os.RemoveAll(path); err != nil {
				return deleted, PersistenceError{Op: "deleting backup", Path: path, Err: err}
			}
			deleted = append(deleted, e.Name())
		}
	}
	return deleted, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
