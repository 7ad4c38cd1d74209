package storage

import (
	"io/fs"
	"os"
	"path/filepath"
)

// DiskUsage returns the bytes used on disk by the store's files: the SQLite
// database with its WAL and shared-memory siblings, and the search index
// directory. Missing paths contribute nothing.
func DiskUsage(dbPath, indexPath string) (int64, error) {
	var total int64
	paths := []string{indexPath}
	if dbPath != "" {
		paths = append(paths, dbPath, dbPath+"-wal", dbPath+"-shm")
	}
	for _, p := range paths {
		n, err := pathSize(p)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func pathSize(p string) (int64, error) {
	if p == "" {
		return 0, nil
	}
	info, err := os.Stat(p)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}
	var total int64
	err = filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total += fi.Size()
		return nil
	})
	return total, err
}
