package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type FileInfo struct {
	Path  string
	Rel   string // path relative to the scanned root, slash separated
	Mtime int64
	Size  int64
}

// ScanRoot finds WhatsApp export archives (*.zip) under root. A missing root
// yields no files.
func ScanRoot(root string) ([]FileInfo, error) {
	if root == "" {
		return nil, nil
	}
	var files []FileInfo
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // skip unreadable dirs
		}
		if info.IsDir() {
			if path != root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".zip") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		files = append(files, FileInfo{
			Path:  path,
			Rel:   filepath.ToSlash(rel),
			Mtime: info.ModTime().Unix(),
			Size:  info.Size(),
		})
		return nil
	})
	if err != nil && os.IsNotExist(err) {
		return nil, nil
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Rel < files[j].Rel })
	return files, err
}
