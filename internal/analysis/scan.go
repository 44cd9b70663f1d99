package analysis

import (
	"io/fs"
	"os"
	"path/filepath"
)

// ScanDirectory discovers world files under dir and indexes each one.
// Open documents are skipped: their in-memory buffer is already the
// source of truth. Unreadable files are logged and skipped; one bad file
// never aborts the rest of the scan.
func (w *Workspace) ScanDirectory(dir string) {
	for _, path := range w.discover(dir) {
		fileURI := pathToURI(path)

		if doc, ok := w.document(fileURI); ok && doc.Open {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			log.Warningf("skipping unreadable file %s: %s", path, err)
			continue
		}
		w.scanFile(fileURI, string(data), false)
	}

	w.mu.Lock()
	w.scannedDirs[dir] = struct{}{}
	w.mu.Unlock()
}

// discover lists world files under dir. Non-recursive by default; with
// scan.recursive the whole subtree is walked, skipping ignored
// directories.
func (w *Workspace) discover(dir string) []string {
	ext := w.cfg.Scan.Extension

	if !w.cfg.Scan.Recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			log.Warningf("cannot read directory %s: %s", dir, err)
			return nil
		}
		var paths []string
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ext {
				continue
			}
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
		return paths
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warningf("scan: %s", err)
			return nil
		}
		if d.IsDir() {
			if path != dir && w.cfg.IgnoreDir(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ext {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		log.Warningf("scan of %s finished with error: %s", dir, err)
	}
	return paths
}

func parentDir(path string) string {
	return filepath.Dir(path)
}
