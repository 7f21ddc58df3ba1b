package library

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"

	ioutils "github.com/handiism/ultrastar-library/internal/io"
	"github.com/handiism/ultrastar-library/internal/model"
)

// MultiSuffix is appended to the folder name to form the duet file name.
const MultiSuffix = " [MULTI]"

// ConfigPaths returns the base and duet config paths of a song folder:
// "Folder/Folder.txt" and "Folder/Folder [MULTI].txt". The files may not
// exist.
func ConfigPaths(dir string) (base, multi string) {
	name := filepath.Base(dir)
	return filepath.Join(dir, name+".txt"), filepath.Join(dir, name+MultiSuffix+".txt")
}

// Scanner discovers song folders under a songs directory.
type Scanner struct {
	// OnSkip is called for every folder without a base config.
	OnSkip func(dir string)
}

// Scan lists the immediate subdirectories of root and yields one entry per
// folder holding a base config. Plain files are ignored.
//
// Only reading root itself can fail; the folders are inspected lazily while
// the sequence is consumed, in the order the filesystem returns them.
func (s *Scanner) Scan(root string) (iter.Seq[model.SongEntry], error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read songs directory: %w", err)
	}

	return func(yield func(model.SongEntry) bool) {
		for _, entry := range entries {
			dir := filepath.Join(root, entry.Name())
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				continue
			}

			base, multi := ConfigPaths(dir)
			if !ioutils.Exists(base) {
				if s.OnSkip != nil {
					s.OnSkip(dir)
				}
				continue
			}
			if !ioutils.Exists(multi) {
				multi = ""
			}

			song := model.SongEntry{
				BaseConfigPath:  base,
				MultiConfigPath: multi,
				Directory:       dir,
			}
			if !yield(song) {
				return
			}
		}
	}, nil
}
