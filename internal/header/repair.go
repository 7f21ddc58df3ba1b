package header

import (
	"errors"
	"fmt"
	"os"
	"strings"

	ioutils "github.com/handiism/ultrastar-library/internal/io"
)

// Repairer writes header changes back to song files.
//
// Every write is preceded by a backup-if-missing of the target, so the
// first version of a file seen by the library can always be restored.
type Repairer struct {
	codec   *ioutils.TextCodec
	backups *ioutils.BackupManager
}

// NewRepairer creates a Repairer reading and writing files with codec.
func NewRepairer(codec *ioutils.TextCodec, backups *ioutils.BackupManager) *Repairer {
	return &Repairer{codec: codec, backups: backups}
}

// Repair prepends one "#KEY:VALUE" line per missing field to originalText
// and writes the result to targetPath. Fields are prepended one after the
// other, so the last missing field ends up on the first line. Nothing
// happens when missing is empty or targetPath is "".
func (r *Repairer) Repair(missing []Field, originalText, targetPath string) error {
	if len(missing) == 0 || targetPath == "" {
		return nil
	}

	doc := Decode(originalText)
	doc.Prepend(missing...)

	if err := r.backups.BackupIfMissing(targetPath); err != nil {
		return err
	}

	return r.codec.WriteFile(targetPath, doc.Encode())
}

// Change is a pending rewrite of a song file, built by PrepareUpdate and
// written by Apply.
type Change struct {
	Path string

	before []byte
	after  []byte
}

// PrepareUpdate renders path with the header line of field set to value,
// without writing anything.
//
// bpm and videogap values are written with ',' as decimal separator. It
// returns false when the file has no line for field. Values the codec
// cannot encode are rejected here with ioutils.ErrUnencodable.
func (r *Repairer) PrepareUpdate(path, field, value string) (Change, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Change{}, false, err
	}

	text, err := r.codec.Decode(raw)
	if err != nil {
		return Change{}, false, fmt.Errorf("read %s: %w", path, err)
	}

	doc := Decode(text)
	if doc.Set(strings.ToLower(field), value) == 0 {
		return Change{}, false, nil
	}

	after, err := r.codec.Encode(doc.Encode())
	if err != nil {
		return Change{}, false, fmt.Errorf("update %s: %w", path, err)
	}

	return Change{Path: path, before: raw, after: after}, true, nil
}

// Apply backs up and writes every change in order. When a write fails, the
// files already written are put back to their previous content and the
// error is returned, joined with any rollback failure.
func (r *Repairer) Apply(changes []Change) error {
	for i, change := range changes {
		err := r.backups.BackupIfMissing(change.Path)
		if err == nil {
			err = os.WriteFile(change.Path, change.after, 0644)
		}
		if err != nil {
			return errors.Join(fmt.Errorf("write %s: %w", change.Path, err), r.Revert(changes[:i]))
		}
	}
	return nil
}

// Revert puts the files of changes back to the content they had when the
// changes were prepared.
func (r *Repairer) Revert(written []Change) error {
	var errs []error
	for _, change := range written {
		if err := os.WriteFile(change.Path, change.before, 0644); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", change.Path, err))
		}
	}
	return errors.Join(errs...)
}

// UpdateField rewrites the header line of field in path with value.
//
// If the file has no line for field, it is left untouched and false is
// returned.
func (r *Repairer) UpdateField(path, field, value string) (bool, error) {
	change, ok, err := r.PrepareUpdate(path, field, value)
	if err != nil || !ok {
		return false, err
	}

	return true, r.Apply([]Change{change})
}
