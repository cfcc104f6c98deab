package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DiskUploader writes submitted attachments under a root directory and
// returns the public references under /media.
type DiskUploader struct {
	root   string
	logger *slog.Logger
}

func NewDiskUploader(root string, logger *slog.Logger) *DiskUploader {
	return &DiskUploader{root: root, logger: logger}
}

// Upload stores files under <root>/<submissionID>/<n>-<name>. References are
// returned in the order of files. On failure nothing is left behind.
func (u *DiskUploader) Upload(ctx context.Context, submissionID string, files []File) ([]string, error) {
	if len(files) == 0 {
		return []string{}, nil
	}

	dir := filepath.Join(u.root, submissionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}

	refs := make([]string, 0, len(files))
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			u.cleanup(dir)
			return nil, err
		}
		name := fmt.Sprintf("%d-%s", i+1, sanitizeName(f.Handle.Name))
		if err := os.WriteFile(filepath.Join(dir, name), f.Data, 0o644); err != nil {
			u.cleanup(dir)
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
		refs = append(refs, path.Join("/media", submissionID, name))
	}

	u.logger.Debug("media uploaded", "submission_id", submissionID, "files", len(refs))
	return refs, nil
}

// Remove deletes everything stored for a submission. Removing an unknown
// submission is not an error.
func (u *DiskUploader) Remove(submissionID string) error {
	if submissionID == "" || submissionID != filepath.Base(submissionID) || submissionID == ".." {
		return fmt.Errorf("invalid submission id %q", submissionID)
	}
	if err := os.RemoveAll(filepath.Join(u.root, submissionID)); err != nil {
		return fmt.Errorf("remove media for %s: %w", submissionID, err)
	}
	return nil
}

func (u *DiskUploader) cleanup(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		u.logger.Warn("media cleanup failed", "dir", dir, "error", err)
	}
}

func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		return "arquivo"
	}
	return strings.ReplaceAll(name, " ", "_")
}
