package service

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/greenfield-academy/admin-api/pkg/errors"
	"github.com/greenfield-academy/admin-api/pkg/storage"
)

// FileUpload carries one multipart file from handler to service.
type FileUpload struct {
	Filename string
	Size     int64
	MimeType string
	Content  io.Reader
}

// UploadPolicy enforces size and MIME restrictions on uploads.
type UploadPolicy struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

func (p UploadPolicy) check(upload *FileUpload) error {
	if p.MaxFileSizeBytes > 0 && upload.Size > p.MaxFileSizeBytes {
		return appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file %s exceeds the size limit", upload.Filename))
	}
	if len(p.AllowedMIMEs) == 0 {
		return nil
	}
	mime := strings.ToLower(strings.TrimSpace(upload.MimeType))
	for _, allowed := range p.AllowedMIMEs {
		if mime == strings.ToLower(allowed) {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrUnsupportedMedia, fmt.Sprintf("file type %s is not allowed", upload.MimeType))
}

// StagingDir is where uploads land before the owning database write commits.
// A periodic sweep reclaims files whose mutation never went through.
const StagingDir = "tmp"

// stagedUpload tracks a file written to the staging area together with the
// location it will occupy once promoted.
type stagedUpload struct {
	staged string
	final  string
}

// stageUpload validates one upload and writes it into the staging area.
// Filenames are replaced with a generated ID so user input never reaches the
// filesystem. The returned final path under dir is what gets persisted; the
// file itself moves there only via promoteUploads.
func stageUpload(store *storage.LocalStorage, policy UploadPolicy, dir string, upload *FileUpload) (stagedUpload, error) {
	if err := policy.check(upload); err != nil {
		return stagedUpload{}, err
	}
	base := uuid.NewString() + strings.ToLower(filepath.Ext(upload.Filename))
	sf := stagedUpload{
		staged: filepath.Join(StagingDir, base),
		final:  filepath.Join(dir, base),
	}
	if _, err := store.SaveStream(sf.staged, upload.Content); err != nil {
		return stagedUpload{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
	}
	return sf, nil
}

// promoteUploads moves staged files to their final locations after the owning
// database write succeeded. Failures are logged, not returned: the row is
// already committed and the sweep would otherwise reap the staged file.
func promoteUploads(store *storage.LocalStorage, logger *zap.Logger, files ...stagedUpload) {
	for _, sf := range files {
		if err := store.Rename(sf.staged, sf.final); err != nil {
			logger.Error("failed to promote staged upload",
				zap.String("staged", sf.staged),
				zap.String("final", sf.final),
				zap.Error(err))
		}
	}
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
