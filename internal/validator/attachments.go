package validator

import (
	"fmt"
	"strings"

	apperrors "github.com/welldanyogia/webrana-formmail-backend/internal/errors"
	"github.com/welldanyogia/webrana-formmail-backend/internal/models"
)

// DefaultMaxFileSize is the per-attachment limit (10MB)
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

const csvExtension = ".csv"

// ValidateAttachments checks the upload rules in order: the set is not
// empty, and each file is non-empty, named *.csv and at most maxSize bytes.
// The first violation wins and the returned error names the offending file.
// A maxSize of zero or less falls back to DefaultMaxFileSize.
func ValidateAttachments(attachments []models.Attachment, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	if len(attachments) == 0 {
		return apperrors.NewFileProcessingError("", "at least one CSV file must be sent")
	}

	for _, att := range attachments {
		if att.Size == 0 || len(att.Content) == 0 {
			return apperrors.NewFileProcessingError(att.Filename,
				fmt.Sprintf("file %s is empty", displayName(att.Filename)))
		}

		if strings.TrimSpace(att.Filename) == "" {
			return apperrors.NewFileProcessingError("", "file name is missing")
		}

		if !IsCSVFilename(att.Filename) {
			return apperrors.NewFileProcessingError(att.Filename,
				fmt.Sprintf("file %s is not a valid CSV, only .csv files are accepted", att.Filename))
		}

		if att.Size > maxSize {
			return apperrors.NewFileProcessingError(att.Filename,
				fmt.Sprintf("file %s exceeds the maximum size of %s", att.Filename, FormatSize(maxSize)))
		}
	}

	return nil
}

// IsCSVFilename reports whether the filename carries a .csv extension,
// ignoring case
func IsCSVFilename(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), csvExtension)
}

// FormatSize renders a byte count using whole megabytes when it divides evenly
func FormatSize(size int64) string {
	const mb = 1024 * 1024
	if size%mb == 0 {
		return fmt.Sprintf("%dMB", size/mb)
	}
	return fmt.Sprintf("%d bytes", size)
}

func displayName(filename string) string {
	if strings.TrimSpace(filename) == "" {
		return "(unnamed)"
	}
	return filename
}
