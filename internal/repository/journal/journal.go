// Package journal keeps the append-only audit trail of location reports.
package journal

import (
	"context"
	"fmt"

	"github.com/oshokin/lost-alarm/internal/domain/alert"
	"github.com/oshokin/lost-alarm/internal/repository/lockedfile"
)

// FileJournal appends one line per report.
type FileJournal struct {
	file *lockedfile.File
}

// NewFileJournal creates a journal backed by path.
func NewFileJournal(path string) *FileJournal {
	return &FileJournal{
		file: lockedfile.New(path),
	}
}

// Record appends the audit line of r.
func (j *FileJournal) Record(ctx context.Context, r *alert.Report) error {
	err := j.file.WithLock(ctx, func() error {
		return j.file.AppendLine(r.AuditLine())
	})
	if err != nil {
		return fmt.Errorf("record report: %w", err)
	}

	return nil
}
