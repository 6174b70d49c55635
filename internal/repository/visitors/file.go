package visitors

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/lost-alarm/internal/domain/alert"
	"github.com/oshokin/lost-alarm/internal/logger"
	"github.com/oshokin/lost-alarm/internal/repository/lockedfile"
)

// ServerTimestampField is added to every stored entry.
const ServerTimestampField = "serverTimestamp"

// Entry is one visitor record as decoded from JSON.
type Entry = map[string]any

// Repository defines the visitor log operations.
type Repository interface {
	Append(ctx context.Context, entry Entry) (Entry, error)
	List(ctx context.Context) ([]Entry, error)
}

// FileRepository persists entries as JSON lines.
type FileRepository struct {
	file *lockedfile.File
	// now is replaceable in tests.
	now func() time.Time
}

var _ Repository = (*FileRepository)(nil)

// NewFileRepository creates a repository backed by path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		file: lockedfile.New(path),
		now:  time.Now,
	}
}

// Append stamps entry with the server time and writes it. The stored entry is returned.
func (r *FileRepository) Append(ctx context.Context, entry Entry) (Entry, error) {
	stamped := make(Entry, len(entry)+1)
	for k, v := range entry {
		stamped[k] = v
	}

	stamped[ServerTimestampField] = r.now().UTC().Format(alert.ISOTimestampLayout)

	msg, err := structpb.NewStruct(stamped)
	if err != nil {
		return nil, fmt.Errorf("encode visitor entry: %w", err)
	}

	// Compact output never contains newlines.
	line, err := protojson.MarshalOptions{Multiline: false}.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal visitor entry: %w", err)
	}

	err = r.file.WithLock(ctx, func() error {
		return r.file.AppendLine(string(line))
	})
	if err != nil {
		return nil, fmt.Errorf("append visitor entry: %w", err)
	}

	return msg.AsMap(), nil
}

// List returns every stored entry in file order. Malformed lines are skipped.
func (r *FileRepository) List(ctx context.Context) ([]Entry, error) {
	var lines []string

	err := r.file.WithRLock(ctx, func() error {
		var err error

		lines, err = r.file.ReadLines()

		return err
	})

	switch {
	case errors.Is(err, os.ErrNotExist):
		return []Entry{}, nil
	case err != nil:
		return nil, fmt.Errorf("read visitor log: %w", err)
	}

	entries := make([]Entry, 0, len(lines))

	for i, line := range lines {
		var msg structpb.Struct
		if err := protojson.Unmarshal([]byte(line), &msg); err != nil {
			logger.WarnKV(ctx, "Skipping malformed visitor log line", "line", i+1, "error", err)
			continue
		}

		entries = append(entries, msg.AsMap())
	}

	return entries, nil
}
