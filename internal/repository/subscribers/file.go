package subscribers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/oshokin/lost-alarm/internal/domain/alert"
	"github.com/oshokin/lost-alarm/internal/repository/lockedfile"
)

// Registry defines the operations the dispatcher and command handler depend on.
type Registry interface {
	// Load returns the registered identifiers in append order, without duplicates.
	Load(ctx context.Context) ([]string, error)
	// Append adds id unconditionally.
	Append(ctx context.Context, id string) error
	// Register adds id unless it is already present and reports whether it was added.
	Register(ctx context.Context, id string) (bool, error)
}

// errEmptyID is returned for blank identifiers, which would read back as nothing.
var errEmptyID = errors.New("subscriber id is empty")

// FileRegistry stores identifiers as newline-delimited text.
type FileRegistry struct {
	file *lockedfile.File
}

var _ Registry = (*FileRegistry)(nil)

// NewFileRegistry creates a registry backed by path.
func NewFileRegistry(path string) *FileRegistry {
	return &FileRegistry{
		file: lockedfile.New(path),
	}
}

// Path returns the backing file location.
func (r *FileRegistry) Path() string {
	return r.file.Path()
}

// Load reads the registry, creating an empty file when it does not exist yet.
func (r *FileRegistry) Load(ctx context.Context) ([]string, error) {
	var ids []string

	err := r.file.WithRLock(ctx, func() error {
		var err error

		ids, err = r.read()

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", alert.ErrRegistryIO, r.file.Path(), err)
	}

	return ids, nil
}

// Append adds id to the end of the file. It does not check for duplicates.
func (r *FileRegistry) Append(ctx context.Context, id string) error {
	id, err := cleanID(id)
	if err != nil {
		return err
	}

	err = r.file.WithLock(ctx, func() error {
		return r.file.AppendLine(id)
	})
	if err != nil {
		return fmt.Errorf("%w: append %s: %w", alert.ErrRegistryIO, r.file.Path(), err)
	}

	return nil
}

// Register performs the membership check and the append under one exclusive lock.
func (r *FileRegistry) Register(ctx context.Context, id string) (bool, error) {
	id, err := cleanID(id)
	if err != nil {
		return false, err
	}

	var added bool

	err = r.file.WithLock(ctx, func() error {
		ids, err := r.read()
		if err != nil {
			return err
		}

		if slices.Contains(ids, id) {
			return nil
		}

		if err = r.file.AppendLine(id); err != nil {
			return err
		}

		added = true

		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: register in %s: %w", alert.ErrRegistryIO, r.file.Path(), err)
	}

	return added, nil
}

// read returns deduplicated lines, creating the file if needed. Call it under a lock.
func (r *FileRegistry) read() ([]string, error) {
	lines, err := r.file.ReadLines()
	if errors.Is(err, os.ErrNotExist) {
		return nil, r.file.Ensure()
	}

	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(lines))
	ids := lines[:0]

	for _, line := range lines {
		if _, ok := seen[line]; ok {
			continue
		}

		seen[line] = struct{}{}
		ids = append(ids, line)
	}

	return ids, nil
}

// cleanID trims id and rejects values that cannot be stored as one line.
func cleanID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, "\r\n") {
		return "", errEmptyID
	}

	return id, nil
}
