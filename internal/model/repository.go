package model

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"omnisync/internal/fileutil"
	"omnisync/internal/services"
)

// Weights is a loaded weight blob.
type Weights struct {
	Path   string
	Data   []byte
	Digest string
}

// Repository persists weights.
type Repository interface {
	Load(path string) (Weights, error)
	Save(w Weights, path string) error
}

// FileRepository stores weights as plain files on local disk.
type FileRepository struct{}

// Load reads the weight file at path and computes its digest.
func (FileRepository) Load(path string) (Weights, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Weights{}, services.Wrap(services.ErrInvalidArgument, "model", "load", "weights path required", nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Weights{}, services.Wrap(services.ErrMissingInput, "model", "load", path, err)
		}
		return Weights{}, fmt.Errorf("model load %s: %w", path, err)
	}
	return Weights{Path: path, Data: data, Digest: fileutil.Digest(data)}, nil
}

// Save writes w.Data to path atomically.
func (FileRepository) Save(w Weights, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return services.Wrap(services.ErrInvalidArgument, "model", "save", "weights path required", nil)
	}
	if err := fileutil.WriteFileAtomic(path, w.Data, 0o644); err != nil {
		return fmt.Errorf("model save %s: %w", path, err)
	}
	return nil
}

// LoadIfPresent loads weights when path names an existing file. An empty
// path or a missing file yields ok false with no error.
func LoadIfPresent(repo Repository, path string) (Weights, bool, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Weights{}, false, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Weights{}, false, nil
		}
		return Weights{}, false, fmt.Errorf("model stat %s: %w", path, err)
	}
	w, err := repo.Load(path)
	if err != nil {
		return Weights{}, false, err
	}
	return w, true, nil
}
