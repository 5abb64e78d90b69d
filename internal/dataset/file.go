// Package dataset reads and writes record datasets as YAML, generates
// synthetic cohorts, and submits datasets to a running service.
package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/okian/mentorpulse/internal/adapters/repository"
	model "github.com/okian/mentorpulse/internal/domain/model"
)

const directoryPermission = 0o750

// Decode reads one YAML dataset from r. Unknown keys are rejected.
func Decode(r io.Reader) (*model.Dataset, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var ds model.Dataset
	if err := dec.Decode(&ds); err != nil {
		if err == io.EOF {
			return &ds, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidDataset, err)
	}
	return &ds, nil
}

// Encode writes ds to w as YAML.
func Encode(w io.Writer, ds *model.Dataset) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(ds); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return enc.Close()
}

// Load reads the YAML dataset stored at path.
func Load(path string) (*model.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	ds, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Save writes ds to path, creating parent directories as needed.
func Save(path string, ds *model.Dataset) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset file: %w", err)
	}
	if err := Encode(f, ds); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// FileSource serves a YAML dataset file as a record source. The file is
// read again on every Load so edits are picked up by the next refresh.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load reads the dataset file. Read and decode failures are reported as
// repository.ErrSourceUnavailable.
func (s *FileSource) Load(ctx context.Context) (*model.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ds, err := Load(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrSourceUnavailable, err)
	}
	return ds, nil
}
