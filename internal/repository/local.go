package repository

import (
	"context"
	"os"
	"path/filepath"

	"github.com/launchcg/jsync/internal/descriptor"
	"github.com/launchcg/jsync/internal/errors"
)

// LocalRepository reads a descriptor from the local filesystem.
// The path may name a descriptor file or a directory containing one.
type LocalRepository struct {
	path string
}

// NewLocalRepository creates a local repository. A relative path is joined
// with baseDir.
func NewLocalRepository(path, baseDir string) *LocalRepository {
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	return &LocalRepository{path: filepath.Clean(path)}
}

// Protocol returns "file".
func (r *LocalRepository) Protocol() string {
	return "file"
}

// Path returns the resolved descriptor location.
func (r *LocalRepository) Path() string {
	return r.path
}

// Resolve returns the descriptor file the repository reads, looking inside
// the path when it is a directory.
func (r *LocalRepository) Resolve() (string, error) {
	info, err := os.Stat(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewNotFoundError("descriptor", r.path)
		}
		return "", err
	}
	if !info.IsDir() {
		return r.path, nil
	}

	file, ok := descriptor.Find(r.path)
	if !ok {
		return "", errors.NewNotFoundError("descriptor", filepath.Join(r.path, descriptor.HCLFileName))
	}
	return file, nil
}

// Fetch reads the descriptor file.
func (r *LocalRepository) Fetch(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := r.Resolve()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := readDescriptor(f)
	if err != nil {
		return nil, err
	}

	return &Document{
		Name: filepath.Base(file),
		Path: file,
		Data: data,
	}, nil
}
