// Package repository fetches parent descriptors from local and remote sources.
//
// Supported source formats:
//   - file:../parent/build.hcl, file:///abs/path/build.hcl
//   - git+https://host/repo.git#tag=v1//path/build.hcl, git+ssh://...
//   - https://host/path/build.hcl
//   - s3://bucket/path/build.hcl
//   - az://account/container/path/build.hcl
//
// Remote documents are cached on disk so that an unreachable source does not
// prevent reconciliation of projects that inherit from it.
package repository

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// MaxDescriptorSize bounds the size of a fetched descriptor.
const MaxDescriptorSize = 1 << 20

// Document is a descriptor fetched from a repository.
type Document struct {
	// Source is the source URL as declared
	Source string

	// Name is the file name, used to select the descriptor format
	Name string

	// Path is the absolute descriptor file for file sources
	Path string

	// Data is the raw descriptor content
	Data []byte

	// Integrity is the content hash in format "sha256-{base64}"
	Integrity string

	// Revision is the resolved commit for git sources
	Revision string

	// Cached reports whether the document was served from the local cache
	Cached bool
}

// Repository fetches a single descriptor document.
type Repository interface {
	// Protocol returns the protocol identifier (e.g., "file", "git", "s3")
	Protocol() string

	// Fetch retrieves the descriptor
	Fetch(ctx context.Context) (*Document, error)
}

// Pinner is implemented by repositories whose content cannot change for a
// given source, such as git tags and commits. Pinned sources are served from
// the cache without contacting the remote.
type Pinner interface {
	Pinned() bool
}

// ParseSource parses a source URL and returns the protocol and path.
//
// Examples:
//
//	"file:../base/build.hcl"            -> ("file", "../base/build.hcl")
//	"file:///opt/base/build.hcl"        -> ("file", "/opt/base/build.hcl")
//	"git+https://host/r.git#tag=v1"     -> ("git", "https://host/r.git#tag=v1")
//	"https://host/build.hcl"            -> ("https", "https://host/build.hcl")
//	"s3://bucket/build.hcl"             -> ("s3", "bucket/build.hcl")
//	"az://acct/container/build.hcl"     -> ("az", "acct/container/build.hcl")
func ParseSource(source string) (protocol, path string, err error) {
	if source == "" {
		return "", "", fmt.Errorf("empty source URL")
	}

	if rest, ok := strings.CutPrefix(source, "file:"); ok {
		if abs, ok := strings.CutPrefix(rest, "//"); ok {
			return "file", abs, nil
		}
		return "file", rest, nil
	}

	if rest, ok := strings.CutPrefix(source, "git+"); ok {
		if strings.HasPrefix(rest, "https://") || strings.HasPrefix(rest, "ssh://") || strings.HasPrefix(rest, "git@") {
			return "git", rest, nil
		}
		return "", "", fmt.Errorf("invalid git URL: must be git+https://, git+ssh://, or git+git@: %s", source)
	}

	switch {
	case strings.HasPrefix(source, "https://"):
		return "https", source, nil
	case strings.HasPrefix(source, "http://"):
		return "http", source, nil
	case strings.HasPrefix(source, "s3://"):
		return "s3", strings.TrimPrefix(source, "s3://"), nil
	case strings.HasPrefix(source, "az://"):
		return "az", strings.TrimPrefix(source, "az://"), nil
	}

	return "", "", fmt.Errorf("unsupported source URL format: %s", source)
}

// New creates a repository for source. Relative file sources are resolved
// against baseDir, the directory of the descriptor that declares them.
func New(source, baseDir string) (Repository, error) {
	protocol, path, err := ParseSource(source)
	if err != nil {
		return nil, err
	}

	switch protocol {
	case "file":
		return NewLocalRepository(path, baseDir), nil
	case "git":
		return NewGitRepository("git+" + path)
	case "https", "http":
		return NewHTTPSRepository(path)
	case "s3":
		return NewS3Repository("s3://" + path)
	case "az":
		return NewAzureRepository("az://" + path)
	default:
		return nil, fmt.Errorf("unsupported protocol: %s", protocol)
	}
}

// readDescriptor reads r up to MaxDescriptorSize.
func readDescriptor(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDescriptorSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxDescriptorSize {
		return nil, fmt.Errorf("descriptor exceeds %d bytes", MaxDescriptorSize)
	}
	return data, nil
}

// baseName returns the last element of a slash-separated path.
func baseName(p string) string {
	p = strings.TrimSuffix(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}
