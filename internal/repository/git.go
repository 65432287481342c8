package repository

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/launchcg/jsync/internal/descriptor"
)

// GitRef represents a parsed Git reference.
type GitRef struct {
	Type  string // "tag", "branch", "commit", or "default"
	Value string // The ref value (empty for "default")
}

// GitRepository fetches a descriptor from a git repository.
// Authentication is handled externally via:
//   - HTTPS: Git credential helpers (configured via git config)
//   - SSH: SSH agent or ~/.ssh keys
type GitRepository struct {
	repoURL string
	ref     GitRef
	subpath string
}

// NewGitRepository creates a repository from a git URL.
//
// URL formats:
//   - git+https://github.com/org/java-parent.git
//   - git+https://github.com/org/java-parent.git#v1.0.0
//   - git+https://github.com/org/java-parent.git#tag=v1.0.0//services/build.hcl
//   - git+https://github.com/org/java-parent.git#branch=main
//   - git+ssh://git@github.com/org/java-parent.git#commit=abc123
//   - git+https://github.com/org/java-parent.git#//services/build.hcl
//
// The part of the fragment after "//" is the descriptor path inside the
// repository and defaults to build.hcl.
func NewGitRepository(url string) (*GitRepository, error) {
	repoURL, ref, subpath, err := parseGitURL(url)
	if err != nil {
		return nil, err
	}
	return &GitRepository{repoURL: repoURL, ref: ref, subpath: subpath}, nil
}

// Protocol returns "git".
func (r *GitRepository) Protocol() string {
	return "git"
}

// RepoURL returns the Git repository URL.
func (r *GitRepository) RepoURL() string {
	return r.repoURL
}

// Ref returns the Git reference.
func (r *GitRepository) Ref() GitRef {
	return r.ref
}

// Subpath returns the descriptor path inside the repository.
func (r *GitRepository) Subpath() string {
	return r.subpath
}

// Pinned reports whether the reference is a tag or commit.
func (r *GitRepository) Pinned() bool {
	return r.ref.Type == "tag" || r.ref.Type == "commit"
}

// Fetch clones the repository into a temporary directory and reads the descriptor.
func (r *GitRepository) Fetch(ctx context.Context) (*Document, error) {
	tempDir, err := os.MkdirTemp("", "jsync-git-clone-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	cloneOpts := &git.CloneOptions{
		URL:   r.repoURL,
		Depth: 1,
	}
	switch r.ref.Type {
	case "tag":
		cloneOpts.ReferenceName = plumbing.NewTagReferenceName(r.ref.Value)
		cloneOpts.SingleBranch = true
	case "branch":
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(r.ref.Value)
		cloneOpts.SingleBranch = true
	case "commit":
		// Arbitrary commits are not reachable from a shallow clone.
		cloneOpts.Depth = 0
	}

	repo, err := git.PlainCloneContext(ctx, tempDir, false, cloneOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to clone repository: %w", err)
	}

	if r.ref.Type == "commit" {
		wt, err := repo.Worktree()
		if err != nil {
			return nil, fmt.Errorf("failed to open worktree: %w", err)
		}
		if err := wt.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(r.ref.Value)}); err != nil {
			return nil, fmt.Errorf("failed to checkout %s: %w", r.ref.Value, err)
		}
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	f, err := os.Open(filepath.Join(tempDir, filepath.FromSlash(r.subpath)))
	if err != nil {
		return nil, fmt.Errorf("descriptor %s not found in repository: %w", r.subpath, err)
	}
	defer f.Close()

	data, err := readDescriptor(f)
	if err != nil {
		return nil, err
	}

	return &Document{
		Name:     path.Base(r.subpath),
		Data:     data,
		Revision: head.Hash().String(),
	}, nil
}

// parseGitURL splits a git source into the clone URL, the reference and the
// descriptor path inside the repository.
func parseGitURL(url string) (repoURL string, ref GitRef, subpath string, err error) {
	gitURL, ok := strings.CutPrefix(url, "git+")
	if !ok {
		return "", GitRef{}, "", fmt.Errorf("invalid git URL: must start with 'git+': %s", url)
	}

	ref = GitRef{Type: "default"}
	subpath = descriptor.HCLFileName

	repoURL, fragment, hasFragment := strings.Cut(gitURL, "#")
	if hasFragment {
		refPart, sub, hasSub := strings.Cut(fragment, "//")
		if hasSub {
			sub = path.Clean(sub)
			if sub == "." || path.IsAbs(sub) || sub == ".." || strings.HasPrefix(sub, "../") {
				return "", GitRef{}, "", fmt.Errorf("invalid descriptor path in git URL: %s", url)
			}
			subpath = sub
		}

		switch {
		case refPart == "":
		case strings.Contains(refPart, "="):
			refType, refValue, _ := strings.Cut(refPart, "=")
			switch refType {
			case "tag", "branch", "commit":
				if refValue == "" {
					return "", GitRef{}, "", fmt.Errorf("empty %s in git URL: %s", refType, url)
				}
				ref = GitRef{Type: refType, Value: refValue}
			default:
				return "", GitRef{}, "", fmt.Errorf("invalid ref type: %s (must be tag, branch, or commit)", refType)
			}
		default:
			// Implicit ref (assume tag)
			ref = GitRef{Type: "tag", Value: refPart}
		}
	}

	if !strings.HasPrefix(repoURL, "https://") &&
		!strings.HasPrefix(repoURL, "ssh://") &&
		!strings.HasPrefix(repoURL, "git@") {
		return "", GitRef{}, "", fmt.Errorf("invalid git URL scheme: must be https://, ssh://, or git@: %s", repoURL)
	}

	return repoURL, ref, subpath, nil
}
