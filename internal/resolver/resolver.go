package resolver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/launchcg/jsync/internal/descriptor"
	"github.com/launchcg/jsync/internal/errors"
	"github.com/launchcg/jsync/internal/repository"
)

// MaxChainDepth bounds the length of an inheritance chain.
const MaxChainDepth = 32

// Link is one descriptor of an inheritance chain.
type Link struct {
	// Descriptor is the parsed descriptor
	Descriptor *descriptor.Descriptor

	// File is the absolute file of a local descriptor (empty for remote ones)
	File string

	// Source is the parent source URL (empty for the project's own descriptor)
	Source string

	// Integrity is the content hash of the descriptor
	Integrity string

	// Cached reports whether a remote descriptor came from the local cache
	Cached bool
}

// Chain is the resolved inheritance chain of a project descriptor.
type Chain struct {
	// Effective is the descriptor after applying every parent
	Effective *descriptor.Descriptor

	// Links lists the chain, project descriptor first
	Links []Link
}

// Files returns the local descriptor files of the chain.
func (c *Chain) Files() []string {
	var files []string
	for _, l := range c.Links {
		if l.File != "" {
			files = append(files, l.File)
		}
	}
	return files
}

// Includes reports whether file is one of the chain's local descriptors.
func (c *Chain) Includes(file string) bool {
	file = filepath.Clean(file)
	for _, l := range c.Links {
		if l.File == file {
			return true
		}
	}
	return false
}

// Sources returns the remote parent sources of the chain.
func (c *Chain) Sources() []string {
	var sources []string
	for _, l := range c.Links {
		if l.File == "" && l.Source != "" {
			sources = append(sources, l.Source)
		}
	}
	return sources
}

// Digest identifies the content of the whole chain.
func (c *Chain) Digest() string {
	h := sha256.New()
	for _, l := range c.Links {
		h.Write([]byte(l.Integrity))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Resolver resolves inheritance chains and module graphs.
type Resolver struct {
	fetcher *repository.Fetcher
	logger  *slog.Logger
}

// New creates a resolver that fetches parents through fetcher.
func New(fetcher *repository.Fetcher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{fetcher: fetcher, logger: logger}
}

// Resolve resolves the inheritance chain of d, whose content is data.
// d.File must be the absolute descriptor path.
//
// Parent cycles and invalid parent descriptors are returned as
// *errors.ConfigError; fetch failures as *errors.RepositoryError.
func (r *Resolver) Resolve(ctx context.Context, d *descriptor.Descriptor, data []byte) (*Chain, error) {
	chain := &Chain{
		Links: []Link{{
			Descriptor: d,
			File:       filepath.Clean(d.File),
			Integrity:  repository.ComputeIntegrity(data),
		}},
	}

	seen := map[string]bool{filepath.Clean(d.File): true}
	visited := []string{d.File}
	cur := chain.Links[0]

	for cur.Descriptor.Parent != nil {
		if len(chain.Links) >= MaxChainDepth {
			return nil, errors.NewConfigError(cur.Descriptor.File, 0, 0,
				fmt.Sprintf("inheritance chain deeper than %d", MaxChainDepth), nil)
		}

		parent := cur.Descriptor.Parent
		source := parent.Source
		if parent.Path != "" {
			if cur.File == "" {
				return nil, errors.NewConfigError(cur.Source, 0, 0,
					"remote descriptor cannot reference a local parent path", nil)
			}
			source = "file:" + filepath.ToSlash(parent.Path)
		}

		baseDir := ""
		if cur.File != "" {
			baseDir = filepath.Dir(cur.File)
		}

		doc, err := r.fetcher.Fetch(ctx, source, baseDir)
		if err != nil {
			return nil, err
		}

		key := doc.Path
		if key == "" {
			key = source
		}
		visited = append(visited, key)
		if seen[key] {
			return nil, errors.NewConfigError(d.File, 0, 0, "invalid parent",
				&CycleError{Kind: "parent", Members: visited})
		}
		seen[key] = true

		pd, err := descriptor.Parse(parseName(doc), doc.Data)
		if err != nil {
			return nil, err
		}

		link := Link{
			Descriptor: pd,
			File:       doc.Path,
			Source:     source,
			Integrity:  doc.Integrity,
			Cached:     doc.Cached,
		}
		if doc.Cached {
			r.logger.Debug("parent descriptor served from cache", "source", source)
		}
		chain.Links = append(chain.Links, link)
		cur = link
	}

	eff := chain.Links[len(chain.Links)-1].Descriptor
	for i := len(chain.Links) - 2; i >= 0; i-- {
		eff = descriptor.Inherit(eff, chain.Links[i].Descriptor)
	}
	chain.Effective = eff
	return chain, nil
}

// parseName returns the file name a fetched document is parsed under. The
// extension selects the descriptor format.
func parseName(doc *repository.Document) string {
	if doc.Path != "" {
		return doc.Path
	}
	if strings.EqualFold(filepath.Ext(doc.Source), filepath.Ext(doc.Name)) {
		return doc.Source
	}
	return doc.Source + "//" + doc.Name
}

// Modules walks the aggregation graph below rootDir and returns the project
// directories with every aggregator before its modules. rootDir is always
// first. Module descriptors that fail to load are kept as leaves so that the
// failure is reported by their own reconciliation.
func (r *Resolver) Modules(rootDir string) ([]string, error) {
	rootDir, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}
	if _, ok := descriptor.Find(rootDir); !ok {
		return nil, errors.NewNotFoundError("descriptor", filepath.Join(rootDir, descriptor.HCLFileName))
	}

	g := NewModuleGraph()
	g.AddNode(rootDir)

	queue := []string{rootDir}
	visited := map[string]bool{rootDir: true}
	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		file, ok := descriptor.Find(dir)
		if !ok {
			r.logger.Warn("module has no descriptor", "dir", dir)
			continue
		}
		d, err := descriptor.Load(file)
		if err != nil {
			r.logger.Warn("failed to load module descriptor", "file", file, "error", err)
			continue
		}

		for _, m := range d.Project.Modules {
			child := filepath.Join(dir, filepath.FromSlash(m))
			g.AddModule(dir, child)
			if !visited[child] {
				visited[child] = true
				queue = append(queue, child)
			}
		}
	}

	order, err := g.TopologicalSort()
	if err != nil {
		file, _ := descriptor.Find(rootDir)
		return nil, errors.NewConfigError(file, 0, 0, "invalid modules", err)
	}
	return order, nil
}
