package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/cradlehq/cradle/backend/internal/infrastructure/logging"
)

// catalogFile is the on-disk shape of a catalog extension. A file may hold
// a list of plugins and categories, or a single plugin at the top level.
type catalogFile struct {
	Categories []Category `yaml:"categories" toml:"categories"`
	Plugins    []Entry    `yaml:"plugins" toml:"plugins"`
	Entry      `yaml:",inline"`
}

// SeedResult counts what a seeding pass did.
type SeedResult struct {
	Files   int
	Loaded  int
	Failed  int
	Skipped int
}

// Seeder loads catalog extension files (.yaml, .yml, .toml) from disk.
type Seeder struct {
	manager *Manager
	dir     string
	logger  *logging.Logger
}

// NewSeeder creates a seeder reading from dir.
func NewSeeder(manager *Manager, dir string, logger *logging.Logger) *Seeder {
	return &Seeder{
		manager: manager,
		dir:     dir,
		logger:  logging.OrNop(logger).Named("registry.seeder"),
	}
}

// Seed walks the catalog directory and registers every entry it finds. A
// missing directory is not an error. Files that fail to parse are logged and
// counted, they do not abort the walk.
func (s *Seeder) Seed(ctx context.Context) (SeedResult, error) {
	var (
		mu  sync.Mutex
		res SeedResult
	)

	if s.dir == "" {
		return res, nil
	}
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		s.logger.Warn("Catalog directory not found", zap.String("dir", s.dir))
		return res, nil
	}

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, s.dir, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil || d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(p))
		if ext != ".yaml" && ext != ".yml" && ext != ".toml" {
			return nil
		}

		loaded, failed, lerr := s.loadFile(p, ext)

		mu.Lock()
		defer mu.Unlock()
		res.Files++
		res.Loaded += loaded
		res.Failed += failed
		if lerr != nil {
			res.Skipped++
			s.logger.Warn("Failed to load catalog file", zap.String("path", p), zap.Error(lerr))
		}
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("catalog walk failed: %w", err)
	}

	s.logger.Info("Catalog seeding complete",
		zap.Int("files", res.Files),
		zap.Int("loaded", res.Loaded),
		zap.Int("failed", res.Failed))
	return res, nil
}

func (s *Seeder) loadFile(path, ext string) (loaded, failed int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}

	file, err := ParseCatalog(data, ext)
	if err != nil {
		return 0, 0, err
	}

	for _, c := range file.Categories {
		if err := s.manager.RegisterCategory(c); err != nil {
			s.logger.Warn("Invalid category", zap.String("path", path), zap.String("id", c.ID), zap.Error(err))
		}
	}

	for _, e := range file.Plugins {
		if err := s.manager.Register(e); err != nil {
			s.logger.Warn("Invalid plugin", zap.String("path", path), zap.String("type", e.Type), zap.Error(err))
			failed++
			continue
		}
		loaded++
	}
	return loaded, failed, nil
}

// ParseCatalog decodes a catalog extension. ext selects the codec and must
// be ".yaml", ".yml" or ".toml".
func ParseCatalog(data []byte, ext string) (*CatalogFile, error) {
	var raw catalogFile
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("YAML parse error: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("TOML parse error: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}

	out := &CatalogFile{Categories: raw.Categories, Plugins: raw.Plugins}
	if raw.Entry.Type != "" {
		out.Plugins = append(out.Plugins, raw.Entry)
	}
	return out, nil
}

// CatalogFile is a decoded catalog extension.
type CatalogFile struct {
	Categories []Category
	Plugins    []Entry
}
