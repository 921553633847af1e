package corpus

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	indexDir       = "index"
	currentFile    = "CURRENT"
	generationsDir = "generations"
	recipesDir     = "recipes"
	embeddingsFile = "embeddings.bin"
)

// Layout resolves the paths of index generations under a data directory.
type Layout struct {
	root   string
	logger *slog.Logger
}

// NewLayout returns the layout rooted at <dataDir>/index.
func NewLayout(dataDir string) *Layout {
	return &Layout{
		root:   filepath.Join(dataDir, indexDir),
		logger: slog.Default().With("component", "corpus-layout"),
	}
}

// Root returns <dataDir>/index.
func (l *Layout) Root() string {
	return l.root
}

// GenerationDir returns the directory of the named generation.
func (l *Layout) GenerationDir(name string) string {
	return filepath.Join(l.root, generationsDir, name)
}

// RecipesPath returns the badger directory of the named generation.
func (l *Layout) RecipesPath(name string) string {
	return filepath.Join(l.GenerationDir(name), recipesDir)
}

// EmbeddingsPath returns the matrix file of the named generation.
func (l *Layout) EmbeddingsPath(name string) string {
	return filepath.Join(l.GenerationDir(name), embeddingsFile)
}

// Current returns the name of the published generation.
func (l *Layout) Current() (string, error) {
	data, err := os.ReadFile(filepath.Join(l.root, currentFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrIndexMissing
		}
		return "", err
	}
	name := strings.TrimSpace(string(data))
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: bad %s contents %q", ErrIndexCorrupt, currentFile, name)
	}
	return name, nil
}

// NewGeneration creates an empty staging directory and returns its name.
// Names sort in creation order.
func (l *Layout) NewGeneration(now time.Time) (string, error) {
	base := now.UTC().Format("20060102T150405.000000000")
	if err := os.MkdirAll(filepath.Join(l.root, generationsDir), 0o755); err != nil {
		return "", err
	}
	for i := 0; ; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s-%d", base, i)
		}
		err := os.Mkdir(l.GenerationDir(name), 0o755)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", err
		}
	}
}

// Discard removes a generation that was never published.
func (l *Layout) Discard(name string) error {
	return os.RemoveAll(l.GenerationDir(name))
}

// Publish makes name the current generation by atomically replacing the
// CURRENT file, then prunes every generation except the new one and the
// one it replaced.
func (l *Layout) Publish(name string) error {
	if _, err := os.Stat(l.GenerationDir(name)); err != nil {
		return fmt.Errorf("publishing generation %s: %w", name, err)
	}
	previous, err := l.Current()
	if err != nil && !errors.Is(err, ErrIndexMissing) && !errors.Is(err, ErrIndexCorrupt) {
		return err
	}

	tmp, err := os.CreateTemp(l.root, currentFile+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(name + "\n"); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(l.root, currentFile)); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	l.logger.Info("published index generation", "generation", name, "previous", previous)

	if err := l.prune(name, previous); err != nil {
		l.logger.Warn("failed to prune old generations", "err", err)
	}
	return nil
}

// Generations lists generation directory names in creation order.
func (l *Layout) Generations() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(l.root, generationsDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (l *Layout) prune(keep ...string) error {
	names, err := l.Generations()
	if err != nil {
		return err
	}
	var errs []error
	for _, name := range names {
		kept := false
		for _, k := range keep {
			if name == k {
				kept = true
				break
			}
		}
		if kept {
			continue
		}
		if err := os.RemoveAll(l.GenerationDir(name)); err != nil {
			errs = append(errs, err)
			continue
		}
		l.logger.Debug("pruned index generation", "generation", name)
	}
	return errors.Join(errs...)
}
