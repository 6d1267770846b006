package taxonomy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/commonweal/beacon/internal/apierr"
	"github.com/commonweal/beacon/internal/models"
)

const reloadDebounce = 400 * time.Millisecond

// seedFile is the YAML shape of the collections seed file.
type seedFile struct {
	Taxonomies  []models.Taxonomy   `yaml:"taxonomies"`
	Collections []models.Collection `yaml:"collections"`
}

// FileStore is a Store backed by a YAML seed file. The file is loaded once
// and can be hot-reloaded with Watch when it changes on disk.
type FileStore struct {
	path string

	mu          sync.RWMutex
	taxonomies  map[string]models.Taxonomy
	collections map[models.CollectionType]map[string]models.Collection

	watcher  *fsnotify.Watcher
	reload   *time.Timer
	stopOnce sync.Once
	done     chan struct{}
	logger   *zap.Logger // optional; when set, logs reload events
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithLogger sets a logger for reload events.
func WithLogger(l *zap.Logger) FileStoreOption {
	return func(s *FileStore) { s.logger = l }
}

// NewFileStore loads the seed file at path.
func NewFileStore(path string, opts ...FileStoreOption) (*FileStore, error) {
	s := &FileStore{
		path: path,
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load reads and parses the seed file, replacing the in-memory maps.
func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read collections file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse collections file: %w", err)
	}

	taxonomies := make(map[string]models.Taxonomy, len(seed.Taxonomies))
	for _, tax := range seed.Taxonomies {
		taxonomies[tax.ID] = tax
	}
	collections := map[models.CollectionType]map[string]models.Collection{
		models.CollectionCategory: {},
		models.CollectionPersona:  {},
	}
	for _, col := range seed.Collections {
		byType, ok := collections[col.Type]
		if !ok {
			return fmt.Errorf("collection %s has unknown type %q", col.Slug, col.Type)
		}
		byType[col.Slug] = col
	}

	s.mu.Lock()
	s.taxonomies = taxonomies
	s.collections = collections
	s.mu.Unlock()
	return nil
}

// Watch reloads the seed file when it changes on disk. It runs until ctx is
// cancelled or Close is called. Reloads are debounced; a failed reload keeps
// the previous data.
func (s *FileStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory: editors replace files on save, which drops a
	// watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return err
	}
	s.watcher = watcher
	go s.run(ctx)
	return nil
}

func (s *FileStore) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			s.scheduleReload()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			if err != nil && s.logger != nil {
				s.logger.Debug("collections watcher error", zap.Error(err))
			}
		}
	}
}

func (s *FileStore) scheduleReload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reload != nil {
		s.reload.Stop()
	}
	s.reload = time.AfterFunc(reloadDebounce, func() {
		if err := s.load(); err != nil {
			if s.logger != nil {
				s.logger.Warn("collections reload failed, keeping previous data", zap.Error(err))
			}
			return
		}
		if s.logger != nil {
			s.logger.Info("collections reloaded", zap.String("path", s.path))
		}
	})
}

// Close stops the watcher, if running.
func (s *FileStore) Close() {
	s.stopOnce.Do(func() {
		close(s.done)
		if s.watcher != nil {
			_ = s.watcher.Close()
		}
	})
}

// CollectionBySlug implements Store.
func (s *FileStore) CollectionBySlug(ctx context.Context, typ models.CollectionType, slug string) (*models.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byType, ok := s.collections[typ]
	if !ok {
		return nil, apierr.NewNotFound(string(typ)+" collection", slug)
	}
	col, ok := byType[slug]
	if !ok {
		return nil, apierr.NewNotFound(string(typ)+" collection", slug)
	}
	return &col, nil
}

// Collections implements Store.
func (s *FileStore) Collections(ctx context.Context, typ models.CollectionType) ([]*models.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byType := s.collections[typ]
	out := make([]*models.Collection, 0, len(byType))
	for slug := range byType {
		col := byType[slug]
		out = append(out, &col)
	}
	return out, nil
}

// Taxonomy implements Store.
func (s *FileStore) Taxonomy(ctx context.Context, id string) (*models.Taxonomy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tax, ok := s.taxonomies[id]
	if !ok {
		return nil, apierr.NewNotFound("taxonomy", id)
	}
	return &tax, nil
}

// Closure implements Store. An unknown input id is a NotFoundError; an
// unknown ancestor in malformed data is skipped. Cycles are tolerated by
// tracking visited ids.
func (s *FileStore) Closure(ctx context.Context, ids []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	closure := make([]string, 0, len(ids))
	var visit func(id string)
	visit = func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		tax, ok := s.taxonomies[id]
		if !ok {
			return
		}
		seen[id] = struct{}{}
		closure = append(closure, id)
		if tax.ParentID != "" {
			visit(tax.ParentID)
		}
	}
	for _, id := range ids {
		if _, ok := s.taxonomies[id]; !ok {
			return nil, apierr.NewNotFound("taxonomy", id)
		}
		visit(id)
	}
	return closure, nil
}

// Names implements Store.
func (s *FileStore) Names(ctx context.Context, ids []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if tax, ok := s.taxonomies[id]; ok {
			names = append(names, tax.Name)
		}
	}
	return names, nil
}
