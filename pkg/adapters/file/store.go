package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/mhamid3d/maya-usd/pkg/ports"
	"gopkg.in/yaml.v3"
)

var (
	_ ports.LayerStore   = (*Store)(nil)
	_ ports.LayerDeleter = (*Store)(nil)
)

// Ext is the extension of layer files.
const Ext = ".yaml"

// Store implements ports.LayerStore using the local filesystem.
// It stores layers as YAML files in a configured directory.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".usdrename/layers".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".usdrename", "layers")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("layer id cannot be empty")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid layer id %q", id)
	}
	return filepath.Join(s.BasePath, id+Ext), nil
}

// Save persists the layer to a YAML file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, layer *domain.LayerData) error {
	destPath, err := s.path(layer.ID)
	if err != nil {
		return err
	}

	// Ensure directory exists
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure layer directory: %w", err)
	}

	data, err := yaml.Marshal(layer)
	if err != nil {
		return fmt.Errorf("failed to marshal layer: %w", err)
	}

	// 1. Create Temp File in the same directory (atomic rename needs one filesystem)
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+layer.ID+"-*"+Ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Cleanup temp file in case of failure
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	// 2. Write Data
	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	// 3. Fsync to ensure durability
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// 4. Close File (cannot rename open file on Windows)
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// 5. Atomic Rename
	// On Windows, os.Rename fails if dest exists. We must remove it first.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing layer file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to layer file: %w", err)
	}
	return nil
}

// Load retrieves the layer from its YAML file.
func (s *Store) Load(ctx context.Context, id string) (*domain.LayerData, error) {
	filePath, err := s.path(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrLayerNotFound, id)
		}
		return nil, fmt.Errorf("failed to read layer file: %w", err)
	}

	var layer domain.LayerData
	if err := yaml.Unmarshal(data, &layer); err != nil {
		return nil, fmt.Errorf("failed to unmarshal layer %s: %w", id, err)
	}
	if layer.ID == "" {
		layer.ID = id
	}
	if layer.Specs == nil {
		layer.Specs = make(map[domain.Path]*domain.PrimSpec)
	}
	return &layer, nil
}

// Delete removes the layer file.
func (s *Store) Delete(ctx context.Context, id string) error {
	filePath, err := s.path(id)
	if err != nil {
		return err
	}

	err = os.Remove(filePath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete layer file: %w", err)
	}
	return nil
}

// List returns the IDs of every layer file, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list layers: %w", err)
	}

	var layers []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != Ext || strings.HasPrefix(name, "tmp-") {
			continue
		}
		layers = append(layers, strings.TrimSuffix(name, Ext))
	}
	sort.Strings(layers)
	return layers, nil
}
