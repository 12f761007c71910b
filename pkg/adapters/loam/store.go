package loam

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/mhamid3d/maya-usd/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

var _ ports.LayerStore = (*Store)(nil)

// Ext is the extension of layer documents.
const Ext = ".md"

// Store keeps layers as Markdown documents in a Loam repository.
// The prim specs live in the frontmatter; the body lists the authored paths.
type Store struct {
	Root string
	Repo *loam.TypedRepository[LayerMetadata]
}

// New opens (or creates) a Loam repository at root.
func New(root string, opts ...loam.Option) (*Store, error) {
	absPath, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	opts = append([]loam.Option{loam.WithVersioning(false), loam.WithForceTemp(false)}, opts...)
	repo, err := loam.Init(absPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return &Store{
		Root: absPath,
		Repo: loam.NewTypedRepository[LayerMetadata](repo),
	}, nil
}

// Save writes the layer document, replacing the previous one.
func (s *Store) Save(ctx context.Context, layer *domain.LayerData) error {
	if err := validateID(layer.ID); err != nil {
		return err
	}

	specs := make(map[string]any, len(layer.Specs))
	for _, p := range layer.Paths() {
		entry := map[string]any{"specifier": string(layer.Specs[p].Specifier)}
		spec := layer.Specs[p]
		if spec.TypeName != "" {
			entry["type_name"] = spec.TypeName
		}
		if len(spec.Attributes) > 0 {
			entry["attributes"] = spec.Attributes
		}
		if len(spec.Metadata) > 0 {
			entry["metadata"] = spec.Metadata
		}
		specs[string(p)] = entry
	}

	err := s.Repo.Save(ctx, &loam.DocumentModel[LayerMetadata]{
		ID:      layer.ID + Ext,
		Content: body(layer),
		Data: LayerMetadata{
			ID:          layer.ID,
			DisplayName: layer.DisplayName,
			Specs:       specs,
		},
	})
	if err != nil {
		return fmt.Errorf("loam save failed for %s: %w", layer.ID, err)
	}
	return nil
}

// Load reads a layer document.
func (s *Store) Load(ctx context.Context, id string) (*domain.LayerData, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	doc, err := s.Repo.Get(ctx, id+Ext)
	if err != nil {
		if _, statErr := os.Stat(filepath.Join(s.Root, id+Ext)); errors.Is(statErr, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrLayerNotFound, id)
		}
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	layer := domain.NewLayerData(doc.Data.ID, doc.Data.DisplayName)
	if layer.ID == "" {
		layer.ID = id
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &layer.Specs,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(doc.Data.Specs); err != nil {
		return nil, fmt.Errorf("failed to decode specs of layer %s: %w", id, err)
	}

	for p, spec := range layer.Specs {
		if _, err := domain.ParsePath(string(p)); err != nil {
			return nil, fmt.Errorf("layer %s: %w", id, err)
		}
		if spec == nil {
			return nil, fmt.Errorf("layer %s: empty spec at %s", id, p)
		}
		if !spec.Specifier.Valid() {
			return nil, fmt.Errorf("layer %s: invalid specifier %q at %s", id, spec.Specifier, p)
		}
	}
	return layer, nil
}

// List returns the IDs of every layer document, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: layer '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func body(layer *domain.LayerData) string {
	var sb strings.Builder
	sb.WriteString("# " + layer.Info().Label() + "\n\n")
	for _, p := range layer.Paths() {
		sb.WriteString("- `" + string(p) + "`\n")
	}
	return sb.String()
}

func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("layer id cannot be empty")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("invalid layer id %q", id)
	}
	return nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
