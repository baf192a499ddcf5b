// Package file provides a file-based store implementation for development
// and tests. Atomicity of field operations is guaranteed per process by a
// store-wide lock; deployments needing real concurrency use the mongodb or
// postgresql backends.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/landdiv/landflow/pkg/store"
)

// Store implements store.Store on top of a directory tree with one JSON
// file per document.
type Store struct {
	root string
	mu   sync.Mutex
}

// NewStore creates a file store rooted at the given directory. A leading
// file:// scheme is stripped so database URLs can be passed through as-is.
func NewStore(root string) *Store {
	return &Store{root: strings.Replace(root, "file://", "", 1)}
}

func (s *Store) Close(_ context.Context) error {
	return nil
}

func (s *Store) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (s *Store) docPath(collection, id string) string {
	return filepath.Clean(path.Join(s.root, collection, id+".json"))
}

func (s *Store) readDoc(collection, id string) (map[string]any, error) {
	body, err := os.ReadFile(s.docPath(collection, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, store.NewNotFoundError(collection, id)
		}

		return nil, fmt.Errorf("failed to read document %s/%s: %w", collection, id, err)
	}

	var doc map[string]any

	err = json.Unmarshal(body, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal document %s/%s: %w", collection, id, err)
	}

	return doc, nil
}

func (s *Store) writeDoc(collection, id string, doc map[string]any) error {
	err := os.MkdirAll(path.Join(s.root, collection), 0750)
	if err != nil {
		return fmt.Errorf("failed to create collection directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document %s/%s: %w", collection, id, err)
	}

	return os.WriteFile(s.docPath(collection, id), data, 0600)
}

// Get retrieves a document by ID, decoding it into out.
func (s *Store) Get(_ context.Context, collection, id string, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDoc(collection, id)
	if err != nil {
		return err
	}

	return decode(doc, out)
}

// Create stores a new document and returns its generated ID.
func (s *Store) Create(_ context.Context, collection string, doc any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, err := encode(doc)
	if err != nil {
		return "", err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate document ID: %w", err)
	}

	fields["id"] = id.String()

	err = s.writeDoc(collection, id.String(), fields)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// Update applies the field operations to an existing document. All ops are
// applied under the store lock, so the write is atomic with respect to
// other in-process writers.
func (s *Store) Update(_ context.Context, collection, id string, ops []store.Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDoc(collection, id)
	if err != nil {
		return err
	}

	for _, op := range ops {
		err = applyOp(doc, op)
		if err != nil {
			return fmt.Errorf("failed to apply %q update to %s/%s: %w", op.Field, collection, id, err)
		}
	}

	return s.writeDoc(collection, id, doc)
}

// Delete removes a document. Deleting a missing document is not an error.
func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.docPath(collection, id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete document %s/%s: %w", collection, id, err)
	}

	return nil
}

// List loads every document in a collection, applies equality filters and
// ordering in memory, and decodes the result into out.
func (s *Store) List(_ context.Context, collection string, opts store.ListOptions, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := os.DirFS(path.Join(s.root, collection))

	jsonFiles, err := fs.Glob(dir, "*.json")
	if err != nil {
		return fmt.Errorf("failed to list collection %s: %w", collection, err)
	}

	docs := make([]map[string]any, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		id := file[:len(file)-5] // Trim .json

		doc, err := s.readDoc(collection, id)
		if err != nil {
			return err
		}

		if matchesFilters(doc, opts.Filters) {
			docs = append(docs, doc)
		}
	}

	if opts.OrderBy != "" {
		sortDocs(docs, opts.OrderBy, opts.Desc)
	}

	return decode(docs, out)
}

func matchesFilters(doc map[string]any, filters map[string]any) bool {
	for field, want := range filters {
		got, ok := doc[field]
		if !ok {
			return false
		}

		if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}

	return true
}

func sortDocs(docs []map[string]any, field string, desc bool) {
	sort.SliceStable(docs, func(i, j int) bool {
		less := lessValue(docs[i][field], docs[j][field])
		if desc {
			return !less
		}

		return less
	})
}

func lessValue(a, b any) bool {
	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok {
			return fa < fb
		}
	}

	// RFC3339 timestamps and plain strings both order lexically.
	return fmt.Sprintf("%v", a) < fmt.Sprintf("%v", b)
}

func encode(doc any) (map[string]any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	var fields map[string]any

	err = json.Unmarshal(data, &fields)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document fields: %w", err)
	}

	return fields, nil
}

func decode(value, out any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal stored value: %w", err)
	}

	err = json.Unmarshal(data, out)
	if err != nil {
		return fmt.Errorf("failed to decode stored value: %w", err)
	}

	return nil
}
