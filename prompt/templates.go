package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/lmflux/internal/util"
)

// ErrTemplateNotFound is returned when a template id is unknown or was deleted.
var ErrTemplateNotFound = errors.New("template not found")

// DeleteMode controls what Delete does with persisted templates.
type DeleteMode int

const (
	// SoftDelete hides a persisted template but keeps its file.
	SoftDelete DeleteMode = iota
	// HardDelete removes the persisted file as well.
	HardDelete
)

// Templates stores prompt templates in memory with an optional external
// directory. A dotted id maps to a Markdown file: "agents.writer" is stored
// at <dir>/agents/writer.md.
type Templates struct {
	mu         sync.RWMutex
	inmem      map[string]string
	ignored    map[string]bool
	dir        string
	deleteMode DeleteMode
}

// TemplatesOptions configures NewTemplates.
type TemplatesOptions struct {
	Dir        string
	DeleteMode DeleteMode
}

// NewTemplates creates an empty template store.
func NewTemplates(optFns ...func(o *TemplatesOptions)) *Templates {
	opts := TemplatesOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Templates{
		inmem:      map[string]string{},
		ignored:    map[string]bool{},
		dir:        opts.Dir,
		deleteMode: opts.DeleteMode,
	}
}

// SetDir changes the external template directory.
func (t *Templates) SetDir(dir string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dir = dir
}

// SetDeleteMode changes how Delete treats persisted templates.
func (t *Templates) SetDeleteMode(m DeleteMode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deleteMode = m
}

// Path returns the file path of a persisted template id.
func (t *Templates) Path(id string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.path(id)
}

func (t *Templates) path(id string) string {
	parts := strings.Split(id, ".")
	return filepath.Join(append([]string{t.dir}, parts...)...) + ".md"
}

// Put stores a template. Persistent templates are also written to the
// external directory, which must be configured.
func (t *Templates) Put(id, src string, persistent bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.ignored, id)
	if !persistent {
		t.inmem[id] = src
		return nil
	}
	if t.dir == "" {
		return fmt.Errorf("persist template %s: no template directory configured", id)
	}
	p := t.path(id)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("persist template %s: %w", id, err)
	}
	if err := os.WriteFile(p, []byte(src), 0o644); err != nil {
		return fmt.Errorf("persist template %s: %w", id, err)
	}
	return nil
}

// Get returns the template source. In-memory templates take precedence over
// persisted ones.
func (t *Templates) Get(id string) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if src, ok := t.inmem[id]; ok {
		return src, nil
	}
	if t.ignored[id] || t.dir == "" {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	b, err := os.ReadFile(t.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
		}
		return "", err
	}
	return string(b), nil
}

// Delete removes a template. Persisted templates are hidden (SoftDelete) or
// removed from disk (HardDelete).
func (t *Templates) Delete(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.inmem, id)
	if t.dir == "" {
		return nil
	}
	p := t.path(id)
	if _, err := os.Stat(p); err != nil {
		return nil
	}
	if t.deleteMode == HardDelete {
		if err := os.Remove(p); err != nil {
			return fmt.Errorf("delete template %s: %w", id, err)
		}
		return nil
	}
	t.ignored[id] = true
	return nil
}

// Clear drops every in-memory template and soft-delete marker.
func (t *Templates) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inmem = map[string]string{}
	t.ignored = map[string]bool{}
}

// Render implements TemplateProvider.
func (t *Templates) Render(id string, vars map[string]any) (string, error) {
	src, err := t.Get(id)
	if err != nil {
		return "", err
	}
	out, err := util.RenderTemplate(src, vars)
	if err != nil {
		return "", fmt.Errorf("render template %s: %w", id, err)
	}
	return out, nil
}

type templateBundle struct {
	Templates []struct {
		ID         string `yaml:"id"`
		Source     string `yaml:"source"`
		Persistent bool   `yaml:"persistent"`
	} `yaml:"templates"`
}

// LoadYAML reads a bundle of the form
//
//	templates:
//	  - id: agents.writer
//	    source: |
//	      You write {{style}} prose.
//
// and stores every entry. It returns the number of templates loaded.
func (t *Templates) LoadYAML(r io.Reader) (int, error) {
	var bundle templateBundle
	if err := yaml.NewDecoder(r).Decode(&bundle); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("decode template bundle: %w", err)
	}
	for i, entry := range bundle.Templates {
		if entry.ID == "" {
			return i, fmt.Errorf("template bundle entry %d has no id", i)
		}
		if err := t.Put(entry.ID, entry.Source, entry.Persistent); err != nil {
			return i, err
		}
	}
	return len(bundle.Templates), nil
}
