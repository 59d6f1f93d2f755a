package config

import (
	"cmp"
	"encoding/json"
	"fmt"
	"iter"
	"maps"
	"os"
	"slices"

	"github.com/goccy/go-yaml"
)

// Root is the top-level configuration of resctl: named loader pipelines
// and the labels that make up the root pipeline.
//
//	pipelines:
//	  disk:
//	    loaders:
//	      - type: filesystem
//	        prefix: src/main/resources/
//	root: [disk]
type Root struct {
	Pipelines      map[string]*Pipeline `json:"pipelines"`
	Root           []string             `json:"root,omitempty"`
	Trace          bool                 `json:"trace,omitempty"`
	ImageCacheSize int                  `json:"image_cache_size,omitempty"`

	_ struct{} `additionalProperties:"false"`
}

// UnmarshalYAML injects the mapping keys as pipeline names.
func (r *Root) UnmarshalYAML(bs []byte) error {
	type rawRoot Root // avoid recursive calls to UnmarshalYAML by type aliasing
	var raw rawRoot

	if err := yaml.Unmarshal(bs, &raw); err != nil {
		return fmt.Errorf("failed to decode Root: %w", err)
	}

	*r = Root(raw)
	r.unmarshal()
	return nil
}

func (r *Root) UnmarshalJSON(bs []byte) error {
	type rawRoot Root
	var raw rawRoot

	if err := json.Unmarshal(bs, &raw); err != nil {
		return fmt.Errorf("failed to decode Root: %w", err)
	}

	*r = Root(raw)
	r.unmarshal()
	return nil
}

func (r *Root) unmarshal() {
	for name := range r.Pipelines {
		r.Pipelines[name] = cmp.Or(r.Pipelines[name], &Pipeline{})
		r.Pipelines[name].Name = name
	}
}

// RootLabels returns the labels of the root pipeline. Without an explicit
// root every pipeline is combined, in name order.
func (r *Root) RootLabels() []string {
	if len(r.Root) > 0 {
		return r.Root
	}
	return slices.Sorted(maps.Keys(r.Pipelines))
}

func (r *Root) SortedPipelines() iter.Seq2[int, *Pipeline] {
	names := slices.Sorted(maps.Keys(r.Pipelines))
	return func(yield func(int, *Pipeline) bool) {
		for i, name := range names {
			if !yield(i, r.Pipelines[name]) {
				return
			}
		}
	}
}

// TopologicalSortedPipelines returns the pipelines ordered so that every
// pipeline comes after the pipelines it refers to. Cycles are errors,
// references to unknown pipelines are left for the builder to report.
func (r *Root) TopologicalSortedPipelines() ([]*Pipeline, error) {
	sorter := topologicalSortPipelines{
		pipelines:  r.Pipelines,
		inprogress: make(map[string]struct{}),
		done:       make(map[string]struct{}),
	}

	for _, p := range r.SortedPipelines() {
		if err := sorter.Visit(p); err != nil {
			return nil, err
		}
	}
	return sorter.sorted, nil
}

type topologicalSortPipelines struct {
	pipelines  map[string]*Pipeline
	inprogress map[string]struct{}
	done       map[string]struct{}
	sorted     []*Pipeline
}

func (s *topologicalSortPipelines) Visit(p *Pipeline) error {
	if _, ok := s.inprogress[p.Name]; ok {
		return fmt.Errorf("cycle found on pipeline %q", p.Name)
	}
	if _, ok := s.done[p.Name]; ok {
		return nil
	}
	s.inprogress[p.Name] = struct{}{}
	for _, ref := range p.References() {
		if other, ok := s.pipelines[ref]; ok {
			if err := s.Visit(other); err != nil {
				return err
			}
		}
	}
	s.done[p.Name] = struct{}{}
	delete(s.inprogress, p.Name)
	s.sorted = append(s.sorted, p)
	return nil
}

// Pipeline is an ordered list of loaders tried in turn.
type Pipeline struct {
	Name    string    `json:"-"`
	Loaders []*Loader `json:"loaders"`

	_ struct{} `additionalProperties:"false"`
}

// References returns the labels of the other pipelines this one uses.
func (p *Pipeline) References() []string {
	var refs []string
	for _, l := range p.Loaders {
		typed, err := l.Typed()
		if err != nil {
			continue
		}
		switch t := typed.(type) {
		case LoaderArchive:
			refs = append(refs, t.From)
		case LoaderPipeline:
			refs = append(refs, t.Name)
		}
	}
	return refs
}

func Validate(data []byte) error {
	var config any
	if err := yaml.Unmarshal(data, &config); err != nil {
		return err
	}

	return rootSchema.Validate(config)
}

func ParseFile(filename string) (root *Root, err error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	return Parse(bs)
}

// Parse validates bs against the configuration schema, decodes it and
// checks every loader definition.
func Parse(bs []byte) (*Root, error) {
	if err := Validate(bs); err != nil {
		return nil, err
	}

	var root Root
	if err := yaml.Unmarshal(bs, &root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for _, p := range root.SortedPipelines() {
		for i, l := range p.Loaders {
			if _, err := l.Typed(); err != nil {
				return nil, fmt.Errorf("pipeline %q, loader %d: %w", p.Name, i, err)
			}
		}
	}

	return &root, nil
}
