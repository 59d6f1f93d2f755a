package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"
	"github.com/swaggest/jsonschema-go"
)

// Loader defines one step of a pipeline. It is stored as a map of key-value
// pairs, the "type" key selecting how the rest is interpreted. For example
// (in YAML):
//
//	loaders:
//	  - type: archive
//	    name: images.zip.gz
//	    from: disk
//	    compression: gzip
//	    cache_all: true
//
// String values may refer to environment variables using the ${VAR_NAME}
// syntax:
//
//	loaders:
//	  - type: sql
//	    dsn: ${RESCTL_DB}
//
// The following loader types are supported:
//
//   - "filesystem": OS paths, "prefix" (optional, empty or ending in "/") is prepended to every name.
//   - "embedded": resources compiled into resctl, relative to "origin" (optional).
//   - "archive": entries of the archive file "name" found by pipeline "from". Optional keys are
//     "compression" (none, gzip, zstd, lz4; guessed from the name if absent), "format" (zip, tar),
//     "cache_all" (bool), "include" and "exclude" (glob pattern lists).
//   - "hardcoded": base64 literals in "entries" (a mapping), or built-in defaults if absent.
//   - "sql": rows of "table" (default "resources") in the SQLite database "dsn".
//   - "git": files of the local repository at "path" as of "revision" (default HEAD), below "prefix".
//   - "pipeline": the pipeline called "name".
type Loader struct {
	Value map[string]any `json:"-"`
}

type LoaderFileSystem struct {
	Prefix string `json:"prefix"`
}

type LoaderEmbedded struct {
	Origin string `json:"origin"`
}

type LoaderArchive struct {
	Name        string   `json:"name"`
	From        string   `json:"from"`
	Compression string   `json:"compression"`
	Format      string   `json:"format"`
	CacheAll    bool     `json:"cache_all"`
	Include     []string `json:"include"`
	Exclude     []string `json:"exclude"`
}

type LoaderHardcoded struct {
	Entries map[string]string `json:"entries"`
}

type LoaderSQL struct {
	DSN   string `json:"dsn"`
	Table string `json:"table"`
}

type LoaderGit struct {
	Path     string `json:"path"`
	Revision string `json:"revision"`
	Prefix   string `json:"prefix"`
}

type LoaderPipeline struct {
	Name string `json:"name"`
}

func (*Loader) PrepareJSONSchema(schema *jsonschema.Schema) error {
	schema.Type = nil
	schema.AddType(jsonschema.Object)
	return nil
}

func (l *Loader) MarshalYAML() (any, error) {
	if len(l.Value) == 0 {
		return map[string]any{}, nil
	}
	return l.Value, nil
}

func (l *Loader) MarshalJSON() ([]byte, error) {
	v, err := l.MarshalYAML()
	if err != nil {
		return nil, err
	}

	return json.Marshal(v)
}

func (l *Loader) UnmarshalYAML(bs []byte) error {
	if err := yaml.Unmarshal(bs, &l.Value); err != nil {
		return fmt.Errorf("expected mapping node: %w", err)
	}
	return nil
}

func (l *Loader) UnmarshalJSON(bs []byte) error {
	return json.Unmarshal(bs, &l.Value)
}

func (l *Loader) Equal(other *Loader) bool {
	if l == nil || other == nil {
		return l == other
	}
	return reflect.DeepEqual(l.Value, other.Value)
}

// Type returns the declared loader type.
func (l *Loader) Type() string {
	if l == nil {
		return ""
	}
	t, _ := l.Value["type"].(string)
	return t
}

// get expands environment variables in string values, also inside lists
// and mappings.
func (l *Loader) get() map[string]any {
	value := make(map[string]any, len(l.Value))
	for k, v := range l.Value {
		value[k] = expand(v)
	}
	return value
}

func expand(v any) any {
	switch v := v.(type) {
	case string:
		return os.ExpandEnv(v)
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = expand(v[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, x := range v {
			out[k] = expand(x)
		}
		return out
	default: // Keep non-string values as is
		return v
	}
}

// Typed decodes the loader into the struct matching its type, e.g.
// LoaderArchive for "archive".
func (l *Loader) Typed() (any, error) {
	if l == nil || len(l.Value) == 0 {
		return nil, errors.New("loader is not configured")
	}
	m := l.get()

	switch m["type"] {
	case "filesystem":
		var value LoaderFileSystem
		if err := decode(m, &value); err != nil {
			return nil, err
		}
		return value, nil

	case "embedded":
		var value LoaderEmbedded
		if err := decode(m, &value); err != nil {
			return nil, err
		}
		return value, nil

	case "archive":
		var value LoaderArchive
		if err := decode(m, &value); err != nil {
			return nil, err
		} else if value.Name == "" || value.From == "" {
			return nil, errors.New("missing name or from in archive loader")
		}
		return value, nil

	case "hardcoded":
		var value LoaderHardcoded
		if err := decode(m, &value); err != nil {
			return nil, err
		}
		return value, nil

	case "sql":
		var value LoaderSQL
		if err := decode(m, &value); err != nil {
			return nil, err
		} else if value.DSN == "" {
			return nil, errors.New("missing dsn in sql loader")
		}
		return value, nil

	case "git":
		var value LoaderGit
		if err := decode(m, &value); err != nil {
			return nil, err
		} else if value.Path == "" {
			return nil, errors.New("missing path in git loader")
		}
		return value, nil

	case "pipeline":
		var value LoaderPipeline
		if err := decode(m, &value); err != nil {
			return nil, err
		} else if value.Name == "" {
			return nil, errors.New("missing name in pipeline loader")
		}
		return value, nil

	case nil:
		return nil, errors.New("missing loader type")
	}

	return nil, fmt.Errorf("unknown loader type %q", m["type"])
}

func decode(input any, output any) error {
	config := &mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           output,
	}

	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}
