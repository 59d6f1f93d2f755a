package config

import (
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"slices"

	"github.com/goccy/go-yaml"
)

// Merge reads every configuration file found at the given paths
// (directories are walked) and merges them into one document. Mappings
// merge recursively; for any other value the last file wins, unless
// conflictError is set, in which case differing values are an error.
func Merge(configFiles []string, conflictError bool) ([]byte, error) {
	var paths []string
	for _, f := range configFiles {
		if err := filepath.WalkDir(f, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				paths = append(paths, path)
			}
			return nil
		}); err != nil {
			return nil, err
		}
	}

	merged := map[string]any{}
	for _, p := range paths {
		bs, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", p, err)
		}
		var doc map[string]any
		if err := yaml.Unmarshal(bs, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file %s: %w", p, err)
		}
		if err := mergeInto(merged, doc, "", conflictError); err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	bs, err := yaml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal merged config: %w", err)
	}
	return bs, nil
}

func mergeInto(dst, src map[string]any, path string, conflictError bool) error {
	for _, key := range slices.Sorted(maps.Keys(src)) { // sorted for deterministic errors
		value := src[key]
		existing, ok := dst[key]
		if !ok {
			dst[key] = value
			continue
		}
		em, ok1 := existing.(map[string]any)
		vm, ok2 := value.(map[string]any)
		if ok1 && ok2 {
			if err := mergeInto(em, vm, path+"/"+key, conflictError); err != nil {
				return err
			}
			continue
		}
		if conflictError && !reflect.DeepEqual(existing, value) {
			return fmt.Errorf("conflict for config path %s", path+"/"+key)
		}
		dst[key] = value
	}
	return nil
}
