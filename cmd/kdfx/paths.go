package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	envKdfxOutDir = "KDFX_OUT_DIR"
	envKdfxConfig = "KDFX_CONFIG"
)

// resolveInputs expands --file and --dir into a sorted, de-duplicated list
// of input files.
func resolveInputs(files []string, dir string) ([]string, error) {
	seen := make(map[string]bool)
	var inputs []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			inputs = append(inputs, p)
		}
	}

	for _, f := range files {
		if f = strings.TrimSpace(f); f != "" {
			add(f)
		}
	}
	if dir = strings.TrimSpace(dir); dir != "" {
		found, err := discoverKDFFiles(dir)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("no .kdf files found in %s", dir)
		}
		for _, f := range found {
			add(f)
		}
	}
	if len(inputs) == 0 {
		return nil, errors.New("--file or --dir is required")
	}
	return inputs, nil
}

func discoverKDFFiles(dir string) ([]string, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("input path is not a directory: %s", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".kdf") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

// resolveOutDir picks the output root: the flag, then KDFX_OUT_DIR, then
// the config file, then ./out.
func resolveOutDir(flagValue, configValue string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return filepath.Clean(v)
	}
	if v := strings.TrimSpace(os.Getenv(envKdfxOutDir)); v != "" {
		return filepath.Clean(v)
	}
	if v := strings.TrimSpace(configValue); v != "" {
		return filepath.Clean(v)
	}
	return filepath.Join(".", "out")
}
