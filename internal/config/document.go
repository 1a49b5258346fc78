// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"
)

// Document base names inside a config directory.
const (
	DocConfig          = "config"
	DocLLMAPIs         = "llm_apis"
	DocInstructionSets = "instruction_sets"
	DocExperts         = "experts"
	DocUsers           = "users"
	DocContexts        = "contexts"
	DocAPIKeys         = "api_keys"
)

// Documents lists every document a config directory must provide.
var Documents = []string{
	DocConfig, DocLLMAPIs, DocInstructionSets, DocExperts, DocUsers, DocContexts, DocAPIKeys,
}

// Extensions are tried in this order when looking up a document.
var Extensions = []string{".toml", ".json", ".yaml", ".yml"}

// FindDocument returns the path of the first existing base+extension in dir.
func FindDocument(dir, base string) (string, error) {
	for _, ext := range Extensions {
		path := filepath.Join(dir, base+ext)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", &ConfigError{Path: path, Reason: "cannot stat document", Err: err}
		}
	}
	return "", &ConfigError{
		Path:   filepath.Join(dir, base+Extensions[0]),
		Reason: fmt.Sprintf("document %q not found (tried %s)", base, strings.Join(Extensions, ", ")),
		Err:    fs.ErrNotExist,
	}
}

// LoadDocument parses one document into a generic mapping. The format is
// chosen by the file extension.
func LoadDocument(path string) (map[string]any, error) {
	var doc map[string]any
	if err := decodeFile(path, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// LoadCatalog parses a document whose top level maps identifiers to entries
// of type T.
func LoadCatalog[T any](path string) (map[string]T, error) {
	var catalog map[string]T
	if err := decodeFile(path, &catalog); err != nil {
		return nil, err
	}
	if catalog == nil {
		catalog = map[string]T{}
	}
	return catalog, nil
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &ConfigError{Path: path, Reason: "document not found", Err: err}
		}
		return &ConfigError{Path: path, Reason: "cannot read document", Err: err}
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, v)
	case ".json":
		if len(bytes.TrimSpace(data)) == 0 {
			err = errors.New("empty document")
		} else {
			err = sonic.Unmarshal(data, v)
		}
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, v)
	default:
		return &ConfigError{Path: path, Reason: fmt.Sprintf("unsupported document format %q", ext)}
	}
	if err != nil {
		return &ConfigError{Path: path, Reason: "invalid document", Err: err}
	}
	return nil
}
