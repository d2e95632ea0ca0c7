// Package config — .addontrans.yaml configuration file support.
//
// When a .addontrans.yaml file exists in the add-on directory, its
// values act as defaults for the corresponding CLI flags. Flags always
// win; the file just saves retyping the usual language list and model.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the per-add-on configuration file.
const FileName = ".addontrans.yaml"

// File is the top-level .addontrans.yaml structure.
type File struct {
	// Languages is the default target language list.
	Languages []string `yaml:"languages,omitempty"`
	// Model is the default model name (full or short form).
	Model string `yaml:"model,omitempty"`
	// Provider forces a provider ID (openai, groq, ollama, custom).
	Provider string `yaml:"provider,omitempty"`
	// BaseURL overrides the provider endpoint.
	BaseURL string `yaml:"base_url,omitempty"`
	// Readme is the documentation file path.
	Readme string `yaml:"readme,omitempty"`
	// POT is the gettext template path.
	POT string `yaml:"pot,omitempty"`
	// AuthorName and AuthorEmail set the Last-Translator identity
	// without consulting git.
	AuthorName  string `yaml:"author_name,omitempty"`
	AuthorEmail string `yaml:"author_email,omitempty"`
}

// Load reads .addontrans.yaml from dir. A missing file is not an error
// and yields nil.
func Load(dir string) (*File, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &f, nil
}
