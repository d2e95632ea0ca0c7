// Package addon loads an NVDA add-on's on-disk layout: the directory,
// its manifest.ini metadata, and the conventional localization paths
// (doc/<lang>/readme.md, locale/<lang>/manifest.ini,
// locale/<lang>/LC_MESSAGES/nvda.po).
package addon

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/ini.v1"
)

// ManifestName is the add-on metadata file expected at the directory root.
const ManifestName = "manifest.ini"

// MessagesName is the compiled message catalog filename NVDA loads.
const MessagesName = "nvda.po"

// ProtectedKeys are manifest keys whose values must never be altered by
// translation. They are passed to the model as an exclusion list; the
// model output is not post-validated against them.
var ProtectedKeys = []string{
	"name",
	"author",
	"url",
	"version",
	"docFileName",
	"minimumNVDAVersion",
	"lastTestedNVDAVersion",
	"updateChannel",
}

// Addon describes a loaded add-on. Constructed once by Load and
// read-only afterwards.
type Addon struct {
	// Dir is the add-on root directory as given by the user.
	Dir string
	// Name is the add-on name from the manifest's "name" key.
	Name string
	// ManifestPath is the path to manifest.ini inside Dir.
	ManifestPath string
	// ManifestText is the raw manifest content, sent verbatim to the
	// translator.
	ManifestText string
	// Version is the manifest "version" value, if present (status display).
	Version string
	// Summary is the manifest "summary" value, if present (status display).
	Summary string
}

// Load reads and validates the add-on directory and its manifest.
func Load(dir string) (*Addon, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("could not find %s directory, provide a valid path to the add-on", dir)
	}

	manifestPath := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("could not find %s in the %s directory", ManifestName, dir)
	}

	// NVDA manifests are sectionless INI; keys land in the parser's
	// default section.
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
	}, data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", manifestPath, err)
	}

	section := cfg.Section(ini.DefaultSection)
	if !section.HasKey("name") {
		return nil, fmt.Errorf("'name' not found in %s", ManifestName)
	}

	return &Addon{
		Dir:          dir,
		Name:         section.Key("name").String(),
		ManifestPath: manifestPath,
		ManifestText: string(data),
		Version:      section.Key("version").String(),
		Summary:      section.Key("summary").String(),
	}, nil
}

// DefaultPOTPath returns the POT template path derived from the add-on
// name, used when no explicit --pot path is given. Note: relative to the
// working directory, not the add-on directory (the build tooling writes
// it next to the invocation point).
func (a *Addon) DefaultPOTPath() string {
	return a.Name + ".pot"
}

// DocPath returns the translated readme path for a language.
func (a *Addon) DocPath(lang string) string {
	return filepath.Join(a.Dir, "doc", lang, "readme.md")
}

// LocaleManifestPath returns the translated manifest path for a language.
func (a *Addon) LocaleManifestPath(lang string) string {
	return filepath.Join(a.Dir, "locale", lang, ManifestName)
}

// POPath returns the translated message catalog path for a language.
func (a *Addon) POPath(lang string) string {
	return filepath.Join(a.Dir, "locale", lang, "LC_MESSAGES", MessagesName)
}

// Languages lists language codes that already have output under locale/
// or doc/, deduplicated and sorted. Used by status; an empty result just
// means nothing has been translated yet.
func (a *Addon) Languages() []string {
	seen := map[string]bool{}
	for _, sub := range []string{"locale", "doc"} {
		entries, err := os.ReadDir(filepath.Join(a.Dir, sub))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				seen[e.Name()] = true
			}
		}
	}

	langs := make([]string, 0, len(seen))
	for lang := range seen {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
