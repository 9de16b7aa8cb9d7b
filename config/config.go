// Package config — .txpull.yaml manifest support.
//
// The manifest is the sole source of truth for what to pull: each
// resource names its Transifex URL, the master (source language) file,
// the output path template, and the ordered remote → output language
// mapping. Example:
//
//	project: MyApp
//	source_lang: en
//	resources:
//	  - name: ios-strings
//	    url: https://www.transifex.com/myorg/myapp/ios-strings/
//	    format: strings
//	    master: ios/en.lproj/Localizable.strings
//	    output: ios/{lang}.lproj/Localizable.strings
//	    languages:
//	      - de
//	      - fr
//	      - zh: zh-Hans
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	"github.com/l10ntools/txpull/merge"
)

// FileName is the default manifest file name.
const FileName = ".txpull.yaml"

// Resource formats.
const (
	// FormatStrings is an Apple .strings string table.
	FormatStrings = "strings"
	// FormatYAML is a flat or locale-wrapped YAML mapping.
	FormatYAML = "yaml"
	// FormatRaw writes the download verbatim, without merging.
	FormatRaw = "raw"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level .txpull.yaml structure.
type File struct {
	// Project is a display label used in logs.
	Project string `yaml:"project,omitempty"`
	// SourceLang is the master language code (default "en").
	SourceLang string `yaml:"source_lang,omitempty"`
	// Encoding is the default output charset for all resources.
	Encoding string `yaml:"encoding,omitempty"`
	// BOM prepends a byte-order mark to all output files by default.
	BOM bool `yaml:"bom,omitempty"`
	// Resources lists the translation resources to pull.
	Resources []Resource `yaml:"resources"`
}

// Resource describes one Transifex resource.
type Resource struct {
	// Name is a human-readable label shown in logs.
	Name string `yaml:"name"`
	// URL is the dashboard resource URL.
	URL string `yaml:"url"`
	// Format: "strings", "yaml", or "raw" (default).
	Format string `yaml:"format,omitempty"`
	// Master is the source-language file, relative to the manifest.
	Master string `yaml:"master,omitempty"`
	// Output is the output path template; "{lang}" is replaced with the
	// output language code.
	Output string `yaml:"output"`
	// AdaptLangCode re-keys wrapped YAML downloads to the output code,
	// for locale variants Transifex cannot express (e.g. ug@Latn).
	AdaptLangCode bool `yaml:"adapt_lang_code,omitempty"`
	// Languages is the ordered remote → output language mapping.
	Languages LangList `yaml:"languages"`

	// Per-resource overrides of the file-level defaults.
	Encoding string `yaml:"encoding,omitempty"`
	BOM      *bool  `yaml:"bom,omitempty"`
}

// LangPair maps a remote language code to an output language code.
type LangPair struct {
	Remote string
	Output string
}

// LangList is an ordered list of language mappings. In the manifest it
// is a sequence whose items are either a bare code ("de", meaning the
// output code equals the remote code) or a single-pair mapping
// ("zh: zh-Hans").
type LangList []LangPair

// UnmarshalYAML implements yaml.Unmarshaler, preserving sequence order.
func (l *LangList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: languages must be a sequence", node.Line)
	}
	for _, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			*l = append(*l, LangPair{Remote: item.Value, Output: item.Value})
		case yaml.MappingNode:
			if len(item.Content) != 2 {
				return fmt.Errorf("line %d: language mapping must have exactly one pair", item.Line)
			}
			*l = append(*l, LangPair{Remote: item.Content[0].Value, Output: item.Content[1].Value})
		default:
			return fmt.Errorf("line %d: invalid language entry", item.Line)
		}
	}
	return nil
}

// LangMap converts the list to an ordered map (remote → output).
func (l LangList) LangMap() *orderedmap.OrderedMap[string, string] {
	m := orderedmap.New[string, string]()
	for _, p := range l {
		m.Set(p.Remote, p.Output)
	}
	return m
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load loads and validates .txpull.yaml from the given directory.
// Returns nil (and no error) if no manifest exists.
func Load(rootDir string) (*File, error) {
	path := filepath.Join(rootDir, FileName)
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

	if f.SourceLang == "" {
		f.SourceLang = "en"
	}

	for i := range f.Resources {
		r := &f.Resources[i]

		if r.Name == "" {
			return nil, fmt.Errorf("%s: resource #%d has no name", path, i+1)
		}
		if r.URL == "" {
			return nil, fmt.Errorf("%s: resource %q has no url", path, r.Name)
		}
		if r.Output == "" {
			return nil, fmt.Errorf("%s: resource %q has no output template", path, r.Name)
		}
		if len(r.Languages) == 0 {
			return nil, fmt.Errorf("%s: resource %q has no languages", path, r.Name)
		}

		if r.Format == "" {
			r.Format = FormatRaw
		}
		switch r.Format {
		case FormatStrings, FormatYAML:
			if r.Master == "" {
				return nil, fmt.Errorf("%s: resource %q needs a master file for format %q", path, r.Name, r.Format)
			}
		case FormatRaw:
			// No master needed.
		default:
			return nil, fmt.Errorf("%s: resource %q has unknown format %q (valid: strings, yaml, raw)", path, r.Name, r.Format)
		}

		// Resolve paths relative to the manifest directory.
		if r.Master != "" && !filepath.IsAbs(r.Master) {
			r.Master = filepath.Join(rootDir, r.Master)
		}
		if !filepath.IsAbs(r.Output) {
			r.Output = filepath.Join(rootDir, r.Output)
		}

		// Inherit file-level defaults.
		if r.Encoding == "" {
			r.Encoding = f.Encoding
		}
		if r.BOM == nil {
			r.BOM = &f.BOM
		}
	}

	return &f, nil
}

// ---------------------------------------------------------------------------
// Resolution
// ---------------------------------------------------------------------------

// OutputPath expands the output template for one language.
func (r *Resource) OutputPath(lang string) string {
	return strings.ReplaceAll(r.Output, "{lang}", lang)
}

// Mutator resolves the resource's format to a merge mutator.
func (r *Resource) Mutator(sourceLang string) merge.Mutator {
	switch r.Format {
	case FormatStrings:
		return merge.StringTableMerge{}
	case FormatYAML:
		var m merge.Mutator = merge.MappingMerge{SourceLang: sourceLang}
		if r.AdaptLangCode {
			m = merge.LangCodeAdapt{Next: m}
		}
		return m
	default:
		return merge.Identity{}
	}
}
