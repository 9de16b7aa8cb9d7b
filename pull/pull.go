// Package pull drives the download → merge → write pipeline for one
// Transifex resource at a time.
package pull

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/l10ntools/txpull/langmeta"
	"github.com/l10ntools/txpull/merge"
	"github.com/l10ntools/txpull/pullstate"
	"github.com/l10ntools/txpull/transifex"
)

// CompletionPrintThreshold is the completion fraction above which a
// language that is not being pulled earns a skip notice.
const CompletionPrintThreshold = 0.5

// LangMap maps remote language codes to output language codes.
// Iteration order is insertion order and determines write order.
type LangMap = orderedmap.OrderedMap[string, string]

// NewLangMap builds a LangMap from remote/output code pairs.
func NewLangMap(pairs ...[2]string) *LangMap {
	m := orderedmap.New[string, string]()
	for _, p := range pairs {
		m.Set(p[0], p[1])
	}
	return m
}

// Options adjusts how output files are written.
type Options struct {
	// BOM prepends a byte-order mark to every output file.
	BOM bool
	// Encoding is the IANA name of the output charset ("" means UTF-8).
	Encoding string
	// SourceLang is the master language code, excluded from skip
	// notices. Defaults to "en".
	SourceLang string
	// State tracks checksums of previously written content. When set,
	// output files whose merged content is unchanged are not rewritten.
	State *pullstate.State
}

// ProcessResource pulls every language in langs for one resource,
// passes each download through mut (nil means write verbatim), and
// writes one file per language via outputPath. Line endings are
// normalized to \n before writing.
//
// Before any file is written, a notice is logged for each language at
// or above CompletionPrintThreshold that is not in langs — an early
// warning for translations that are ready but not activated.
func ProcessResource(ctx context.Context, client *transifex.Client, resourceURL string,
	langs *LangMap, masterPath string, outputPath func(lang string) string,
	mut merge.Mutator, opts Options) error {

	srcLang := opts.SourceLang
	if srcLang == "" {
		srcLang = "en"
	}

	_, projID, resID, err := transifex.ParseResourceURL(resourceURL)
	if err != nil {
		return err
	}

	res, err := client.ResourceByID(ctx, resID)
	if err != nil {
		return fmt.Errorf("looking up resource %s: %w", resID, err)
	}
	slog.Info("processing resource", "resource", res.Name, "id", res.ID)

	stats, err := client.ResourceStats(ctx, projID, resID)
	if err != nil {
		return fmt.Errorf("fetching stats for %s: %w", resID, err)
	}
	reportSkipped(stats, langs, srcLang)

	for pair := langs.Oldest(); pair != nil; pair = pair.Next() {
		remoteLang, outLang := pair.Key, pair.Value

		slog.Info("downloading", "lang", remoteLang)
		freshRaw, err := client.DownloadTranslation(ctx, resID, remoteLang)
		if err != nil {
			return fmt.Errorf("downloading %s: %w", remoteLang, err)
		}

		outPath := outputPath(outLang)
		if dir := filepath.Dir(outPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("creating output directory %s: %w", dir, err)
			}
		}

		content := freshRaw
		if mut != nil {
			content, err = mut.Apply(masterPath, outLang, outPath, freshRaw)
			if err != nil {
				return fmt.Errorf("merging %s: %w", outLang, err)
			}
		}

		content = strings.ReplaceAll(content, "\r\n", "\n")

		if opts.State != nil && !opts.State.IsChanged(resID, outLang, content) && fileExists(outPath) {
			slog.Debug("unchanged", "lang", outLang, "path", outPath)
			continue
		}

		if err := writeEncoded(outPath, content, opts.BOM, opts.Encoding); err != nil {
			return err
		}
		if opts.State != nil {
			opts.State.Update(resID, outLang, content)
		}
	}

	if opts.State != nil {
		outLangs := make([]string, 0, langs.Len())
		for pair := langs.Oldest(); pair != nil; pair = pair.Next() {
			outLangs = append(outLangs, pair.Value)
		}
		opts.State.Clean(resID, outLangs)
	}

	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// reportSkipped logs well-translated languages that are not being pulled.
func reportSkipped(stats map[string]transifex.LangStats, langs *LangMap, srcLang string) {
	codes := make([]string, 0, len(stats))
	for lang := range stats {
		codes = append(codes, lang)
	}
	sort.Strings(codes)

	for _, lang := range codes {
		s := stats[lang]
		if s.Completion() < CompletionPrintThreshold {
			continue
		}
		if lang == srcLang {
			continue
		}
		if _, pulled := langs.Get(lang); pulled {
			continue
		}
		slog.Info("skipping language",
			"lang", lang,
			"name", langmeta.Name(lang),
			"completion", fmt.Sprintf("%.2f", s.Completion()),
			"translated", s.Translated,
			"total", s.Total)
	}
}

// writeEncoded writes content to path in the named charset, optionally
// prefixed with a byte-order mark.
func writeEncoded(path, content string, bom bool, encodingName string) error {
	if bom {
		content = "\uFEFF" + content
	}

	data := []byte(content)
	if encodingName != "" && !isUTF8(encodingName) {
		enc, err := ianaindex.IANA.Encoding(encodingName)
		if err != nil || enc == nil {
			return fmt.Errorf("unknown output encoding %q", encodingName)
		}
		data, err = enc.NewEncoder().Bytes(data)
		if err != nil {
			return fmt.Errorf("encoding output as %s: %w", encodingName, err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func isUTF8(name string) bool {
	switch strings.ToLower(name) {
	case "utf-8", "utf8":
		return true
	}
	return false
}
