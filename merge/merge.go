// Package merge reconciles freshly downloaded translations with the
// previously committed ones.
//
// A partially translated resource comes back from Transifex with holes:
// .strings files carry the English source text for untranslated entries,
// YAML files simply omit them. Using the old translation is better than
// reverting to English, so each merge walks the master (source language)
// file, the fresh download, and the existing translation on disk, and
// falls back to the existing value where the fresh one is missing.
//
// For .strings files an extra flagging pass is required first: an entry
// whose fresh value equals the master value is indistinguishable from a
// translation that legitimately matches the English. Such entries get
// the [UNTRANSLATED] marker prepended to their comment, and a marked
// entry is never used as a fallback source in later pulls — otherwise a
// stale English string would propagate from merge to merge after the
// master text changes.
package merge

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/l10ntools/txpull/stringsfile"
	"github.com/l10ntools/txpull/yamlfile"
)

// UntranslatedFlag marks string-table entries whose value is the English
// fallback rather than a real translation.
const UntranslatedFlag = "[UNTRANSLATED]"

// Mutator rewrites a downloaded translation before it is written out.
//
// masterPath is the source-language file, lang the output language code,
// transPath the previously committed translation (may be missing), and
// freshRaw the raw downloaded content. The returned text is written to
// disk verbatim apart from line-ending normalization.
type Mutator interface {
	Apply(masterPath, lang, transPath, freshRaw string) (string, error)
}

// ---------------------------------------------------------------------------
// Identity
// ---------------------------------------------------------------------------

// Identity passes the fresh content through unchanged.
type Identity struct{}

func (Identity) Apply(_, _, _ string, freshRaw string) (string, error) {
	return freshRaw, nil
}

// ---------------------------------------------------------------------------
// Untranslated flagging (.strings)
// ---------------------------------------------------------------------------

// FlagUntranslated marks fresh string-table entries whose value is
// byte-identical to the master value for the same key. Entries without a
// master counterpart are never marked. The pass is idempotent: an entry
// already carrying the flag is not marked twice.
//
// A fresh parse failure is returned as-is; a master parse failure only
// disables marking, since a missing English counterpart means the entry
// counts as translated.
func FlagUntranslated(masterPath, freshRaw string) (string, error) {
	fresh, err := stringsfile.Parse([]byte(freshRaw))
	if err != nil {
		return "", fmt.Errorf("parsing fresh translation: %w", err)
	}

	master, err := stringsfile.ParseFile(masterPath)
	if err != nil {
		slog.Warn("flagging disabled, master not parseable", "path", masterPath, "error", err)
		master = nil
	}

	for i := range fresh {
		english, ok := lookupValue(master, fresh[i].Key)
		if !ok || fresh[i].Value != english {
			continue
		}
		if !strings.Contains(fresh[i].Comment, UntranslatedFlag) {
			fresh[i].Comment = UntranslatedFlag + fresh[i].Comment
		}
	}

	return string(stringsfile.Marshal(fresh)), nil
}

// lookupValue finds the value of the first entry with the given key.
func lookupValue(entries []stringsfile.Entry, key string) (string, bool) {
	for _, e := range entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// lookupEntry finds the first entry with the given key.
func lookupEntry(entries []stringsfile.Entry, key string) (stringsfile.Entry, bool) {
	for _, e := range entries {
		if e.Key == key {
			return e, true
		}
	}
	return stringsfile.Entry{}, false
}

// ---------------------------------------------------------------------------
// String-table merge (.strings)
// ---------------------------------------------------------------------------

// StringTableMerge merges Apple .strings translations.
type StringTableMerge struct{}

func (StringTableMerge) Apply(masterPath, lang, transPath, freshRaw string) (string, error) {
	flagged, err := FlagUntranslated(masterPath, freshRaw)
	if err != nil {
		return "", err
	}

	fresh, err := stringsfile.Parse([]byte(flagged))
	if err != nil {
		return "", fmt.Errorf("parsing flagged translation: %w", err)
	}

	master, err := stringsfile.ParseFile(masterPath)
	if err != nil {
		return "", fmt.Errorf("parsing master: %w", err)
	}

	existing, err := stringsfile.ParseFile(transPath)
	if err != nil {
		// No usable previous translation: the flagged fresh content is
		// the best available result.
		slog.Warn("no existing translation to merge", "lang", lang, "path", transPath, "error", err)
		return flagged, nil
	}

	for i := range fresh {
		english, inMaster := lookupValue(master, fresh[i].Key)

		old, ok := lookupEntry(existing, fresh[i].Key)
		if ok && strings.Contains(old.Comment, UntranslatedFlag) {
			// The previous value was itself the English fallback.
			ok = false
		}

		if inMaster && fresh[i].Value == english && ok && old.Value != english {
			// Fresh still carries the English fallback: revert to the
			// last good translation.
			fresh[i].Value = old.Value
		}
	}

	return string(stringsfile.Marshal(fresh)), nil
}

// ---------------------------------------------------------------------------
// Mapping merge (YAML)
// ---------------------------------------------------------------------------

// MappingMerge merges YAML translations. Transifex leaves untranslated
// YAML values absent rather than backfilling English, so absence is the
// sole untranslated indicator and no flagging pass is needed.
type MappingMerge struct {
	// SourceLang is the master file's language code, used for wrapped
	// dialect detection. Defaults to "en".
	SourceLang string
}

func (m MappingMerge) Apply(masterPath, lang, transPath, freshRaw string) (string, error) {
	srcLang := m.SourceLang
	if srcLang == "" {
		srcLang = "en"
	}

	freshDoc, err := yamlfile.Parse([]byte(freshRaw))
	if err != nil {
		return "", fmt.Errorf("parsing fresh translation: %w", err)
	}
	masterDoc, err := yamlfile.ParseFile(masterPath)
	if err != nil {
		return "", fmt.Errorf("parsing master: %w", err)
	}

	dialect := masterDoc.Detect(srcLang)

	passThrough := func(reason string, cause error) (string, error) {
		slog.Warn("no existing translation to merge", "lang", lang, "path", transPath, "reason", reason, "error", cause)
		out, merr := freshDoc.Marshal()
		return string(out), merr
	}

	existingDoc, err := yamlfile.ParseFile(transPath)
	if err != nil {
		return passThrough("unreadable", err)
	}

	var master, fresh, existing *yamlfile.Mapping
	switch dialect {
	case yamlfile.DialectWrapped:
		master, _ = masterDoc.Sub(srcLang)
		var ok bool
		fresh, ok = freshDoc.Sub(lang)
		if !ok {
			return "", fmt.Errorf("fresh translation has no top-level %q key", lang)
		}
		existing, ok = existingDoc.Sub(lang)
		if !ok {
			return passThrough("missing language key", nil)
		}
	default:
		master = masterDoc.Top()
		fresh = freshDoc.Top()
		existing = existingDoc.Top()
	}

	for _, key := range master.Keys() {
		if fresh.HasNested(key) {
			continue
		}
		if v, _ := fresh.Get(key); v != "" {
			continue
		}
		old, ok := existing.Get(key)
		if !ok || old == "" {
			continue
		}
		fresh.Set(key, old)
	}

	// Serialize the whole fresh document so wrapped-dialect mutations
	// surface through the top-level structure.
	out, err := freshDoc.Marshal()
	if err != nil {
		return "", fmt.Errorf("serializing merged translation: %w", err)
	}
	return string(out), nil
}

// ---------------------------------------------------------------------------
// Language code adaptation
// ---------------------------------------------------------------------------

// LangCodeAdapt rewrites the leading language-code token of a wrapped
// YAML document before handing off to Next. Transifex cannot express
// script-variant locales such as ug@Latn, so the downloaded document
// arrives under the base code and must be re-keyed to the output code.
type LangCodeAdapt struct {
	// Code overrides the output language code. When empty, the lang
	// argument of Apply is used.
	Code string
	// Next receives the adapted content. Defaults to Identity.
	Next Mutator
}

func (a LangCodeAdapt) Apply(masterPath, lang, transPath, freshRaw string) (string, error) {
	code := a.Code
	if code == "" {
		code = lang
	}

	adapted := freshRaw
	if i := strings.Index(freshRaw, ":"); i >= 0 {
		adapted = code + freshRaw[i:]
	}

	next := a.Next
	if next == nil {
		next = Identity{}
	}
	return next.Apply(masterPath, lang, transPath, adapted)
}
