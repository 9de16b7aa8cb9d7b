package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/l10ntools/txpull/merge"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

const validManifest = `
project: MyApp
source_lang: en
bom: true
encoding: utf-8
resources:
  - name: ios-strings
    url: https://www.transifex.com/myorg/myapp/ios-strings/
    format: strings
    master: ios/en.lproj/Localizable.strings
    output: ios/{lang}.lproj/Localizable.strings
    languages:
      - de
      - fr
      - zh: zh-Hans
  - name: store-assets
    url: https://www.transifex.com/myorg/myapp/store-assets/
    format: yaml
    adapt_lang_code: true
    master: store/master.yaml
    output: store/{lang}.yaml
    bom: false
    languages:
      - ug: ug@Latn
`

func TestLoad_Valid(t *testing.T) {
	dir := writeManifest(t, validManifest)
	f, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if f == nil {
		t.Fatal("manifest not found")
	}
	if f.Project != "MyApp" {
		t.Errorf("project = %q", f.Project)
	}
	if len(f.Resources) != 2 {
		t.Fatalf("resources = %d, want 2", len(f.Resources))
	}

	r := f.Resources[0]
	if r.Format != FormatStrings {
		t.Errorf("format = %q", r.Format)
	}
	if !strings.HasPrefix(r.Master, dir) {
		t.Errorf("master not resolved against manifest dir: %q", r.Master)
	}
	if !*r.BOM {
		t.Error("resource did not inherit bom default")
	}
	if *f.Resources[1].BOM {
		t.Error("per-resource bom override lost")
	}
}

func TestLoad_Missing(t *testing.T) {
	f, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if f != nil {
		t.Error("expected nil for missing manifest")
	}
}

func TestLoad_LanguageOrder(t *testing.T) {
	dir := writeManifest(t, validManifest)
	f, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	langs := f.Resources[0].Languages
	want := []LangPair{
		{Remote: "de", Output: "de"},
		{Remote: "fr", Output: "fr"},
		{Remote: "zh", Output: "zh-Hans"},
	}
	if len(langs) != len(want) {
		t.Fatalf("languages = %v", langs)
	}
	for i := range want {
		if langs[i] != want[i] {
			t.Errorf("languages[%d] = %v, want %v", i, langs[i], want[i])
		}
	}

	m := langs.LangMap()
	var order []string
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		order = append(order, pair.Key)
	}
	if strings.Join(order, ",") != "de,fr,zh" {
		t.Errorf("map order = %v", order)
	}
}

func TestLoad_DefaultSourceLang(t *testing.T) {
	dir := writeManifest(t, `
resources:
  - name: r
    url: https://www.transifex.com/o/p/r/
    output: out/{lang}.txt
    languages: [de]
`)
	f, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if f.SourceLang != "en" {
		t.Errorf("source_lang = %q, want en", f.SourceLang)
	}
	if f.Resources[0].Format != FormatRaw {
		t.Errorf("format = %q, want raw default", f.Resources[0].Format)
	}
}

func TestLoad_UnknownFormat(t *testing.T) {
	dir := writeManifest(t, `
resources:
  - name: r
    url: https://example.com/o/p/r/
    format: xliff
    output: out/{lang}
    languages: [de]
`)
	if _, err := Load(dir); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestLoad_MergeFormatNeedsMaster(t *testing.T) {
	dir := writeManifest(t, `
resources:
  - name: r
    url: https://example.com/o/p/r/
    format: strings
    output: out/{lang}
    languages: [de]
`)
	if _, err := Load(dir); err == nil {
		t.Error("expected error for missing master")
	}
}

func TestLoad_ResourceValidation(t *testing.T) {
	cases := []struct{ name, body string }{
		{"no name", "resources:\n  - url: https://x/o/p/r/\n    output: o/{lang}\n    languages: [de]\n"},
		{"no url", "resources:\n  - name: r\n    output: o/{lang}\n    languages: [de]\n"},
		{"no output", "resources:\n  - name: r\n    url: https://x/o/p/r/\n    languages: [de]\n"},
		{"no languages", "resources:\n  - name: r\n    url: https://x/o/p/r/\n    output: o/{lang}\n"},
	}
	for _, tc := range cases {
		dir := writeManifest(t, tc.body)
		if _, err := Load(dir); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestOutputPath(t *testing.T) {
	r := Resource{Output: "/out/{lang}/app.strings"}
	if got := r.OutputPath("de"); got != "/out/de/app.strings" {
		t.Errorf("path = %q", got)
	}
}

func TestMutator_Resolution(t *testing.T) {
	if _, ok := (&Resource{Format: FormatStrings}).Mutator("en").(merge.StringTableMerge); !ok {
		t.Error("strings format should resolve to StringTableMerge")
	}
	if _, ok := (&Resource{Format: FormatYAML}).Mutator("en").(merge.MappingMerge); !ok {
		t.Error("yaml format should resolve to MappingMerge")
	}
	if _, ok := (&Resource{Format: FormatYAML, AdaptLangCode: true}).Mutator("en").(merge.LangCodeAdapt); !ok {
		t.Error("adapt_lang_code should wrap in LangCodeAdapt")
	}
	if _, ok := (&Resource{Format: FormatRaw}).Mutator("en").(merge.Identity); !ok {
		t.Error("raw format should resolve to Identity")
	}
}
