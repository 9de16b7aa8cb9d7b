package langmeta

import "testing"

func TestName_Basic(t *testing.T) {
	if got := Name("de"); got != "Deutsch" {
		t.Errorf("Name(de) = %q, want %q", got, "Deutsch")
	}
}

func TestName_UnderscoreVariant(t *testing.T) {
	got := Name("pt_BR")
	if got == "pt_BR" || got == "" {
		t.Errorf("Name(pt_BR) = %q, want a display name", got)
	}
}

func TestName_ScriptVariantSuffix(t *testing.T) {
	// The @Latn suffix is a resource-file convention, not BCP 47.
	got := Name("ug@Latn")
	if got == "ug@Latn" || got == "" {
		t.Errorf("Name(ug@Latn) = %q, want a display name", got)
	}
}

func TestName_Unparseable(t *testing.T) {
	if got := Name("???"); got != "???" {
		t.Errorf("Name(???) = %q, want the input back", got)
	}
}

func TestEnglishName(t *testing.T) {
	if got := EnglishName("de"); got != "German" {
		t.Errorf("EnglishName(de) = %q, want %q", got, "German")
	}
}
