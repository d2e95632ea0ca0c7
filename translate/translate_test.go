package translate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvda-addons/addontrans/addon"
	"github.com/nvda-addons/addontrans/model"
)

// stubClient records every prompt and serves a fixed response.
type stubClient struct {
	response string
	prompts  []string
}

func (s *stubClient) ModelID() string { return "stub-model" }

func (s *stubClient) Prompt(ctx context.Context, text string) (string, error) {
	s.prompts = append(s.prompts, text)
	return s.response, nil
}

// fixture lays out a minimal add-on plus readme and pot files in a
// temp directory and returns ready-to-run Params.
func fixture(t *testing.T, stub *stubClient, langs ...string) Params {
	t.Helper()
	tmp := t.TempDir()

	addonDir := filepath.Join(tmp, "addon")
	if err := os.MkdirAll(addonDir, 0755); err != nil {
		t.Fatal(err)
	}
	manifest := "name = testAddon\nsummary = Test add-on\nversion = 1.0\n"
	if err := os.WriteFile(filepath.Join(addonDir, "manifest.ini"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	readme := filepath.Join(tmp, "readme.md")
	if err := os.WriteFile(readme, []byte("# Test Add-on\n\nDoes things.\n"), 0644); err != nil {
		t.Fatal(err)
	}

	pot := filepath.Join(tmp, "testAddon.pot")
	potContent := "msgid \"\"\nmsgstr \"\"\n\nmsgid \"Hello\"\nmsgstr \"\"\n"
	if err := os.WriteFile(pot, []byte(potContent), 0644); err != nil {
		t.Fatal(err)
	}

	return Params{
		Dir:        addonDir,
		Languages:  langs,
		ReadmePath: readme,
		POTPath:    pot,
		Author:     "Jane Doe <jane@example.com>",
		ResolveClient: func() (model.Client, error) {
			return stub, nil
		},
	}
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

func TestRun_WritesAllOutputsPerLanguage(t *testing.T) {
	stub := &stubClient{response: "```\ntranslated\n```"}
	p := fixture(t, stub, "es", "fr", "de")

	if err := Run(context.Background(), p); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, lang := range p.Languages {
		for _, path := range []string{
			filepath.Join(p.Dir, "doc", lang, "readme.md"),
			filepath.Join(p.Dir, "locale", lang, "manifest.ini"),
			filepath.Join(p.Dir, "locale", lang, "LC_MESSAGES", "nvda.po"),
		} {
			if _, err := os.Stat(path); err != nil {
				t.Errorf("missing output %s", path)
			}
		}
	}

	// 3 languages x 3 passes
	if len(stub.prompts) != 9 {
		t.Errorf("model invoked %d times, want 9", len(stub.prompts))
	}
}

func TestRun_MissingManifestAbortsBeforeAnyCall(t *testing.T) {
	stub := &stubClient{response: "irrelevant"}
	p := fixture(t, stub, "es")
	if err := os.Remove(filepath.Join(p.Dir, "manifest.ini")); err != nil {
		t.Fatal(err)
	}

	if err := Run(context.Background(), p); err == nil {
		t.Fatal("expected error for missing manifest")
	}
	if len(stub.prompts) != 0 {
		t.Errorf("model invoked %d times during failed validation, want 0", len(stub.prompts))
	}
	if _, err := os.Stat(filepath.Join(p.Dir, "doc")); !os.IsNotExist(err) {
		t.Error("no output directories should exist after failed validation")
	}
}

func TestRun_MissingPOTAborts(t *testing.T) {
	stub := &stubClient{response: "irrelevant"}
	p := fixture(t, stub, "es")
	if err := os.Remove(p.POTPath); err != nil {
		t.Fatal(err)
	}

	err := Run(context.Background(), p)
	if err == nil {
		t.Fatal("expected error for missing pot file")
	}
	if !strings.Contains(err.Error(), "pot file") {
		t.Errorf("unexpected error: %v", err)
	}
	if len(stub.prompts) != 0 {
		t.Error("model must not be invoked")
	}
}

func TestRun_MissingReadmeAborts(t *testing.T) {
	stub := &stubClient{response: "irrelevant"}
	p := fixture(t, stub, "es")
	if err := os.Remove(p.ReadmePath); err != nil {
		t.Fatal(err)
	}

	err := Run(context.Background(), p)
	if err == nil || !strings.Contains(err.Error(), "readme") {
		t.Fatalf("expected readme error, got %v", err)
	}
	if len(stub.prompts) != 0 {
		t.Error("model must not be invoked")
	}
}

func TestRun_DerivedPOTPath(t *testing.T) {
	stub := &stubClient{response: "```\nok\n```"}
	p := fixture(t, stub, "es")

	// Drop the explicit path; <name>.pot is resolved relative to the
	// working directory.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(filepath.Dir(p.POTPath)); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)
	p.POTPath = ""

	if err := Run(context.Background(), p); err != nil {
		t.Fatalf("Run with derived pot path: %v", err)
	}
}

func TestRun_ResolvesModelAfterFileValidation(t *testing.T) {
	stub := &stubClient{response: "irrelevant"}
	p := fixture(t, stub, "es")
	if err := os.Remove(p.ReadmePath); err != nil {
		t.Fatal(err)
	}

	resolved := 0
	p.ResolveClient = func() (model.Client, error) {
		resolved++
		return stub, nil
	}

	if err := Run(context.Background(), p); err == nil {
		t.Fatal("expected readme validation error")
	}
	if resolved != 0 {
		t.Errorf("model resolved %d times before validation passed, want 0", resolved)
	}
}

func TestRun_ResolveClientErrorAborts(t *testing.T) {
	stub := &stubClient{response: "irrelevant"}
	p := fixture(t, stub, "es")
	p.ResolveClient = func() (model.Client, error) {
		return nil, fmt.Errorf("no API key")
	}

	if err := Run(context.Background(), p); err == nil {
		t.Fatal("expected resolution error to propagate")
	}
	if len(stub.prompts) != 0 {
		t.Error("model must not be invoked")
	}
	if _, err := os.Stat(filepath.Join(p.Dir, "doc")); !os.IsNotExist(err) {
		t.Error("no files should be written")
	}
}

func TestRun_UnrecognizedLanguageDeclined(t *testing.T) {
	stub := &stubClient{response: "irrelevant"}
	p := fixture(t, stub, "xx")
	p.Confirm = func(string) bool { return false }
	resolved := 0
	p.ResolveClient = func() (model.Client, error) {
		resolved++
		return stub, nil
	}

	if err := Run(context.Background(), p); err == nil {
		t.Fatal("expected abort on declined language confirmation")
	}
	if resolved != 0 {
		t.Error("model must not be resolved after declined confirmation")
	}
	if len(stub.prompts) != 0 {
		t.Error("model must not be invoked after declined confirmation")
	}
	if _, err := os.Stat(filepath.Join(p.Dir, "doc")); !os.IsNotExist(err) {
		t.Error("no files should be written after declined confirmation")
	}
}

// ---------------------------------------------------------------------------
// Docs
// ---------------------------------------------------------------------------

func TestDocs_StripsFencing(t *testing.T) {
	stub := &stubClient{response: "```md\n# Título\n\nHace cosas.\n```"}
	p := fixture(t, stub, "es")

	if err := Run(context.Background(), p); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(p.Dir, "doc", "es", "readme.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "# Título\n\nHace cosas." {
		t.Errorf("doc output = %q, fencing should be stripped", got)
	}
}

func TestDocs_PromptContainsLanguageAndBody(t *testing.T) {
	stub := &stubClient{response: "```\nx\n```"}
	p := fixture(t, stub, "es")
	a := mustLoad(t, p)

	if err := Docs(context.Background(), &Job{
		Addon: a, Languages: []string{"es"},
		ReadmePath: p.ReadmePath, Client: stub,
	}); err != nil {
		t.Fatalf("Docs: %v", err)
	}

	prompt := stub.prompts[0]
	if !strings.HasPrefix(prompt, DocPrompt) {
		t.Error("prompt must start with the doc instruction block")
	}
	if !strings.Contains(prompt, "\nLanguage: es\n") {
		t.Error("prompt must carry the raw language token")
	}
	if !strings.Contains(prompt, "# Test Add-on") {
		t.Error("prompt must carry the full readme body")
	}
}

func TestDocs_NoFenceFallsBackWithWarning(t *testing.T) {
	stub := &stubClient{response: "plain translation without fences"}
	p := fixture(t, stub, "es")
	var warnings []string
	p.Log = Log{Warn: func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}}

	if err := Run(context.Background(), p); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(p.Dir, "doc", "es", "readme.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "plain translation without fences" {
		t.Errorf("doc output = %q, want the raw response", got)
	}
	if len(warnings) == 0 {
		t.Error("expected a fenced-block warning")
	}
}

func TestDocs_LogsCharacterCountNotBytes(t *testing.T) {
	// "Añadido" is 7 characters but 8 bytes in UTF-8.
	stub := &stubClient{response: "```\nAñadido\n```"}
	p := fixture(t, stub, "es")
	var logged []string
	p.Log = Log{Info: func(format string, args ...any) {
		logged = append(logged, fmt.Sprintf(format, args...))
	}}

	if err := Run(context.Background(), p); err != nil {
		t.Fatalf("Run: %v", err)
	}

	found := false
	for _, line := range logged {
		if strings.Contains(line, filepath.Join("doc", "es", "readme.md")) {
			found = true
			if !strings.HasPrefix(line, "Wrote 7 characters") {
				t.Errorf("log line = %q, want a 7-character count", line)
			}
		}
	}
	if !found {
		t.Error("no write log line for the doc output")
	}
}

// ---------------------------------------------------------------------------
// Manifests
// ---------------------------------------------------------------------------

func TestManifests_NeverStripsFencing(t *testing.T) {
	fenced := "```\nname = testAddon\n```"
	stub := &stubClient{response: fenced}
	p := fixture(t, stub, "es")

	if err := Run(context.Background(), p); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(p.Dir, "locale", "es", "manifest.ini"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != fenced {
		t.Errorf("manifest output = %q, fencing must be kept verbatim", got)
	}
}

func TestManifests_PromptCarriesExclusionList(t *testing.T) {
	stub := &stubClient{response: "name = x"}
	p := fixture(t, stub, "es")
	a := mustLoad(t, p)

	if err := Manifests(context.Background(), &Job{
		Addon: a, Languages: []string{"es"}, Client: stub,
	}); err != nil {
		t.Fatalf("Manifests: %v", err)
	}

	want := "exclusions: name, author, url, version, docFileName, minimumNVDAVersion, lastTestedNVDAVersion, updateChannel"
	if !strings.Contains(stub.prompts[0], want) {
		t.Errorf("prompt missing fixed exclusion list:\n%s", stub.prompts[0])
	}
	if !strings.Contains(stub.prompts[0], a.ManifestText) {
		t.Error("prompt must carry the verbatim manifest text")
	}
}

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

func TestMessages_SubstitutesPlaceholders(t *testing.T) {
	stub := &stubClient{response: "```\nmsgid \"\"\nmsgstr \"\"\n```"}
	p := fixture(t, stub, "fr")
	a := mustLoad(t, p)

	if err := Messages(context.Background(), &Job{
		Addon: a, Languages: []string{"fr"},
		POTPath: p.POTPath, Author: p.Author, Client: stub,
	}); err != nil {
		t.Fatalf("Messages: %v", err)
	}

	prompt := stub.prompts[0]
	if strings.Contains(prompt, "{language}") || strings.Contains(prompt, "{Last-Translator}") {
		t.Error("placeholders must be substituted")
	}
	if !strings.Contains(prompt, `"Language:" field to fr`) {
		t.Error("prompt must name the target language")
	}
	if !strings.Contains(prompt, "Jane Doe <jane@example.com>") {
		t.Error("prompt must carry the Last-Translator value")
	}
	if !strings.Contains(prompt, "msgid \"Hello\"") {
		t.Error("prompt must carry the POT content")
	}
}

func TestMessages_OutputPath(t *testing.T) {
	stub := &stubClient{response: "```\npo content\n```"}
	p := fixture(t, stub, "fr")

	if err := Run(context.Background(), p); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(p.Dir, "locale", "fr", "LC_MESSAGES", "nvda.po"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "po content" {
		t.Errorf("po output = %q", got)
	}
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func mustLoad(t *testing.T, p Params) *addon.Addon {
	t.Helper()
	a, err := addon.Load(p.Dir)
	if err != nil {
		t.Fatalf("loading fixture add-on: %v", err)
	}
	return a
}
