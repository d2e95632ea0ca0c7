// Package translate implements the three translation passes of an NVDA
// add-on — documentation, manifest, and gettext message catalog — plus
// the orchestrating Run that validates everything up front and then
// executes the passes in fixed order per target language.
package translate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/nvda-addons/addontrans/addon"
	"github.com/nvda-addons/addontrans/langcode"
	"github.com/nvda-addons/addontrans/model"
)

// ---------------------------------------------------------------------------
// Prompt templates
// ---------------------------------------------------------------------------

// DocPrompt is the fixed instruction block for readme translation.
const DocPrompt = `Please translate the following documentation.
Do not include any extra commentary; output only the translated text.
Do not translate the name of the product.`

// ManifestPrompt is the fixed instruction block for manifest translation.
// Manifest responses are expected as raw INI text, never fenced.
const ManifestPrompt = `Please translate the following manifests INI file text into the provided language.
Do not include any extra commentary; output only the translated text.
Ensure the output preserves the names of the keys and conforms to the INI format without any sections.
Do not translate the keys in the provided list of exclusions if they exist.`

// POTToPOPrompt is the fixed instruction block for POT-to-PO conversion.
// {language} and {Last-Translator} are substituted per run.
const POTToPOPrompt = `Please convert the following gettext POT file into a complete PO file for the specified language.
Retain the structure, comments, and msgid entries exactly as provided.
For each translated entry, preserve its corresponding context and reference lines.
For any msgid that does not have a translation provided, populate the msgstr.
Ensure that the header is updated appropriately, including setting the "Language:" field to {language} and the Last-Translator field to {Last-Translator}.
Output only the resulting PO file text with no additional commentary.`

// ---------------------------------------------------------------------------
// Logging callbacks
// ---------------------------------------------------------------------------

// Log carries the progress and warning sinks. Zero value is silent.
type Log struct {
	Info func(format string, args ...any)
	Warn func(format string, args ...any)
}

func (l Log) info(format string, args ...any) {
	if l.Info != nil {
		l.Info(format, args...)
	}
}

func (l Log) warn(format string, args ...any) {
	if l.Warn != nil {
		l.Warn(format, args...)
	}
}

// ---------------------------------------------------------------------------
// Job
// ---------------------------------------------------------------------------

// Job is a fully validated translation run. Built by Run; the individual
// passes only read it.
type Job struct {
	// Addon is the loaded add-on descriptor.
	Addon *addon.Addon
	// Languages are the raw user tokens. They name output directories
	// and appear in prompts; canonical forms are display-only.
	Languages []string
	// ReadmePath is the source documentation file.
	ReadmePath string
	// POTPath is the gettext template file.
	POTPath string
	// Author is the "Name <email>" Last-Translator value.
	Author string
	// Client is the model backend.
	Client model.Client
	// Log receives progress output.
	Log Log
}

// Params are the raw inputs to Run, before validation.
type Params struct {
	// Dir is the add-on directory.
	Dir string
	// Languages are the raw language tokens as typed by the user.
	Languages []string
	// ReadmePath is the documentation file path.
	ReadmePath string
	// POTPath overrides the derived <name>.pot path when non-empty.
	POTPath string
	// Author is the resolved "Name <email>" string.
	Author string
	// ResolveClient constructs the model backend. Run calls it only
	// after every file and language validation has passed.
	ResolveClient func() (model.Client, error)
	// Confirm answers the unrecognized-language question.
	Confirm langcode.Confirm
	// Log receives progress output.
	Log Log
}

// Run validates all inputs, resolves the model, then translates
// documentation, manifests, and messages in that order. No model call
// or file write happens until every validation has passed; translation
// itself is not transactional, so a failure partway through leaves
// earlier outputs in place.
func Run(ctx context.Context, p Params) error {
	a, err := addon.Load(p.Dir)
	if err != nil {
		return err
	}

	potPath := p.POTPath
	if potPath == "" {
		potPath = a.DefaultPOTPath()
	}
	if !fileExists(potPath) {
		return fmt.Errorf("the pot file %s could not be found, run `scons pot` to generate one", potPath)
	}
	if !fileExists(p.ReadmePath) {
		return fmt.Errorf("the readme file %s does not exist", p.ReadmePath)
	}

	expanded, err := langcode.Validate(p.Languages, p.Confirm, p.Log.Warn)
	if err != nil {
		return err
	}

	client, err := p.ResolveClient()
	if err != nil {
		return err
	}

	job := &Job{
		Addon:      a,
		Languages:  p.Languages,
		ReadmePath: p.ReadmePath,
		POTPath:    potPath,
		Author:     p.Author,
		Client:     client,
		Log:        p.Log,
	}

	job.Log.info("Translating %s to language(s): %s using %s",
		a.Name, langcode.DisplayList(expanded), client.ModelID())

	job.Log.info("Documentation...")
	if err := Docs(ctx, job); err != nil {
		return err
	}
	job.Log.info("Manifests...")
	if err := Manifests(ctx, job); err != nil {
		return err
	}
	job.Log.info("Messages...")
	if err := Messages(ctx, job); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Documentation
// ---------------------------------------------------------------------------

// Docs translates the readme into doc/<lang>/readme.md for every
// target language. Fenced-block extraction is applied to responses.
func Docs(ctx context.Context, job *Job) error {
	content, err := os.ReadFile(job.ReadmePath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", job.ReadmePath, err)
	}

	for _, lang := range job.Languages {
		prompt := docPrompt(lang, string(content))
		translated, err := invoke(ctx, job, prompt, true)
		if err != nil {
			return err
		}
		if err := writeOutput(job, job.Addon.DocPath(lang), translated); err != nil {
			return err
		}
	}
	return nil
}

func docPrompt(lang, content string) string {
	return fmt.Sprintf("%s\nLanguage: %s\n\n%s", DocPrompt, lang, content)
}

// ---------------------------------------------------------------------------
// Manifests
// ---------------------------------------------------------------------------

// Manifests translates manifest.ini into locale/<lang>/manifest.ini for
// every target language. Responses are taken verbatim: no fenced-block
// extraction, since the model is instructed to answer with raw INI.
func Manifests(ctx context.Context, job *Job) error {
	for _, lang := range job.Languages {
		prompt := manifestPrompt(lang, job.Addon.ManifestText)
		translated, err := invoke(ctx, job, prompt, false)
		if err != nil {
			return err
		}
		if err := writeOutput(job, job.Addon.LocaleManifestPath(lang), translated); err != nil {
			return err
		}
	}
	return nil
}

func manifestPrompt(lang, manifestText string) string {
	return fmt.Sprintf("%s\nLanguage: %s\nexclusions: %s\n\n%s",
		ManifestPrompt, lang, strings.Join(addon.ProtectedKeys, ", "), manifestText)
}

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

// Messages converts the POT template into a translated PO catalog at
// locale/<lang>/LC_MESSAGES/nvda.po for every target language.
func Messages(ctx context.Context, job *Job) error {
	potContent, err := os.ReadFile(job.POTPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", job.POTPath, err)
	}

	for _, lang := range job.Languages {
		prompt := messagesPrompt(lang, job.Author, string(potContent))
		translated, err := invoke(ctx, job, prompt, true)
		if err != nil {
			return err
		}
		if err := writeOutput(job, job.Addon.POPath(lang), translated); err != nil {
			return err
		}
	}
	return nil
}

func messagesPrompt(lang, author, potContent string) string {
	instr := strings.ReplaceAll(POTToPOPrompt, "{language}", lang)
	instr = strings.ReplaceAll(instr, "{Last-Translator}", author)
	return instr + "\n\n" + potContent
}

// ---------------------------------------------------------------------------
// Shared plumbing
// ---------------------------------------------------------------------------

// invoke sends prompt text to the model. With fenced set, the first
// fenced code block of the response is returned; a missing block is a
// warning, not an error, and the raw response is used instead.
func invoke(ctx context.Context, job *Job, text string, fenced bool) (string, error) {
	resp, err := job.Client.Prompt(ctx, text)
	if err != nil {
		return "", err
	}
	if fenced {
		if block, ok := model.ExtractFenced(resp); ok {
			return block, nil
		}
		job.Log.warn("failed to extract fenced code block, continuing with raw response")
	}
	return resp, nil
}

func writeOutput(job *Job, path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	job.Log.info("Wrote %d characters to %s", utf8.RuneCountInString(content), path)
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
