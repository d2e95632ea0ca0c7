// addontrans — NVDA add-on auto-translation: readme, manifest, and
// gettext message catalog via an LLM backend.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/leonelquinteros/gotext"
	"github.com/spf13/cobra"

	"github.com/nvda-addons/addontrans/addon"
	"github.com/nvda-addons/addontrans/author"
	"github.com/nvda-addons/addontrans/config"
	"github.com/nvda-addons/addontrans/model"
	"github.com/nvda-addons/addontrans/settings"
	"github.com/nvda-addons/addontrans/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

// translateArgs holds the root command's flag values.
type translateArgs struct {
	input       string
	languages   string
	pot         string
	readme      string
	authorName  string
	authorEmail string
	modelName   string
	provider    string
	apiKey      string
	baseURL     string
	timeout     time.Duration
	yes         bool
}

func newRootCmd() *cobra.Command {
	var a translateArgs

	root := &cobra.Command{
		Use:   "addontrans",
		Short: "Translate an NVDA add-on's readme, manifest, and messages with AI",
		Long: `addontrans — NVDA add-on auto-translation.

Reads the add-on's readme, manifest.ini, and gettext POT template,
translates each into the requested languages with an LLM, and writes
the results into the add-on's localization layout:

  doc/<lang>/readme.md
  locale/<lang>/manifest.ini
  locale/<lang>/LC_MESSAGES/nvda.po

A .addontrans.yaml file in the add-on directory may supply defaults for
any flag; explicit flags win.

Examples:
  # Translate to Spanish (default) with the default model
  addontrans -i myaddon

  # Several languages, a specific model by short name
  addontrans -i myaddon -l "es fr de" -m 4o

  # Local Ollama server with an arbitrary model name
  addontrans -i myaddon -l ja --provider ollama -m qwen2.5`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, a)
		},
	}

	root.Flags().StringVarP(&a.input, "input", "i", "addon", "Input directory containing the add-on")
	root.Flags().StringVarP(&a.languages, "languages", "l", "es", "Languages to translate to, separated by spaces")
	root.Flags().StringVarP(&a.pot, "pot", "p", "", "Path to the pot file (default <addon name>.pot)")
	root.Flags().StringVarP(&a.readme, "readme", "r", "readme.md", "Path to the readme file with the add-on's documentation")
	root.Flags().StringVar(&a.authorName, "author-name", "", "Author name (default: git config user.name)")
	root.Flags().StringVar(&a.authorEmail, "author-email", "", "Author email (default: git config user.email)")
	root.Flags().StringVarP(&a.modelName, "model", "m", "", "Full or short model name, e.g. 4o for gpt-4o (default "+model.DefaultModel+")")
	root.Flags().StringVar(&a.provider, "provider", "", "Force a provider: openai, groq, ollama, custom")
	root.Flags().StringVar(&a.apiKey, "api-key", "", "API key (overrides env and stored credentials)")
	root.Flags().StringVar(&a.baseURL, "base-url", "", "Custom API base URL")
	root.Flags().DurationVar(&a.timeout, "timeout", 0, "Model request timeout (default per provider)")
	root.Flags().BoolVarP(&a.yes, "yes", "y", false, "Continue without asking on unrecognized language codes")

	root.AddCommand(
		newStatusCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// translate (root command)
// ---------------------------------------------------------------------------

func runTranslate(cmd *cobra.Command, a translateArgs) error {
	// .addontrans.yaml supplies defaults for flags the user didn't set.
	cfg, err := config.Load(a.input)
	if err != nil {
		return err
	}
	if cfg != nil {
		flags := cmd.Flags()
		if !flags.Changed("languages") && len(cfg.Languages) > 0 {
			a.languages = strings.Join(cfg.Languages, " ")
		}
		if !flags.Changed("model") && cfg.Model != "" {
			a.modelName = cfg.Model
		}
		if !flags.Changed("provider") && cfg.Provider != "" {
			a.provider = cfg.Provider
		}
		if !flags.Changed("base-url") && cfg.BaseURL != "" {
			a.baseURL = cfg.BaseURL
		}
		if !flags.Changed("readme") && cfg.Readme != "" {
			a.readme = cfg.Readme
		}
		if !flags.Changed("pot") && cfg.POT != "" {
			a.pot = cfg.POT
		}
		if a.authorName == "" {
			a.authorName = cfg.AuthorName
		}
		if a.authorEmail == "" {
			a.authorEmail = cfg.AuthorEmail
		}
	}

	who, err := author.Resolve(a.authorName, a.authorEmail, nil)
	if err != nil {
		return err
	}

	confirm := confirmOnConsole
	if a.yes {
		confirm = func(string) bool { return true }
	}

	ctx, cancel := signalContext()
	defer cancel()

	err = translate.Run(ctx, translate.Params{
		Dir:        a.input,
		Languages:  strings.Fields(a.languages),
		ReadmePath: a.readme,
		POTPath:    a.pot,
		Author:     who,
		ResolveClient: func() (model.Client, error) {
			return model.Resolve(a.modelName, model.Config{
				Provider: a.provider,
				APIKey:   a.apiKey,
				BaseURL:  a.baseURL,
				Timeout:  a.timeout,
			})
		},
		Confirm: confirm,
		Log: translate.Log{
			Info: logInfo,
			Warn: logWarning,
		},
	})
	if err != nil {
		return err
	}

	logSuccess("Translation complete")
	return nil
}

// confirmOnConsole asks on stderr and reads a y/n answer from stdin.
func confirmOnConsole(raw string) bool {
	fmt.Fprintf(os.Stderr, "Would you like to continue? (y/n) ")
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y")
}

// signalContext returns a context cancelled on Ctrl-C.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// ---------------------------------------------------------------------------
// status (read-only: add-on info + existing translations)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show add-on info and existing translations",
		Long: `Show add-on metadata from manifest.ini and per-language state of the
localization layout. Does not modify any files and never contacts a model.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(input)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "addon", "Input directory containing the add-on")

	return cmd
}

func runStatus(input string) error {
	a, err := addon.Load(input)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n%sAdd-on%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "  Name:     %s\n", a.Name)
	if a.Version != "" {
		fmt.Fprintf(os.Stderr, "  Version:  %s\n", a.Version)
	}
	if a.Summary != "" {
		fmt.Fprintf(os.Stderr, "  Summary:  %s\n", a.Summary)
	}
	fmt.Fprintf(os.Stderr, "  Dir:      %s\n", a.Dir)
	fmt.Fprintln(os.Stderr)

	langs := a.Languages()
	if len(langs) == 0 {
		logInfo("No translations found. Run 'addontrans -i %s -l <languages>' to create some.", input)
		return nil
	}

	fmt.Fprintf(os.Stderr, "%sTranslations%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "\n%-10s %-6s %-10s %-18s\n", "Lang", "Doc", "Manifest", "Messages")
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 46))

	for _, lang := range langs {
		doc := mark(fileExists(a.DocPath(lang)))
		manifest := mark(fileExists(a.LocaleManifestPath(lang)))
		fmt.Fprintf(os.Stderr, "%-10s %-6s %-10s %-18s\n", lang, doc, manifest, poSummary(a.POPath(lang)))
	}
	fmt.Fprintln(os.Stderr)

	return nil
}

func mark(ok bool) string {
	if ok {
		return "yes"
	}
	return "-"
}

// poSummary parses a translated catalog and reports entry counts.
func poSummary(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "-"
	}

	po := gotext.NewPo()
	po.Parse(data)

	total, translated := 0, 0
	for msgid, tr := range po.GetDomain().GetTranslations() {
		if msgid == "" {
			continue
		}
		total++
		if tr.IsTranslated() {
			translated++
		}
	}
	if total == 0 {
		return "empty"
	}
	return fmt.Sprintf("%d/%d translated", translated, total)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ---------------------------------------------------------------------------
// auth (API key management)
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider API keys",
		Long: `Manage stored API keys for LLM providers.

Keys are stored in ` + settings.FilePath() + ` with 0600 permissions.
Environment variables (OPENAI_API_KEY, GROQ_API_KEY) and the --api-key
flag take precedence over stored keys.

Examples:
  addontrans auth set openai sk-...       Store an OpenAI key
  addontrans auth set custom sk-... --base-url https://llm.example.com/v1
  addontrans auth remove openai           Forget the OpenAI key
  addontrans auth list                    Show stored keys (masked)`,
	}

	cmd.AddCommand(
		newAuthSetCmd(),
		newAuthRemoveCmd(),
		newAuthListCmd(),
	)

	return cmd
}

func newAuthSetCmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "set <provider> <api-key>",
		Short: "Store an API key for a provider",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			providerID, key := args[0], args[1]
			if _, ok := model.DefaultProviders()[providerID]; !ok {
				return fmt.Errorf("unknown provider %q", providerID)
			}
			if err := settings.SetAPIKey(providerID, key, baseURL); err != nil {
				return err
			}
			logSuccess("Stored API key for %s (%s)", providerID, settings.MaskKey(key))
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "Endpoint URL stored with the key (custom provider)")

	return cmd
}

func newAuthRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <provider>",
		Short: "Remove a stored API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := settings.Remove(args[0]); err != nil {
				return err
			}
			logSuccess("Removed credentials for %s", args[0])
			return nil
		},
	}
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show stored API keys (masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := settings.Load()
			if len(store) == 0 {
				logInfo("No stored credentials (%s)", settings.FilePath())
				return nil
			}
			for providerID, cred := range store {
				line := fmt.Sprintf("  %-10s %s", providerID, settings.MaskKey(cred.Key))
				if cred.BaseURL != "" {
					line += "  " + cred.BaseURL
				}
				fmt.Fprintln(os.Stderr, line)
			}
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("addontrans version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}
