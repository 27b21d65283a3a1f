package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/codalotl/autodoc/internal/config"
	"github.com/codalotl/autodoc/internal/docgen"
	"github.com/codalotl/autodoc/internal/langprofile"
	"github.com/spf13/cobra"
)

func newRootCommand(env *environment) *cobra.Command {
	root := &cobra.Command{
		Use:           "autodoc",
		Short:         "Generate and insert documentation for functions and methods",
		Long:          "autodoc finds undocumented (or poorly documented) functions and methods in Python, JavaScript, TypeScript, Java, Go, and C++ sources and inserts documentation in each language's convention, without touching any other byte of the file.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.AddCommand(newRunCommand(env), newInitCommand(env), newLanguagesCommand(env), newConfigCommand(env))
	return root
}

// usageArgs wraps a cobra positional-args validator so its failures are reported as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

// runFlagKeys maps `autodoc run` flags to the config keys they override.
var runFlagKeys = []struct {
	flag string
	key  string
}{
	{"strategy", config.KeyStrategy},
	{"style", config.KeyStyle},
	{"model", config.KeyModel},
	{"workers", config.KeyWorkers},
	{"wrap-width", config.KeyWrapWidth},
}

func newRunCommand(env *environment) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run [path]",
		Short: "Document a file, or every supported file under a directory",
		Long: `Document a file, or every supported file under a directory (default: the current directory), honoring .gitignore.

Without --in-place, nothing is written: a unified diff of the proposed changes is printed. With --diff, only files git reports as changed (and untracked files)
are processed.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(env)
			if err != nil {
				return err
			}
			for _, fk := range runFlagKeys {
				if f := cmd.Flags().Lookup(fk.flag); f != nil && f.Changed {
					if err := cfg.Set(fk.key, f.Value.String(), config.SourceFlag); err != nil {
						return &usageError{err: fmt.Errorf("--%s: %w", fk.flag, err)}
					}
				}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.RequireAPIKey(); err != nil {
				return err
			}

			target := "."
			if len(args) == 1 {
				target = args[0]
			}
			return runDocument(cmd.Context(), env, cfg, target, flags)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&flags.gitChanged, "diff", false, "only process files changed since HEAD (plus untracked files), per git")
	f.BoolVar(&flags.inPlace, "in-place", false, "write changes to files instead of printing a diff")
	f.BoolVar(&flags.overwrite, "overwrite-existing", false, "evaluate existing documentation and regenerate documentation judged poor")
	f.BoolVar(&flags.refactor, "refactor", false, "rename poorly named local variables and suggest better function names")
	f.BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	f.String("strategy", docgen.StrategyMock, "generation strategy: "+strings.Join(docgen.Strategies(), ", "))
	f.String("style", string(docgen.StyleGoogle), "documentation style: google, numpy, or rst")
	f.String("model", "", "model name for LLM strategies")
	f.Int("workers", 1, "number of files processed concurrently")
	f.Int("wrap-width", 0, "wrap documentation to this many columns (0 disables)")
	return cmd
}

func newInitCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write Groq credentials and model settings to .env",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(env)
		},
	}
}

func newLanguagesCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages and their file extensions",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range langprofile.IDs() {
				p, _ := langprofile.Lookup(id)
				if _, err := fmt.Fprintf(env.out, "%-11s %s\n", id, strings.Join(p.Extensions(), " ")); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newConfigCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration and where each value came from",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(env)
			if err != nil {
				return err
			}
			return writeConfig(env.out, cfg)
		},
	}
}

func loadConfig(env *environment) (config.Config, error) {
	return config.Loader{Dir: env.dir, LookupEnv: env.lookupEnv}.Load()
}

// writeConfig prints each setting with its source. The API key is masked.
func writeConfig(w io.Writer, cfg config.Config) error {
	values := map[string]string{
		config.KeyStrategy:         cfg.Strategy,
		config.KeyStyle:            cfg.Style,
		config.KeyModel:            cfg.Model,
		config.KeyAPIKey:           maskSecret(cfg.APIKey),
		config.KeyBaseURL:          cfg.BaseURL,
		config.KeyWorkers:          fmt.Sprint(cfg.Workers),
		config.KeyWrapWidth:        fmt.Sprint(cfg.WrapWidth),
		config.KeyIndentWidth:      fmt.Sprint(cfg.IndentWidth),
		config.KeyMaxSnippetTokens: fmt.Sprint(cfg.MaxSnippetTokens),
		config.KeyRequestTimeout:   cfg.RequestTimeout.String(),
		config.KeyRateLimit:        fmt.Sprint(cfg.RateLimit),
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s = %s (%s)\n", k, values[k], cfg.Provenance[k]); err != nil {
			return err
		}
	}
	return nil
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
