package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/codalotl/autodoc/internal/autodoc"
	"github.com/codalotl/autodoc/internal/config"
	"github.com/codalotl/autodoc/internal/docgen"
	"github.com/codalotl/autodoc/internal/health"
	"github.com/codalotl/autodoc/internal/preview"
	"github.com/codalotl/autodoc/internal/simplelogger"
	"github.com/codalotl/autodoc/internal/sourcefiles"
	"github.com/fatih/color"
	"github.com/google/uuid"
)

type runFlags struct {
	gitChanged bool
	inPlace    bool
	overwrite  bool
	refactor   bool
	noColor    bool
}

func runDocument(ctx context.Context, env *environment, cfg config.Config, target string, flags runFlags) error {
	logger, closeLog := simplelogger.New(slog.LevelDebug)
	defer func() { _ = closeLog() }()
	hctx := health.NewCtx(logger.With("run_id", uuid.NewString()))
	logConfig(hctx, cfg)

	genOpts := cfg.GeneratorOptions()
	genOpts.Ctx = hctx
	gen, err := docgen.New(cfg.Strategy, genOpts)
	if err != nil {
		return hctx.LogWrappedErr("create generator", err, "strategy", cfg.Strategy)
	}

	if !filepath.IsAbs(target) {
		target = filepath.Join(env.dir, target)
	}
	var files []string
	if flags.gitChanged {
		files, err = sourcefiles.Changed(ctx, env.dir, target)
	} else {
		files, err = sourcefiles.Discover(target)
	}
	if err != nil {
		return hctx.LogErr(health.NewHumanErr(fmt.Sprintf("cannot list files under %s: %v", env.rel(target), err), "list files", "target", target, "git", flags.gitChanged, "err", err))
	}

	out := newPrinter(env, flags.noColor)
	if len(files) == 0 {
		out.println("No source files found to process.")
		return nil
	}
	out.printf("Found %d file(s) to process.\n", len(files))

	runner := autodoc.Runner{
		Workers: cfg.Workers,
		Options: autodoc.Options{
			Generator:         gen,
			Style:             docgen.Style(cfg.Style),
			InPlace:           flags.inPlace,
			OverwriteExisting: flags.overwrite,
			Refactor:          flags.refactor,
			WrapWidth:         cfg.WrapWidth,
			IndentWidth:       cfg.IndentWidth,
			Ctx:               hctx,
		},
	}
	summary := runner.Run(ctx, files, func(res autodoc.FileResult) {
		out.fileResult(res, env.rel(res.Path), flags.inPlace)
	})

	hctx.Log("run finished", "files", len(summary.Results), "changed", summary.Changed(), "diagnostics", len(summary.Diagnostics()))
	if summary.Failed() {
		failed := 0
		for _, res := range summary.Results {
			if res.Failed() {
				failed++
			}
		}
		return hctx.LogErr(health.NewHumanErr(fmt.Sprintf("%d file(s) could not be read or written", failed), "files failed", "failed", failed))
	}
	if ctx.Err() != nil {
		return hctx.LogNewErr("run interrupted", "files", len(files), "changed", summary.Changed())
	}
	return nil
}

// logConfig logs each setting's source. The API key's value is never logged.
func logConfig(hctx health.Ctx, cfg config.Config) {
	hctx.Debug("configuration",
		"strategy", cfg.Strategy,
		"style", cfg.Style,
		"model", cfg.Model,
		"workers", cfg.Workers,
		"wrap_width", cfg.WrapWidth,
		"api_key_set", cfg.APIKey != "",
		"sources", cfg.Provenance,
	)
}

// rel returns path relative to the working directory when it lies below it.
func (env *environment) rel(path string) string {
	r, err := filepath.Rel(env.dir, path)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return path
	}
	return r
}

// printer writes user-facing output. Diagnostics go to the error stream, colored when it is a terminal.
type printer struct {
	out      io.Writer
	errW     io.Writer
	colorOut bool

	warn *color.Color
	fail *color.Color
}

func newPrinter(env *environment, noColor bool) *printer {
	p := &printer{
		out:      env.out,
		errW:     env.errW,
		colorOut: preview.ColorEnabled(asFile(env.out), noColor),
		warn:     color.New(color.FgYellow),
		fail:     color.New(color.FgRed, color.Bold),
	}
	if preview.ColorEnabled(asFile(env.errW), noColor) {
		p.warn.EnableColor()
		p.fail.EnableColor()
	} else {
		p.warn.DisableColor()
		p.fail.DisableColor()
	}
	return p
}

func asFile(w io.Writer) *os.File {
	f, _ := w.(*os.File)
	return f
}

func (p *printer) println(s string) {
	fmt.Fprintln(p.out, s)
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *printer) fileResult(res autodoc.FileResult, name string, inPlace bool) {
	p.printf("--- Processing %s ---\n", name)
	for _, line := range res.Progress {
		p.println(line)
	}
	switch {
	case res.Written:
		p.printf("Writing changes to %s\n", name)
	case res.Changed() && !inPlace:
		fmt.Fprint(p.out, preview.Unified(string(res.Original), string(res.Updated), name, preview.DefaultContext, p.colorOut))
	case !res.Changed():
		p.println(preview.NoChanges)
	}
	for _, d := range res.Diagnostics {
		d.File = name
		c := p.warn
		if d.Kind == autodoc.IOFailure {
			c = p.fail
		}
		fmt.Fprintln(p.errW, c.Sprint(d.String()))
	}
}
