package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gitlane/internal/config"
	"github.com/matzehuels/gitlane/pkg/pipeline"
	"github.com/matzehuels/gitlane/pkg/render/text"
)

// graphFlags holds the flags shared by the commands that load a history.
type graphFlags struct {
	refs     string
	maxCount int
	hash     bool
	decorate bool
	noCache  bool
	refresh  bool

	color string

	// graph command only
	format     string
	output     string
	checkOrder bool
}

// addLoadFlags registers the history selection and label flags.
func (f *graphFlags) addLoadFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.refs, "refs", "", `reference glob below refs/ (default "*", all refs)`)
	flags.IntVarP(&f.maxCount, "max-count", "n", 0, "show only the newest N commits")
	flags.BoolVar(&f.hash, "hash", false, "prefix each commit with its short hash")
	flags.BoolVar(&f.decorate, "decorate", false, "show branch and tag names")
	flags.BoolVar(&f.noCache, "no-cache", false, "disable the history cache")
	flags.BoolVar(&f.refresh, "refresh", false, "reload the history even if it is cached")
}

// addColorFlag registers --color for commands that draw lanes.
func (f *graphFlags) addColorFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.color, "color", config.ColorAuto, "color lanes: auto, always, never")
	_ = cmd.RegisterFlagCompletionFunc("color", cobra.FixedCompletions(
		[]string{config.ColorAuto, config.ColorAlways, config.ColorNever},
		cobra.ShellCompDirectiveNoFileComp))
}

// applyConfig fills every flag the user did not set from cfg.
func (f *graphFlags) applyConfig(cmd *cobra.Command, cfg config.Config) {
	flags := cmd.Flags()
	if !flags.Changed("refs") {
		f.refs = cfg.Refs
	}
	if !flags.Changed("max-count") {
		f.maxCount = cfg.MaxCount
	}
	if !flags.Changed("hash") {
		f.hash = cfg.Hash
	}
	if !flags.Changed("decorate") {
		f.decorate = cfg.Decorate
	}
	if flags.Lookup("color") != nil && !flags.Changed("color") {
		f.color = cfg.Color
	}
}

// options converts the flags into pipeline options for the repository at path.
func (f *graphFlags) options(path string, cfg config.Config) pipeline.Options {
	return pipeline.Options{
		Path:       path,
		Refs:       f.refs,
		MaxCount:   f.maxCount,
		CheckOrder: f.checkOrder,
		Refresh:    f.refresh,
		Format:     f.format,
		ShowHash:   f.hash,
		ShowRefs:   f.decorate,
		CacheTTL:   cfg.CacheTTL.Duration,
	}
}

// pathArg returns the repository path argument, "." when absent.
func pathArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// graphCommand prints the history graph. It becomes the root command.
func (c *CLI) graphCommand() *cobra.Command {
	var f graphFlags

	cmd := &cobra.Command{
		Args: cobra.MaximumNArgs(1),
		Example: `  gitlane
  gitlane ~/src/project --decorate --hash
  gitlane --refs 'heads/*' -n 50
  gitlane --format svg -o history.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd.Context(), cmd, pathArg(args), &f)
		},
	}

	f.addLoadFlags(cmd)
	f.addColorFlag(cmd)
	flags := cmd.Flags()
	flags.StringVarP(&f.format, "format", "f", pipeline.DefaultFormat, "output format: text, json, dot, svg")
	flags.StringVarP(&f.output, "output", "o", "", "write to file instead of stdout")
	flags.BoolVar(&f.checkOrder, "check-order", false, "fail if the history is not in topological order")

	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{pipeline.FormatText, pipeline.FormatJSON, pipeline.FormatDOT, pipeline.FormatSVG},
		cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, cmd *cobra.Command, path string, f *graphFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	f.applyConfig(cmd, cfg)
	if err := validateColor(f.color); err != nil {
		return err
	}

	opts := f.options(path, cfg)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(f.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	var out io.Writer = cmd.OutOrStdout()
	if f.output != "" {
		file, err := os.Create(f.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer file.Close()
		out = file
	}

	var textOpts []text.Option
	if opts.Format == pipeline.FormatText {
		textOpts = laneOptions(f.color, out)
	}

	spinner := startSpinner(ctx, statusOut, "Reading history...")
	defer spinner.Stop()
	result, err := runner.Execute(ctx, opts, textOpts...)
	if err != nil {
		return err
	}
	if f.output == "" {
		// The graph shares the terminal with the spinner.
		spinner.Stop()
	}
	if _, err := out.Write(result.Output); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if f.output != "" {
		spinner.StopWithSuccess(fmt.Sprintf("Wrote %s graph", opts.Format))
		printFile(f.output)
		printStats(result.Stats.Commits, result.Stats.MaxWidth, result.CacheInfo.HistoryHit)
	}
	return nil
}

func validateColor(mode string) error {
	switch mode {
	case config.ColorAuto, config.ColorAlways, config.ColorNever:
		return nil
	}
	return fmt.Errorf("invalid --color %q: must be auto, always or never", mode)
}
