// cmd/tools/ksel-lookup/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ksel-bot/internal/app"
	"ksel-bot/internal/common/config"
	"ksel-bot/internal/common/logger"
	"ksel-bot/internal/models"
	"ksel-bot/pkg/layout"
)

type options struct {
	configPath string
	layoutName string
	layoutFile string
	mode       string
	timeout    time.Duration
	verbose    bool
}

func main() {
	if err := newRootCmd(config.Load, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd takes the default loader so tests can skip the configs/ lookup.
func newRootCmd(loadDefault func() (*config.Config, error), out io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "ksel-lookup <model>",
		Short: "Look up card terminal certifications from the command line",
		Long: "ksel-lookup runs one registry lookup through the same pipeline as the /ksel command\n" +
			"and prints the text a chat user would see.",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, loadDefault)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, opts, strings.Join(args, " "), out)
		},
	}
	cmd.SetOut(out)

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a config file (default: configs/config.yaml)")
	flags.StringVar(&opts.layoutName, "layout", "", fmt.Sprintf("column layout preset (%s)", strings.Join(layout.Names(), ", ")))
	flags.StringVar(&opts.layoutFile, "layout-file", "", "JSON file with extra column layouts")
	flags.StringVar(&opts.mode, "mode", "", "record selection: all or exact")
	flags.DurationVarP(&opts.timeout, "timeout", "t", 0, "registry deadline (default: lookup.fetch_timeout_ms)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline activity to stderr")

	cmd.AddCommand(newLayoutsCmd(out))
	return cmd
}

func newLayoutsCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "layouts",
		Short: "List built-in column layout presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range layout.Names() {
				l, _ := layout.Get(name)
				marker := ""
				if name == layout.Default {
					marker = " (default)"
				}
				fmt.Fprintf(out, "%s%s: min_cells=%d model=%d version=%d device=%d cert=%d\n",
					name, marker, l.MinCells, l.ModelName, l.ModelVersion, l.DeviceIdentifier, l.CertificateID)
			}
		},
	}
}

func loadConfig(opts *options, loadDefault func() (*config.Config, error)) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFromFile(opts.configPath)
	} else {
		cfg, err = loadDefault()
	}
	if err != nil {
		return nil, err
	}

	if opts.layoutName != "" {
		cfg.Extractor.Layout = opts.layoutName
	}
	if opts.layoutFile != "" {
		cfg.Extractor.LayoutFile = opts.layoutFile
	}
	if opts.mode != "" {
		cfg.Extractor.Mode = opts.mode
	}
	// one-shot runs never touch shared state
	cfg.Cache.Redis.Enabled = false
	cfg.Audit.Enabled = false
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config, opts *options, model string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	log := logger.NewNoOpLogger()
	if opts.verbose {
		log = logger.NewStructured("debug", "console")
	}

	application, err := app.New(ctx, cfg, log, app.Options{})
	if err != nil {
		return err
	}
	defer application.Shutdown(context.Background())

	q := models.NewQuery(model, "", "", "", "")
	if q.ModelKey == "" {
		return fmt.Errorf("model name is required")
	}

	outcome := application.Coordinator.Resolve(ctx, q, opts.timeout)
	fmt.Fprintln(out, outcome.Render(q.ModelKey, models.DefaultMessages()))

	if outcome.Kind == models.OutcomeError {
		return fmt.Errorf("lookup failed: %s", outcome.Detail)
	}
	return nil
}
