package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lifei6671/go-gestalt"
	"github.com/lifei6671/go-gestalt/decoder"
)

type rootOptions struct {
	files     []string
	urls      []string
	sets      []string
	envPrefix string
	logLevel  string
	strict    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "gestaltctl",
		Short:         "Inspect merged configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringArrayVarP(&opts.files, "file", "f", nil, "config file, repeatable, later files override earlier ones")
	flags.StringArrayVar(&opts.urls, "url", nil, "config url, repeatable")
	flags.StringArrayVar(&opts.sets, "set", nil, "override a value, path=value")
	flags.StringVar(&opts.envPrefix, "env-prefix", "", "load environment variables with this prefix (stripped)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	flags.BoolVar(&opts.strict, "strict", false, "treat warnings and missing values as errors")

	cmd.AddCommand(newGetCmd(opts), newKeysCmd(opts), newWatchCmd(opts))
	return cmd
}

func (o *rootOptions) logger(w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(o.logLevel))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid --log-level %q: %w", o.logLevel, err)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger(), nil
}

// sources 按 file、url、env、set 的顺序注册，越靠后优先级越高。
func (o *rootOptions) sources() ([]gestalt.Source, error) {
	var sources []gestalt.Source
	for _, f := range o.files {
		sources = append(sources, gestalt.NewFileSource(f))
	}
	for _, u := range o.urls {
		sources = append(sources, gestalt.NewHTTPSource(u))
	}
	if o.envPrefix != "" {
		sources = append(sources, gestalt.NewEnvSource(
			gestalt.WithEnvSourcePrefix(o.envPrefix),
			gestalt.WithEnvSourceStripPrefix(true),
		))
	}
	if len(o.sets) > 0 {
		values := make(map[string]string, len(o.sets))
		for _, s := range o.sets {
			k, v, ok := strings.Cut(s, "=")
			if !ok || strings.TrimSpace(k) == "" {
				return nil, fmt.Errorf("invalid --set %q, expected path=value", s)
			}
			values[strings.TrimSpace(k)] = v
		}
		sources = append(sources, gestalt.NewMapSource(values))
	}
	return sources, nil
}

func (o *rootOptions) build(cmd *cobra.Command, extra ...gestalt.Option) (*gestalt.DefaultGestalt, error) {
	logger, err := o.logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	sources, err := o.sources()
	if err != nil {
		return nil, err
	}

	opts := []gestalt.Option{
		gestalt.WithSource(sources...),
		gestalt.WithLogger(logger),
		gestalt.WithTreatWarningsAsErrors(o.strict),
		gestalt.WithTreatMissingValuesAsErrors(o.strict),
	}
	return gestalt.New(append(opts, extra...)...)
}

func (o *rootOptions) load(cmd *cobra.Command) (*gestalt.DefaultGestalt, error) {
	g, err := o.build(cmd)
	if err != nil {
		return nil, err
	}
	if err := g.LoadConfigs(cmd.Context()); err != nil {
		return nil, err
	}
	return g, nil
}

func newGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get [path]",
		Short: "Print the value at path, maps and arrays are printed as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.load(cmd)
			if err != nil {
				return err
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			v, err := g.GetConfig(path, decoder.TypeOf[any]())
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), v)
		},
	}
}

func printValue(w io.Writer, v any) error {
	if s, ok := v.(string); ok {
		_, err := fmt.Fprintln(w, s)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newKeysCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List every leaf path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return printKeys(cmd.OutOrStdout(), g)
		},
	}
}

func printKeys(w io.Writer, g gestalt.Gestalt) error {
	for _, k := range g.Keys() {
		v := gestalt.GetConfigOrDefault(g, k, "")
		if _, err := fmt.Fprintf(w, "%s=%s\n", k, v); err != nil {
			return err
		}
	}
	return nil
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print all keys whenever a config file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(opts.files) == 0 {
				return fmt.Errorf("watch requires at least one --file")
			}
			// 只为文件构造 reload 策略，Source 需与 LoadConfigs 使用同一个实例
			sources, err := opts.sources()
			if err != nil {
				return err
			}
			var strategies []gestalt.ReloadStrategy
			for _, src := range sources {
				fs, ok := src.(*gestalt.FileSource)
				if !ok {
					continue
				}
				s, err := gestalt.NewFileChangeReloadStrategy(fs, gestalt.WithFileChangeDebounce(debounce))
				if err != nil {
					return err
				}
				strategies = append(strategies, s)
			}

			logger, err := opts.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			g, err := gestalt.New(
				gestalt.WithSource(sources...),
				gestalt.WithReloadStrategy(strategies...),
				gestalt.WithLogger(logger),
				gestalt.WithTreatWarningsAsErrors(opts.strict),
				gestalt.WithTreatMissingValuesAsErrors(opts.strict),
			)
			if err != nil {
				return err
			}
			if err := g.LoadConfigs(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := printKeys(out, g); err != nil {
				return err
			}
			g.RegisterCoreReloadListener(&printOnReload{out: out, g: g})
			return g.StartReloading(cmd.Context())
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 100*time.Millisecond, "wait for writes to settle before reloading")
	return cmd
}

type printOnReload struct {
	out io.Writer
	g   gestalt.Gestalt
}

func (p *printOnReload) Reload() {
	fmt.Fprintf(p.out, "# reloaded at %s\n", time.Now().Format(time.RFC3339))
	if err := printKeys(p.out, p.g); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
