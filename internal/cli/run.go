package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/nfesynth/internal/accesskey"
	"github.com/roach88/nfesynth/internal/batch"
	"github.com/roach88/nfesynth/internal/clock"
	"github.com/roach88/nfesynth/internal/config"
	"github.com/roach88/nfesynth/internal/credential"
	"github.com/roach88/nfesynth/internal/document"
	"github.com/roach88/nfesynth/internal/metrics"
	"github.com/roach88/nfesynth/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Config      string
	Keys        string
	OutDir      string
	Database    string
	Workers     int
	MetricsFile string

	// Clock, Gate and RunIDs override the production collaborators (for testing).
	// If nil, the system clock, a file-backed credential gate and UUIDv7 run
	// IDs are used.
	Clock  clock.Clock
	Gate   batch.CredentialValidator
	RunIDs batch.RunIDGenerator
}

// RunOutcome is the JSON form of one processed key.
type RunOutcome struct {
	Key   string `json:"key"`
	OK    bool   `json:"ok"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// RunSummary is the JSON payload of a finished run.
type RunSummary struct {
	Total       int          `json:"total"`
	Success     int          `json:"success"`
	Errors      int          `json:"errors"`
	Filtered    int          `json:"filtered"`
	Region      string       `json:"uf"`
	Environment string       `json:"environment"`
	Credential  string       `json:"credential"`
	OutputDir   string       `json:"output_dir"`
	Database    string       `json:"database,omitempty"`
	Outcomes    []RunOutcome `json:"outcomes"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process a list of access keys",
		Long: `Validate the configured credential, then decode every access key in the
key file and persist one nfeProc XML document per key.

Lines whose trimmed length is not 44 are skipped. A failing key is reported
and processing continues with the next one.

Exit codes:
  0 - Run completed (individual keys may have failed)
  2 - Fatal error (config, key file, credential or database)

Examples:
  nfesynth run --config appsettings.yaml --keys chaves.txt
  nfesynth run --config settings.toml --keys chaves.txt --db nfe.db --workers 4
  nfesynth run --config appsettings.yaml --keys chaves.txt --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "appsettings.yaml", "path to YAML or TOML settings file")
	cmd.Flags().StringVarP(&opts.Keys, "keys", "k", "chaves.txt", "path to the access key list")
	cmd.Flags().StringVar(&opts.OutDir, "out", "", "output directory (overrides output.dir)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database that also receives documents (overrides output.database)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "keys processed concurrently (overrides run.workers)")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path")

	return cmd
}

func runBatch(opts *RunOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	setupLogging(opts.Verbose, formatter.GetErrWriter())

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fatal(formatter, "CONFIG", "failed to load config", err)
	}
	applyOverrides(cfg, opts, cmd)
	slog.Debug("config loaded", "path", opts.Config, "region", cfg.Run.Region, "workers", cfg.Run.Workers)

	list, err := accesskey.ReadKeysFile(opts.Keys)
	if err != nil {
		return fatal(formatter, "KEYS", "failed to read access keys", err)
	}
	formatter.VerboseLog("keys: %s (%d candidates, %d lines ignored)", opts.Keys, len(list.Keys), list.Filtered)

	dirSink, err := store.NewDirSink(cfg.Output.Dir)
	if err != nil {
		return fatal(formatter, "OUTPUT", "failed to prepare output directory", err)
	}
	sinks := store.MultiSink{dirSink}
	formatter.VerboseLog("output: %s", dirSink.Dir)

	clk := opts.Clock
	if clk == nil {
		clk = clock.System{}
	}

	m := metrics.New()
	procOpts := []batch.Option{
		batch.WithClock(clk),
		batch.WithMetrics(m),
	}
	if opts.RunIDs != nil {
		procOpts = append(procOpts, batch.WithRunIDGenerator(opts.RunIDs))
	}

	if cfg.Output.Database != "" {
		st, err := store.Open(cfg.Output.Database)
		if err != nil {
			return fatal(formatter, "DATABASE", "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		st.WithClock(clk)
		sinks = append(sinks, st)
		formatter.VerboseLog("database: %s", cfg.Output.Database)
		procOpts = append(procOpts, batch.WithRunRecorder(st))
	}

	env := document.EnvironmentFromFlag(cfg.Run.Homologation)
	if opts.Format != "json" {
		out := cmd.OutOrStdout()
		procOpts = append(procOpts,
			batch.WithStartHook(func(r *batch.Result) { printHeader(out, r, env) }),
			batch.WithObserver(func(o batch.Outcome) { printOutcome(out, o) }),
		)
	}

	gate := opts.Gate
	if gate == nil {
		gate = credential.NewGate(clk)
	}

	proc := batch.New(batch.Config{
		CredentialPath:   cfg.Credential.Path,
		CredentialSecret: cfg.Credential.Secret,
		Region:           cfg.Run.Region,
		Environment:      env,
		VerifyCheckDigit: cfg.Run.VerifyCheckDigit,
		Workers:          cfg.Run.Workers,
	}, gate, sinks, procOpts...)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	res, err := proc.RunKeys(ctx, list)
	if err != nil {
		code := string(credential.CodeOf(err))
		if code == "" {
			code = "CREDENTIAL"
		}
		return fatal(formatter, code, "run aborted", err)
	}

	if opts.MetricsFile != "" {
		if err := m.WriteTextfile(opts.MetricsFile); err != nil {
			slog.Error("failed to write metrics file", "path", opts.MetricsFile, "error", err)
		}
	}

	if opts.Format == "json" {
		return formatter.SuccessWithRunID(res.RunID, buildRunSummary(res, env, cfg))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "📊 Resumo: %d sucessos, %d erros\n", res.Success, res.Errors)
	if res.Filtered > 0 {
		fmt.Fprintf(out, "   %d linhas ignoradas\n", res.Filtered)
	}
	fmt.Fprintln(out, "✅ Processamento finalizado!")
	return nil
}

// applyOverrides lets explicitly set flags win over the settings file.
func applyOverrides(cfg *config.Config, opts *RunOptions, cmd *cobra.Command) {
	if opts.OutDir != "" {
		cfg.Output.Dir = opts.OutDir
	}
	if opts.Database != "" {
		cfg.Output.Database = opts.Database
	}
	if cmd.Flags().Changed("workers") && opts.Workers > 0 {
		cfg.Run.Workers = opts.Workers
	}
}

// signalContext cancels on SIGINT/SIGTERM. Keys not yet started when the
// signal arrives are reported as cancelled.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping after in-flight keys", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

func fatal(f *OutputFormatter, code, message string, err error) error {
	_ = f.Error(code, fmt.Sprintf("%s: %v", message, err), nil)
	return WrapExitError(ExitCommandError, message, err)
}

func printHeader(w io.Writer, r *batch.Result, env document.Environment) {
	fmt.Fprintln(w, "=== nfesynth ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "📋 Total de chaves encontradas: %d\n", r.Total)
	fmt.Fprintf(w, "🔐 Certificado carregado: %s\n", r.Credential.Subject)
	fmt.Fprintf(w, "🌐 UF: %s\n", r.Region.Abbreviation)
	fmt.Fprintf(w, "🏢 Ambiente: %s\n", env.Label())
	fmt.Fprintln(w)
}

func printOutcome(w io.Writer, o batch.Outcome) {
	if o.OK() {
		fmt.Fprintf(w, "⬇️  Processando NF-e: %s... ✅ OK\n", o.Key)
		return
	}
	fmt.Fprintf(w, "⬇️  Processando NF-e: %s... ❌ ERRO: %v\n", o.Key, o.Err)
}

func buildRunSummary(res *batch.Result, env document.Environment, cfg *config.Config) RunSummary {
	summary := RunSummary{
		Total:       res.Total,
		Success:     res.Success,
		Errors:      res.Errors,
		Filtered:    res.Filtered,
		Region:      res.Region.Abbreviation,
		Environment: env.String(),
		OutputDir:   cfg.Output.Dir,
		Database:    cfg.Output.Database,
		Outcomes:    make([]RunOutcome, 0, len(res.Outcomes)),
	}
	if res.Credential != nil {
		summary.Credential = res.Credential.Subject
	}
	for _, o := range res.Outcomes {
		ro := RunOutcome{Key: o.Key, OK: o.OK()}
		if !o.OK() {
			ro.Code = string(batch.CodeOf(o.Err))
			ro.Error = o.Err.Error()
		}
		summary.Outcomes = append(summary.Outcomes, ro)
	}
	return summary
}
