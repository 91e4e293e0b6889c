package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lumelodos/tomelate/internal/cleanup"
	"github.com/lumelodos/tomelate/internal/files"
	"github.com/lumelodos/tomelate/internal/gemini"
	"github.com/lumelodos/tomelate/internal/language"
	"github.com/lumelodos/tomelate/internal/logger"
	"github.com/lumelodos/tomelate/internal/pdfx"
	"github.com/lumelodos/tomelate/internal/pipeline"
	"github.com/spf13/cobra"
)

type translateOptions struct {
	modelName         string
	targetLang        string
	transcribeWorkers int
	translateWorkers  int
	maxAttempts       int
	dpi               float64
	dataDir           string
	logFilePath       string
	allowEnv          bool
	envOnly           bool
	debug             bool
}

func newTranslateCmd() *cobra.Command {
	opts := translateOptions{}
	cmd := &cobra.Command{
		Use:   "translate <input.pdf>",
		Short: "Transcribe and translate a scanned PDF using Gemini",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				_ = cmd.Usage()
				return fmt.Errorf("input file is required")
			}
			return runTranslate(cmd, args, &opts)
		},
		SilenceUsage: true,
	}

	cmd.SetUsageTemplate(subcommandUsageTemplate)
	addTranslateFlags(cmd, &opts)
	return cmd
}

func addTranslateFlags(cmd *cobra.Command, opts *translateOptions) {
	cmd.Flags().StringVar(&opts.modelName, "model", "gemini-2.5-pro", "Gemini model name")
	cmd.Flags().StringVar(&opts.targetLang, "target", "Korean", "Target language for translation")
	cmd.Flags().IntVar(&opts.transcribeWorkers, "transcribe-workers", pipeline.DefaultTranscribeWorkers, "Concurrent transcription requests (1-20)")
	cmd.Flags().IntVar(&opts.translateWorkers, "translate-workers", pipeline.DefaultTranslateWorkers, "Concurrent translation requests (1-20)")
	cmd.Flags().IntVar(&opts.maxAttempts, "max-attempts", pipeline.DefaultMaxAttempts, "Attempts per page before giving up (1-10)")
	cmd.Flags().Float64Var(&opts.dpi, "dpi", pdfx.DefaultDPI, "Page rasterization resolution")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", pipeline.DefaultDataDir, "Directory for per-job artifacts and output")
	cmd.Flags().StringVar(&opts.logFilePath, "log-file", "", "Path to save machine-readable JSONL logs")
	cmd.Flags().BoolVar(&opts.allowEnv, "allow-env", false, "Allow reading API key from environment variables")
	cmd.Flags().BoolVar(&opts.envOnly, "env-only", false, "Use only environment variables for API keys")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
}

func runTranslate(cmd *cobra.Command, args []string, opts *translateOptions) error {
	if len(args) < 1 {
		return fmt.Errorf("input file is required")
	}
	if len(args) > 1 {
		fmt.Fprintf(os.Stderr, "Warning: expected 1 argument but got %d. Did you forget quotes around the file path?\n", len(args))
		fmt.Fprintf(os.Stderr, "  Using input: %s\n", args[0])
	}
	inputPath := args[0]
	if err := validatePDFExtension(inputPath); err != nil {
		return err
	}
	target, ok := language.Resolve(opts.targetLang)
	if !ok {
		return fmt.Errorf("unsupported target language %q (see 'tomelate list')", opts.targetLang)
	}

	logLevel := logger.LevelInfo
	if opts.debug {
		logLevel = logger.LevelDebug
	}
	var logFileW io.Writer
	if opts.logFilePath != "" {
		if err := files.RejectSymlinkPath(opts.logFilePath); err != nil {
			return err
		}
		f, err := os.OpenFile(opts.logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		cleanup.Register(f.Close)
		logFileW = f
	}
	logger.Init(logLevel, logFileW)

	startTime := time.Now()

	actualKey, source, err := resolveAPIKey(opts.allowEnv, opts.envOnly)
	if err != nil {
		return err
	}
	logger.Info("Using API Key", "service", "gemini", "source", source)

	ctx, stop := signalContext()
	defer stop()

	client, err := gemini.NewClient(ctx, actualKey, opts.modelName, target.Name)
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}
	cleanup.Register(client.Close)

	cfg := pipeline.Config{
		InputPath:         inputPath,
		DataDir:           opts.dataDir,
		Extractor:         pdfx.NewExtractor(opts.dpi),
		Transformer:       client,
		TranscribeWorkers: opts.transcribeWorkers,
		TranslateWorkers:  opts.translateWorkers,
		MaxAttempts:       opts.maxAttempts,
		OnProgress: func(p pipeline.Progress) {
			logger.Info("Progress",
				"percent", p.Percent,
				"transcribed", p.Transcribed,
				"translated", p.Translated,
				"total", p.TotalPages,
			)
		},
	}

	result, err := pipeline.Run(ctx, cfg)

	// Always print stats; costs were incurred even on a failed run.
	printRunStats(result, time.Since(startTime), opts.modelName)

	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("Translation canceled", "error", err)
			return nil
		}
		return err
	}

	return runStatusError(result)
}

func runStatusError(result pipeline.Result) error {
	switch result.Status {
	case pipeline.StatusSuccess:
		return nil
	case pipeline.StatusPartialSuccess:
		return fmt.Errorf("translation finished with status: %s (%d of %d pages failed)",
			result.Status, result.FailedPages, result.TotalPages)
	case pipeline.StatusFailure:
		return fmt.Errorf("translation finished with status: %s", result.Status)
	default:
		return fmt.Errorf("translation finished with unknown status: %q", result.Status)
	}
}

func validatePDFExtension(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".pdf" {
		return nil
	}
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Errorf("unsupported input extension %q (supported: .pdf)", ext)
}
