package main

import (
	"fmt"

	"github.com/lumelodos/tomelate/internal/logger"
	"github.com/lumelodos/tomelate/internal/pipeline"
	"github.com/lumelodos/tomelate/internal/store"
	"github.com/spf13/cobra"
)

type compileOptions struct {
	dataDir string
	debug   bool
}

// newCompileCmd rebuilds the final document from existing translation
// artifacts without touching the API. Useful after a partial run, or to pick
// up manual edits to page files.
func newCompileCmd() *cobra.Command {
	opts := compileOptions{}
	cmd := &cobra.Command{
		Use:   "compile <input.pdf>",
		Short: "Rebuild the final document from saved page artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				_ = cmd.Usage()
				return fmt.Errorf("input file is required")
			}
			return runCompile(cmd, args[0], &opts)
		},
		SilenceUsage: true,
	}

	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", pipeline.DefaultDataDir, "Directory for per-job artifacts and output")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	return cmd
}

func runCompile(cmd *cobra.Command, inputPath string, opts *compileOptions) error {
	logLevel := logger.LevelInfo
	if opts.debug {
		logLevel = logger.LevelDebug
	}
	logger.Init(logLevel, nil)

	jobID := store.JobIDFromSource(inputPath)
	st := store.NewJobStore(opts.dataDir, jobID)

	totalPages, err := st.MaxStagePage(store.StageTranslation)
	if err != nil {
		return fmt.Errorf("failed to scan job artifacts: %w", err)
	}
	if totalPages == 0 {
		return fmt.Errorf("no translation artifacts found for job %q under %s", jobID, opts.dataDir)
	}

	compiled, err := pipeline.CompileDocument(st, totalPages)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Compiled %d of %d pages into %s\n", compiled, totalPages, st.DocumentPath())
	return nil
}
