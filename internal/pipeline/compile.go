package pipeline

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/lumelodos/tomelate/internal/logger"
	"github.com/lumelodos/tomelate/internal/store"
)

// pageHeader prefixes every compiled section with its source page number so
// readers can trace content back to the scan.
const pageHeader = "## PDF Page: %d \n\n"

// CompileDocument assembles the final document from translation artifacts in
// ascending page order. Pages whose artifact is missing, empty, or a failure
// sentinel are skipped with a warning; compilation itself only fails on IO
// errors. It returns the number of pages included.
func CompileDocument(st *store.JobStore, totalPages int) (int, error) {
	var b strings.Builder
	compiled := 0

	for page := 1; page <= totalPages; page++ {
		text, err := st.ReadStage(store.StageTranslation, page)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logger.Warn("Translation artifact missing, skipping page", "page", page)
				continue
			}
			return 0, fmt.Errorf("failed to read translation for page %d: %w", page, err)
		}
		if strings.TrimSpace(text) == "" {
			logger.Info("Skipping blank page", "page", page)
			continue
		}
		if IsSentinel(text) {
			logger.Warn("Skipping failed page", "page", page)
			continue
		}

		fmt.Fprintf(&b, pageHeader, page)
		b.WriteString(strings.TrimSpace(text))
		b.WriteString("\n\n")
		compiled++
	}

	if err := st.WriteDocument(b.String()); err != nil {
		return 0, fmt.Errorf("failed to write compiled document: %w", err)
	}
	logger.Info("Compiled document", "pages", compiled, "total_pages", totalPages, "path", st.DocumentPath())
	return compiled, nil
}
