// Package gtfs implements the GTFS fetcher (C9) and parser (C10): the
// download/extract step over public data portals, and the
// stops/routes/trips/stop_times accumulation that feeds the
// accessibility scorer and graph builder.
package gtfs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/geomatic-pipeline/pipeline/internal/domain/repository"
	pipelineerrors "github.com/geomatic-pipeline/pipeline/internal/pkg/errors"
)

// Fetcher downloads and extracts zipped GTFS resources to a working
// tree, matching the teacher's own pattern of a net/http.Client behind
// a thin repository-backed client (internal/infrastructure/mapbox).
type Fetcher struct {
	httpClient *http.Client
	baseDir    string
	prompt     repository.OperatorPrompt
	promptMu   sync.Mutex
	logger     *zap.Logger
}

// New returns a Fetcher rooted at baseDir, using prompt for
// operator-assisted resolution when automatic download fails.
func New(baseDir string, prompt repository.OperatorPrompt, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		baseDir:    baseDir,
		prompt:     prompt,
		logger:     logger,
	}
}

// DownloadList downloads each URL to dataset_<i+1>/ under the working
// tree, skipping any target directory that already exists and is
// non-empty.
func (f *Fetcher) DownloadList(ctx context.Context, urls []string) ([]string, error) {
	var dirs []string
	for i, url := range urls {
		dir := filepath.Join(f.baseDir, fmt.Sprintf("dataset_%d", i+1))
		if nonEmpty(dir) {
			dirs = append(dirs, dir)
			continue
		}
		if err := f.downloadAndExtract(ctx, url, dir); err != nil {
			f.logger.Error("gtfs dataset download failed", zap.String("url", url), zap.Error(err))
			continue
		}
		dirs = append(dirs, dir)
	}
	return dirs, nil
}

// Download resolves one dataset from candidate URLs, falling back to
// an operator prompt on ambiguity (more than one candidate) or HTTP
// failure. It returns "" when the operator answers "skip".
func (f *Fetcher) Download(ctx context.Context, datasetID string, candidates []string) (string, error) {
	dir := filepath.Join(f.baseDir, datasetID)
	if nonEmpty(dir) {
		return dir, nil
	}

	if len(candidates) == 1 {
		if err := f.downloadAndExtract(ctx, candidates[0], dir); err == nil {
			return dir, nil
		}
	}

	f.promptMu.Lock()
	defer f.promptMu.Unlock()

	reason := "ambiguous candidates"
	if len(candidates) <= 1 {
		reason = "automatic download failed"
	}
	for {
		url, ok := f.prompt.Resolve(ctx, datasetID, reason)
		if !ok {
			return "", nil
		}
		if err := f.downloadAndExtract(ctx, url, dir); err == nil {
			return dir, nil
		}
		reason = "download from operator-provided URL failed"
	}
}

// ClearBaseDir wipes the working tree and recreates the base directory.
func (f *Fetcher) ClearBaseDir() error {
	if err := os.RemoveAll(f.baseDir); err != nil {
		return pipelineerrors.NewDownloadError(fmt.Sprintf("clearing base dir: %v", err))
	}
	return os.MkdirAll(f.baseDir, 0o755)
}

func (f *Fetcher) downloadAndExtract(ctx context.Context, url, destDir string) error {
	tmpPath := filepath.Join(os.TempDir(), fmt.Sprintf("gtfs-%s.zip", uuid.NewString()))
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return pipelineerrors.NewDownloadError(fmt.Sprintf("creating temp file: %v", err))
	}
	defer os.Remove(tmpPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		tmp.Close()
		return pipelineerrors.NewDownloadError(fmt.Sprintf("building request: %v", err))
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		tmp.Close()
		return pipelineerrors.NewDownloadError(fmt.Sprintf("downloading %s: %v", url, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		tmp.Close()
		return pipelineerrors.NewDownloadError(fmt.Sprintf("downloading %s: status %d", url, resp.StatusCode))
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return pipelineerrors.NewDownloadError(fmt.Sprintf("writing %s: %v", tmpPath, err))
	}
	tmp.Close()

	if err := extractZip(tmpPath, destDir); err != nil {
		return pipelineerrors.NewExtractError(fmt.Sprintf("extracting %s: %v", url, err))
	}
	return nil
}

func nonEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}
