package importer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/oktoeat/api/internal/logger"
)

const (
	// DefaultBatchSize is the upsert batch size for the in-process streaming
	// import, sized to stay within a scheduler-imposed execution ceiling.
	DefaultBatchSize = 100

	// Generous cap for one physical csv line; real FHRS rows are well under 4KB.
	maxLineBytes = 1 << 20

	downloadTimeout = 10 * time.Minute
)

var errEmptyCSV = errors.New("csv file is empty or invalid")

// Options configures an import pass. Counties, batch size and source URL are
// injected rather than embedded so tests can run with synthetic values.
type Options struct {
	// SourceURL is the default feed location; individual runs may override it.
	SourceURL string

	// BatchSize is the number of upserts submitted per batch.
	BatchSize int

	// ContinueOnError makes per-batch store failures non-fatal: the batch is
	// logged and dropped, and the pass carries on. The operator-supervised
	// bulk path enables this; the scheduled path must fail loudly instead so
	// its scheduler sees a clean success/failure signal.
	ContinueOnError bool

	// Counties overrides DefaultCounties for town extraction.
	Counties []string

	// HTTPClient overrides the client used to fetch the feed.
	HTTPClient *http.Client
}

// Result is the structured outcome of one import pass, returned by every
// entry point and logged by the scheduled trigger. Skipped rows (missing id
// or name) are counted separately from processed ones.
type Result struct {
	Error            string `json:"error,omitempty"`
	RecordsProcessed int    `json:"recordsProcessed"`
	RecordsSkipped   int    `json:"recordsSkipped"`
	Success          bool   `json:"success"`
}

// Importer orchestrates a full import pass: fetch, parse, derive, aggregate
// and batch-upsert. The same pipeline backs both the time-boxed streaming
// import and the unbounded bulk import; only the input source, batch size and
// store implementation differ.
//
// An Importer is not safe for concurrent passes against the same store.
type Importer struct {
	store  Store
	log    *logger.Logger
	mapper *RecordMapper
	client *http.Client
	now    func() time.Time
	opts   Options
}

// New creates an Importer writing through the given store.
func New(store Store, log *logger.Logger, opts Options) *Importer {
	if opts.BatchSize < 1 {
		opts.BatchSize = DefaultBatchSize
	}
	counties := opts.Counties
	if counties == nil {
		counties = DefaultCounties
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: downloadTimeout}
	}

	return &Importer{
		store:  store,
		log:    log,
		mapper: NewRecordMapper(NewNormalizer(counties)),
		client: client,
		now:    time.Now,
		opts:   opts,
	}
}

// Run fetches the feed and imports it in a single streaming pass. An empty
// sourceURL falls back to the configured default. This is the time-boxed
// entry point: it holds the fetched text in memory, processes it exactly
// once, and relies on the host's execution ceiling rather than in-process
// timeouts.
func (im *Importer) Run(ctx context.Context, sourceURL string) *Result {
	url := im.resolveURL(sourceURL)
	im.log.Info("Starting import", map[string]interface{}{"source_url": url})

	csvText, err := im.fetch(ctx, url)
	if err != nil {
		return im.failure(err)
	}

	return im.importStream(ctx, strings.NewReader(csvText), url)
}

// ImportFile imports a previously downloaded feed copy, streaming it line by
// line so peak memory stays bounded regardless of file size. This is the
// bulk entry point.
func (im *Importer) ImportFile(ctx context.Context, path string) *Result {
	file, err := os.Open(path)
	if err != nil {
		return im.failure(fmt.Errorf("failed to open csv file: %w", err))
	}
	defer file.Close()

	im.log.Info("Starting bulk import", map[string]interface{}{
		"file":       path,
		"source_url": im.opts.SourceURL,
	})

	return im.importStream(ctx, file, im.opts.SourceURL)
}

// Download streams the feed to a local file for a later ImportFile pass.
func (im *Importer) Download(ctx context.Context, path string) error {
	url := im.resolveURL("")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := im.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download csv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download csv: unexpected status %s", resp.Status)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}

	written, err := io.Copy(file, resp.Body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write csv file: %w", err)
	}

	im.log.Info("Download complete", map[string]interface{}{
		"file":  path,
		"bytes": written,
	})
	return nil
}

// fetch retrieves the whole feed body as text.
func (im *Importer) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build fetch request: %w", err)
	}

	resp, err := im.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch csv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch csv: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read csv response: %w", err)
	}

	return string(body), nil
}

// importStream runs the shared pipeline over one line-oriented csv stream:
// parse header, then per row map -> enqueue business upsert -> aggregate,
// flushing full batches as they fill. After the row loop it flushes the
// final partial batch, writes the location and type rollups in batches, and
// finally overwrites the metadata singleton.
func (im *Importer) importStream(ctx context.Context, r io.Reader, sourceURL string) *Result {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return im.failure(fmt.Errorf("failed to read csv header: %w", err))
		}
		return im.failure(errEmptyCSV)
	}

	headerLine := strings.TrimPrefix(strings.TrimRight(scanner.Text(), "\r"), "\ufeff")
	headers := ParseCSVLine(headerLine)
	im.log.Info("Parsed csv header", map[string]interface{}{"columns": len(headers)})

	agg := NewAggregator()
	batch := NewBatchWriter(im.store, im.opts.BatchSize)
	now := im.now()

	var processed, skipped, dataLines int

	// tolerate applies the per-batch failure policy: nil return means carry
	// on, a non-nil Result aborts the pass.
	tolerate := func(err error) *Result {
		if err == nil {
			return nil
		}
		if im.opts.ContinueOnError {
			im.log.Error("Batch write failed, continuing with next batch", err, nil)
			return nil
		}
		return im.failure(err)
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		dataLines++

		if strings.TrimSpace(line) == "" {
			continue
		}

		business := im.mapper.Map(headers, ParseCSVLine(line))
		if business == nil {
			skipped++
			continue
		}

		if res := tolerate(batch.Add(ctx, upsertBusinessStatement(business, now))); res != nil {
			return res
		}
		agg.Observe(business)
		processed++
	}
	if err := scanner.Err(); err != nil {
		return im.failure(fmt.Errorf("failed to read csv stream: %w", err))
	}
	if dataLines == 0 {
		return im.failure(errEmptyCSV)
	}

	// Final partial business batch
	if res := tolerate(batch.Flush(ctx)); res != nil {
		return res
	}

	im.log.Info("Processed business records", map[string]interface{}{
		"processed": processed,
		"skipped":   skipped,
	})

	// Location rollups
	locations := agg.Locations()
	for _, loc := range locations {
		if res := tolerate(batch.Add(ctx, upsertLocationStatement(loc, now))); res != nil {
			return res
		}
	}
	if res := tolerate(batch.Flush(ctx)); res != nil {
		return res
	}

	// Type rollups
	types := agg.Types()
	for _, bt := range types {
		if res := tolerate(batch.Add(ctx, upsertBusinessTypeStatement(bt))); res != nil {
			return res
		}
	}
	if res := tolerate(batch.Flush(ctx)); res != nil {
		return res
	}

	im.log.Info("Updated rollups", map[string]interface{}{
		"locations": len(locations),
		"types":     len(types),
	})

	// Metadata singleton
	meta := upsertMetadataStatement(processed, sourceURL, im.now())
	if res := tolerate(im.store.Exec(ctx, meta.SQL, meta.Args...)); res != nil {
		return res
	}

	im.log.Info("Import complete", map[string]interface{}{
		"processed": processed,
		"skipped":   skipped,
	})

	return &Result{
		Success:          true,
		RecordsProcessed: processed,
		RecordsSkipped:   skipped,
	}
}

func (im *Importer) resolveURL(sourceURL string) string {
	if sourceURL != "" {
		return sourceURL
	}
	return im.opts.SourceURL
}

func (im *Importer) failure(err error) *Result {
	im.log.Error("Import failed", err, nil)
	return &Result{Error: err.Error()}
}
