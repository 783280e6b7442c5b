// Package service orchestrates the statement ingestion pipeline: tokenize,
// detect, classify, map, canonicalize, fingerprint, dedup, persist.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/canonical"
	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/dedup"
	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/mapper"
	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/normalizer"
	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/repository"
	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/sniffer"
	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/tokenizer"
	"github.com/ledgerlift/ledgerlift/pkg/metrics"
	"github.com/ledgerlift/ledgerlift/pkg/money"
)

// PreviewResult is what the upload form renders before the user confirms a
// column mapping: detected headers, up to 20 sample rows, and the inferred
// account context.
type PreviewResult struct {
	Headers   []string                 `json:"headers"`
	Rows      [][]string               `json:"rows"`
	RowCount  int                      `json:"row_count"`
	Detection canonical.AccountContext `json:"detection"`
	Suggested mapper.Mapping           `json:"suggested_mapping"`
}

// ImportResult summarizes one completed import batch.
type ImportResult struct {
	JobID                  uuid.UUID                `json:"job_id"`
	ImportedCount          int                      `json:"imported_count"`
	SkippedDuplicatesCount int                      `json:"skipped_duplicates_count"`
	SkippedInvalidCount    int                      `json:"skipped_invalid_count"`
	Detection              canonical.AccountContext `json:"detection"`
}

// IngestService orchestrates statement analysis and import operations.
type IngestService struct {
	repo    repository.IngestRepository
	logger  *slog.Logger
	metrics *metrics.IngestMetrics
	workers int
}

// NewIngestService creates a new ingest service.
func NewIngestService(repo repository.IngestRepository, logger *slog.Logger) *IngestService {
	return &IngestService{
		repo:    repo,
		logger:  logger,
		workers: runtime.GOMAXPROCS(0),
	}
}

// WithMetrics adds Prometheus instrumentation to the service.
func (s *IngestService) WithMetrics(m *metrics.IngestMetrics) *IngestService {
	s.metrics = m
	return s
}

// Preview runs the read-only front half of the pipeline over an uploaded file:
// tokenize, locate the header and metadata block, classify the account, and
// propose a column mapping. An explicit account context override skips
// classification.
func (s *IngestService) Preview(ctx context.Context, rawText, filename string, override *canonical.AccountContext) (*PreviewResult, error) {
	layout, detection, err := s.analyze(rawText, filename, override)
	if err != nil {
		return nil, err
	}

	s.logger.Info("statement previewed",
		slog.String("filename", filename),
		slog.String("account_id", detection.AccountID),
		slog.Int("rows", len(layout.Rows)),
		slog.Int("metadata_keys", layout.Metadata.Len()),
	)

	return &PreviewResult{
		Headers:   layout.Headers,
		Rows:      layout.Preview,
		RowCount:  len(layout.Rows),
		Detection: detection,
		Suggested: mapper.Guess(layout.Headers),
	}, nil
}

// Canonicalize converts data rows into canonical transactions using a
// confirmed column mapping. The mapping must pass validation first; a failing
// mapping is a caller precondition violation, to be fixed by re-prompting.
func (s *IngestService) Canonicalize(
	rows [][]string,
	headers []string,
	mapping mapper.Mapping,
	acct canonical.AccountContext,
	userID string,
) ([]canonical.Transaction, int, error) {
	if err := mapping.Validate(headers); err != nil {
		return nil, 0, fmt.Errorf("column mapping not usable: %w", err)
	}
	txns, skipped := s.canonicalizeParallel(rows, headers, mapping, acct, userID)
	return txns, skipped, nil
}

// Import runs the full pipeline over an uploaded file and persists the
// deduplicated batch. The dedup seed is read as a consistent snapshot before
// any row is evaluated; the storage layer's unique constraints and per-account
// lock close the race window for concurrent imports of the same scope.
func (s *IngestService) Import(
	ctx context.Context,
	userID string,
	rawText, filename string,
	mapping mapper.Mapping,
	override *canonical.AccountContext,
) (*ImportResult, error) {
	layout, detection, err := s.analyze(rawText, filename, override)
	if err != nil {
		s.countFailure()
		return nil, err
	}

	if mapping == nil {
		mapping = mapper.Guess(layout.Headers)
	}
	if err := mapping.Validate(layout.Headers); err != nil {
		s.countFailure()
		return nil, fmt.Errorf("column mapping not usable: %w", err)
	}

	txns, skippedInvalid := s.canonicalizeParallel(layout.Rows, layout.Headers, mapping, detection, userID)

	seen, err := s.seedSeenSet(ctx, userID, detection.AccountID)
	if err != nil {
		s.countFailure()
		return nil, err
	}
	result := dedup.Partition(txns, seen)

	job := &repository.ImportJob{UserID: userID, AccountID: detection.AccountID, FileName: filename}
	if err := s.repo.CreateImportJob(ctx, job); err != nil {
		s.countFailure()
		return nil, err
	}

	inserted, err := s.repo.InsertTransactions(ctx, userID, detection.AccountID, result.Imported)
	if err != nil {
		errMsg := err.Error()
		if finishErr := s.repo.FinishImportJob(ctx, job.ID, repository.JobFailed,
			0, result.SkippedDuplicatesCount, skippedInvalid, &errMsg); finishErr != nil {
			s.logger.Warn("failed to mark import job failed", slog.Any("error", finishErr))
		}
		s.countFailure()
		return nil, fmt.Errorf("failed to persist import batch: %w", err)
	}
	if inserted != result.ImportedCount {
		// A concurrent import won the unique-constraint race for some rows.
		s.logger.Warn("persisted fewer rows than deduped batch",
			slog.Int("deduped", result.ImportedCount),
			slog.Int("inserted", inserted),
		)
	}

	if err := s.repo.FinishImportJob(ctx, job.ID, repository.JobSucceeded,
		result.ImportedCount, result.SkippedDuplicatesCount, skippedInvalid, nil); err != nil {
		s.logger.Warn("failed to finish import job", slog.Any("error", err))
	}

	s.countOutcome(detection.Institution, result, skippedInvalid)

	amounts := make([]decimal.Decimal, len(result.Imported))
	for i, t := range result.Imported {
		amounts[i] = t.Amount
	}
	s.logger.Info("import completed",
		slog.String("job_id", job.ID.String()),
		slog.String("account_id", detection.AccountID),
		slog.Int("imported", result.ImportedCount),
		slog.Int("duplicates", result.SkippedDuplicatesCount),
		slog.Int("invalid", skippedInvalid),
		slog.String("total_amount", money.Format(money.Sum(amounts), money.USD)),
	)

	return &ImportResult{
		JobID:                  job.ID,
		ImportedCount:          result.ImportedCount,
		SkippedDuplicatesCount: result.SkippedDuplicatesCount,
		SkippedInvalidCount:    skippedInvalid,
		Detection:              detection,
	}, nil
}

// analyze runs the read-only front half of the pipeline: tokenize, detect the
// layout, classify the account (unless overridden).
func (s *IngestService) analyze(rawText, filename string, override *canonical.AccountContext) (*sniffer.Layout, canonical.AccountContext, error) {
	lines, err := tokenizer.Tokenize(rawText)
	if err != nil {
		return nil, canonical.AccountContext{}, fmt.Errorf("failed to tokenize %q: %w", filename, err)
	}

	layout, err := sniffer.DetectLayout(lines)
	if err != nil {
		return nil, canonical.AccountContext{}, fmt.Errorf("failed to detect layout of %q: %w", filename, err)
	}

	detection := sniffer.Classify(rawText, filename, layout)
	if override != nil {
		detection = *override
	}
	return layout, detection, nil
}

// seedSeenSet loads the persisted dedup keys for the user/account scope into
// a fresh seen set.
func (s *IngestService) seedSeenSet(ctx context.Context, userID, accountID string) (*dedup.SeenSet, error) {
	keys, err := s.repo.ListDedupKeys(ctx, userID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dedup snapshot: %w", err)
	}

	seen := dedup.NewSeenSet()
	for _, key := range keys {
		if key.SourceRef != nil && *key.SourceRef != "" {
			seen.AddSourceRefKey(dedup.SourceRefKey(userID, accountID, key.Institution, canonical.SourceCSV, *key.SourceRef))
		}
		seen.AddFingerprintKey(dedup.FingerprintKey(userID, accountID, key.Fingerprint))
	}
	return seen, nil
}

// canonicalizeParallel splits the row set into contiguous chunks and
// canonicalizes them concurrently. Fingerprinting is a pure per-row function,
// so parallelism cannot change any fingerprint; chunk order is preserved on
// merge so the dedup scan still observes original batch order.
func (s *IngestService) canonicalizeParallel(
	rows [][]string,
	headers []string,
	mapping mapper.Mapping,
	acct canonical.AccountContext,
	userID string,
) ([]canonical.Transaction, int) {
	workers := s.workers
	if workers < 1 {
		workers = 1
	}
	if len(rows) < workers*16 {
		// Not worth fanning out for small files.
		return normalizer.Canonicalize(rows, headers, mapping, acct, userID)
	}

	type chunkResult struct {
		txns    []canonical.Transaction
		skipped int
	}

	chunkSize := (len(rows) + workers - 1) / workers
	results := make([]chunkResult, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		if start >= len(rows) {
			break
		}
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		wg.Add(1)
		go func(idx int, chunk [][]string) {
			defer wg.Done()
			txns, skipped := normalizer.Canonicalize(chunk, headers, mapping, acct, userID)
			results[idx] = chunkResult{txns: txns, skipped: skipped}
		}(w, rows[start:end])
	}
	wg.Wait()

	var (
		txns    []canonical.Transaction
		skipped int
	)
	for _, r := range results {
		txns = append(txns, r.txns...)
		skipped += r.skipped
	}
	return txns, skipped
}

func (s *IngestService) countOutcome(inst canonical.Institution, result canonical.DedupResult, invalid int) {
	if s.metrics == nil {
		return
	}
	label := string(inst)
	s.metrics.ImportsTotal.WithLabelValues(label).Inc()
	s.metrics.RowsImported.WithLabelValues(label).Add(float64(result.ImportedCount))
	s.metrics.RowsDuplicate.WithLabelValues(label).Add(float64(result.SkippedDuplicatesCount))
	s.metrics.RowsInvalid.WithLabelValues(label).Add(float64(invalid))
}

func (s *IngestService) countFailure() {
	if s.metrics != nil {
		s.metrics.ImportsFailed.Inc()
	}
}
