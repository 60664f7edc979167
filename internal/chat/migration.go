package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"immigration-case-portal/backend/internal/models"
	"immigration-case-portal/backend/internal/repository"
	"immigration-case-portal/backend/internal/rtdb"
	"immigration-case-portal/backend/pkg/logger"
)

const (
	// migrationBatchSize bounds how many cases are processed concurrently
	migrationBatchSize = 10
	// migrationBatchPause spaces batches so the external store is not
	// hammered with parent reads
	migrationBatchPause = 100 * time.Millisecond
	// maxReportedResults caps per-case detail in the report; the summary
	// counters always cover every case
	maxReportedResults = 100
)

// Migration outcome per case
const (
	OutcomeMigrated        = "migrated"
	OutcomeAlreadyMigrated = "already_migrated"
	OutcomeNoOldChat       = "no_old_chat"
	OutcomeError           = "error"
)

// MigrateOptions narrows a run to a single case and toggles dry-run mode
type MigrateOptions struct {
	CaseID string
	DryRun bool
}

// CaseResult describes what happened to one case during a run
type CaseResult struct {
	CaseID          string `json:"caseId"`
	ReferenceNumber string `json:"referenceNumber"`
	Outcome         string `json:"outcome"`
	CanonicalRoomID string `json:"canonicalRoomId,omitempty"`
	MessagesCopied  int    `json:"messagesCopied"`
	Reason          string `json:"reason,omitempty"`
}

// Summary aggregates outcomes across the whole run
type Summary struct {
	Total           int `json:"total"`
	Migrated        int `json:"migrated"`
	AlreadyMigrated int `json:"alreadyMigrated"`
	NoOldChat       int `json:"noOldChat"`
	Errors          int `json:"errors"`
}

// Report is the full migration response. Results holds at most
// maxReportedResults entries; TotalResults is the true count.
type Report struct {
	DryRun       bool         `json:"dryRun"`
	Summary      Summary      `json:"summary"`
	Results      []CaseResult `json:"results"`
	TotalResults int          `json:"totalResults"`
	Elapsed      string       `json:"elapsed"`
}

// Migrator walks assigned cases and consolidates their legacy per-case
// rooms into canonical participant rooms. One case failing never aborts
// the run; its error lands in the report instead.
type Migrator struct {
	cases   repository.CaseRepository
	locator *RoomLocator
	merger  *Merger
	store   rtdb.Client
	log     *logger.Logger
}

// NewMigrator creates a migration orchestrator
func NewMigrator(cases repository.CaseRepository, locator *RoomLocator, merger *Merger, store rtdb.Client, log *logger.Logger) *Migrator {
	return &Migrator{cases: cases, locator: locator, merger: merger, store: store, log: log}
}

// Run executes a migration pass. With opts.CaseID set, only that case is
// processed. With opts.DryRun, outcomes are computed but nothing is
// written to the external store.
func (g *Migrator) Run(ctx context.Context, opts MigrateOptions) (*Report, error) {
	start := time.Now()
	report := &Report{DryRun: opts.DryRun, Results: []CaseResult{}}

	g.log.Info("chat migration started", "dry_run", opts.DryRun, "case_id", opts.CaseID)

	if opts.CaseID != "" {
		kase, err := g.cases.GetByID(ctx, opts.CaseID)
		if err != nil {
			g.record(report, CaseResult{
				CaseID:  opts.CaseID,
				Outcome: OutcomeError,
				Reason:  fmt.Sprintf("load case: %v", err),
			})
		} else {
			g.record(report, g.processCase(ctx, kase, opts.DryRun))
		}
		report.Elapsed = time.Since(start).String()
		return report, nil
	}

	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch, err := g.cases.ListAssigned(ctx, migrationBatchSize, offset)
		if err != nil {
			return nil, fmt.Errorf("list assigned cases: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		results := make([]CaseResult, len(batch))
		var wg sync.WaitGroup
		for i := range batch {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = g.processCase(ctx, &batch[i], opts.DryRun)
			}(i)
		}
		wg.Wait()

		for _, res := range results {
			g.record(report, res)
		}

		offset += len(batch)
		if len(batch) < migrationBatchSize {
			break
		}

		select {
		case <-time.After(migrationBatchPause):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	report.Elapsed = time.Since(start).String()
	g.log.Info("chat migration finished",
		"dry_run", opts.DryRun,
		"total", report.Summary.Total,
		"migrated", report.Summary.Migrated,
		"already_migrated", report.Summary.AlreadyMigrated,
		"no_old_chat", report.Summary.NoOldChat,
		"errors", report.Summary.Errors,
		"elapsed", report.Elapsed,
	)
	return report, nil
}

func (g *Migrator) processCase(ctx context.Context, kase *models.Case, dryRun bool) CaseResult {
	result := CaseResult{
		CaseID:          kase.ID,
		ReferenceNumber: kase.ReferenceNumber,
	}

	legacySnap, err := g.store.Get(ctx, rtdb.MessagesPath(LegacyRoomID(kase.ID)))
	if err != nil {
		result.Outcome = OutcomeError
		result.Reason = fmt.Sprintf("read legacy room: %v", err)
		return result
	}
	legacyMsgs, err := rtdb.DecodeMessages(legacySnap)
	if err != nil {
		result.Outcome = OutcomeError
		result.Reason = fmt.Sprintf("decode legacy room: %v", err)
		return result
	}
	if len(legacyMsgs) == 0 {
		result.Outcome = OutcomeNoOldChat
		return result
	}

	canonicalRoom, err := g.locator.Locate(ctx, kase)
	if err != nil {
		result.Outcome = OutcomeError
		result.Reason = fmt.Sprintf("locate canonical room: %v", err)
		return result
	}
	result.CanonicalRoomID = canonicalRoom

	pending, err := g.merger.PendingCopies(ctx, LegacyRoomID(kase.ID), canonicalRoom)
	if err != nil {
		result.Outcome = OutcomeError
		result.Reason = err.Error()
		return result
	}

	meta, err := g.merger.loadMetadata(ctx, canonicalRoom)
	if err != nil {
		result.Outcome = OutcomeError
		result.Reason = err.Error()
		return result
	}

	if pending == 0 && meta.HasCase(kase.ID) {
		result.Outcome = OutcomeAlreadyMigrated
		return result
	}

	if dryRun {
		result.Outcome = OutcomeMigrated
		result.MessagesCopied = pending
		return result
	}

	merged, err := g.merger.Merge(ctx, LegacyRoomID(kase.ID), canonicalRoom, rtdb.CaseRef{
		CaseID:          kase.ID,
		ReferenceNumber: kase.ReferenceNumber,
		AssignedAt:      kase.CreatedAt.UnixMilli(),
	})
	if err != nil {
		result.Outcome = OutcomeError
		result.Reason = err.Error()
		return result
	}

	result.Outcome = OutcomeMigrated
	result.MessagesCopied = merged.MessagesCopied
	return result
}

// record folds a per-case result into the report, honoring the result cap
func (g *Migrator) record(report *Report, res CaseResult) {
	report.Summary.Total++
	switch res.Outcome {
	case OutcomeMigrated:
		report.Summary.Migrated++
	case OutcomeAlreadyMigrated:
		report.Summary.AlreadyMigrated++
	case OutcomeNoOldChat:
		report.Summary.NoOldChat++
	case OutcomeError:
		report.Summary.Errors++
		g.log.Warn("case migration failed", "case_id", res.CaseID, "reason", res.Reason)
	}

	report.TotalResults++
	if len(report.Results) < maxReportedResults {
		report.Results = append(report.Results, res)
	}
}
