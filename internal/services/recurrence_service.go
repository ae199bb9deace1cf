package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finance-tracker/internal/ledger"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
)

const defaultRecurrenceBatchSize = 500

// RecurrenceService is the server-side counterpart of the client's recurrence
// check. Both paths go through the same conditional parent advance, so an
// occurrence is stored once no matter which side gets there first.
type RecurrenceService struct {
	repo      repositories.TransactionRepositoryInterface
	audit     AuditServiceInterface
	notifier  NotifierInterface
	metrics   MetricsRecorderInterface
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

func NewRecurrenceService(
	repo repositories.TransactionRepositoryInterface,
	audit AuditServiceInterface,
	notifier NotifierInterface,
	metrics MetricsRecorderInterface,
	batchSize int,
	logger *slog.Logger,
) RecurrenceServiceInterface {
	if batchSize <= 0 {
		batchSize = defaultRecurrenceBatchSize
	}
	return &RecurrenceService{
		repo:      repo,
		audit:     audit,
		notifier:  notifier,
		metrics:   metrics,
		batchSize: batchSize,
		logger:    logger,
		now:       time.Now,
	}
}

// ProcessDue creates at most one occurrence per due template. Templates
// already advanced by a client are skipped; other failures are joined into
// the returned error and do not stop the batch.
func (s *RecurrenceService) ProcessDue(ctx context.Context, today ledger.Date) (ledger.Report, error) {
	start := s.now()

	rows, err := s.repo.ListDueRecurring(ctx, today.Time(), s.batchSize)
	if err != nil {
		return ledger.Report{}, fmt.Errorf("failed to list due templates: %w", err)
	}

	owners := make(map[string]uuid.UUID, len(rows))
	for _, row := range rows {
		owners[row.ID.String()] = row.UserID
	}

	persist := ledger.PersisterFunc(func(ctx context.Context, occ ledger.Transaction) (ledger.Transaction, error) {
		row, err := models.TransactionFromLedger(owners[occ.ParentID], occ)
		if err != nil {
			return ledger.Transaction{}, err
		}
		if err := s.repo.CreateOccurrence(ctx, row, occ.Date.Time(), occ.Recurrence.NextDueDate.Time()); err != nil {
			return ledger.Transaction{}, err
		}
		return row.ToLedger(), nil
	})

	report := ledger.MaterializeDue(ctx, models.TransactionsToLedger(rows), today, persist)

	skipped := 0
	failed := report.Failed[:0]
	for _, f := range report.Failed {
		if errors.Is(f.Err, repositories.ErrAlreadyMaterialized) {
			skipped++
			continue
		}
		s.logger.ErrorContext(ctx, "Failed to materialize occurrence",
			"parent_id", f.ParentID,
			"error", f.Err)
		failed = append(failed, f)
	}
	report.Failed = failed

	for _, inv := range report.Invalid {
		s.logger.WarnContext(ctx, "Skipping template with invalid schedule",
			"parent_id", inv.TransactionID,
			"error", inv.Err)
	}

	for _, m := range report.Created {
		s.auditOccurrence(ctx, owners[m.ParentID], m)
	}
	if len(report.Created) > 0 {
		if err := s.notifier.OccurrencesCreated(ctx, report.Created); err != nil {
			s.logger.WarnContext(ctx, "failed to publish occurrence events", "error", err)
		}
	}

	s.metrics.RecordGauge("recurrence_due_templates", float64(len(rows)), nil)
	s.metrics.RecordGauge("recurrence_last_run", float64(len(report.Created)), map[string]string{"status": "created"})
	s.metrics.RecordGauge("recurrence_last_run", float64(skipped), map[string]string{"status": "skipped"})
	s.metrics.RecordGauge("recurrence_last_run", float64(len(report.Failed)), map[string]string{"status": "failed"})
	s.metrics.RecordProcessingTime("recurrence_run", s.now().Sub(start))

	s.logger.InfoContext(ctx, "Recurring transaction processing complete",
		"date", today.String(),
		"due", len(rows),
		"created", len(report.Created),
		"skipped", skipped,
		"failed", len(report.Failed),
		"invalid", len(report.Invalid))

	return report, report.Err()
}

// Run processes due templates immediately and then on every tick until ctx
// is cancelled.
func (s *RecurrenceService) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid recurrence interval %s", interval)
	}

	s.runOnce(ctx, s.now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Recurrence worker stopped", "reason", ctx.Err())
			return nil
		case now := <-ticker.C:
			s.runOnce(ctx, now)
		}
	}
}

func (s *RecurrenceService) runOnce(ctx context.Context, now time.Time) {
	if _, err := s.ProcessDue(ctx, ledger.DateOf(now.UTC())); err != nil {
		s.logger.ErrorContext(ctx, "Recurring transaction processing failed", "error", err)
	}
}

func (s *RecurrenceService) auditOccurrence(ctx context.Context, userID uuid.UUID, m ledger.Materialized) {
	parentID, err := uuid.Parse(m.ParentID)
	if err != nil {
		return
	}
	occurrenceID, err := uuid.Parse(m.Occurrence.ID)
	if err != nil {
		return
	}
	if err := s.audit.LogOccurrenceCreated(userID, parentID, occurrenceID, "", ""); err != nil {
		s.logger.ErrorContext(ctx, "failed to audit occurrence", "error", err, "parent_id", m.ParentID)
	}
}
