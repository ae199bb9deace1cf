package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/export"
	"finance-tracker/internal/ledger"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"
	"finance-tracker/internal/validation"

	"github.com/google/uuid"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrParentNotFound      = errors.New("recurring parent transaction not found")
	ErrNotRecurringParent  = errors.New("parent is not a recurring transaction")
	ErrAlreadyMaterialized = errors.New("occurrence already materialized")
	ErrInvalidQuery        = errors.New("invalid filter or sort parameters")
)

type TransactionService struct {
	repo     repositories.TransactionRepositoryInterface
	audit    AuditServiceInterface
	notifier NotifierInterface
	metrics  MetricsRecorderInterface
	logger   *slog.Logger
	now      func() time.Time
}

func NewTransactionService(
	repo repositories.TransactionRepositoryInterface,
	audit AuditServiceInterface,
	notifier NotifierInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) TransactionServiceInterface {
	return &TransactionService{
		repo:     repo,
		audit:    audit,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// List returns the user's transactions filtered and sorted by query. The
// default order is newest first.
func (s *TransactionService) List(ctx context.Context, userID uuid.UUID, query dto.TransactionQuery) ([]ledger.Transaction, error) {
	filter, order, err := query.Filter()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := ledger.Filter(models.TransactionsToLedger(rows), filter, s.now().UTC())
	return ledger.Sort(view, order), nil
}

// Create validates and stores a transaction. With a parent ID the request is
// an occurrence of a recurring template: it is stored together with the
// template's due-date advance, and only once per due date.
func (s *TransactionService) Create(ctx context.Context, userID uuid.UUID, req *dto.CreateTransactionRequest, ipAddress, userAgent string) (ledger.Transaction, error) {
	lt := requestToLedger(req)

	// Validate rejects dates after "today"; a client a day ahead of UTC may still record its today.
	today := ledger.DateOf(s.now().UTC().Add(validation.FutureDateTolerance))
	if err := ledger.Validate(&lt, today); err != nil {
		return ledger.Transaction{}, err
	}

	var (
		row *models.Transaction
		err error
	)
	if lt.ParentID != "" {
		row, err = s.createOccurrence(ctx, userID, lt)
	} else {
		row, err = s.createTransaction(ctx, userID, lt)
	}
	if err != nil {
		s.metrics.IncrementCounter("transaction_created", map[string]string{"status": "failed"})
		return ledger.Transaction{}, err
	}

	saved := row.ToLedger()
	s.metrics.IncrementCounter("transaction_created", map[string]string{"status": "success", "type": string(saved.Type)})

	if row.ParentID != nil {
		if err := s.audit.LogOccurrenceCreated(userID, *row.ParentID, row.ID, ipAddress, userAgent); err != nil {
			s.logger.ErrorContext(ctx, "failed to audit occurrence", "error", err, "transaction_id", row.ID)
		}
	} else if err := s.audit.LogTransactionCreated(userID, row.ID, ipAddress, userAgent); err != nil {
		s.logger.ErrorContext(ctx, "failed to audit transaction", "error", err, "transaction_id", row.ID)
	}

	if err := s.notifier.TransactionCreated(ctx, userID, saved); err != nil {
		s.logger.WarnContext(ctx, "failed to publish transaction event", "error", err, "transaction_id", row.ID)
	}

	return saved, nil
}

func (s *TransactionService) createTransaction(ctx context.Context, userID uuid.UUID, lt ledger.Transaction) (*models.Transaction, error) {
	row, err := models.TransactionFromLedger(userID, lt)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *TransactionService) createOccurrence(ctx context.Context, userID uuid.UUID, lt ledger.Transaction) (*models.Transaction, error) {
	parentID, err := uuid.Parse(lt.ParentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParentNotFound, err)
	}

	parent, err := s.repo.GetByID(ctx, userID, parentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, ErrParentNotFound
		}
		return nil, err
	}
	if !parent.IsTemplate() {
		return nil, ErrNotRecurringParent
	}

	// the occurrence follows its template's schedule
	rt := ledger.RecurrenceType(parent.RecurrenceType)
	next, ok := ledger.NextDueDate(lt.Date, rt)
	if !ok {
		return nil, ErrNotRecurringParent
	}
	lt.Recurrence = &ledger.Recurrence{Type: rt, NextDueDate: next}

	row, err := models.TransactionFromLedger(userID, lt)
	if err != nil {
		return nil, err
	}

	err = s.repo.CreateOccurrence(ctx, row, lt.Date.Time(), next.Time())
	switch {
	case errors.Is(err, repositories.ErrAlreadyMaterialized):
		return nil, ErrAlreadyMaterialized
	case errors.Is(err, repositories.ErrNotRecurringParent):
		return nil, ErrNotRecurringParent
	case errors.Is(err, repositories.ErrTransactionNotFound):
		return nil, ErrParentNotFound
	case err != nil:
		return nil, err
	}
	return row, nil
}

// Delete removes one of the user's transactions. Deleting a template leaves
// its occurrences in place.
func (s *TransactionService) Delete(ctx context.Context, userID, transactionID uuid.UUID, ipAddress, userAgent string) error {
	if err := s.repo.Delete(ctx, userID, transactionID); err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return ErrTransactionNotFound
		}
		return err
	}

	s.metrics.IncrementCounter("transaction_deleted", nil)
	if err := s.audit.LogTransactionDeleted(userID, transactionID, ipAddress, userAgent); err != nil {
		s.logger.ErrorContext(ctx, "failed to audit deletion", "error", err, "transaction_id", transactionID)
	}
	return nil
}

// Summary aggregates the filtered view. Records with malformed data are
// reported in the response rather than failing the request.
func (s *TransactionService) Summary(ctx context.Context, userID uuid.UUID, query dto.TransactionQuery) (*dto.SummaryResponse, error) {
	view, err := s.List(ctx, userID, query)
	if err != nil {
		return nil, err
	}

	summary, err := ledger.Summarize(view)
	if err != nil && !errors.Is(err, ledger.ErrDataQuality) {
		return nil, err
	}
	if len(summary.Issues) > 0 {
		s.logger.WarnContext(ctx, "summary computed with data issues",
			"user_id", userID,
			"issues", len(summary.Issues))
	}

	return &dto.SummaryResponse{Summary: summary, Count: len(view)}, nil
}

// Export writes the filtered and sorted view as CSV
func (s *TransactionService) Export(ctx context.Context, userID uuid.UUID, query dto.TransactionQuery, w io.Writer) error {
	view, err := s.List(ctx, userID, query)
	if err != nil {
		return err
	}
	start := s.now()
	if err := export.WriteCSV(w, view); err != nil {
		return fmt.Errorf("failed to export transactions: %w", err)
	}
	s.metrics.RecordProcessingTime("transaction_export", s.now().Sub(start))
	return nil
}

func requestToLedger(req *dto.CreateTransactionRequest) ledger.Transaction {
	lt := ledger.Transaction{
		Type:        ledger.Type(req.Type),
		Amount:      ledger.NewAmount(req.Amount),
		Category:    req.Category,
		Date:        ledger.ParseDate(req.Date),
		Description: req.Description,
		ParentID:    req.ParentID,
	}
	if req.IsRecurring {
		r := &ledger.Recurrence{Type: ledger.RecurrenceType(req.RecurrenceType)}
		if req.NextDueDate != "" {
			r.NextDueDate = ledger.ParseDate(req.NextDueDate)
		}
		lt.Recurrence = r
	}
	return lt
}
