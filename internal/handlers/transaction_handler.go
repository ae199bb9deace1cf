package handlers

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/errors"
	"finance-tracker/internal/export"
	"finance-tracker/internal/ledger"
	"finance-tracker/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	transactionService services.TransactionServiceInterface
	now                func() time.Time
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(transactionService services.TransactionServiceInterface) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		now:                time.Now,
	}
}

// ListTransactions returns the user's transactions
// @Summary List transactions
// @Description Filter and sort the user's transactions. Without parameters the list is newest first.
// @Tags Transactions
// @Security BearerAuth
// @Produce json
// @Param category query string false "Exact category, or all"
// @Param period query string false "Time window" Enums(7, 30, 90, 365, custom)
// @Param start query string false "Custom range start (YYYY-MM-DD)"
// @Param end query string false "Custom range end (YYYY-MM-DD)"
// @Param sort query string false "Sort field" Enums(date, amount, type)
// @Param direction query string false "Sort direction" Enums(asc, desc)
// @Success 200 {array} ledger.Transaction "Transactions"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_008 - invalid filter or sort"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - missing or invalid authentication"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001"
// @Router /api/transactions [get]
func (h *TransactionHandler) ListTransactions(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	query, err := bindTransactionQuery(c)
	if err != nil {
		return SendError(c, errors.ValidationInvalidFilters, errors.WithDetails(err.Error()))
	}

	txs, err := h.transactionService.List(c.Request().Context(), userID, query)
	if err != nil {
		return h.sendQueryError(c, err)
	}
	if txs == nil {
		txs = []ledger.Transaction{}
	}

	return c.JSON(http.StatusOK, txs)
}

// CreateTransaction records a transaction
// @Summary Create transaction
// @Description Record an income or expense. With parentId the body is a materialized occurrence of a recurring template and is accepted once per due date.
// @Tags Transactions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateTransactionRequest true "Transaction"
// @Success 201 {object} ledger.Transaction "Created transaction"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_* or TRANSACTION_002/003/006/007"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002"
// @Failure 404 {object} errors.ErrorResponse "TRANSACTION_001 - parent not found"
// @Failure 409 {object} errors.ErrorResponse "TRANSACTION_004 - occurrence already materialized"
// @Failure 422 {object} errors.ErrorResponse "TRANSACTION_005 - parent is not recurring"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001"
// @Router /api/transactions [post]
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	created, err := h.transactionService.Create(c.Request().Context(), userID, &req, getClientIP(c), c.Request().UserAgent())
	if err != nil {
		var verr *ledger.ValidationError
		switch {
		case stderrors.As(err, &verr):
			return sendLedgerValidationError(c, verr)
		case stderrors.Is(err, services.ErrAlreadyMaterialized):
			return SendError(c, errors.TransactionAlreadyMaterialized)
		case stderrors.Is(err, services.ErrParentNotFound):
			return SendError(c, errors.TransactionNotFound, errors.WithDetails("Recurring parent transaction not found"))
		case stderrors.Is(err, services.ErrNotRecurringParent):
			return SendError(c, errors.TransactionValidationFailed, errors.WithDetails(err.Error()))
		}
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusCreated, created)
}

// DeleteTransaction removes a transaction
// @Summary Delete transaction
// @Description Delete one of the user's transactions. Occurrences of a deleted template are kept.
// @Tags Transactions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Transaction ID (UUID)"
// @Success 200 {object} dto.DeleteTransactionResponse "Deleted"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_003 - invalid ID"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002"
// @Failure 404 {object} errors.ErrorResponse "TRANSACTION_001"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001"
// @Router /api/transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid transaction ID"))
	}

	err = h.transactionService.Delete(c.Request().Context(), userID, transactionID, getClientIP(c), c.Request().UserAgent())
	if err != nil {
		if stderrors.Is(err, services.ErrTransactionNotFound) {
			return SendError(c, errors.TransactionNotFound)
		}
		return SendSystemError(c, err)
	}

	return c.JSON(http.StatusOK, dto.DeleteTransactionResponse{Message: "Transaction deleted"})
}

// GetSummary aggregates the filtered view
// @Summary Transaction summary
// @Description Totals, cumulative series and category breakdown of the filtered view. Malformed records are listed as issues.
// @Tags Transactions
// @Security BearerAuth
// @Produce json
// @Param category query string false "Exact category, or all"
// @Param period query string false "Time window" Enums(7, 30, 90, 365, custom)
// @Param start query string false "Custom range start (YYYY-MM-DD)"
// @Param end query string false "Custom range end (YYYY-MM-DD)"
// @Success 200 {object} dto.SummaryResponse "Summary"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_008"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001"
// @Router /api/transactions/summary [get]
func (h *TransactionHandler) GetSummary(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	query, err := bindTransactionQuery(c)
	if err != nil {
		return SendError(c, errors.ValidationInvalidFilters, errors.WithDetails(err.Error()))
	}

	summary, err := h.transactionService.Summary(c.Request().Context(), userID, query)
	if err != nil {
		return h.sendQueryError(c, err)
	}

	return c.JSON(http.StatusOK, summary)
}

// ExportTransactions downloads the filtered and sorted view as CSV
// @Summary Export transactions
// @Description CSV with columns Date, Type, Category, Amount, Description. Expense amounts are negative.
// @Tags Transactions
// @Security BearerAuth
// @Produce text/csv
// @Param category query string false "Exact category, or all"
// @Param period query string false "Time window" Enums(7, 30, 90, 365, custom)
// @Param sort query string false "Sort field" Enums(date, amount, type)
// @Param direction query string false "Sort direction" Enums(asc, desc)
// @Success 200 {file} file "CSV file"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_008"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001"
// @Router /api/transactions/export [get]
func (h *TransactionHandler) ExportTransactions(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	query, err := bindTransactionQuery(c)
	if err != nil {
		return SendError(c, errors.ValidationInvalidFilters, errors.WithDetails(err.Error()))
	}

	// buffered so a failed export can still answer with an error body
	var buf bytes.Buffer
	if err := h.transactionService.Export(c.Request().Context(), userID, query, &buf); err != nil {
		return h.sendQueryError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", export.Filename(h.now())))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *TransactionHandler) sendQueryError(c echo.Context, err error) error {
	if stderrors.Is(err, services.ErrInvalidQuery) {
		return SendError(c, errors.ValidationInvalidFilters, errors.WithDetails(err.Error()))
	}
	return SendSystemError(c, err)
}

func bindTransactionQuery(c echo.Context) (dto.TransactionQuery, error) {
	var query dto.TransactionQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &query); err != nil {
		return dto.TransactionQuery{}, err
	}
	return query, nil
}

// sendLedgerValidationError reports every failing field. The code is taken
// from the first failure.
func sendLedgerValidationError(c echo.Context, verr *ledger.ValidationError) error {
	details := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		details = append(details, f.Error())
	}

	code := errors.TransactionValidationFailed
	if len(verr.Fields) > 0 {
		code = ledgerErrorCode(verr.Fields[0].Err)
	}
	return SendError(c, code, errors.WithDetails(details...))
}

func ledgerErrorCode(err error) errors.ErrorCode {
	switch {
	case stderrors.Is(err, ledger.ErrInvalidType):
		return errors.TransactionInvalidType
	case stderrors.Is(err, ledger.ErrInvalidAmount):
		return errors.TransactionInvalidAmount
	case stderrors.Is(err, ledger.ErrCategoryMismatch):
		return errors.TransactionCategoryMismatch
	case stderrors.Is(err, ledger.ErrMissingCategory):
		return errors.ValidationRequiredField
	case stderrors.Is(err, ledger.ErrInvalidDate), stderrors.Is(err, ledger.ErrFutureDate):
		return errors.ValidationInvalidDate
	case stderrors.Is(err, ledger.ErrMissingSchedule),
		stderrors.Is(err, ledger.ErrUnknownRecurrence),
		stderrors.Is(err, ledger.ErrInvalidDueDate):
		return errors.TransactionInvalidSchedule
	default:
		return errors.TransactionValidationFailed
	}
}
