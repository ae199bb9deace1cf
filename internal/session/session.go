package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finance-tracker/internal/client"
	"finance-tracker/internal/dto"
	"finance-tracker/internal/ledger"

	"github.com/shopspring/decimal"
)

// DefaultRecurrenceInterval is how often due recurring transactions are
// materialized while a session is active.
const DefaultRecurrenceInterval = 24 * time.Hour

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrMFARequired      = errors.New("one-time code required")
	ErrLoginRejected    = errors.New("login rejected")
)

// API is the subset of the backend a session needs.
type API interface {
	Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error)
	Logout(ctx context.Context, token string) error
	ListTransactions(ctx context.Context, token string) ([]ledger.Transaction, error)
	CreateTransaction(ctx context.Context, token string, t ledger.Transaction) (ledger.Transaction, error)
	DeleteTransaction(ctx context.Context, token, id string) error
}

type Config struct {
	IdleTimeout        time.Duration
	RecurrenceInterval time.Duration
	BudgetThreshold    decimal.Decimal
	// OnEnd is called once every time an active session ends.
	OnEnd  func(Reason)
	Now    func() time.Time
	Logger *slog.Logger
}

type Credentials struct {
	Token string
	User  dto.UserIdentity
}

// View is a filtered and sorted projection of the store with its aggregates.
type View struct {
	Transactions []ledger.Transaction
	Summary      ledger.Summary
}

// Session owns the credentials, transaction store, idle guard and recurrence
// schedule of one logged-in user.
type Session struct {
	api    API
	cfg    Config
	logger *slog.Logger

	store      *Store
	guard      *Guard
	recurrence *PeriodicTask

	// mu guards creds and orders store updates against session teardown.
	mu    sync.Mutex
	creds *Credentials

	// ops serializes backend calls that mutate the store.
	ops sync.Mutex
}

func New(api API, cfg Config) *Session {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.RecurrenceInterval <= 0 {
		cfg.RecurrenceInterval = DefaultRecurrenceInterval
	}
	if cfg.BudgetThreshold.IsZero() {
		cfg.BudgetThreshold = ledger.DefaultBudgetThreshold
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Session{
		api:    api,
		cfg:    cfg,
		logger: cfg.Logger,
		store:  NewStore(),
	}
	s.guard = NewGuard(cfg.IdleTimeout, s.teardown)
	s.recurrence = NewPeriodicTask(cfg.RecurrenceInterval, func(ctx context.Context) {
		s.CheckRecurring(ctx)
	})
	return s
}

// Login authenticates, loads the user's transactions and starts the idle
// guard and recurrence schedule. It returns ErrMFARequired, with the backend
// response, when the account needs a one-time code. If the first fetch fails
// the session is ended again and credentials are discarded.
func (s *Session) Login(ctx context.Context, email, password, otp string) (dto.AuthResponse, error) {
	resp, err := s.api.Login(ctx, dto.LoginRequest{Email: email, Password: password, OTP: otp})
	if err != nil {
		return resp, err
	}
	if resp.MFARequired {
		return resp, ErrMFARequired
	}
	if !resp.Success || resp.Token == "" {
		return resp, fmt.Errorf("%w: %s", ErrLoginRejected, resp.Message)
	}

	if s.Active() {
		s.guard.End(ReasonLogout)
	}

	creds := &Credentials{Token: resp.Token}
	if resp.User != nil {
		creds.User = *resp.User
	}
	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()

	s.guard.Start()
	if err := s.Refresh(ctx); err != nil {
		// a session only counts as started once the first fetch succeeds
		s.guard.End(ReasonLoginFailed)
		return resp, err
	}
	s.recurrence.Start()

	s.logger.InfoContext(ctx, "session started", "user_id", creds.User.ID, "transactions", s.store.Len())
	return resp, nil
}

func (s *Session) Active() bool {
	return s.guard.State() == Active && s.token() != ""
}

func (s *Session) User() (dto.UserIdentity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return dto.UserIdentity{}, false
	}
	return s.creds.User, true
}

func (s *Session) Store() *Store {
	return s.store
}

func (s *Session) State() State {
	return s.guard.State()
}

// Activity forwards a user interaction to the idle guard.
func (s *Session) Activity(a Activity) bool {
	return s.guard.Touch(a)
}

// Refresh replaces the store with the backend's current list of transactions.
func (s *Session) Refresh(ctx context.Context) error {
	token := s.token()
	if token == "" {
		return ErrNotAuthenticated
	}

	s.ops.Lock()
	defer s.ops.Unlock()

	txs, err := s.api.ListTransactions(ctx, token)
	if err != nil {
		return s.fail(ctx, "list transactions", err)
	}

	s.withSession(token, func() { s.store.Replace(txs) })
	return nil
}

// RefreshAsync runs Refresh in the background and reports the number of
// transactions loaded.
func (s *Session) RefreshAsync(ctx context.Context) <-chan client.Result[int] {
	return client.Async(ctx, func(ctx context.Context) (int, error) {
		if err := s.Refresh(ctx); err != nil {
			return 0, err
		}
		return s.store.Len(), nil
	})
}

// Add validates and submits a new transaction. The record is held as pending
// until the backend confirms it and is discarded if the request fails.
func (s *Session) Add(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error) {
	token := s.token()
	if token == "" {
		return ledger.Transaction{}, ErrNotAuthenticated
	}
	if err := ledger.Validate(&t, ledger.DateOf(s.cfg.Now())); err != nil {
		return ledger.Transaction{}, err
	}

	s.ops.Lock()
	defer s.ops.Unlock()

	key := s.store.AddPending(t)
	created, err := s.api.CreateTransaction(ctx, token, t)
	if err != nil {
		s.store.Discard(key)
		return ledger.Transaction{}, s.fail(ctx, "create transaction", err)
	}

	s.withSession(token, func() { s.store.Confirm(key, created) })
	return created, nil
}

// OverBudget reports whether t should raise a budget notice.
func (s *Session) OverBudget(t ledger.Transaction) bool {
	return ledger.ExceedsBudget(t, s.cfg.BudgetThreshold)
}

// Delete removes a transaction on the backend and then from the store.
func (s *Session) Delete(ctx context.Context, id string) error {
	token := s.token()
	if token == "" {
		return ErrNotAuthenticated
	}

	s.ops.Lock()
	defer s.ops.Unlock()

	if err := s.api.DeleteTransaction(ctx, token, id); err != nil {
		return s.fail(ctx, "delete transaction", err)
	}
	s.withSession(token, func() { s.store.Remove(id) })
	return nil
}

// CheckRecurring materializes every due recurring template once.
func (s *Session) CheckRecurring(ctx context.Context) ledger.Report {
	token := s.token()
	if token == "" {
		return ledger.Report{}
	}

	s.ops.Lock()
	defer s.ops.Unlock()

	persist := ledger.PersisterFunc(func(ctx context.Context, occ ledger.Transaction) (ledger.Transaction, error) {
		return s.api.CreateTransaction(ctx, token, occ)
	})
	report := ledger.MaterializeDue(ctx, s.store.Snapshot(), ledger.DateOf(s.cfg.Now()), persist)

	s.withSession(token, func() {
		for _, m := range report.Created {
			s.store.ApplyOccurrence(m)
		}
	})

	for _, f := range report.Failed {
		s.logger.ErrorContext(ctx, "failed to materialize recurring transaction",
			"parent_id", f.ParentID, "error", f.Err)
	}
	for _, e := range report.Invalid {
		s.logger.WarnContext(ctx, "recurring transaction has an invalid schedule",
			"transaction_id", e.TransactionID, "error", e.Err)
	}
	if len(report.Created) > 0 {
		s.logger.InfoContext(ctx, "materialized recurring transactions", "count", len(report.Created))
	}

	for _, f := range report.Failed {
		if errors.Is(f.Err, client.ErrUnauthorized) {
			s.guard.End(ReasonUnauthenticated)
			break
		}
	}
	return report
}

// View filters, sorts and aggregates the current store. Aggregates cover the
// filtered records; malformed records are listed in Summary.Issues.
func (s *Session) View(f ledger.FilterState, order ledger.SortState) (View, error) {
	if !s.Active() {
		return View{}, ErrNotAuthenticated
	}

	filtered := ledger.Filter(s.store.Snapshot(), f, s.cfg.Now())
	summary, err := ledger.Summarize(filtered)
	if err != nil && !errors.Is(err, ledger.ErrDataQuality) {
		return View{}, err
	}
	return View{
		Transactions: ledger.Sort(filtered, order),
		Summary:      summary,
	}, nil
}

// Logout tells the backend to revoke the token and ends the session locally
// even when that call fails.
func (s *Session) Logout(ctx context.Context) {
	token := s.token()
	if token == "" {
		return
	}
	if err := s.api.Logout(ctx, token); err != nil {
		s.logger.WarnContext(ctx, "logout request failed", "error", err)
	}
	s.guard.End(ReasonLogout)
}

// Unload discards credentials unconditionally, as when the client exits.
func (s *Session) Unload() {
	s.guard.Unload()
}

func (s *Session) token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return ""
	}
	return s.creds.Token
}

// withSession applies fn only if the session that issued token is still current.
func (s *Session) withSession(token string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil || s.creds.Token != token {
		return
	}
	fn()
}

func (s *Session) fail(ctx context.Context, op string, err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		s.logger.WarnContext(ctx, "backend rejected credentials", "operation", op)
		s.guard.End(ReasonUnauthenticated)
		return fmt.Errorf("%s: %w", op, errors.Join(ErrNotAuthenticated, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Session) teardown(r Reason) {
	s.mu.Lock()
	s.creds = nil
	s.store.Clear()
	s.mu.Unlock()

	s.recurrence.Cancel()
	s.logger.Info("session ended", "reason", string(r))
	if s.cfg.OnEnd != nil {
		s.cfg.OnEnd(r)
	}
}
