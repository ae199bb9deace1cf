package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"finance-tracker/internal/client"
	"finance-tracker/internal/dto"
	"finance-tracker/internal/ledger"

	"github.com/stretchr/testify/suite"
)

type fakeAPI struct {
	mu        sync.Mutex
	txs       []ledger.Transaction
	nextID    int
	loginResp dto.AuthResponse
	loginErr  error
	listErr   error
	createErr error
	deleteErr error
	created   []ledger.Transaction
	loggedOut []string
}

func (f *fakeAPI) Login(_ context.Context, req dto.LoginRequest) (dto.AuthResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAPI) Logout(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

func (f *fakeAPI) ListTransactions(_ context.Context, _ string) ([]ledger.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]ledger.Transaction, len(f.txs))
	copy(out, f.txs)
	return out, nil
}

func (f *fakeAPI) CreateTransaction(_ context.Context, _ string, t ledger.Transaction) (ledger.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return ledger.Transaction{}, f.createErr
	}
	f.nextID++
	t.ID = fmt.Sprintf("srv-%d", f.nextID)
	f.created = append(f.created, t)
	f.txs = append(f.txs, t)
	return t, nil
}

func (f *fakeAPI) DeleteTransaction(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteErr
}

func (f *fakeAPI) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

type SessionTestSuite struct {
	suite.Suite
	api     *fakeAPI
	session *Session
	now     time.Time

	endMu sync.Mutex
	ended []Reason
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}

func (s *SessionTestSuite) SetupTest() {
	s.now = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	s.ended = nil
	s.api = &fakeAPI{
		loginResp: dto.AuthResponse{
			Success: true,
			Token:   "token-1",
			User:    &dto.UserIdentity{ID: "u1", Email: "jane@example.com"},
		},
		txs: []ledger.Transaction{
			{ID: "1", Type: ledger.Income, Amount: ledger.MustAmount("3000"), Category: "Salary", Date: ledger.NewDate(2024, 3, 1)},
			{ID: "2", Type: ledger.Expense, Amount: ledger.MustAmount("45.50"), Category: "Food", Date: ledger.NewDate(2024, 3, 5)},
		},
	}
	s.session = s.newSession(time.Hour)
}

func (s *SessionTestSuite) TearDownTest() {
	s.session.Unload()
}

func (s *SessionTestSuite) newSession(idle time.Duration) *Session {
	return New(s.api, Config{
		IdleTimeout:        idle,
		RecurrenceInterval: time.Hour,
		Now:                func() time.Time { return s.now },
		OnEnd: func(r Reason) {
			s.endMu.Lock()
			defer s.endMu.Unlock()
			s.ended = append(s.ended, r)
		},
	})
}

func (s *SessionTestSuite) endReasons() []Reason {
	s.endMu.Lock()
	defer s.endMu.Unlock()
	return append([]Reason(nil), s.ended...)
}

func (s *SessionTestSuite) login() {
	_, err := s.session.Login(context.Background(), "jane@example.com", "Str0ng!Pass", "")
	s.Require().NoError(err)
}

func (s *SessionTestSuite) TestLogin_LoadsTransactions() {
	s.login()

	s.True(s.session.Active())
	s.Equal(Active, s.session.State())
	s.Len(s.session.Store().Snapshot(), 2)

	user, ok := s.session.User()
	s.True(ok)
	s.Equal("jane@example.com", user.Email)
}

func (s *SessionTestSuite) TestLogin_MFARequired() {
	s.api.loginResp = dto.AuthResponse{MFARequired: true, Message: "Enter your authenticator code"}

	resp, err := s.session.Login(context.Background(), "jane@example.com", "Str0ng!Pass", "")

	s.ErrorIs(err, ErrMFARequired)
	s.True(resp.MFARequired)
	s.False(s.session.Active())
}

func (s *SessionTestSuite) TestLogin_BackendError() {
	s.api.loginErr = &client.APIError{Status: http.StatusUnauthorized, Message: "Invalid email or password"}

	_, err := s.session.Login(context.Background(), "jane@example.com", "wrong", "")

	var apiErr *client.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal("Invalid email or password", apiErr.Message)
	s.False(s.session.Active())
}

func (s *SessionTestSuite) TestLogin_FetchFailure() {
	s.api.txs = append(s.api.txs, ledger.Transaction{
		ID: "rent", Type: ledger.Expense, Amount: ledger.MustAmount("1200"), Category: "Housing",
		Date:       ledger.NewDate(2024, 2, 1),
		Recurrence: &ledger.Recurrence{Type: ledger.Monthly, NextDueDate: ledger.NewDate(2024, 3, 1)},
	})
	s.api.listErr = &client.APIError{Status: http.StatusInternalServerError, Message: "boom"}

	_, err := s.session.Login(context.Background(), "jane@example.com", "Str0ng!Pass", "")

	s.Require().Error(err)
	s.False(s.session.Active())
	s.Equal(Expired, s.session.State())
	_, ok := s.session.User()
	s.False(ok)
	s.Contains(s.endReasons(), ReasonLoginFailed)
	s.Empty(ReasonLoginFailed.Notice())
	s.Zero(s.api.createdCount())

	s.api.mu.Lock()
	s.api.listErr = nil
	s.api.mu.Unlock()
	s.login()

	s.True(s.session.Active())
	s.Eventually(func() bool { return s.api.createdCount() == 1 }, time.Second, 10*time.Millisecond)
}

func (s *SessionTestSuite) TestViewRequiresSession() {
	_, err := s.session.View(ledger.FilterState{}, ledger.DefaultSort)
	s.ErrorIs(err, ErrNotAuthenticated)
}

func (s *SessionTestSuite) TestView_FiltersSortsAndAggregates() {
	s.login()

	view, err := s.session.View(ledger.FilterState{Category: ledger.AllCategories}, ledger.DefaultSort)
	s.Require().NoError(err)

	s.Require().Len(view.Transactions, 2)
	s.Equal("2", view.Transactions[0].ID, "newest first")
	s.Equal("2954.5", view.Summary.Totals.Balance.String())

	view, err = s.session.View(ledger.FilterState{Category: "Food"}, ledger.DefaultSort)
	s.Require().NoError(err)
	s.Len(view.Transactions, 1)
	s.Equal("45.5", view.Summary.Totals.Expenses.String())
}

func (s *SessionTestSuite) TestView_SurfacesDataIssues() {
	s.api.txs = append(s.api.txs, ledger.Transaction{
		ID: "3", Type: ledger.Expense, Amount: ledger.ParseAmount("abc"), Category: "Food", Date: ledger.NewDate(2024, 3, 6),
	})
	s.login()

	view, err := s.session.View(ledger.FilterState{}, ledger.DefaultSort)

	s.Require().NoError(err)
	s.Len(view.Transactions, 3)
	s.Require().Len(view.Summary.Issues, 1)
	s.Equal("3", view.Summary.Issues[0].TransactionID)
}

func (s *SessionTestSuite) TestAdd_ConfirmsPendingRecord() {
	s.login()

	created, err := s.session.Add(context.Background(), ledger.Transaction{
		Type: ledger.Expense, Amount: ledger.MustAmount("750"), Category: "Shopping", Date: ledger.NewDate(2024, 3, 9),
	})

	s.Require().NoError(err)
	s.NotEmpty(created.ID)
	s.Equal(0, s.session.Store().Pending())
	_, ok := s.session.Store().Get(created.ID)
	s.True(ok)
	s.True(s.session.OverBudget(created))
}

func (s *SessionTestSuite) TestAdd_DiscardsOnFailure() {
	s.login()
	s.api.createErr = &client.APIError{Status: http.StatusInternalServerError, Message: client.GenericErrorMessage}

	_, err := s.session.Add(context.Background(), ledger.Transaction{
		Type: ledger.Income, Amount: ledger.MustAmount("10"), Category: "Gifts", Date: ledger.NewDate(2024, 3, 9),
	})

	s.Error(err)
	s.Equal(0, s.session.Store().Pending())
	s.Len(s.session.Store().Snapshot(), 2)
	s.True(s.session.Active())
}

func (s *SessionTestSuite) TestAdd_ValidatesBeforeNetwork() {
	s.login()

	_, err := s.session.Add(context.Background(), ledger.Transaction{
		Type: ledger.Income, Amount: ledger.MustAmount("10"), Category: "Food", Date: ledger.NewDate(2024, 3, 9),
	})

	s.ErrorIs(err, ledger.ErrCategoryMismatch)
	s.Equal(0, s.api.createdCount())
}

func (s *SessionTestSuite) TestDelete() {
	s.login()

	s.Require().NoError(s.session.Delete(context.Background(), "1"))
	_, ok := s.session.Store().Get("1")
	s.False(ok)

	s.api.deleteErr = errors.New("connection refused")
	s.Error(s.session.Delete(context.Background(), "2"))
	_, ok = s.session.Store().Get("2")
	s.True(ok, "failed deletes leave the store untouched")
}

func (s *SessionTestSuite) TestUnauthorizedEndsSession() {
	s.login()
	s.api.deleteErr = &client.APIError{Status: http.StatusUnauthorized, Message: "Token expired"}

	err := s.session.Delete(context.Background(), "1")

	s.ErrorIs(err, ErrNotAuthenticated)
	s.False(s.session.Active())
	s.Empty(s.session.Store().Snapshot())
	s.Contains(s.endReasons(), ReasonUnauthenticated)
}

func (s *SessionTestSuite) TestRecurringMaterializedOnLogin() {
	s.api.txs = append(s.api.txs, ledger.Transaction{
		ID: "rent", Type: ledger.Expense, Amount: ledger.MustAmount("1200"), Category: "Housing",
		Date:       ledger.NewDate(2024, 2, 1),
		Recurrence: &ledger.Recurrence{Type: ledger.Monthly, NextDueDate: ledger.NewDate(2024, 3, 1)},
	})

	s.login()

	s.Eventually(func() bool { return s.api.createdCount() == 1 }, time.Second, 10*time.Millisecond)
	s.Eventually(func() bool {
		parent, ok := s.session.Store().Get("rent")
		return ok && parent.Recurrence.NextDueDate.String() == "2024-04-01"
	}, time.Second, 10*time.Millisecond)

	occ := s.api.created[0]
	s.Equal("rent", occ.ParentID)
	s.Equal("2024-03-01", occ.Date.String())

	// A second check the same day creates nothing new.
	report := s.session.CheckRecurring(context.Background())
	s.Empty(report.Created)
	s.Equal(1, s.api.createdCount())
}

func (s *SessionTestSuite) TestIdleExpiry() {
	s.session = s.newSession(50 * time.Millisecond)
	s.login()

	s.Eventually(func() bool { return !s.session.Active() }, time.Second, 10*time.Millisecond)
	s.Empty(s.session.Store().Snapshot())
	s.Equal([]Reason{ReasonIdle}, s.endReasons())
	s.Equal("Session expired due to inactivity", ReasonIdle.Notice())

	_, err := s.session.View(ledger.FilterState{}, ledger.DefaultSort)
	s.ErrorIs(err, ErrNotAuthenticated)
}

func (s *SessionTestSuite) TestActivityKeepsSessionAlive() {
	s.session = s.newSession(150 * time.Millisecond)
	s.login()

	for i := 0; i < 5; i++ {
		time.Sleep(60 * time.Millisecond)
		s.True(s.session.Activity(KeyPress))
	}
	s.True(s.session.Active())
	s.False(s.session.Activity("resize"), "non-qualifying activity is ignored")
}

func (s *SessionTestSuite) TestLogout() {
	s.login()

	s.session.Logout(context.Background())

	s.False(s.session.Active())
	s.Equal([]string{"token-1"}, s.api.loggedOut)
	s.Equal([]Reason{ReasonLogout}, s.endReasons())
	s.False(s.session.Activity(Click), "activity cannot revive an ended session")
}

func (s *SessionTestSuite) TestRefreshAsync() {
	s.login()
	s.api.txs = s.api.txs[:1]

	res := <-s.session.RefreshAsync(context.Background())

	s.True(res.OK())
	s.Equal(1, res.Value)
}
