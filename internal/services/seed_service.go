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
)

const (
	seedHistoryDays  = 120
	seedHistoryCount = 80
)

// SeedService fills a development database with a demo account and a few
// months of generated history.
type SeedService struct {
	userRepo        repositories.UserRepositoryInterface
	transactionRepo repositories.TransactionRepositoryInterface
	passwordService PasswordServiceInterface
	generator       SampleDataGeneratorInterface
	logger          *slog.Logger
	now             func() time.Time
}

func NewSeedService(
	userRepo repositories.UserRepositoryInterface,
	transactionRepo repositories.TransactionRepositoryInterface,
	passwordService PasswordServiceInterface,
	generator SampleDataGeneratorInterface,
	logger *slog.Logger,
) *SeedService {
	return &SeedService{
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		passwordService: passwordService,
		generator:       generator,
		logger:          logger,
		now:             time.Now,
	}
}

// SeedDemoAccount creates the account and its transactions. An existing
// account is left untouched and reports zero seeded transactions.
func (s *SeedService) SeedDemoAccount(ctx context.Context, email, password string) (int, error) {
	email = normalizeEmail(email)

	_, err := s.userRepo.GetByEmail(email)
	if err == nil {
		s.logger.InfoContext(ctx, "demo account already exists, skipping seed", "email", email)
		return 0, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return 0, fmt.Errorf("look up demo account: %w", err)
	}

	if err := s.passwordService.ValidatePassword(password); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWeakPassword, err)
	}
	hash, err := s.passwordService.HashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("hash demo password: %w", err)
	}

	user := &models.User{Email: email, PasswordHash: hash}
	if err := s.userRepo.Create(user); err != nil {
		return 0, fmt.Errorf("create demo account: %w", err)
	}

	today := ledger.DateOf(s.now().UTC())
	rows := s.generator.GenerateHistory(user.ID, today, seedHistoryDays, seedHistoryCount)
	rows = append(rows, s.generator.GenerateTemplates(user.ID, today)...)

	for _, row := range rows {
		if err := s.transactionRepo.Create(ctx, row); err != nil {
			return 0, fmt.Errorf("seed transaction: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "demo account seeded",
		"email", email,
		"user_id", user.ID,
		"transactions", len(rows))

	return len(rows), nil
}

