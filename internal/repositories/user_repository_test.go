package repositories

import (
	"testing"
	"time"

	"finance-tracker/internal/database"
	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

func TestUserRepository(t *testing.T) {
	suite.Run(t, new(UserRepositorySuite))
}

type UserRepositorySuite struct {
	suite.Suite
	db   *database.DB
	repo UserRepositoryInterface
}

func (s *UserRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.repo = NewUserRepository(s.db.DB)
}

func (s *UserRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *UserRepositorySuite) newUser(email string) *models.User {
	return &models.User{Email: email, PasswordHash: "hashed_password"}
}

func (s *UserRepositorySuite) TestCreate() {
	user := s.newUser("  Ana@Example.com ")

	s.Require().NoError(s.repo.Create(user))
	s.NotEqual(uuid.Nil, user.ID)
	s.Equal("ana@example.com", user.Email)
	s.NotZero(user.CreatedAt)

	s.ErrorIs(s.repo.Create(s.newUser("ana@example.com")), ErrUserAlreadyExists)
	s.Error(s.repo.Create(nil))
}

func (s *UserRepositorySuite) TestCreate_InvalidEmail() {
	err := s.repo.Create(s.newUser("not-an-email"))
	s.Error(err)
	s.NotErrorIs(err, ErrUserAlreadyExists)
}

func (s *UserRepositorySuite) TestGetByEmailAndID() {
	user := s.newUser("ana@example.com")
	s.Require().NoError(s.repo.Create(user))

	found, err := s.repo.GetByEmail("ANA@example.com")
	s.Require().NoError(err)
	s.Equal(user.ID, found.ID)

	found, err = s.repo.GetByID(user.ID)
	s.Require().NoError(err)
	s.Equal("ana@example.com", found.Email)

	_, err = s.repo.GetByEmail("nobody@example.com")
	s.ErrorIs(err, ErrUserNotFound)

	_, err = s.repo.GetByID(uuid.New())
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *UserRepositorySuite) TestUpdateFailedLoginAttempts() {
	user := s.newUser("ana@example.com")
	s.Require().NoError(s.repo.Create(user))

	now := time.Now().UTC()
	user.FailedLoginAttempts = 5
	user.Lock(now)
	s.Require().NoError(s.repo.UpdateFailedLoginAttempts(user))

	found, err := s.repo.GetByID(user.ID)
	s.Require().NoError(err)
	s.Equal(5, found.FailedLoginAttempts)
	s.NotNil(found.LockedAt)

	s.Require().NoError(s.repo.UpdateLastLogin(user.ID, now))
	found, err = s.repo.GetByID(user.ID)
	s.Require().NoError(err)
	s.Zero(found.FailedLoginAttempts)
	s.Nil(found.LockedAt)
	s.NotNil(found.LastLoginAt)
}

func (s *UserRepositorySuite) TestUpdatePasswordHash() {
	user := s.newUser("ana@example.com")
	user.FailedLoginAttempts = 5
	user.Lock(time.Now())
	s.Require().NoError(s.repo.Create(user))

	s.Require().NoError(s.repo.UpdatePasswordHash(user.ID, "new_hash"))

	found, err := s.repo.GetByID(user.ID)
	s.Require().NoError(err)
	s.Equal("new_hash", found.PasswordHash)
	s.Nil(found.LockedAt, "a password reset unlocks the account")

	s.ErrorIs(s.repo.UpdatePasswordHash(uuid.New(), "hash"), ErrUserNotFound)
	s.Error(s.repo.UpdatePasswordHash(uuid.Nil, "hash"))
	s.Error(s.repo.UpdatePasswordHash(user.ID, ""))
}
