package services

import (
	"errors"
	"testing"

	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories/repository_mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type AuditServiceTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	mockRepo *repository_mocks.MockAuditLogRepositoryInterface
	service  AuditServiceInterface
}

func (s *AuditServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockRepo = repository_mocks.NewMockAuditLogRepositoryInterface(s.ctrl)
	s.service = NewAuditService(s.mockRepo)
}

func (s *AuditServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestAuditServiceSuite(t *testing.T) {
	suite.Run(t, new(AuditServiceTestSuite))
}

func (s *AuditServiceTestSuite) TestCreateAuditLog() {
	userID := uuid.New()
	log := &models.AuditLog{
		UserID:   &userID,
		Action:   models.AuditActionLogin,
		Resource: models.AuditResourceUser,
	}

	s.mockRepo.EXPECT().Create(log).Return(nil)

	s.NoError(s.service.CreateAuditLog(log))
}

func (s *AuditServiceTestSuite) TestCreateAuditLog_Nil() {
	s.ErrorIs(s.service.CreateAuditLog(nil), ErrInvalidAuditLog)
}

func (s *AuditServiceTestSuite) TestCreateAuditLog_UnknownAction() {
	err := s.service.CreateAuditLog(&models.AuditLog{Action: "account_created"})
	s.Error(err)
	s.Contains(err.Error(), "invalid activity type")
}

func (s *AuditServiceTestSuite) TestCreateAuditLog_RepositoryError() {
	s.mockRepo.EXPECT().Create(gomock.Any()).Return(errors.New("database error"))

	err := s.service.CreateAuditLog(&models.AuditLog{Action: models.AuditActionLogout})
	s.Error(err)
	s.Contains(err.Error(), "failed to create audit log")
}

func (s *AuditServiceTestSuite) TestGetUserActivity() {
	userID := uuid.New()
	logs := []*models.AuditLog{{Action: models.AuditActionLogin}}

	s.mockRepo.EXPECT().GetByUserID(userID, 0, 20).Return(logs, int64(1), nil)

	got, total, err := s.service.GetUserActivity(userID, 0, 20)
	s.NoError(err)
	s.Equal(int64(1), total)
	s.Equal(logs, got)
}

func (s *AuditServiceTestSuite) TestGetUserActivity_ClampsPaging() {
	userID := uuid.New()

	s.mockRepo.EXPECT().GetByUserID(userID, 0, maxActivityPageSize).Return(nil, int64(0), nil)

	_, _, err := s.service.GetUserActivity(userID, -5, 1000)
	s.NoError(err)
}

func (s *AuditServiceTestSuite) TestGetUserActivity_NilUser() {
	_, _, err := s.service.GetUserActivity(uuid.Nil, 0, 10)
	s.ErrorIs(err, ErrInvalidUserID)
}

func (s *AuditServiceTestSuite) TestLogTransactionCreated() {
	userID, txID := uuid.New(), uuid.New()

	s.mockRepo.EXPECT().Create(gomock.Any()).DoAndReturn(func(log *models.AuditLog) error {
		s.Equal(&userID, log.UserID)
		s.Equal(models.AuditActionTransactionCreated, log.Action)
		s.Equal(models.AuditResourceTransaction, log.Resource)
		s.Equal(txID.String(), log.ResourceID)
		s.Equal("10.0.0.1", log.IPAddress)
		return nil
	})

	s.NoError(s.service.LogTransactionCreated(userID, txID, "10.0.0.1", "curl"))
}

func (s *AuditServiceTestSuite) TestLogTransactionDeleted() {
	s.mockRepo.EXPECT().Create(gomock.Any()).DoAndReturn(func(log *models.AuditLog) error {
		s.Equal(models.AuditActionTransactionDeleted, log.Action)
		return nil
	})

	s.NoError(s.service.LogTransactionDeleted(uuid.New(), uuid.New(), "", ""))
}

func (s *AuditServiceTestSuite) TestLogOccurrenceCreated() {
	parentID, occID := uuid.New(), uuid.New()

	s.mockRepo.EXPECT().Create(gomock.Any()).DoAndReturn(func(log *models.AuditLog) error {
		s.Equal(models.AuditActionOccurrenceCreated, log.Action)
		s.Equal(occID.String(), log.ResourceID)
		s.Equal(parentID.String(), log.GetMetadata("parent_id", ""))
		return nil
	})

	s.NoError(s.service.LogOccurrenceCreated(uuid.New(), parentID, occID, "", ""))
}

func (s *AuditServiceTestSuite) TestValidateActivityType() {
	s.NoError(ValidateActivityType(models.AuditActionPasswordReset))
	s.Error(ValidateActivityType(""))
}
