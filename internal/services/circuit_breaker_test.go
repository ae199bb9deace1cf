package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type CircuitBreakerTestSuite struct {
	suite.Suite
	breaker *CircuitBreaker
	now     time.Time
}

func (s *CircuitBreakerTestSuite) SetupTest() {
	s.breaker = NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:     3,
		ResetTimeout:    10 * time.Second,
		HalfOpenMaxSucc: 2,
	}).(*CircuitBreaker)
	s.now = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.breaker.now = func() time.Time { return s.now }
}

func TestCircuitBreakerSuite(t *testing.T) {
	suite.Run(t, new(CircuitBreakerTestSuite))
}

func (s *CircuitBreakerTestSuite) TestStartsClosed() {
	s.Equal(StateClosed, s.breaker.GetState())
	s.False(s.breaker.IsOpen())
	s.Equal("closed", s.breaker.GetState().String())
}

func (s *CircuitBreakerTestSuite) TestOpensAfterMaxFailures() {
	s.breaker.RecordFailure()
	s.breaker.RecordFailure()
	s.False(s.breaker.IsOpen())

	s.breaker.RecordFailure()

	s.True(s.breaker.IsOpen())
	s.Equal("open", s.breaker.GetState().String())
}

func (s *CircuitBreakerTestSuite) TestSuccessResetsFailureCount() {
	s.breaker.RecordFailure()
	s.breaker.RecordFailure()
	s.breaker.RecordSuccess()

	s.Zero(s.breaker.GetFailureCount())
	s.breaker.RecordFailure()
	s.False(s.breaker.IsOpen())
}

func (s *CircuitBreakerTestSuite) TestHalfOpenAfterTimeout() {
	for i := 0; i < 3; i++ {
		s.breaker.RecordFailure()
	}
	s.True(s.breaker.IsOpen())

	s.now = s.now.Add(11 * time.Second)

	s.False(s.breaker.IsOpen())
	s.Equal(StateHalfOpen, s.breaker.GetState())
}

func (s *CircuitBreakerTestSuite) TestHalfOpenClosesAfterSuccesses() {
	for i := 0; i < 3; i++ {
		s.breaker.RecordFailure()
	}
	s.now = s.now.Add(11 * time.Second)
	s.False(s.breaker.IsOpen())

	s.breaker.RecordSuccess()
	s.Equal(StateHalfOpen, s.breaker.GetState())
	s.breaker.RecordSuccess()

	s.Equal(StateClosed, s.breaker.GetState())
	s.Zero(s.breaker.GetFailureCount())
}

func (s *CircuitBreakerTestSuite) TestHalfOpenFailureReopens() {
	for i := 0; i < 3; i++ {
		s.breaker.RecordFailure()
	}
	s.now = s.now.Add(11 * time.Second)
	s.False(s.breaker.IsOpen())

	s.breaker.RecordFailure()

	s.True(s.breaker.IsOpen())
}

func (s *CircuitBreakerTestSuite) TestReset() {
	for i := 0; i < 3; i++ {
		s.breaker.RecordFailure()
	}

	s.breaker.Reset()

	s.Equal(StateClosed, s.breaker.GetState())
	s.False(s.breaker.IsOpen())
}
