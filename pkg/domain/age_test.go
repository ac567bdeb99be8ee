package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// AgeSuite tests the age threshold derivations used for isOver18/isOver21 claims.
type AgeSuite struct {
	suite.Suite
}

func TestAgeSuite(t *testing.T) {
	suite.Run(t, new(AgeSuite))
}

func (s *AgeSuite) TestIsOver18_BirthdayBoundaries() {
	birthDate := time.Date(2000, 1, 15, 0, 0, 0, 0, time.UTC)

	s.Run("exactly 18th birthday returns true", func() {
		s.True(IsOver18(birthDate, time.Date(2018, 1, 15, 0, 0, 0, 0, time.UTC)))
	})

	s.Run("day before 18th birthday returns false", func() {
		s.False(IsOver18(birthDate, time.Date(2018, 1, 14, 23, 59, 59, 0, time.UTC)))
	})
}

func (s *AgeSuite) TestIsOver18_LeapYear() {
	birthDate := time.Date(2000, 2, 29, 0, 0, 0, 0, time.UTC)

	s.Run("Feb 28 of a non-leap year is not yet 18", func() {
		s.False(IsOver18(birthDate, time.Date(2018, 2, 28, 0, 0, 0, 0, time.UTC)))
	})

	s.Run("Mar 1 of a non-leap year is 18", func() {
		s.True(IsOver18(birthDate, time.Date(2018, 3, 1, 0, 0, 0, 0, time.UTC)))
	})
}

func (s *AgeSuite) TestIsOver21() {
	birthDate := time.Date(2003, 6, 15, 0, 0, 0, 0, time.UTC)

	s.Run("20 years old is over 18 but not 21", func() {
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		s.True(IsOver18(birthDate, now))
		s.False(IsOver21(birthDate, now))
	})

	s.Run("21st birthday returns true", func() {
		s.True(IsOver21(birthDate, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)))
	})
}
