package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestNew() {
	s.Run("carries code and message", func() {
		err := New(CodeValidation, "lengths mismatch")
		s.Error(err)
		s.Contains(err.Error(), "validation")
		s.Contains(err.Error(), "lengths mismatch")
		s.True(HasCode(err, CodeValidation))
	})

	s.Run("different code does not match", func() {
		err := New(CodeNotFound, "missing")
		s.False(HasCode(err, CodeInternal))
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("nil error returns nil", func() {
		s.NoError(Wrap(nil, CodeInternal, "ignored"))
	})

	s.Run("preserves wrapped chain", func() {
		base := errors.New("connection refused")
		err := Wrap(base, CodeInternal, "failed to store calibration set")
		s.ErrorIs(err, base)
		s.True(HasCode(err, CodeInternal))
		s.Contains(err.Error(), "connection refused")
	})

	s.Run("outermost code wins", func() {
		inner := New(CodeNotFound, "no record")
		outer := Wrap(inner, CodeInternal, "lookup failed")
		s.Equal(CodeInternal, CodeOf(outer))
	})
}

func (s *DomainErrorsSuite) TestCodeOf() {
	s.Run("plain error maps to internal", func() {
		s.Equal(CodeInternal, CodeOf(fmt.Errorf("boom")))
	})

	s.Run("wrapped domain error found through fmt chain", func() {
		err := fmt.Errorf("outer: %w", New(CodeConflict, "activation race"))
		s.Equal(CodeConflict, CodeOf(err))
		s.True(Is(err, CodeConflict))
	})
}
