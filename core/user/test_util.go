package user

import (
	"github.com/go-playground/validator/v10"

	"github.com/pioneiros/colina/core"
)

// NewServiceMock returns a Service with a fixed token secret, for tests of other packages.
func NewServiceMock(repo Repository, members MemberFinder, mailSvc core.EmailService, validate *validator.Validate) Service {
	return NewService(repo, members, mailSvc, validate, core.NewTestConfig())
}
