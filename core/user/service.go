package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/club"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user")
	ErrLoginExists        = errors.New("a user with this login already exists")
	ErrSGCExists          = errors.New("this member already has a user")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoMember           = errors.New("no member is linked to this user")
)

type (
	Repository interface {
		// CheckUniqueness returns ErrLoginExists or ErrSGCExists when another user (not excludedID) holds them.
		CheckUniqueness(ctx context.Context, login, sgc string, excludedID int) error
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryUsers(ctx context.Context, ordering []core.DBOrdering) ([]User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUser(ctx context.Context, id int) error
	}

	// MemberFinder resolves the member behind a user's SGC code.
	MemberFinder interface {
		GetMemberBySGC(ctx context.Context, sgc string) (club.Member, error)
	}

	// Session is the result of a successful login.
	Session struct {
		User   User        `json:"user"`
		Member club.Member `json:"member"`
		Tabs   []string    `json:"tabs"`
	}

	Service interface {
		Create(ctx context.Context, nu NewUser) (User, error)
		Query(ctx context.Context, ordering []core.DBOrdering) ([]User, error)
		GetByID(ctx context.Context, id int) (User, error)
		GetByLogin(ctx context.Context, login string) (User, error)
		GetBySGC(ctx context.Context, sgc string) (User, error)
		Update(ctx context.Context, id int, uu UpdateUser) (User, error)
		Delete(ctx context.Context, id int) error
		Authenticate(ctx context.Context, login, pwd string) (Session, error)
		GetSession(ctx context.Context, id int) (Session, error)
		SetPassword(ctx context.Context, login, pwd string) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error
	}

	service struct {
		repo     Repository
		members  MemberFinder
		mailSvc  core.EmailService
		validate *validator.Validate
		tokens   tokenGenerator
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	members MemberFinder,
	mailSvc core.EmailService,
	validate *validator.Validate,
	conf *core.Config,
) Service {
	return &service{
		repo:     repo,
		members:  members,
		mailSvc:  mailSvc,
		validate: validate,
		tokens:   tokenGenerator{secretKey: []byte(conf.SecretKey), timeout: conf.PasswordResetTimeoutDelta},
	}
}

func (svc *service) checkUniqueness(ctx context.Context, login, sgc string, excludedID int) error {
	if err := svc.repo.CheckUniqueness(ctx, login, sgc, excludedID); err != nil {
		var field string
		switch err {
		case ErrLoginExists:
			field = "login"
		case ErrSGCExists:
			field = "sgc_code"
		default:
			return err
		}
		return core.NewFieldError(field, err)
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, err
	}
	if _, err := svc.members.GetMemberBySGC(ctx, nu.SGC); err != nil {
		if err == club.ErrMemberNotFound {
			return User{}, core.NewFieldError("sgc_code", err)
		}
		return User{}, pkgerrors.Wrap(err, "finding member")
	}
	if err := svc.checkUniqueness(ctx, nu.Login, nu.SGC, 0); err != nil {
		return User{}, err
	}

	usr := User{
		Login:      nu.Login,
		Email:      nu.Email,
		Permission: nu.Permission,
		SGC:        nu.SGC,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) Query(ctx context.Context, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, ordering)
}

func (svc *service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByLogin(ctx context.Context, login string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Login: core.CleanString(login, true /* lower */)})
}

func (svc *service) GetBySGC(ctx context.Context, sgc string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{SGC: core.CleanString(sgc)})
}

func (svc *service) Update(ctx context.Context, id int, uu UpdateUser) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err = uu.Validate(usr, svc.validate); err != nil {
		return User{}, err
	}
	if err = svc.checkUniqueness(ctx, uu.Login, usr.SGC, usr.ID); err != nil {
		return User{}, err
	}

	usr.Login = uu.Login
	usr.Email = uu.Email
	usr.Permission = uu.Permission
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) Delete(ctx context.Context, id int) error {
	if _, err := svc.GetByID(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteUser(ctx, id)
}

func (svc *service) session(ctx context.Context, usr User) (Session, error) {
	mbr, err := svc.members.GetMemberBySGC(ctx, usr.SGC)
	if err != nil {
		if err == club.ErrMemberNotFound {
			return Session{}, ErrNoMember
		}
		return Session{}, pkgerrors.Wrap(err, "finding member")
	}
	return Session{User: usr, Member: mbr, Tabs: usr.Tabs()}, nil
}

// Authenticate checks the credentials, upgrades legacy password hashes and records the login.
func (svc *service) Authenticate(ctx context.Context, login, pwd string) (Session, error) {
	usr, err := svc.GetByLogin(ctx, login)
	if err != nil {
		if err == ErrNotFound {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, pkgerrors.Wrap(err, "finding user by login")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	sess, err := svc.session(ctx, usr)
	if err != nil {
		return Session{}, err
	}

	if usr.HasLegacyPassword() {
		if err = usr.SetPassword(pwd); err != nil {
			return Session{}, pkgerrors.Wrap(err, "upgrading password hash")
		}
	}
	usr.LastLogin = time.Now().UTC()
	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return Session{}, pkgerrors.Wrap(err, "setting lastLogin")
	}
	sess.User = usr
	return sess, nil
}

func (svc *service) GetSession(ctx context.Context, id int) (Session, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return Session{}, err
	}
	return svc.session(ctx, usr)
}

// SetPassword replaces a user's password without applying the password policy (admin CLI).
func (svc *service) SetPassword(ctx context.Context, login, pwd string) error {
	usr, err := svc.GetByLogin(ctx, login)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		return err
	}
	svc.mailSvc.SendMessages(svc.passwordResetMail(usr))
	return nil
}

func (svc *service) passwordResetMail(usr User) *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Login, Address: usr.Email}},
		Subject:      "Redefinição de senha",
		TemplateName: "password_reset",
		TemplateData: map[string]string{
			"Login": usr.Login,
			"UID":   encodeUID(usr),
			"Token": svc.tokens.makeToken(usr),
		},
	}
}

func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	if err := data.Validate(svc.validate); err != nil {
		return err
	}

	errInvalid := core.NewValidationError(fmt.Errorf("invalid or expired reset link"))
	id, err := decodeUID(data.UID)
	if err != nil {
		return errInvalid
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return errInvalid
		}
		return err
	}
	if err = svc.tokens.verifyToken(usr, data.Token); err != nil {
		return errInvalid
	}

	if err = usr.SetPassword(data.Password); err != nil {
		return err
	}
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}
