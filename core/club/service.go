package club

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/pioneiros/colina/core"
)

var (
	// errors
	ErrUnitNotFound    = core.NewNotFoundError("unit")
	ErrMemberNotFound  = core.NewNotFoundError("member")
	ErrMeetingNotFound = core.NewNotFoundError("meeting")
	ErrUnitExists      = errors.New("a unit with this name already exists")
	ErrSGCExists       = errors.New("a member with this SGC code already exists")
	ErrUnitInUse       = errors.New("unit still has members")
	ErrMeetingInUse    = errors.New("meeting still has minutes")
)

type Repository interface {
	CreateUnit(ctx context.Context, unit Unit) (Unit, error)
	QueryUnits(ctx context.Context) ([]Unit, error)
	GetUnit(ctx context.Context, id int) (Unit, error)
	UpdateUnit(ctx context.Context, unit Unit) (Unit, error)
	DeleteUnit(ctx context.Context, id int) error
	UnitNameExists(ctx context.Context, name string, excludeID int) (bool, error)
	CountUnitMembers(ctx context.Context, unitID int) (int64, error)

	CreateMember(ctx context.Context, mbr Member) (Member, error)
	QueryMembers(ctx context.Context, filter MemberFilter, ordering []core.DBOrdering) ([]MemberDetail, error)
	GetMember(ctx context.Context, id int) (Member, error)
	GetMemberBySGC(ctx context.Context, sgc string) (Member, error)
	UpdateMember(ctx context.Context, mbr Member) (Member, error)
	DeleteMember(ctx context.Context, id int) error
	SGCExists(ctx context.Context, sgc string, excludeID int) (bool, error)

	CreateMeeting(ctx context.Context, mtg Meeting) (Meeting, error)
	QueryMeetings(ctx context.Context) ([]Meeting, error)
	GetMeeting(ctx context.Context, id int) (Meeting, error)
	UpdateMeeting(ctx context.Context, mtg Meeting) (Meeting, error)
	CountMeetingMinutes(ctx context.Context, id int) (int64, error)
	// DeleteMeeting removes the meeting with its chamadas and material requests.
	DeleteMeeting(ctx context.Context, id int) error
}

// Service manages units, members and meetings.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

// Units

func (svc *Service) checkUnitName(ctx context.Context, name string, excludeID int) error {
	exists, err := svc.repo.UnitNameExists(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return core.NewFieldError("name", ErrUnitExists)
	}
	return nil
}

func (svc *Service) CreateUnit(ctx context.Context, nu NewUnit) (Unit, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return Unit{}, err
	}
	if err := svc.checkUnitName(ctx, nu.Name, 0); err != nil {
		return Unit{}, err
	}
	return svc.repo.CreateUnit(ctx, Unit{Name: nu.Name})
}

func (svc *Service) QueryUnits(ctx context.Context) ([]Unit, error) {
	return svc.repo.QueryUnits(ctx)
}

func (svc *Service) GetUnit(ctx context.Context, id int) (Unit, error) {
	return svc.repo.GetUnit(ctx, id)
}

func (svc *Service) UpdateUnit(ctx context.Context, id int, nu NewUnit) (Unit, error) {
	if _, err := svc.repo.GetUnit(ctx, id); err != nil {
		return Unit{}, err
	}
	if err := nu.Validate(svc.validate); err != nil {
		return Unit{}, err
	}
	if err := svc.checkUnitName(ctx, nu.Name, id); err != nil {
		return Unit{}, err
	}
	return svc.repo.UpdateUnit(ctx, Unit{ID: id, Name: nu.Name})
}

func (svc *Service) DeleteUnit(ctx context.Context, id int) error {
	if _, err := svc.repo.GetUnit(ctx, id); err != nil {
		return err
	}
	count, err := svc.repo.CountUnitMembers(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return core.NewValidationError(ErrUnitInUse)
	}
	return svc.repo.DeleteUnit(ctx, id)
}

// Members

func (svc *Service) checkMember(ctx context.Context, nm NewMember, excludeID int) error {
	if err := nm.Validate(svc.validate); err != nil {
		return err
	}
	if _, err := svc.repo.GetUnit(ctx, nm.UnitID); err != nil {
		if err == ErrUnitNotFound {
			return core.NewFieldError("unit_id", err)
		}
		return err
	}
	exists, err := svc.repo.SGCExists(ctx, nm.SGC, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return core.NewFieldError("sgc_code", ErrSGCExists)
	}
	return nil
}

func (svc *Service) CreateMember(ctx context.Context, nm NewMember) (Member, error) {
	if err := svc.checkMember(ctx, nm, 0); err != nil {
		return Member{}, err
	}
	return svc.repo.CreateMember(ctx, Member{
		Name:   nm.Name,
		UnitID: nm.UnitID,
		SGC:    nm.SGC,
		Role:   nm.Role,
	})
}

func (svc *Service) QueryMembers(ctx context.Context, filter MemberFilter, ordering []core.DBOrdering) ([]MemberDetail, error) {
	filter.Clean()
	return svc.repo.QueryMembers(ctx, filter, ordering)
}

func (svc *Service) GetMember(ctx context.Context, id int) (Member, error) {
	return svc.repo.GetMember(ctx, id)
}

func (svc *Service) GetMemberBySGC(ctx context.Context, sgc string) (Member, error) {
	return svc.repo.GetMemberBySGC(ctx, core.CleanString(sgc))
}

func (svc *Service) UpdateMember(ctx context.Context, id int, um UpdateMember) (Member, error) {
	if _, err := svc.repo.GetMember(ctx, id); err != nil {
		return Member{}, err
	}
	if err := svc.checkMember(ctx, um, id); err != nil {
		return Member{}, err
	}
	return svc.repo.UpdateMember(ctx, Member{
		ID:     id,
		Name:   um.Name,
		UnitID: um.UnitID,
		SGC:    um.SGC,
		Role:   um.Role,
	})
}

func (svc *Service) DeleteMember(ctx context.Context, id int) error {
	if _, err := svc.repo.GetMember(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteMember(ctx, id)
}

// Meetings

func (svc *Service) CreateMeeting(ctx context.Context, nm NewMeeting) (Meeting, error) {
	if err := nm.Validate(svc.validate); err != nil {
		return Meeting{}, err
	}
	return svc.repo.CreateMeeting(ctx, Meeting{Name: nm.Name, Date: nm.Date})
}

func (svc *Service) QueryMeetings(ctx context.Context) ([]Meeting, error) {
	return svc.repo.QueryMeetings(ctx)
}

func (svc *Service) GetMeeting(ctx context.Context, id int) (Meeting, error) {
	return svc.repo.GetMeeting(ctx, id)
}

func (svc *Service) UpdateMeeting(ctx context.Context, id int, nm NewMeeting) (Meeting, error) {
	if _, err := svc.repo.GetMeeting(ctx, id); err != nil {
		return Meeting{}, err
	}
	if err := nm.Validate(svc.validate); err != nil {
		return Meeting{}, err
	}
	return svc.repo.UpdateMeeting(ctx, Meeting{ID: id, Name: nm.Name, Date: nm.Date})
}

func (svc *Service) DeleteMeeting(ctx context.Context, id int) error {
	if _, err := svc.repo.GetMeeting(ctx, id); err != nil {
		return err
	}
	count, err := svc.repo.CountMeetingMinutes(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return core.NewValidationError(ErrMeetingInUse)
	}
	return svc.repo.DeleteMeeting(ctx, id)
}
