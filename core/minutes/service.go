package minutes

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/club"
)

var (
	// errors
	ErrMinuteNotFound = core.NewNotFoundError("minute")
	ErrActNotFound    = core.NewNotFoundError("act")
	ErrMinuteInUse    = errors.New("minute still has acts")
	ErrNoUnit         = errors.New("the logged member has no unit")
)

type (
	Repository interface {
		CreateMinute(ctx context.Context, m Minute) (Minute, error)
		QueryMinutes(ctx context.Context) ([]MinuteDetail, error)
		GetMinute(ctx context.Context, id int) (Minute, error)
		UpdateMinute(ctx context.Context, m Minute) (Minute, error)
		DeleteMinute(ctx context.Context, id int) error
		CountMinuteActs(ctx context.Context, id int) (int64, error)

		CreateAct(ctx context.Context, a Act) (Act, error)
		QueryActs(ctx context.Context, filter ActFilter) ([]ActDetail, error)
		GetAct(ctx context.Context, id int) (Act, error)
		UpdateAct(ctx context.Context, a Act) (Act, error)
		DeleteAct(ctx context.Context, id int) error
	}

	Lookup interface {
		GetMeeting(ctx context.Context, id int) (club.Meeting, error)
		GetMemberBySGC(ctx context.Context, sgc string) (club.Member, error)
	}
)

type Service struct {
	repo     Repository
	lookup   Lookup
	validate *validator.Validate
}

func NewService(repo Repository, lookup Lookup, validate *validator.Validate) *Service {
	return &Service{repo: repo, lookup: lookup, validate: validate}
}

// Atas

func (svc *Service) checkMinute(ctx context.Context, nm NewMinute) error {
	if err := nm.Validate(svc.validate); err != nil {
		return err
	}
	if _, err := svc.lookup.GetMeeting(ctx, nm.MeetingID); err != nil {
		if err == club.ErrMeetingNotFound {
			return core.NewFieldError("meeting_id", err)
		}
		return err
	}
	return nil
}

func (svc *Service) CreateMinute(ctx context.Context, nm NewMinute) (Minute, error) {
	if err := svc.checkMinute(ctx, nm); err != nil {
		return Minute{}, err
	}
	return svc.repo.CreateMinute(ctx, Minute{MeetingID: nm.MeetingID, Title: nm.Title, Description: nm.Description})
}

// QueryMinutes lists the atas, newest meeting first.
func (svc *Service) QueryMinutes(ctx context.Context) ([]MinuteDetail, error) {
	return svc.repo.QueryMinutes(ctx)
}

func (svc *Service) UpdateMinute(ctx context.Context, id int, nm NewMinute) (Minute, error) {
	if _, err := svc.repo.GetMinute(ctx, id); err != nil {
		return Minute{}, err
	}
	if err := svc.checkMinute(ctx, nm); err != nil {
		return Minute{}, err
	}
	return svc.repo.UpdateMinute(ctx, Minute{ID: id, MeetingID: nm.MeetingID, Title: nm.Title, Description: nm.Description})
}

func (svc *Service) DeleteMinute(ctx context.Context, id int) error {
	if _, err := svc.repo.GetMinute(ctx, id); err != nil {
		return err
	}
	count, err := svc.repo.CountMinuteActs(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return core.NewValidationError(ErrMinuteInUse)
	}
	return svc.repo.DeleteMinute(ctx, id)
}

// Atos

func (svc *Service) checkAct(ctx context.Context, na NewAct) error {
	if err := na.Validate(svc.validate); err != nil {
		return err
	}
	if _, err := svc.repo.GetMinute(ctx, na.MinuteID); err != nil {
		if err == ErrMinuteNotFound {
			return core.NewFieldError("minute_id", err)
		}
		return err
	}
	return nil
}

// CreateAct records an ato for the unit of the member sgc.
func (svc *Service) CreateAct(ctx context.Context, sgc string, na NewAct) (Act, error) {
	mbr, err := svc.lookup.GetMemberBySGC(ctx, sgc)
	if err != nil {
		if err == club.ErrMemberNotFound {
			return Act{}, core.NewValidationError(ErrNoUnit)
		}
		return Act{}, err
	}
	if mbr.UnitID == 0 {
		return Act{}, core.NewValidationError(ErrNoUnit)
	}
	if err := svc.checkAct(ctx, na); err != nil {
		return Act{}, err
	}
	return svc.repo.CreateAct(ctx, Act{
		MinuteID:    na.MinuteID,
		Title:       na.Title,
		Description: na.Description,
		UnitID:      mbr.UnitID,
	})
}

func (svc *Service) QueryActs(ctx context.Context, filter ActFilter) ([]ActDetail, error) {
	return svc.repo.QueryActs(ctx, filter)
}

// UpdateAct edits an ato; its unit stays the one it was recorded for.
func (svc *Service) UpdateAct(ctx context.Context, id int, na NewAct) (Act, error) {
	act, err := svc.repo.GetAct(ctx, id)
	if err != nil {
		return Act{}, err
	}
	if err := svc.checkAct(ctx, na); err != nil {
		return Act{}, err
	}
	act.MinuteID = na.MinuteID
	act.Title = na.Title
	act.Description = na.Description
	return svc.repo.UpdateAct(ctx, act)
}

func (svc *Service) DeleteAct(ctx context.Context, id int) error {
	if _, err := svc.repo.GetAct(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteAct(ctx, id)
}
