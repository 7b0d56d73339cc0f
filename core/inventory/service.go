package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/club"
)

var (
	// errors
	ErrAssetNotFound     = core.NewNotFoundError("asset")
	ErrRequestNotFound   = core.NewNotFoundError("request")
	ErrLoanNotFound      = core.NewNotFoundError("loan card")
	ErrAssetInUse        = errors.New("asset still has material requests")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type (
	Repository interface {
		Transaction(ctx context.Context, fn func(repo Repository) error) error

		CreateAsset(ctx context.Context, a Asset) (Asset, error)
		QueryAssets(ctx context.Context) ([]Asset, error)
		GetAsset(ctx context.Context, id int) (Asset, error)
		UpdateAsset(ctx context.Context, a Asset) (Asset, error)
		DeleteAsset(ctx context.Context, id int) error
		CountAssetRequests(ctx context.Context, id int) (int64, error)
		// TakeStock decrements the asset quantity when at least qty is available. ok is false otherwise.
		TakeStock(ctx context.Context, id, qty int) (ok bool, err error)
		ReturnStock(ctx context.Context, id, qty int) error

		CreateRequests(ctx context.Context, reqs []Request) ([]Request, error)
		QueryRequests(ctx context.Context, filter RequestFilter) ([]RequestDetail, error)
		GetRequest(ctx context.Context, id int) (Request, error)
		SetRequestStatus(ctx context.Context, ids []int, status string) error
		DeleteRequest(ctx context.Context, id int) error
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
	now      func() time.Time
}

func NewService(repo Repository, lookup Lookup, validate *validator.Validate) *Service {
	return &Service{repo: repo, lookup: lookup, validate: validate, now: time.Now}
}

// Assets

func (svc *Service) CreateAsset(ctx context.Context, na NewAsset) (Asset, error) {
	if err := na.Validate(svc.validate); err != nil {
		return Asset{}, err
	}
	return svc.repo.CreateAsset(ctx, Asset{
		Name:        na.Name,
		Quantity:    na.Quantity,
		Category:    nullString(na.Category),
		Description: nullString(na.Description),
		AcquiredAt:  na.AcquiredAt,
	})
}

func (svc *Service) QueryAssets(ctx context.Context) ([]Asset, error) {
	return svc.repo.QueryAssets(ctx)
}

func (svc *Service) GetAsset(ctx context.Context, id int) (Asset, error) {
	return svc.repo.GetAsset(ctx, id)
}

func (svc *Service) UpdateAsset(ctx context.Context, id int, ua UpdateAsset) (Asset, error) {
	if _, err := svc.repo.GetAsset(ctx, id); err != nil {
		return Asset{}, err
	}
	if err := ua.Validate(svc.validate); err != nil {
		return Asset{}, err
	}
	return svc.repo.UpdateAsset(ctx, Asset{
		ID:          id,
		Name:        ua.Name,
		Quantity:    ua.Quantity,
		Category:    nullString(ua.Category),
		Description: nullString(ua.Description),
		AcquiredAt:  ua.AcquiredAt,
	})
}

func (svc *Service) DeleteAsset(ctx context.Context, id int) error {
	if _, err := svc.repo.GetAsset(ctx, id); err != nil {
		return err
	}
	count, err := svc.repo.CountAssetRequests(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return core.NewValidationError(ErrAssetInUse)
	}
	return svc.repo.DeleteAsset(ctx, id)
}

// Material requests

// SubmitRequest records, for the member sgc, one pending request per item.
func (svc *Service) SubmitRequest(ctx context.Context, sgc string, nr NewRequest) ([]Request, error) {
	if err := nr.Validate(svc.validate); err != nil {
		return nil, err
	}
	if _, err := svc.lookup.GetMemberBySGC(ctx, sgc); err != nil {
		return nil, err
	}
	if _, err := svc.lookup.GetMeeting(ctx, nr.MeetingID); err != nil {
		if err == club.ErrMeetingNotFound {
			return nil, core.NewFieldError("meeting_id", err)
		}
		return nil, err
	}

	ids := make([]int, 0, len(nr.Items))
	for id := range nr.Items {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	now := svc.now().UTC()
	reqs := make([]Request, 0, len(ids))
	for _, id := range ids {
		field := fmt.Sprintf("items.%d", id)
		asset, err := svc.repo.GetAsset(ctx, id)
		if err != nil {
			if err == ErrAssetNotFound {
				return nil, core.NewFieldError(field, err)
			}
			return nil, err
		}
		qty := nr.Items[id]
		if qty > asset.Quantity {
			return nil, core.NewFieldError(field, ErrInsufficientStock)
		}
		reqs = append(reqs, Request{
			SGC:         sgc,
			ItemID:      id,
			Quantity:    qty,
			MeetingID:   nr.MeetingID,
			RequestedAt: now,
			Status:      StatusPending,
		})
	}
	return svc.repo.CreateRequests(ctx, reqs)
}

func (svc *Service) QueryRequests(ctx context.Context, filter RequestFilter) ([]RequestDetail, error) {
	filter.Status = core.CleanString(filter.Status)
	filter.SGC = core.CleanString(filter.SGC)
	return svc.repo.QueryRequests(ctx, filter)
}

// UpdateRequestStatus moves a request between Pendente, Aprovado and Negado.
// Approving takes the quantity from the stock; leaving an approved status gives it back.
func (svc *Service) UpdateRequestStatus(ctx context.Context, id int, ru RequestStatusUpdate) (Request, error) {
	if err := ru.Validate(svc.validate); err != nil {
		return Request{}, err
	}
	var updated Request
	err := svc.repo.Transaction(ctx, func(repo Repository) error {
		req, err := repo.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		if req.Status == ru.Status {
			updated = req
			return nil
		}
		if ru.Status == StatusApproved && !holdsStock(req.Status) {
			ok, err := repo.TakeStock(ctx, req.ItemID, req.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return core.NewFieldError("status", ErrInsufficientStock)
			}
		}
		if ru.Status != StatusApproved && holdsStock(req.Status) {
			if err := repo.ReturnStock(ctx, req.ItemID, req.Quantity); err != nil {
				return err
			}
		}
		if err := repo.SetRequestStatus(ctx, []int{id}, ru.Status); err != nil {
			return err
		}
		req.Status = ru.Status
		updated = req
		return nil
	})
	return updated, err
}

func (svc *Service) DeleteRequest(ctx context.Context, id int) error {
	if _, err := svc.repo.GetRequest(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteRequest(ctx, id)
}

// Loan cards

var loanOrder = map[string]int{StatusApproved: 0, StatusLent: 1, StatusReturned: 2}

// loanStatus shows an approved request as a pending loan.
func loanStatus(status string) string {
	if status == StatusApproved {
		return StatusPending
	}
	return status
}

// LoanCards groups the approved requests of a meeting per member. A card shows the least advanced
// status among its items.
func (svc *Service) LoanCards(ctx context.Context, meetingID int) ([]LoanCard, error) {
	if _, err := svc.lookup.GetMeeting(ctx, meetingID); err != nil {
		return nil, err
	}
	reqs, err := svc.repo.QueryRequests(ctx, RequestFilter{MeetingID: meetingID})
	if err != nil {
		return nil, err
	}

	cards := make([]LoanCard, 0)
	idx := make(map[string]int)
	for _, r := range reqs {
		if !holdsStock(r.Status) {
			continue
		}
		i, ok := idx[r.SGC]
		if !ok {
			i = len(cards)
			idx[r.SGC] = i
			cards = append(cards, LoanCard{MeetingID: meetingID, SGC: r.SGC, MemberName: r.MemberName, Status: r.Status})
		}
		card := &cards[i]
		if loanOrder[r.Status] < loanOrder[card.Status] {
			card.Status = r.Status
		}
		card.Items = append(card.Items, LoanItem{
			RequestID: r.ID,
			ItemID:    r.ItemID,
			ItemName:  r.ItemName,
			Quantity:  r.Quantity,
			Status:    loanStatus(r.Status),
		})
	}
	for i := range cards {
		cards[i].Status = loanStatus(cards[i].Status)
	}
	sort.SliceStable(cards, func(i, j int) bool { return cards[i].MemberName < cards[j].MemberName })
	return cards, nil
}

// SetLoanStatus applies a loan status to every approved request of the member for the meeting.
func (svc *Service) SetLoanStatus(ctx context.Context, meetingID int, sgc string, lu LoanStatusUpdate) error {
	if err := lu.Validate(svc.validate); err != nil {
		return err
	}
	reqs, err := svc.repo.QueryRequests(ctx, RequestFilter{MeetingID: meetingID, SGC: core.CleanString(sgc)})
	if err != nil {
		return err
	}
	ids := make([]int, 0, len(reqs))
	for _, r := range reqs {
		if holdsStock(r.Status) {
			ids = append(ids, r.ID)
		}
	}
	if len(ids) == 0 {
		return ErrLoanNotFound
	}

	status := lu.Status
	if status == StatusPending {
		status = StatusApproved
	}
	return svc.repo.SetRequestStatus(ctx, ids, status)
}
