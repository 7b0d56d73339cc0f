package documents

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/club"
	"github.com/pioneiros/colina/core/treasury"
)

var (
	// errors
	ErrRequirementNotFound = core.NewNotFoundError("document")
	ErrDeliveryNotFound    = core.NewNotFoundError("delivery")
	ErrWrongEvent          = errors.New("document does not belong to this event")
	ErrAlreadyDelivered    = errors.New("document already delivered by this member")
)

type (
	Repository interface {
		CreateRequirement(ctx context.Context, r Requirement) (Requirement, error)
		QueryRequirements(ctx context.Context, eventID int) ([]Requirement, error)
		GetRequirement(ctx context.Context, id int) (Requirement, error)
		// DeleteRequirement removes the document and its deliveries.
		DeleteRequirement(ctx context.Context, id int) error

		CreateDelivery(ctx context.Context, d Delivery) (Delivery, error)
		QueryDeliveries(ctx context.Context, eventID int, sgc string) ([]DeliveryDetail, error)
		GetDelivery(ctx context.Context, id int) (Delivery, error)
		DeliveryExists(ctx context.Context, sgc string, documentID int) (bool, error)
		DeleteDelivery(ctx context.Context, id int) error
	}

	Lookup interface {
		GetEvent(ctx context.Context, id int) (treasury.Event, error)
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

func (svc *Service) AddRequirement(ctx context.Context, eventID int, nr NewRequirement) (Requirement, error) {
	if _, err := svc.lookup.GetEvent(ctx, eventID); err != nil {
		return Requirement{}, err
	}
	if err := nr.Validate(svc.validate); err != nil {
		return Requirement{}, err
	}
	return svc.repo.CreateRequirement(ctx, Requirement{EventID: eventID, Name: nr.Name})
}

func (svc *Service) QueryRequirements(ctx context.Context, eventID int) ([]Requirement, error) {
	if _, err := svc.lookup.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return svc.repo.QueryRequirements(ctx, eventID)
}

func (svc *Service) DeleteRequirement(ctx context.Context, id int) error {
	if _, err := svc.repo.GetRequirement(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteRequirement(ctx, id)
}

// RegisterDelivery records that a member handed in a document of the event.
func (svc *Service) RegisterDelivery(ctx context.Context, eventID int, nd NewDelivery) (Delivery, error) {
	if _, err := svc.lookup.GetEvent(ctx, eventID); err != nil {
		return Delivery{}, err
	}
	if err := nd.Validate(svc.validate); err != nil {
		return Delivery{}, err
	}
	if _, err := svc.lookup.GetMemberBySGC(ctx, nd.SGC); err != nil {
		if err == club.ErrMemberNotFound {
			return Delivery{}, core.NewFieldError("sgc_code", err)
		}
		return Delivery{}, err
	}
	doc, err := svc.repo.GetRequirement(ctx, nd.DocumentID)
	if err != nil {
		if err == ErrRequirementNotFound {
			return Delivery{}, core.NewFieldError("document_id", err)
		}
		return Delivery{}, err
	}
	if doc.EventID != eventID {
		return Delivery{}, core.NewFieldError("document_id", ErrWrongEvent)
	}
	exists, err := svc.repo.DeliveryExists(ctx, nd.SGC, nd.DocumentID)
	if err != nil {
		return Delivery{}, err
	}
	if exists {
		return Delivery{}, core.NewFieldError("document_id", ErrAlreadyDelivered)
	}

	deliveredAt := nd.DeliveredAt
	if deliveredAt.IsZero() {
		deliveredAt = svc.now()
	}
	return svc.repo.CreateDelivery(ctx, Delivery{
		SGC:         nd.SGC,
		EventID:     eventID,
		DocumentID:  nd.DocumentID,
		DeliveredAt: deliveredAt.UTC(),
	})
}

func (svc *Service) QueryDeliveries(ctx context.Context, eventID int) ([]DeliveryDetail, error) {
	if _, err := svc.lookup.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return svc.repo.QueryDeliveries(ctx, eventID, "")
}

// Checklist lists every document of the event with whether sgc delivered it.
func (svc *Service) Checklist(ctx context.Context, eventID int, sgc string) ([]ChecklistItem, error) {
	if _, err := svc.lookup.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	sgc = core.CleanString(sgc)
	if _, err := svc.lookup.GetMemberBySGC(ctx, sgc); err != nil {
		return nil, err
	}
	docs, err := svc.repo.QueryRequirements(ctx, eventID)
	if err != nil {
		return nil, err
	}
	delivered, err := svc.repo.QueryDeliveries(ctx, eventID, sgc)
	if err != nil {
		return nil, err
	}
	byDoc := make(map[int]time.Time, len(delivered))
	for _, d := range delivered {
		byDoc[d.DocumentID] = d.DeliveredAt
	}

	items := make([]ChecklistItem, 0, len(docs))
	for _, doc := range docs {
		item := ChecklistItem{DocumentID: doc.ID, Name: doc.Name}
		if at, ok := byDoc[doc.ID]; ok {
			item.Delivered = true
			item.DeliveredAt = null.TimeFrom(at)
		}
		items = append(items, item)
	}
	return items, nil
}

func (svc *Service) DeleteDelivery(ctx context.Context, id int) error {
	if _, err := svc.repo.GetDelivery(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteDelivery(ctx, id)
}
