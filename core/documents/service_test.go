package documents_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/club"
	"github.com/pioneiros/colina/core/documents"
	"github.com/pioneiros/colina/core/treasury"
	gormrepos "github.com/pioneiros/colina/storage/database/gorm"
	sqlxrepos "github.com/pioneiros/colina/storage/database/sqlx"
	"github.com/pioneiros/colina/storage/database/testutil"
)

type lookup struct {
	*club.Service
	events *treasury.Service
}

func (l lookup) GetEvent(ctx context.Context, id int) (treasury.Event, error) {
	return l.events.GetEvent(ctx, id)
}

type fixture struct {
	svc    *documents.Service
	events *treasury.Service
	camp   treasury.Event
	ana    club.Member
	bruno  club.Member
}

func setup(t *testing.T) fixture {
	db := testutil.PrepareDB(t)
	validate, _ := testutil.Validator()
	clubSvc := club.NewService(gormrepos.NewClubRepository(db), validate)
	treasurySvc := treasury.NewService(
		gormrepos.NewTreasuryRepository(db),
		sqlxrepos.NewTreasuryReports(testutil.SQLX(t, db)),
		clubSvc,
		validate,
	)
	unit := testutil.CreateUnit(t, db, "Aguia")
	fx := fixture{
		svc:    documents.NewService(gormrepos.NewDocumentsRepository(db), lookup{Service: clubSvc, events: treasurySvc}, validate),
		events: treasurySvc,
		ana:    testutil.CreateMember(t, db, unit.ID, "Ana", "1", club.RolePathfinder),
		bruno:  testutil.CreateMember(t, db, unit.ID, "Bruno", "2", club.RolePathfinder),
	}
	var err error
	fx.camp, err = treasurySvc.CreateEvent(context.Background(), treasury.NewEvent{Name: "Acampamento", Value: 120})
	require.NoError(t, err)
	return fx
}

func fieldOf(t *testing.T, err error) string {
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr), "error %v is not a validation error", err)
	require.NotEmpty(t, verr.Fields)
	return verr.Fields[0].Field
}

func TestService_Requirements(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	_, err := fx.svc.AddRequirement(ctx, 999, documents.NewRequirement{Name: "RG"})
	assert.Equal(t, treasury.ErrEventNotFound, err)

	_, err = fx.svc.AddRequirement(ctx, fx.camp.ID, documents.NewRequirement{Name: "  "})
	assert.Error(t, err)

	for _, name := range []string{"Termo de autorizacao", "Carteira de vacinacao"} {
		_, err = fx.svc.AddRequirement(ctx, fx.camp.ID, documents.NewRequirement{Name: name})
		require.NoError(t, err)
	}

	reqs, err := fx.svc.QueryRequirements(ctx, fx.camp.ID)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "Carteira de vacinacao", reqs[0].Name)

	_, err = fx.svc.QueryRequirements(ctx, 999)
	assert.Equal(t, treasury.ErrEventNotFound, err)

	_, err = fx.svc.RegisterDelivery(ctx, fx.camp.ID, documents.NewDelivery{SGC: fx.ana.SGC, DocumentID: reqs[0].ID})
	require.NoError(t, err)

	// deleting a document drops its deliveries
	require.NoError(t, fx.svc.DeleteRequirement(ctx, reqs[0].ID))
	assert.Equal(t, documents.ErrRequirementNotFound, fx.svc.DeleteRequirement(ctx, reqs[0].ID))
	ds, err := fx.svc.QueryDeliveries(ctx, fx.camp.ID)
	require.NoError(t, err)
	assert.Empty(t, ds)
}

func TestService_Deliveries(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	auth, err := fx.svc.AddRequirement(ctx, fx.camp.ID, documents.NewRequirement{Name: "Termo de autorizacao"})
	require.NoError(t, err)
	vaccine, err := fx.svc.AddRequirement(ctx, fx.camp.ID, documents.NewRequirement{Name: "Carteira de vacinacao"})
	require.NoError(t, err)
	other, err := fx.events.CreateEvent(ctx, treasury.NewEvent{Name: "Campori", Value: 300})
	require.NoError(t, err)
	foreign, err := fx.svc.AddRequirement(ctx, other.ID, documents.NewRequirement{Name: "RG"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		eventID   int
		data      documents.NewDelivery
		wantField string
		wantErr   error
	}{
		{
			name:    "unknown event",
			eventID: 999,
			data:    documents.NewDelivery{SGC: fx.ana.SGC, DocumentID: auth.ID},
			wantErr: treasury.ErrEventNotFound,
		},
		{
			name:      "unknown member",
			eventID:   fx.camp.ID,
			data:      documents.NewDelivery{SGC: "999", DocumentID: auth.ID},
			wantField: "sgc_code",
			wantErr:   club.ErrMemberNotFound,
		},
		{
			name:      "unknown document",
			eventID:   fx.camp.ID,
			data:      documents.NewDelivery{SGC: fx.ana.SGC, DocumentID: 999},
			wantField: "document_id",
			wantErr:   documents.ErrRequirementNotFound,
		},
		{
			name:      "document of another event",
			eventID:   fx.camp.ID,
			data:      documents.NewDelivery{SGC: fx.ana.SGC, DocumentID: foreign.ID},
			wantField: "document_id",
			wantErr:   documents.ErrWrongEvent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.svc.RegisterDelivery(ctx, tt.eventID, tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "RegisterDelivery() error = %v, want %v", err, tt.wantErr)
			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, fieldOf(t, err))
			}
		})
	}

	before := time.Now()
	d, err := fx.svc.RegisterDelivery(ctx, fx.camp.ID, documents.NewDelivery{SGC: fx.ana.SGC, DocumentID: auth.ID})
	require.NoError(t, err)
	assert.WithinDuration(t, before, d.DeliveredAt, time.Minute, "delivery date defaults to now")

	_, err = fx.svc.RegisterDelivery(ctx, fx.camp.ID, documents.NewDelivery{SGC: fx.ana.SGC, DocumentID: auth.ID})
	assert.True(t, errors.Is(err, documents.ErrAlreadyDelivered), "RegisterDelivery() error = %v", err)

	at := time.Date(2024, 2, 20, 15, 0, 0, 0, time.UTC)
	_, err = fx.svc.RegisterDelivery(ctx, fx.camp.ID, documents.NewDelivery{SGC: fx.bruno.SGC, DocumentID: vaccine.ID, DeliveredAt: at})
	require.NoError(t, err)

	ds, err := fx.svc.QueryDeliveries(ctx, fx.camp.ID)
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.Equal(t, "Ana", ds[0].MemberName)
	assert.Equal(t, "Termo de autorizacao", ds[0].DocumentName)
	assert.True(t, at.Equal(ds[1].DeliveredAt))

	items, err := fx.svc.Checklist(ctx, fx.camp.ID, fx.ana.SGC)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, vaccine.ID, items[0].DocumentID)
	assert.False(t, items[0].Delivered)
	assert.False(t, items[0].DeliveredAt.Valid)
	assert.Equal(t, auth.ID, items[1].DocumentID)
	assert.True(t, items[1].Delivered)
	assert.True(t, items[1].DeliveredAt.Valid)

	_, err = fx.svc.Checklist(ctx, fx.camp.ID, "999")
	assert.Equal(t, club.ErrMemberNotFound, err)

	require.NoError(t, fx.svc.DeleteDelivery(ctx, d.ID))
	assert.Equal(t, documents.ErrDeliveryNotFound, fx.svc.DeleteDelivery(ctx, d.ID))
	items, err = fx.svc.Checklist(ctx, fx.camp.ID, fx.ana.SGC)
	require.NoError(t, err)
	assert.False(t, items[1].Delivered)
}
