package minutes_test

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/club"
	"github.com/pioneiros/colina/core/minutes"
	gormrepos "github.com/pioneiros/colina/storage/database/gorm"
	"github.com/pioneiros/colina/storage/database/testutil"
)

type fixture struct {
	svc    *minutes.Service
	clubs  *club.Service
	march  club.Meeting
	april  club.Meeting
	eagles club.Unit
	lions  club.Unit
	ana    club.Member
	bruno  club.Member
}

func setup(t *testing.T) fixture {
	db := testutil.PrepareDB(t)
	validate, _ := testutil.Validator()
	clubSvc := club.NewService(gormrepos.NewClubRepository(db), validate)
	fx := fixture{
		svc:    minutes.NewService(gormrepos.NewMinutesRepository(db), clubSvc, validate),
		clubs:  clubSvc,
		march:  testutil.CreateMeeting(t, db, "Reuniao de marco", testutil.Date(2024, 3, 2)),
		april:  testutil.CreateMeeting(t, db, "Reuniao de abril", testutil.Date(2024, 4, 6)),
		eagles: testutil.CreateUnit(t, db, "Aguia"),
		lions:  testutil.CreateUnit(t, db, "Leao"),
	}
	fx.ana = testutil.CreateMember(t, db, fx.eagles.ID, "Ana", "1", club.RoleCounselor)
	fx.bruno = testutil.CreateMember(t, db, fx.lions.ID, "Bruno", "2", club.RoleCounselor)
	return fx
}

// fieldOf returns the first invalid field of err.
func fieldOf(t *testing.T, err error) string {
	var fErrs validator.ValidationErrors
	if errors.As(err, &fErrs) {
		return fErrs[0].Field()
	}
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr), "error %v is not a validation error", err)
	require.NotEmpty(t, verr.Fields)
	return verr.Fields[0].Field
}

func TestService_Minutes(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		data      minutes.NewMinute
		wantField string
	}{
		{"no title", minutes.NewMinute{MeetingID: fx.march.ID, Description: "Abertura"}, "title"},
		{"no description", minutes.NewMinute{MeetingID: fx.march.ID, Title: "Ata 1", Description: "   "}, "description"},
		{"unknown meeting", minutes.NewMinute{MeetingID: 999, Title: "Ata 1", Description: "Abertura"}, "meeting_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.svc.CreateMinute(ctx, tt.data)
			require.Error(t, err)
			assert.Equal(t, tt.wantField, fieldOf(t, err))
		})
	}

	first, err := fx.svc.CreateMinute(ctx, minutes.NewMinute{MeetingID: fx.march.ID, Title: " Ata 1 ", Description: "Abertura"})
	require.NoError(t, err)
	assert.Equal(t, "Ata 1", first.Title)
	second, err := fx.svc.CreateMinute(ctx, minutes.NewMinute{MeetingID: fx.april.ID, Title: "Ata 2", Description: "Abertura"})
	require.NoError(t, err)

	list, err := fx.svc.QueryMinutes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest meeting first")
	assert.Equal(t, "Reuniao de abril", list[0].MeetingName)
	assert.Equal(t, "Reuniao de marco", list[1].MeetingName)

	updated, err := fx.svc.UpdateMinute(ctx, first.ID, minutes.NewMinute{MeetingID: fx.april.ID, Title: "Ata 1b", Description: "Revisada"})
	require.NoError(t, err)
	assert.Equal(t, fx.april.ID, updated.MeetingID)
	assert.Equal(t, "Ata 1b", updated.Title)

	_, err = fx.svc.UpdateMinute(ctx, 999, minutes.NewMinute{MeetingID: fx.april.ID, Title: "X", Description: "Y"})
	assert.Equal(t, minutes.ErrMinuteNotFound, err)

	// a meeting with atas cannot be deleted
	err = fx.clubs.DeleteMeeting(ctx, fx.march.ID)
	assert.Error(t, err)

	require.NoError(t, fx.svc.DeleteMinute(ctx, second.ID))
	assert.Equal(t, minutes.ErrMinuteNotFound, fx.svc.DeleteMinute(ctx, second.ID))
}

func TestService_Acts(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	minute, err := fx.svc.CreateMinute(ctx, minutes.NewMinute{MeetingID: fx.march.ID, Title: "Ata 1", Description: "Abertura"})
	require.NoError(t, err)

	_, err = fx.svc.CreateAct(ctx, "999", minutes.NewAct{MinuteID: minute.ID, Title: "Ato", Description: "Hino"})
	assert.True(t, errors.Is(err, minutes.ErrNoUnit), "CreateAct() error = %v", err)

	_, err = fx.svc.CreateAct(ctx, fx.ana.SGC, minutes.NewAct{MinuteID: 999, Title: "Ato", Description: "Hino"})
	require.Error(t, err)
	assert.Equal(t, "minute_id", fieldOf(t, err))

	act, err := fx.svc.CreateAct(ctx, fx.ana.SGC, minutes.NewAct{MinuteID: minute.ID, Title: "Ato 1", Description: "Hino"})
	require.NoError(t, err)
	assert.Equal(t, fx.eagles.ID, act.UnitID)
	_, err = fx.svc.CreateAct(ctx, fx.bruno.SGC, minutes.NewAct{MinuteID: minute.ID, Title: "Ato 2", Description: "Oracao"})
	require.NoError(t, err)

	acts, err := fx.svc.QueryActs(ctx, minutes.ActFilter{MinuteID: minute.ID})
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.Equal(t, "Aguia", acts[0].UnitName)
	assert.Equal(t, "Ata 1", acts[0].MinuteTitle)
	assert.Equal(t, "Leao", acts[1].UnitName)

	// the unit an act was recorded for never changes
	updated, err := fx.svc.UpdateAct(ctx, act.ID, minutes.NewAct{MinuteID: minute.ID, Title: "Ato 1b", Description: "Hino"})
	require.NoError(t, err)
	assert.Equal(t, fx.eagles.ID, updated.UnitID)
	assert.Equal(t, "Ato 1b", updated.Title)

	_, err = fx.svc.UpdateAct(ctx, 999, minutes.NewAct{MinuteID: minute.ID, Title: "X", Description: "Y"})
	assert.Equal(t, minutes.ErrActNotFound, err)

	err = fx.svc.DeleteMinute(ctx, minute.ID)
	assert.True(t, errors.Is(err, minutes.ErrMinuteInUse), "DeleteMinute() error = %v", err)

	for _, a := range acts {
		require.NoError(t, fx.svc.DeleteAct(ctx, a.ID))
	}
	assert.Equal(t, minutes.ErrActNotFound, fx.svc.DeleteAct(ctx, act.ID))
	assert.NoError(t, fx.svc.DeleteMinute(ctx, minute.ID))
}
