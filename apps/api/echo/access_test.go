package echoapi_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pioneiros/colina/core/inventory"
	"github.com/pioneiros/colina/core/report"
	"github.com/pioneiros/colina/core/user"
	"github.com/pioneiros/colina/storage/database/testutil"
)

// Tab checks of the areas outside the club registry.
func Test_tabAccess(t *testing.T) {
	app := setup(t)
	_, adminToken := app.login(t, "admin", "1001", user.PermAdmin)
	_, specialtyToken := app.login(t, "espec", "1002", user.PermSpecialty)
	_, teamToken := app.login(t, "equipe", "1003", user.PermTeam)
	_, councilToken := app.login(t, "conselho", "1004", user.PermCouncil)

	tests := []httpTest{
		// events are shared by the treasury and documents tabs
		{name: "events from the treasury tab", method: http.MethodGet, path: "/v1/events", token: adminToken, wantCode: http.StatusOK},
		{name: "events from the documents tab", method: http.MethodGet, path: "/v1/events", token: specialtyToken, wantCode: http.StatusOK},
		{name: "events without either tab", method: http.MethodGet, path: "/v1/events", token: teamToken, wantCode: http.StatusForbidden},
		{name: "treasury without the tab", method: http.MethodGet, path: "/v1/treasury/dues", token: teamToken, wantCode: http.StatusForbidden},
		{name: "treasury", method: http.MethodGet, path: "/v1/treasury/dues", token: adminToken, wantCode: http.StatusOK},

		// assets are read from the materials tab too
		{name: "assets without the tabs", method: http.MethodGet, path: "/v1/assets", token: adminToken, wantCode: http.StatusForbidden},
		{name: "assets", method: http.MethodGet, path: "/v1/assets", token: specialtyToken, wantCode: http.StatusOK},
		{
			name: "asset creation without the tab", method: http.MethodPost, path: "/v1/assets",
			body:  []byte(`{"name": "Lona", "quantity": 1, "acquired_at": "2020-01-01T00:00:00Z"}`),
			token: adminToken, wantCode: http.StatusForbidden,
		},
		{name: "material requests without the tab", method: http.MethodGet, path: "/v1/material-requests", token: teamToken, wantCode: http.StatusForbidden},

		{name: "minutes without the tab", method: http.MethodGet, path: "/v1/minutes", token: adminToken, wantCode: http.StatusForbidden},
		{name: "minutes", method: http.MethodGet, path: "/v1/minutes", token: specialtyToken, wantCode: http.StatusOK, wantData: []byte(`[]`)},
		{name: "reports without the tab", method: http.MethodGet, path: "/v1/reports", token: adminToken, wantCode: http.StatusForbidden},
		{name: "reports", method: http.MethodGet, path: "/v1/reports", token: specialtyToken, wantCode: http.StatusOK, wantData: marshalObj(t, report.Names)},
		{name: "unknown report", method: http.MethodGet, path: "/v1/reports/desconhecido", token: specialtyToken, wantCode: http.StatusNotFound},

		// attendance and scores
		{name: "scores", method: http.MethodGet, path: "/v1/scores/ranking", token: councilToken, wantCode: http.StatusOK},
		{name: "attendance view without the tab", method: http.MethodGet, path: "/v1/attendance", token: councilToken, wantCode: http.StatusForbidden},

		// catalogs follow the tab of their kind; changes need a progress manager
		{name: "unknown catalog", method: http.MethodGet, path: "/v1/catalogs/insignias", token: adminToken, wantCode: http.StatusNotFound},
		{name: "classes without the tab", method: http.MethodGet, path: "/v1/catalogs/classe", token: teamToken, wantCode: http.StatusForbidden},
		{name: "classes", method: http.MethodGet, path: "/v1/catalogs/classe", token: councilToken, wantCode: http.StatusOK},
		{
			name: "class creation by the council", method: http.MethodPost, path: "/v1/catalogs/classe",
			body: []byte(`{"code": "AM", "name": "Amigo"}`), token: councilToken, wantCode: http.StatusForbidden,
		},
		{
			name: "class creation", method: http.MethodPost, path: "/v1/catalogs/classe",
			body: []byte(`{"code": "AM", "name": "Amigo"}`), token: adminToken, wantCode: http.StatusCreated,
		},
	}
	runHTTPTests(t, app, tests)
}

func Test_inventoryApi_requests(t *testing.T) {
	app := setup(t)
	_, token := app.login(t, "espec", "1002", user.PermSpecialty)
	mtg := testutil.CreateMeeting(t, app.db, "Acampamento", testutil.Date(2024, 3, 9))

	rec := app.serve(httpTest{
		method: http.MethodPost,
		path:   "/v1/assets",
		body:   []byte(`{"name": "Barraca", "quantity": 2, "acquired_at": "2020-01-10T00:00:00Z"}`),
		token:  token,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var asset inventory.Asset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &asset))

	tests := []httpTest{
		{
			name:     "more than the stock",
			method:   http.MethodPost,
			path:     "/v1/material-requests",
			body:     []byte(fmt.Sprintf(`{"meeting_id": %d, "items": {"%d": 3}}`, mtg.ID, asset.ID)),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(fmt.Sprintf(`{"items.%d": %q}`, asset.ID, inventory.ErrInsufficientStock.Error())),
		},
		{
			name:     "submit",
			method:   http.MethodPost,
			path:     "/v1/material-requests",
			body:     []byte(fmt.Sprintf(`{"meeting_id": %d, "items": {"%d": 2}}`, mtg.ID, asset.ID)),
			token:    token,
			wantCode: http.StatusCreated,
		},
	}
	runHTTPTests(t, app, tests)

	rec = app.serve(httpTest{method: http.MethodGet, path: fmt.Sprintf("/v1/material-requests?meeting_id=%d", mtg.ID), token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	var reqs []inventory.RequestDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reqs))
	require.Len(t, reqs, 1)
	assert.Equal(t, "1002", reqs[0].SGC, "filed in the name of the logged member")

	rec = app.serve(httpTest{
		method: http.MethodPut,
		path:   fmt.Sprintf("/v1/material-requests/%d/status", reqs[0].ID),
		body:   []byte(`{"status": "Aprovado"}`),
		token:  token,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.serve(httpTest{method: http.MethodGet, path: fmt.Sprintf("/v1/loans/%d", mtg.ID), token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	var cards []inventory.LoanCard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cards))
	require.Len(t, cards, 1)
	assert.Equal(t, inventory.StatusPending, cards[0].Status)

	rec = app.serve(httpTest{
		method: http.MethodPut,
		path:   fmt.Sprintf("/v1/loans/%d/1002", mtg.ID),
		body:   []byte(`{"status": "Emprestado"}`),
		token:  token,
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func Test_reportApi_export(t *testing.T) {
	app := setup(t)
	_, token := app.login(t, "espec", "1002", user.PermSpecialty)

	rec := app.serve(httpTest{method: http.MethodGet, path: "/v1/reports/patrimonio/export", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="patrimonio.xlsx"; filename*=UTF-8''patrim%C3%B4nio.xlsx`, rec.Header().Get("Content-Disposition"))
	assert.NotZero(t, rec.Body.Len())

	rec = app.serve(httpTest{method: http.MethodGet, path: "/v1/reports/presenca?period=semana", token: token})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
