package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	echoapi "github.com/pioneiros/colina/apps/api/echo"
	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/attendance"
	"github.com/pioneiros/colina/core/club"
	"github.com/pioneiros/colina/core/documents"
	"github.com/pioneiros/colina/core/inventory"
	"github.com/pioneiros/colina/core/minutes"
	"github.com/pioneiros/colina/core/progress"
	"github.com/pioneiros/colina/core/report"
	"github.com/pioneiros/colina/core/treasury"
	"github.com/pioneiros/colina/core/user"
	emailsvc "github.com/pioneiros/colina/services/email"
	spreadsheetsvc "github.com/pioneiros/colina/services/spreadsheet"
	gormrepos "github.com/pioneiros/colina/storage/database/gorm"
	sqlxrepos "github.com/pioneiros/colina/storage/database/sqlx"
	"github.com/pioneiros/colina/storage/database/testutil"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

func TestMain(m *testing.M) {
	testutil.ParseEmailTemplates()
	os.Exit(m.Run())
}

type eventLookup struct {
	*club.Service
	events *treasury.Service
}

func (l eventLookup) GetEvent(ctx context.Context, id int) (treasury.Event, error) {
	return l.events.GetEvent(ctx, id)
}

type testApp struct {
	srv      *echoapi.Server
	db       *gorm.DB
	usrRepo  user.Repository
	clubs    *club.Service
	treasury *treasury.Service
}

func setup(t *testing.T) testApp {
	conf := core.NewTestConfig()
	db := testutil.PrepareDB(t)
	xdb := testutil.SQLX(t, db)
	validate, translator := testutil.Validator()

	usrRepo := gormrepos.NewUserRepository(db)
	clubSvc := club.NewService(gormrepos.NewClubRepository(db), validate)
	attendanceSvc := attendance.NewService(
		gormrepos.NewAttendanceRepository(db), sqlxrepos.NewStatsRepository(xdb), clubSvc, validate,
	)
	excel := spreadsheetsvc.NewExcel()
	treasurySvc := treasury.NewService(
		gormrepos.NewTreasuryRepository(db), sqlxrepos.NewTreasuryReports(xdb), clubSvc, validate,
	)

	srv := echoapi.NewServer(&echoapi.Options{
		Conf:           conf,
		Logger:         testutil.Logger(),
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
		UserSvc:        user.NewServiceMock(usrRepo, clubSvc, emailsvc.NewConsoleServiceMock(conf), validate),
		ClubSvc:        clubSvc,
		AttendanceSvc:  attendanceSvc,
		ProgressSvc:    progress.NewService(gormrepos.NewProgressRepository(db), clubSvc, excel, validate),
		TreasurySvc:    treasurySvc,
		InventorySvc:   inventory.NewService(gormrepos.NewInventoryRepository(db), clubSvc, validate),
		MinutesSvc:     minutes.NewService(gormrepos.NewMinutesRepository(db), clubSvc, validate),
		DocumentsSvc: documents.NewService(
			gormrepos.NewDocumentsRepository(db), eventLookup{Service: clubSvc, events: treasurySvc}, validate,
		),
		ReportSvc: report.NewService(sqlxrepos.NewReportRepository(xdb), attendanceSvc, excel),
	})

	return testApp{srv: srv, db: db, usrRepo: usrRepo, clubs: clubSvc, treasury: treasurySvc}
}

// login creates a member and a user with perm, and returns the user with a valid token.
func (app testApp) login(t *testing.T, login, sgc, perm string) (user.User, string) {
	unit := testutil.CreateUnit(t, app.db, "Unidade "+login)
	mbr := testutil.CreateMember(t, app.db, unit.ID, login, sgc, club.RoleCounselor)
	usr := testutil.CreateUser(t, app.usrRepo, login, login+"@test.cd", sgc, perm, "pwd")
	return usr, getToken(t, usr, mbr)
}

func (app testApp) serve(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	app.srv.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, usr user.User, mbr club.Member) string {
	conf := core.NewTestConfig()
	sess := user.Session{User: usr, Member: mbr, Tabs: usr.Tabs()}
	token, err := echoapi.GenerateToken(conf, echoapi.NewClaims(conf, sess))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

// checkCodeAndData compares the body only when tt.wantData is set.
func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app testApp, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.serve(tt))
		})
	}
}
