package treasury

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/club"
)

var (
	// errors
	ErrDuesNotFound       = core.NewNotFoundError("dues")
	ErrMemberDuesNotFound = core.NewNotFoundError("member dues")
	ErrEventNotFound      = core.NewNotFoundError("event")
	ErrEnrollmentNotFound = core.NewNotFoundError("enrollment")
	ErrCashEntryNotFound  = core.NewNotFoundError("cash entry")
	ErrClosingNotFound    = core.NewNotFoundError("closing")
	ErrYearHasDues        = errors.New("dues already exist for this year")
	ErrAlreadyEnrolled    = errors.New("member already enrolled in this event")
	ErrAlreadyClosed      = errors.New("this month is already closed")
	ErrMonthClosed        = errors.New("the month of this entry is closed")
)

type (
	Repository interface {
		// Transaction runs fn with a Repository bound to a single database transaction.
		Transaction(ctx context.Context, fn func(repo Repository) error) error

		CreateDues(ctx context.Context, d Dues) (Dues, error)
		CountYearDues(ctx context.Context, year int) (int64, error)
		QueryDues(ctx context.Context, year int) ([]Dues, error)
		GetDues(ctx context.Context, id int) (Dues, error)
		UpdateDues(ctx context.Context, d Dues) (Dues, error)
		AssignDues(ctx context.Context, md []MemberDues) error
		QueryMemberDues(ctx context.Context, sgc string) ([]MemberDuesDetail, error)
		GetMemberDues(ctx context.Context, duesID int, sgc string) (MemberDues, error)
		SetMemberDuesStatus(ctx context.Context, id int, status string) error

		CreateEvent(ctx context.Context, evt Event) (Event, error)
		QueryEvents(ctx context.Context) ([]Event, error)
		GetEvent(ctx context.Context, id int) (Event, error)
		UpdateEvent(ctx context.Context, evt Event) (Event, error)
		// DeleteEvent removes the event with its enrolments and document requirements.
		DeleteEvent(ctx context.Context, id int) error

		CreateEnrollments(ctx context.Context, enrollments []Enrollment) error
		QueryEnrollments(ctx context.Context, eventID int) ([]EnrollmentDetail, error)
		MemberEnrollments(ctx context.Context, sgc string) ([]EnrollmentDetail, error)
		GetEnrollment(ctx context.Context, eventID int, sgc string) (Enrollment, error)
		SetEnrollmentStatus(ctx context.Context, id int, status string) error
		DeleteEnrollment(ctx context.Context, id int) error

		CreateCashEntry(ctx context.Context, entry CashEntry) (CashEntry, error)
		QueryCashEntries(ctx context.Context, filter CashFilter) ([]CashEntryDetail, error)
		GetCashEntry(ctx context.Context, id int) (CashEntry, error)
		DeleteCashEntry(ctx context.Context, id int) error
		// SumCash totals the entries of each type dated within [from, to).
		SumCash(ctx context.Context, from, to time.Time) (in float64, out float64, err error)

		// CreateClosing returns ErrAlreadyClosed when the month already has a closing.
		CreateClosing(ctx context.Context, c Closing) (Closing, error)
		GetClosing(ctx context.Context, year, month int) (Closing, error)
		QueryClosings(ctx context.Context) ([]Closing, error)
	}

	// ReportRepository runs the aggregate queries of the treasury reports.
	ReportRepository interface {
		YearTotals(ctx context.Context) ([]YearTotal, error)
		MonthTotals(ctx context.Context) ([]MonthTotal, error)
		OverallTotals(ctx context.Context) (Totals, error)
		EventsWithCash(ctx context.Context) ([]Event, error)
		DuesIndicators(ctx context.Context, filter IndicatorFilter) ([]DuesIndicator, error)
		Debtors(ctx context.Context) ([]Debtor, error)
	}

	Members interface {
		GetMemberBySGC(ctx context.Context, sgc string) (club.Member, error)
		QueryMembers(ctx context.Context, filter club.MemberFilter, ordering []core.DBOrdering) ([]club.MemberDetail, error)
	}
)

type Service struct {
	repo     Repository
	reports  ReportRepository
	members  Members
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repository, reports ReportRepository, members Members, validate *validator.Validate) *Service {
	return &Service{repo: repo, reports: reports, members: members, validate: validate, now: time.Now}
}

func (svc *Service) today() time.Time {
	return core.Day(svc.now())
}

// Dues

// CreateYearlyDues creates the twelve mensalidades of a year and assigns them, pending,
// to every Desbravador.
func (svc *Service) CreateYearlyDues(ctx context.Context, yd YearlyDues) ([]Dues, error) {
	if err := yd.Validate(svc.validate); err != nil {
		return nil, err
	}
	count, err := svc.repo.CountYearDues(ctx, yd.Year)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, core.NewFieldError("year", ErrYearHasDues)
	}
	members, err := svc.members.QueryMembers(ctx, club.MemberFilter{Role: club.RolePathfinder}, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "querying pathfinders")
	}

	created := make([]Dues, 0, 12)
	err = svc.repo.Transaction(ctx, func(repo Repository) error {
		for month := 1; month <= 12; month++ {
			d, err := repo.CreateDues(ctx, Dues{Year: yd.Year, Month: month, Value: core.RoundMoney(yd.Value)})
			if err != nil {
				return err
			}
			created = append(created, d)

			if len(members) == 0 {
				continue
			}
			assigned := make([]MemberDues, 0, len(members))
			for _, m := range members {
				assigned = append(assigned, MemberDues{DuesID: d.ID, SGC: m.SGC, Status: StatusPending})
			}
			if err := repo.AssignDues(ctx, assigned); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (svc *Service) QueryDues(ctx context.Context, year int) ([]Dues, error) {
	return svc.repo.QueryDues(ctx, year)
}

func (svc *Service) EditDues(ctx context.Context, id int, ed EditDues) (Dues, error) {
	d, err := svc.repo.GetDues(ctx, id)
	if err != nil {
		return Dues{}, err
	}
	if err := ed.Validate(svc.validate); err != nil {
		return Dues{}, err
	}
	d.Value = core.RoundMoney(ed.Value)
	return svc.repo.UpdateDues(ctx, d)
}

func (svc *Service) MemberDues(ctx context.Context, sgc string) ([]MemberDuesDetail, error) {
	sgc = core.CleanString(sgc)
	if _, err := svc.members.GetMemberBySGC(ctx, sgc); err != nil {
		return nil, err
	}
	return svc.repo.QueryMemberDues(ctx, sgc)
}

// UpdateDuesStatus applies the new statuses of a member's dues. Every dues that becomes Pago
// books its value as a cash entry dated today.
func (svc *Service) UpdateDuesStatus(ctx context.Context, sgc string, du DuesStatusUpdate) error {
	if err := du.Validate(svc.validate); err != nil {
		return err
	}
	sgc = core.CleanString(sgc)
	if _, err := svc.members.GetMemberBySGC(ctx, sgc); err != nil {
		return err
	}

	ids := make([]int, 0, len(du.Statuses))
	for id := range du.Statuses {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	return svc.repo.Transaction(ctx, func(repo Repository) error {
		for _, duesID := range ids {
			status := du.Statuses[duesID]
			md, err := repo.GetMemberDues(ctx, duesID, sgc)
			if err != nil {
				if err == ErrMemberDuesNotFound {
					return core.NewFieldError("statuses."+strconv.Itoa(duesID), err)
				}
				return err
			}
			if md.Status == status {
				continue
			}
			if err := repo.SetMemberDuesStatus(ctx, md.ID, status); err != nil {
				return err
			}
			if status != StatusPaid {
				continue
			}
			d, err := repo.GetDues(ctx, duesID)
			if err != nil {
				return err
			}
			if err := ensureOpen(ctx, repo, svc.today()); err != nil {
				return err
			}
			_, err = repo.CreateCashEntry(ctx, CashEntry{
				Type:        EntryIn,
				Description: fmt.Sprintf("Mensalidade - %s", sgc),
				Value:       d.Value,
				Date:        svc.today(),
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Events

func (svc *Service) CreateEvent(ctx context.Context, ne NewEvent) (Event, error) {
	if err := ne.Validate(svc.validate); err != nil {
		return Event{}, err
	}
	return svc.repo.CreateEvent(ctx, Event{Name: ne.Name, Value: core.RoundMoney(ne.Value)})
}

func (svc *Service) QueryEvents(ctx context.Context) ([]Event, error) {
	return svc.repo.QueryEvents(ctx)
}

func (svc *Service) GetEvent(ctx context.Context, id int) (Event, error) {
	return svc.repo.GetEvent(ctx, id)
}

func (svc *Service) UpdateEvent(ctx context.Context, id int, ne NewEvent) (Event, error) {
	if _, err := svc.repo.GetEvent(ctx, id); err != nil {
		return Event{}, err
	}
	if err := ne.Validate(svc.validate); err != nil {
		return Event{}, err
	}
	return svc.repo.UpdateEvent(ctx, Event{ID: id, Name: ne.Name, Value: core.RoundMoney(ne.Value)})
}

func (svc *Service) DeleteEvent(ctx context.Context, id int) error {
	if _, err := svc.repo.GetEvent(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteEvent(ctx, id)
}

// Enrolments

func (svc *Service) Enroll(ctx context.Context, eventID int, e Enroll) ([]EnrollmentDetail, error) {
	if _, err := svc.repo.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	if err := e.Validate(svc.validate); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(e.SGCs))
	enrollments := make([]Enrollment, 0, len(e.SGCs))
	for i, sgc := range e.SGCs {
		field := fmt.Sprintf("sgc_codes[%d]", i)
		if seen[sgc] {
			return nil, core.NewFieldError(field, ErrAlreadyEnrolled)
		}
		seen[sgc] = true

		if _, err := svc.members.GetMemberBySGC(ctx, sgc); err != nil {
			if err == club.ErrMemberNotFound {
				return nil, core.NewFieldError(field, err)
			}
			return nil, err
		}
		_, err := svc.repo.GetEnrollment(ctx, eventID, sgc)
		switch {
		case err == nil:
			return nil, core.NewFieldError(field, ErrAlreadyEnrolled)
		case err != ErrEnrollmentNotFound:
			return nil, err
		}
		enrollments = append(enrollments, Enrollment{SGC: sgc, EventID: eventID, Status: StatusPending})
	}

	if err := svc.repo.CreateEnrollments(ctx, enrollments); err != nil {
		return nil, err
	}
	return svc.repo.QueryEnrollments(ctx, eventID)
}

func (svc *Service) QueryEnrollments(ctx context.Context, eventID int) ([]EnrollmentDetail, error) {
	if _, err := svc.repo.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return svc.repo.QueryEnrollments(ctx, eventID)
}

func (svc *Service) RemoveEnrollment(ctx context.Context, eventID int, sgc string) error {
	enr, err := svc.repo.GetEnrollment(ctx, eventID, core.CleanString(sgc))
	if err != nil {
		return err
	}
	return svc.repo.DeleteEnrollment(ctx, enr.ID)
}

// UpdateEnrollmentStatus changes the status of an enrolment. Becoming Pago books the event value
// as a cash entry linked to the event.
func (svc *Service) UpdateEnrollmentStatus(ctx context.Context, eventID int, sgc string, eu EnrollmentStatusUpdate) error {
	if err := eu.Validate(svc.validate); err != nil {
		return err
	}
	evt, err := svc.repo.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	sgc = core.CleanString(sgc)

	return svc.repo.Transaction(ctx, func(repo Repository) error {
		enr, err := repo.GetEnrollment(ctx, eventID, sgc)
		if err != nil {
			return err
		}
		if enr.Status == eu.Status {
			return nil
		}
		if err := repo.SetEnrollmentStatus(ctx, enr.ID, eu.Status); err != nil {
			return err
		}
		if eu.Status != StatusPaid {
			return nil
		}
		if err := ensureOpen(ctx, repo, svc.today()); err != nil {
			return err
		}
		_, err = repo.CreateCashEntry(ctx, CashEntry{
			Type:        EntryIn,
			Description: fmt.Sprintf("Evento %s - %s", evt.Name, sgc),
			Value:       evt.Value,
			Date:        svc.today(),
			EventID:     null.IntFrom(evt.ID),
		})
		return err
	})
}

// Debts

func (svc *Service) Debts(ctx context.Context, sgc string) (Debts, error) {
	sgc = core.CleanString(sgc)
	if _, err := svc.members.GetMemberBySGC(ctx, sgc); err != nil {
		return Debts{}, err
	}
	dues, err := svc.repo.QueryMemberDues(ctx, sgc)
	if err != nil {
		return Debts{}, err
	}
	enrollments, err := svc.repo.MemberEnrollments(ctx, sgc)
	if err != nil {
		return Debts{}, err
	}

	debts := Debts{SGC: sgc, Dues: []DebtItem{}, Events: []DebtItem{}}
	for _, d := range dues {
		if d.Status != StatusPending {
			continue
		}
		debts.Dues = append(debts.Dues, DebtItem{
			ID:          d.DuesID,
			Description: fmt.Sprintf("Mensalidade %s", monthLabel(d.Year, d.Month)),
			Value:       d.Value,
		})
		debts.DuesTotal += d.Value
	}
	for _, e := range enrollments {
		if e.Status != StatusPending {
			continue
		}
		debts.Events = append(debts.Events, DebtItem{ID: e.EventID, Description: e.EventName, Value: e.EventValue})
		debts.EventsTotal += e.EventValue
	}
	debts.DuesTotal = core.RoundMoney(debts.DuesTotal)
	debts.EventsTotal = core.RoundMoney(debts.EventsTotal)
	debts.Total = core.RoundMoney(debts.DuesTotal + debts.EventsTotal)
	return debts, nil
}

// Debtors lists the members owing anything, largest debt first.
func (svc *Service) Debtors(ctx context.Context) ([]Debtor, error) {
	rows, err := svc.reports.Debtors(ctx)
	if err != nil {
		return nil, err
	}
	debtors := make([]Debtor, 0, len(rows))
	for _, d := range rows {
		d.DuesDebt = core.RoundMoney(d.DuesDebt)
		d.EventsDebt = core.RoundMoney(d.EventsDebt)
		d.Total = core.RoundMoney(d.DuesDebt + d.EventsDebt)
		if d.Total > 0 {
			debtors = append(debtors, d)
		}
	}
	sort.SliceStable(debtors, func(i, j int) bool {
		if debtors[i].Total != debtors[j].Total {
			return debtors[i].Total > debtors[j].Total
		}
		return debtors[i].Name < debtors[j].Name
	})
	return debtors, nil
}

// Cash ledger

func (svc *Service) AddCashEntry(ctx context.Context, nc NewCashEntry) (CashEntry, error) {
	if err := nc.Validate(svc.validate); err != nil {
		return CashEntry{}, err
	}
	entry := CashEntry{
		Type:        nc.Type,
		Description: nc.Description,
		Value:       core.RoundMoney(nc.Value),
		Date:        nc.Date,
	}
	if nc.EventID > 0 {
		if _, err := svc.repo.GetEvent(ctx, nc.EventID); err != nil {
			if err == ErrEventNotFound {
				return CashEntry{}, core.NewFieldError("event_id", err)
			}
			return CashEntry{}, err
		}
		entry.EventID = null.IntFrom(nc.EventID)
	}
	if err := ensureOpen(ctx, svc.repo, entry.Date); err != nil {
		return CashEntry{}, err
	}
	return svc.repo.CreateCashEntry(ctx, entry)
}

func (svc *Service) QueryCashEntries(ctx context.Context, filter CashFilter) ([]CashEntryDetail, error) {
	if filter.Month != 0 && (filter.Month < 1 || filter.Month > 12) {
		return nil, core.NewFieldError("month", errors.New("month must be between 1 and 12"))
	}
	return svc.repo.QueryCashEntries(ctx, filter)
}

func (svc *Service) DeleteCashEntry(ctx context.Context, id int) error {
	entry, err := svc.repo.GetCashEntry(ctx, id)
	if err != nil {
		return err
	}
	if err := ensureOpen(ctx, svc.repo, entry.Date); err != nil {
		return err
	}
	return svc.repo.DeleteCashEntry(ctx, id)
}

// ensureOpen refuses ledger changes dated inside a closed month.
func ensureOpen(ctx context.Context, repo Repository, date time.Time) error {
	_, err := repo.GetClosing(ctx, date.Year(), int(date.Month()))
	switch {
	case err == nil:
		return core.NewValidationError(ErrMonthClosed)
	case err != ErrClosingNotFound:
		return err
	}
	return nil
}

// Monthly closing

// PreviewClosing sums the month's cash entries without writing anything.
func (svc *Service) PreviewClosing(ctx context.Context, cp ClosePeriod) (Closing, error) {
	if err := cp.Validate(svc.validate); err != nil {
		return Closing{}, err
	}
	from, to := core.MonthRange(cp.Year, cp.Month)
	in, out, err := svc.repo.SumCash(ctx, from, to)
	if err != nil {
		return Closing{}, err
	}
	return Closing{Year: cp.Year, Month: cp.Month, In: core.RoundMoney(in), Out: core.RoundMoney(out)}, nil
}

func (svc *Service) Close(ctx context.Context, cp ClosePeriod) (Closing, error) {
	c, err := svc.PreviewClosing(ctx, cp)
	if err != nil {
		return Closing{}, err
	}
	err = svc.repo.Transaction(ctx, func(repo Repository) error {
		_, err := repo.GetClosing(ctx, cp.Year, cp.Month)
		switch {
		case err == nil:
			return ErrAlreadyClosed
		case err != ErrClosingNotFound:
			return err
		}
		c, err = repo.CreateClosing(ctx, c)
		return err
	})
	if err == ErrAlreadyClosed {
		return Closing{}, core.NewValidationError(ErrAlreadyClosed)
	}
	if err != nil {
		return Closing{}, err
	}
	return c, nil
}

func (svc *Service) QueryClosings(ctx context.Context) ([]Closing, error) {
	return svc.repo.QueryClosings(ctx)
}

// Reports

func (svc *Service) YearTotals(ctx context.Context) ([]YearTotal, error) {
	rows, err := svc.reports.YearTotals(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].In = core.RoundMoney(rows[i].In)
		rows[i].Out = core.RoundMoney(rows[i].Out)
		rows[i].Balance = core.RoundMoney(rows[i].In - rows[i].Out)
	}
	return rows, nil
}

func (svc *Service) MonthTotals(ctx context.Context) ([]MonthTotal, error) {
	rows, err := svc.reports.MonthTotals(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Label = monthLabel(rows[i].Year, rows[i].Month)
		rows[i].Balance = core.RoundMoney(rows[i].In - rows[i].Out)
	}
	return rows, nil
}

func (svc *Service) OverallTotals(ctx context.Context) (Totals, error) {
	t, err := svc.reports.OverallTotals(ctx)
	if err != nil {
		return Totals{}, err
	}
	t.In = core.RoundMoney(t.In)
	t.Out = core.RoundMoney(t.Out)
	t.Balance = core.RoundMoney(t.In - t.Out)
	return t, nil
}

func (svc *Service) EventsWithCash(ctx context.Context) ([]Event, error) {
	return svc.reports.EventsWithCash(ctx)
}

// EventCash lists the cash entries linked to an event with their balance.
func (svc *Service) EventCash(ctx context.Context, eventID int) (EventCash, error) {
	evt, err := svc.repo.GetEvent(ctx, eventID)
	if err != nil {
		return EventCash{}, err
	}
	entries, err := svc.repo.QueryCashEntries(ctx, CashFilter{EventID: eventID})
	if err != nil {
		return EventCash{}, err
	}
	report := EventCash{Event: evt, Entries: entries}
	for _, e := range entries {
		if e.Type == EntryIn {
			report.In += e.Value
		} else {
			report.Out += e.Value
		}
	}
	report.In = core.RoundMoney(report.In)
	report.Out = core.RoundMoney(report.Out)
	report.Balance = core.RoundMoney(report.In - report.Out)
	return report, nil
}

func (svc *Service) DuesIndicators(ctx context.Context, filter IndicatorFilter) ([]DuesIndicator, error) {
	if (filter.Year == 0) != (filter.Month == 0) {
		return nil, core.NewValidationError(errors.New("year and month go together"))
	}
	return svc.reports.DuesIndicators(ctx, filter)
}
