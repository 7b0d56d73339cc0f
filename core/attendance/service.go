package attendance

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/club"
)

var (
	// errors
	ErrNotInUnit     = errors.New("member does not belong to this unit")
	ErrInvalidPeriod = fmt.Errorf("period must be one of: %s, %s, %s", PeriodMeeting, PeriodMonth, PeriodYear)
)

type (
	Repository interface {
		// UnitMembers lists the members of a unit ordered by cargo then name.
		UnitMembers(ctx context.Context, unitID int) ([]club.Member, error)
		QuerySheet(ctx context.Context, meetingID, unitID int) ([]Attendance, error)
		// SaveSheet upserts the records in one transaction, keyed by (meeting, member).
		SaveSheet(ctx context.Context, records []Attendance) error
		QueryRecords(ctx context.Context, filter Filter) ([]Record, error)
	}

	// StatsRepository runs the aggregate queries behind the scores.
	StatsRepository interface {
		MeetingScores(ctx context.Context, filter StatsFilter) ([]MeetingScore, error)
		MemberScores(ctx context.Context, unitID int) ([]MemberScore, error)
	}

	// Lookup resolves the meeting & unit of a sheet.
	Lookup interface {
		GetMeeting(ctx context.Context, id int) (club.Meeting, error)
		GetUnit(ctx context.Context, id int) (club.Unit, error)
	}
)

type Service struct {
	repo     Repository
	stats    StatsRepository
	lookup   Lookup
	validate *validator.Validate
}

func NewService(repo Repository, stats StatsRepository, lookup Lookup, validate *validator.Validate) *Service {
	return &Service{repo: repo, stats: stats, lookup: lookup, validate: validate}
}

func (svc *Service) checkMeetingUnit(ctx context.Context, meetingID, unitID int) error {
	if _, err := svc.lookup.GetMeeting(ctx, meetingID); err != nil {
		return err
	}
	_, err := svc.lookup.GetUnit(ctx, unitID)
	return err
}

// Sheet returns the unit's members grouped by cargo, with the scores already saved for the meeting.
func (svc *Service) Sheet(ctx context.Context, meetingID, unitID int) (Sheet, error) {
	if err := svc.checkMeetingUnit(ctx, meetingID, unitID); err != nil {
		return Sheet{}, err
	}
	members, err := svc.repo.UnitMembers(ctx, unitID)
	if err != nil {
		return Sheet{}, err
	}
	saved, err := svc.repo.QuerySheet(ctx, meetingID, unitID)
	if err != nil {
		return Sheet{}, err
	}
	byMember := make(map[int]Attendance, len(saved))
	for _, a := range saved {
		byMember[a.MemberID] = a
	}

	sheet := Sheet{MeetingID: meetingID, UnitID: unitID, Groups: []SheetGroup{}}
	idx := make(map[string]int)
	for _, mbr := range members {
		role := mbr.Role
		if role == "" {
			role = club.NoRoleLabel
		}
		i, ok := idx[role]
		if !ok {
			i = len(sheet.Groups)
			idx[role] = i
			sheet.Groups = append(sheet.Groups, SheetGroup{Role: role})
		}
		entry := SheetEntry{MemberID: mbr.ID, Name: mbr.Name}
		if a, ok := byMember[mbr.ID]; ok {
			entry.Saved = true
			entry.Scores = a.Scores
		}
		sheet.Groups[i].Members = append(sheet.Groups[i].Members, entry)
	}
	return sheet, nil
}

// Register saves the sheet of a unit for a meeting, replacing previously saved scores.
func (svc *Service) Register(ctx context.Context, meetingID, unitID int, reg Register) error {
	if err := reg.Validate(svc.validate); err != nil {
		return err
	}
	if err := svc.checkMeetingUnit(ctx, meetingID, unitID); err != nil {
		return err
	}
	members, err := svc.repo.UnitMembers(ctx, unitID)
	if err != nil {
		return err
	}
	inUnit := make(map[int]bool, len(members))
	for _, m := range members {
		inUnit[m.ID] = true
	}

	records := make([]Attendance, 0, len(reg.Entries))
	for i, e := range reg.Entries {
		if !inUnit[e.MemberID] {
			return core.NewFieldError(fmt.Sprintf("entries[%d].member_id", i), ErrNotInUnit)
		}
		records = append(records, Attendance{
			MeetingID: meetingID,
			UnitID:    unitID,
			MemberID:  e.MemberID,
			Scores: Scores{
				Presence:    e.Presence,
				Punctuality: e.Punctuality,
				Uniform:     e.Uniform,
				Modesty:     e.Modesty,
			},
		})
	}
	return svc.repo.SaveSheet(ctx, records)
}

func (svc *Service) Query(ctx context.Context, filter Filter) ([]Record, error) {
	records, err := svc.repo.QueryRecords(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Total = records[i].Scores.Total()
	}
	return records, nil
}

// Ranking sums every unit's scores, highest total first.
func (svc *Service) Ranking(ctx context.Context, year int) ([]RankingRow, error) {
	scores, err := svc.stats.MeetingScores(ctx, StatsFilter{Year: year})
	if err != nil {
		return nil, err
	}
	return Rank(scores), nil
}

// Rank folds meeting scores into one RankingRow per unit, sorted by total (desc) then name.
func Rank(scores []MeetingScore) []RankingRow {
	byUnit := make(map[int]*RankingRow)
	rows := make([]*RankingRow, 0)
	for _, ms := range scores {
		row, ok := byUnit[ms.UnitID]
		if !ok {
			row = &RankingRow{UnitID: ms.UnitID, UnitName: ms.UnitName}
			byUnit[ms.UnitID] = row
			rows = append(rows, row)
		}
		row.Scores = row.Scores.add(ms.scores())
	}

	ranking := make([]RankingRow, 0, len(rows))
	for _, r := range rows {
		r.Total = r.Scores.Total()
		ranking = append(ranking, *r)
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].Total != ranking[j].Total {
			return ranking[i].Total > ranking[j].Total
		}
		return ranking[i].UnitName < ranking[j].UnitName
	})
	return ranking
}

// Breakdown sums a unit's scores per period, in chronological order.
func (svc *Service) Breakdown(ctx context.Context, unitID int, period string) ([]PeriodRow, error) {
	if !IsPeriod(period) {
		return nil, core.NewFieldError("period", ErrInvalidPeriod)
	}
	if _, err := svc.lookup.GetUnit(ctx, unitID); err != nil {
		return nil, err
	}
	scores, err := svc.stats.MeetingScores(ctx, StatsFilter{UnitID: unitID})
	if err != nil {
		return nil, err
	}
	return GroupByPeriod(scores, period), nil
}

// PeriodReport sums every unit's scores per period.
func (svc *Service) PeriodReport(ctx context.Context, period string, year int) ([]PeriodRow, error) {
	if !IsPeriod(period) {
		return nil, core.NewFieldError("period", ErrInvalidPeriod)
	}
	scores, err := svc.stats.MeetingScores(ctx, StatsFilter{Year: year})
	if err != nil {
		return nil, err
	}
	return GroupByPeriod(scores, period), nil
}

// MemberTotals sums each member's scores for a unit, highest total first.
func (svc *Service) MemberTotals(ctx context.Context, unitID int) ([]MemberScore, error) {
	if _, err := svc.lookup.GetUnit(ctx, unitID); err != nil {
		return nil, err
	}
	scores, err := svc.stats.MemberScores(ctx, unitID)
	if err != nil {
		return nil, err
	}
	for i := range scores {
		s := scores[i]
		scores[i].Total = s.Presence + s.Punctuality + s.Uniform + s.Modesty
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Total != scores[j].Total {
			return scores[i].Total > scores[j].Total
		}
		return scores[i].Name < scores[j].Name
	})
	return scores, nil
}

func periodKey(ms MeetingScore, period string) string {
	switch period {
	case PeriodYear:
		return ms.MeetingDate.Format("2006")
	case PeriodMonth:
		return ms.MeetingDate.Format("2006-01")
	default:
		return ms.MeetingDate.Format("2006-01-02") + " " + ms.MeetingName
	}
}

// GroupByPeriod folds meeting scores into one row per (unit, period), ordered by period then unit name.
func GroupByPeriod(scores []MeetingScore, period string) []PeriodRow {
	type key struct {
		unit   int
		period string
	}
	byKey := make(map[key]*PeriodRow)
	sortKeys := make(map[key]string)
	keys := make([]key, 0)
	for _, ms := range scores {
		k := key{unit: ms.UnitID, period: periodKey(ms, period)}
		row, ok := byKey[k]
		if !ok {
			row = &PeriodRow{UnitID: ms.UnitID, UnitName: ms.UnitName, Period: k.period}
			byKey[k] = row
			keys = append(keys, k)
			// meetings sharing a date stay in id order
			sortKeys[k] = fmt.Sprintf("%s#%010d", ms.MeetingDate.Format("2006-01-02"), ms.MeetingID)
			if period != PeriodMeeting {
				sortKeys[k] = k.period
			}
		}
		row.Scores = row.Scores.add(ms.scores())
	}

	sort.SliceStable(keys, func(i, j int) bool {
		si, sj := sortKeys[keys[i]], sortKeys[keys[j]]
		if si != sj {
			return si < sj
		}
		return byKey[keys[i]].UnitName < byKey[keys[j]].UnitName
	})

	rows := make([]PeriodRow, 0, len(keys))
	for _, k := range keys {
		row := byKey[k]
		row.Total = row.Scores.Total()
		rows = append(rows, *row)
	}
	return rows
}
