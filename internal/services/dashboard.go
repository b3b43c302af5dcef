package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	dataagg "github.com/yungbote/labflow-backend/internal/data/aggregates"
	"github.com/yungbote/labflow-backend/internal/data/repos"
	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
	"github.com/yungbote/labflow-backend/internal/domain/labtest"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

type Buckets struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

func (b *Buckets) add(s labtest.Status) {
	switch s.Bucket() {
	case labtest.BucketCompleted:
		b.Completed++
	case labtest.BucketPending:
		b.Pending++
	default:
		b.InProgress++
	}
}

type Summary struct {
	TotalRequests int                    `json:"total_requests"`
	TotalClients  int64                  `json:"total_clients"`
	Buckets       Buckets                `json:"buckets"`
	ByStatus      map[labtest.Status]int `json:"by_status"`
}

type MonthPoint struct {
	Month      string `json:"month"`
	Requests   int    `json:"requests"`
	Chemical   int    `json:"chemical"`
	Mechanical int    `json:"mechanical"`
	Completed  int    `json:"completed"`
}

type DepartmentSummary struct {
	Department labtest.Department `json:"department"`
	Requests   int                `json:"requests"`
	Buckets    Buckets            `json:"buckets"`
	Monthly    []MonthPoint       `json:"monthly"`
}

type WeekPoint struct {
	Week          string `json:"week"`
	NewClients    int64  `json:"new_clients"`
	ActiveClients int    `json:"active_clients"`
}

type ReceptionistSummary struct {
	NewClientsThisMonth int64       `json:"new_clients_this_month"`
	Total               int         `json:"total"`
	RORGenerated        int         `json:"ror_generated"`
	ProformaGenerated   int         `json:"proforma_generated"`
	DocumentsGenerated  int         `json:"documents_generated"`
	PendingDocuments    int         `json:"pending_documents"`
	DocumentsMailed     int         `json:"documents_mailed"`
	Weeks               []WeekPoint `json:"weeks"`
}

// Standard is one distinct material / test type / standard combination.
type Standard struct {
	Material string `json:"material"`
	TestType string `json:"test_type"`
	Standard string `json:"standard"`
}

type DashboardService interface {
	Summary(ctx context.Context) (*Summary, error)
	MonthlyTrend(ctx context.Context, year int) ([]MonthPoint, error)
	DepartmentSummary(ctx context.Context, dept labtest.Department, year int) (*DepartmentSummary, error)
	ReceptionistSummary(ctx context.Context, now time.Time) (*ReceptionistSummary, error)
	PendingReports(ctx context.Context) ([]*labtest.TestRequest, error)
	Standards(ctx context.Context) ([]Standard, error)
	ExportXLSX(ctx context.Context, year int) ([]byte, error)
}

type dashboardService struct {
	log     *logger.Logger
	store   labtest.Store
	clients repos.ClientRepo
	loc     *time.Location
}

// NewDashboardService reads without locking; months and weeks are cut in loc
// (UTC when nil).
func NewDashboardService(log *logger.Logger, store labtest.Store, clients repos.ClientRepo, loc *time.Location) DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &dashboardService{
		log:     log.With("service", "DashboardService"),
		store:   store,
		clients: clients,
		loc:     loc,
	}
}

func (s *dashboardService) Summary(ctx context.Context) (*Summary, error) {
	const op = "dashboard.summary"
	out := &Summary{ByStatus: map[labtest.Status]int{}}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.clients.Count(gctx, nil)
		if err != nil {
			return dataagg.MapError(op, err)
		}
		out.TotalClients = n
		return nil
	})
	var rows []*labtest.TestRequest
	g.Go(func() error {
		var err error
		rows, err = s.store.List(gctx, labtest.Filter{}, labtest.Sort{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out.TotalRequests = len(rows)
	for _, r := range rows {
		out.Buckets.add(r.Status)
		out.ByStatus[r.Status]++
	}
	return out, nil
}

func (s *dashboardService) yearRange(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, s.loc)
	return start, start.AddDate(1, 0, 0)
}

func (s *dashboardService) MonthlyTrend(ctx context.Context, year int) ([]MonthPoint, error) {
	from, to := s.yearRange(year)
	rows, err := s.store.List(ctx, labtest.Filter{CreatedFrom: from, CreatedTo: to}, labtest.Sort{Field: labtest.SortByCreatedAt})
	if err != nil {
		return nil, err
	}
	return s.monthly(rows, ""), nil
}

// monthly folds rows into twelve calendar months. When dept is set only that
// department's sub-tests are counted.
func (s *dashboardService) monthly(rows []*labtest.TestRequest, dept labtest.Department) []MonthPoint {
	out := make([]MonthPoint, 12)
	for i := range out {
		out[i].Month = time.Month(i + 1).String()
	}
	for _, r := range rows {
		p := &out[r.CreatedAt.In(s.loc).Month()-1]
		p.Requests++
		if r.Status == labtest.StatusCompleted {
			p.Completed++
		}
		for _, st := range r.SubTests {
			d, ok := st.Department()
			if !ok || (dept != "" && d != dept) {
				continue
			}
			if d == labtest.DepartmentChemical {
				p.Chemical++
			} else {
				p.Mechanical++
			}
		}
	}
	return out
}

func (s *dashboardService) DepartmentSummary(ctx context.Context, dept labtest.Department, year int) (*DepartmentSummary, error) {
	const op = "dashboard.department"
	if !dept.Valid() {
		return nil, domainagg.Validation(op, "unknown department %q", dept)
	}
	from, to := s.yearRange(year)
	g, gctx := errgroup.WithContext(ctx)
	var all, inYear []*labtest.TestRequest
	g.Go(func() error {
		var err error
		all, err = s.store.List(gctx, labtest.Filter{Department: dept}, labtest.Sort{})
		return err
	})
	g.Go(func() error {
		var err error
		inYear, err = s.store.List(gctx, labtest.Filter{Department: dept, CreatedFrom: from, CreatedTo: to}, labtest.Sort{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := &DepartmentSummary{Department: dept, Requests: len(all), Monthly: s.monthly(inYear, dept)}
	for _, r := range all {
		out.Buckets.add(r.Status)
	}
	return out, nil
}

// ReceptionistSummary covers the calendar month containing now. Weeks are
// days 1-7, 8-14, 15-21 and 22 to month end, clipped at today.
func (s *dashboardService) ReceptionistSummary(ctx context.Context, now time.Time) (*ReceptionistSummary, error) {
	const op = "dashboard.receptionist"
	now = now.In(s.loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
	monthEnd := monthStart.AddDate(0, 1, 0)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc).AddDate(0, 0, 1)

	type week struct{ from, to time.Time }
	weeks := make([]week, 0, 4)
	for _, startDay := range []int{1, 8, 15, 22} {
		from := monthStart.AddDate(0, 0, startDay-1)
		to := from.AddDate(0, 0, 7)
		if startDay == 22 {
			to = monthEnd
		}
		if to.After(today) {
			to = today
		}
		weeks = append(weeks, week{from, to})
	}

	out := &ReceptionistSummary{Weeks: make([]WeekPoint, len(weeks))}
	var rows []*labtest.TestRequest
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.clients.CountCreatedBetween(gctx, nil, monthStart, monthEnd)
		if err != nil {
			return dataagg.MapError(op, err)
		}
		out.NewClientsThisMonth = n
		return nil
	})
	g.Go(func() error {
		var err error
		rows, err = s.store.List(gctx, labtest.Filter{CreatedFrom: monthStart, CreatedTo: monthEnd}, labtest.Sort{})
		return err
	})
	for i, w := range weeks {
		i, w := i, w
		out.Weeks[i].Week = fmt.Sprintf("Week %d", i+1)
		if !w.to.After(w.from) {
			continue
		}
		g.Go(func() error {
			n, err := s.clients.CountCreatedBetween(gctx, nil, w.from, w.to)
			if err != nil {
				return dataagg.MapError(op, err)
			}
			out.Weeks[i].NewClients = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.Total = len(rows)
	active := make([]map[string]bool, len(weeks))
	for i := range active {
		active[i] = map[string]bool{}
	}
	for _, r := range rows {
		ror, proforma := r.ROR.StatusFlag == 1, r.Proforma.StatusFlag == 1
		if ror {
			out.RORGenerated++
		}
		if proforma {
			out.ProformaGenerated++
		}
		if !ror || !proforma {
			out.PendingDocuments++
		}
		if r.Status == labtest.StatusDocumentsMailed {
			out.DocumentsMailed++
		}
		created := r.CreatedAt.In(s.loc)
		for i, w := range weeks {
			if !created.Before(w.from) && created.Before(w.to) {
				active[i][r.ClientName] = true
			}
		}
	}
	out.DocumentsGenerated = out.RORGenerated + out.ProformaGenerated
	for i := range weeks {
		out.Weeks[i].ActiveClients = len(active[i])
	}
	return out, nil
}

// PendingReports lists requests with a report in the approval loop, keeping
// only the sub-tests that are.
func (s *dashboardService) PendingReports(ctx context.Context) ([]*labtest.TestRequest, error) {
	states := []labtest.ApprovalState{labtest.ApprovalSentForApproval, labtest.ApprovalApproved, labtest.ApprovalRejected}
	rows, err := s.store.List(ctx, labtest.Filter{ReportStates: states}, labtest.Sort{Field: labtest.SortByUpdatedAt, Desc: true})
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		kept := r.SubTests[:0]
		for _, st := range r.SubTests {
			for _, state := range states {
				if st.ReportApproval.Is(state) {
					kept = append(kept, st)
					break
				}
			}
		}
		r.SubTests = kept
	}
	return rows, nil
}

func (s *dashboardService) Standards(ctx context.Context) ([]Standard, error) {
	rows, err := s.store.List(ctx, labtest.Filter{}, labtest.Sort{})
	if err != nil {
		return nil, err
	}
	seen := map[Standard]bool{}
	out := []Standard{}
	for _, r := range rows {
		for _, st := range r.SubTests {
			for _, m := range st.Measurements {
				k := Standard{Material: st.Material, TestType: st.TestType, Standard: m.Standard}
				if !seen[k] {
					seen[k] = true
					out = append(out, k)
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Material != b.Material {
			return a.Material < b.Material
		}
		if a.TestType != b.TestType {
			return a.TestType < b.TestType
		}
		return a.Standard < b.Standard
	})
	return out, nil
}

// ExportXLSX builds a workbook with a Summary sheet and a Monthly sheet for year.
func (s *dashboardService) ExportXLSX(ctx context.Context, year int) ([]byte, error) {
	const op = "dashboard.export"
	var (
		sum     *Summary
		monthly []MonthPoint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sum, err = s.Summary(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		monthly, err = s.MonthlyTrend(gctx, year)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summaryRows := [][]any{
		{"Total requests", sum.TotalRequests},
		{"Total clients", sum.TotalClients},
		{"Pending", sum.Buckets.Pending},
		{"In progress", sum.Buckets.InProgress},
		{"Completed", sum.Buckets.Completed},
	}
	for _, st := range labtest.Statuses() {
		summaryRows = append(summaryRows, []any{string(st), sum.ByStatus[st]})
	}
	monthRows := make([][]any, 0, len(monthly))
	for _, m := range monthly {
		monthRows = append(monthRows, []any{m.Month, m.Requests, m.Chemical, m.Mechanical, m.Completed})
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := writeSheet(f, "Summary", []string{"Metric", "Value"}, summaryRows); err != nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "write summary sheet", err)
	}
	if err := writeSheet(f, "Monthly", []string{"Month", "Requests", "Chemical", "Mechanical", "Completed"}, monthRows); err != nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "write monthly sheet", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "drop default sheet", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "serialize workbook", err)
	}
	s.log.Debug("dashboard exported", "year", year, "size", buf.Len())
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, name string, headers []string, rows [][]any) error {
	idx, err := f.NewSheet(name)
	if err != nil {
		return err
	}
	if name == "Summary" {
		f.SetActiveSheet(idx)
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(name, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(name, cell, cell, style); err != nil {
			return err
		}
	}
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
	}
	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	return f.SetColWidth(name, "A", last, 18)
}
