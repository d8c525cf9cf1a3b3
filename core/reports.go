package core

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// nowFunc is swapped out by tests that need a fixed clock.
var nowFunc = time.Now

const (
	// reportSampleLimit bounds how many log rows a report reads.
	reportSampleLimit = 1000
	// reportWindow is the lookback for the time-filtered reports.
	reportWindow = 24 * time.Hour
)

// ReportRow is the uniform output shape shared by all five reports. User and
// Count are loosely typed on purpose: report 4 swaps them (User carries the
// occurrence count, Count the endpoint) and report 5 puts a timestamp string
// in User and the status code in Count.
type ReportRow struct {
	Index    int    `json:"index"`
	User     any    `json:"user"`
	Count    any    `json:"count"`
	Endpoint string `json:"endpoint"`
}

// AnalyticsEngine computes on-demand aggregations over the request and error
// logs. It never writes; the logs are read-only from here.
type AnalyticsEngine struct {
	users    UserRepository
	requests RequestLogRepository
	errors   ErrorLogRepository
}

func NewAnalyticsEngine(users UserRepository, requests RequestLogRepository, errors ErrorLogRepository) *AnalyticsEngine {
	return &AnalyticsEngine{users: users, requests: requests, errors: errors}
}

// Build produces the report for the given identifier (1..5). Unknown ids fail
// with an invalid-report error.
func (e *AnalyticsEngine) Build(ctx context.Context, id int) ([]ReportRow, error) {
	switch id {
	case 1:
		return e.uniqueUsersLastDay(ctx)
	case 2:
		return e.topUsersAllTime(ctx)
	case 3:
		return e.topEndpointsLastDay(ctx)
	case 4:
		return e.topErrorEndpoints(ctx)
	case 5:
		return e.recentErrors(ctx)
	default:
		return nil, InvalidReport(fmt.Sprintf("unknown report id %d", id))
	}
}

// uniqueUsersLastDay lists the distinct requesters of the last 24 hours. Every
// row carries the same count: the total number of sampled entries in the
// window, not the per-user share. Consumers rely on that shape.
func (e *AnalyticsEngine) uniqueUsersLastDay(ctx context.Context) ([]ReportRow, error) {
	since := nowFunc().Add(-reportWindow)
	docs, err := e.requests.Recent(ctx, &since, reportSampleLimit)
	if err != nil {
		return nil, DbErr("failed to read request log", err)
	}

	names := distinctUsernames(docs)
	// Resolve back to full user records; names without a surviving account are
	// still reported.
	if _, err := e.users.FindByUsernames(ctx, names); err != nil {
		return nil, DbErr("failed to resolve users", err)
	}

	rows := make([]ReportRow, 0, len(names))
	for i, name := range names {
		rows = append(rows, ReportRow{Index: i + 1, User: name, Count: len(docs)})
	}
	return rows, nil
}

// topUsersAllTime counts per-user occurrences within the 1000 most recent
// entries, sorted descending by count.
func (e *AnalyticsEngine) topUsersAllTime(ctx context.Context) ([]ReportRow, error) {
	docs, err := e.requests.Recent(ctx, nil, reportSampleLimit)
	if err != nil {
		return nil, DbErr("failed to read request log", err)
	}

	counts := map[string]int{}
	for _, d := range docs {
		counts[d.Username]++
	}

	names := distinctUsernames(docs)
	rows := make([]ReportRow, 0, len(names))
	for _, name := range names {
		rows = append(rows, ReportRow{User: name, Count: counts[name]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count.(int) > rows[j].Count.(int)
	})
	for i := range rows {
		rows[i].Index = i + 1
	}
	return rows, nil
}

// topEndpointsLastDay groups the last 24 hours by endpoint. The subject is the
// first-seen requester of that endpoint within the window.
func (e *AnalyticsEngine) topEndpointsLastDay(ctx context.Context) ([]ReportRow, error) {
	since := nowFunc().Add(-reportWindow)
	docs, err := e.requests.Recent(ctx, &since, reportSampleLimit)
	if err != nil {
		return nil, DbErr("failed to read request log", err)
	}

	type group struct {
		count     int
		firstUser string
	}
	groups := map[string]*group{}
	var order []string
	for _, d := range docs {
		g, ok := groups[d.Endpoint]
		if !ok {
			g = &group{firstUser: d.Username}
			groups[d.Endpoint] = g
			order = append(order, d.Endpoint)
		}
		g.count++
	}

	rows := make([]ReportRow, 0, len(order))
	for _, endpoint := range order {
		g := groups[endpoint]
		rows = append(rows, ReportRow{User: g.firstUser, Count: g.count, Endpoint: endpoint})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count.(int) > rows[j].Count.(int)
	})
	for i := range rows {
		rows[i].Index = i + 1
	}
	return rows, nil
}

// topErrorEndpoints ranks endpoints by 4xx occurrences, top 10. The user and
// count fields are intentionally swapped: User carries the occurrence count
// and Count carries the endpoint name. Downstream consumers were built against
// that shape, so it is kept.
func (e *AnalyticsEngine) topErrorEndpoints(ctx context.Context) ([]ReportRow, error) {
	docs, err := e.errors.Recent(ctx, reportSampleLimit)
	if err != nil {
		return nil, DbErr("failed to read error log", err)
	}

	counts := map[string]int{}
	var order []string
	for _, d := range docs {
		if d.Status < 400 || d.Status >= 500 {
			continue
		}
		if _, ok := counts[d.Endpoint]; !ok {
			order = append(order, d.Endpoint)
		}
		counts[d.Endpoint]++
	}

	rows := make([]ReportRow, 0, len(order))
	for _, endpoint := range order {
		rows = append(rows, ReportRow{User: counts[endpoint], Count: endpoint})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].User.(int) > rows[j].User.(int)
	})
	if len(rows) > 10 {
		rows = rows[:10]
	}
	for i := range rows {
		rows[i].Index = i + 1
	}
	return rows, nil
}

// recentErrors is a feed of the most recent 4xx/5xx entries, newest first,
// with a human-readable local timestamp as the subject.
func (e *AnalyticsEngine) recentErrors(ctx context.Context) ([]ReportRow, error) {
	docs, err := e.errors.Recent(ctx, reportSampleLimit)
	if err != nil {
		return nil, DbErr("failed to read error log", err)
	}

	var rows []ReportRow
	for _, d := range docs {
		if d.Status < 400 || d.Status >= 600 {
			continue
		}
		rows = append(rows, ReportRow{
			Index:    len(rows) + 1,
			User:     formatLocalMinute(d.CreatedAt),
			Count:    d.Status,
			Endpoint: d.Endpoint,
		})
	}
	return rows, nil
}

// distinctUsernames keeps first-seen order.
func distinctUsernames(docs []RequestLogEntry) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, d := range docs {
		if _, ok := seen[d.Username]; ok {
			continue
		}
		seen[d.Username] = struct{}{}
		out = append(out, d.Username)
	}
	return out
}

// formatLocalMinute renders YYYY-M-D H:M in local time, without zero padding.
func formatLocalMinute(t time.Time) string {
	lt := t.Local()
	return fmt.Sprintf("%d-%d-%d %d:%d", lt.Year(), int(lt.Month()), lt.Day(), lt.Hour(), lt.Minute())
}
