/*
projection.go - Read-only views over application sets

PURPOSE:
  Everything the dashboard derives from a list of applications without
  changing them: status tabs and their badge counts, overlap warnings, the
  per-record display state, and the admin's per-type summary.

ORDERING:
  Functions here preserve input order. Stores list most recent first
  (created_at DESC, id DESC), so that is what views show.

OVERLAP:
  Two applications overlap when they belong to the same student, are both
  live (pending or approved), and their inclusive date ranges intersect.
  Overlap is a warning for the admin reviewing a request; it never blocks
  an operation.

SEE ALSO:
  - authorize.go: Project uses Authorize to compute CanEdit/CanDelete/CanDecide
*/
package lifecycle

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// FILTER AND COUNT
// =============================================================================

// FilterByStatus returns the records matching f, in input order.
func FilterByStatus(records []Application, f StatusFilter) []Application {
	out := make([]Application, 0, len(records))
	for _, r := range records {
		if f.Match(r.Status) {
			out = append(out, r)
		}
	}
	return out
}

// Counts holds per-status totals for tab badges.
type Counts struct {
	Pending  int
	Approved int
	Rejected int
}

func (c Counts) Total() int { return c.Pending + c.Approved + c.Rejected }

// Of returns the count for one status.
func (c Counts) Of(s Status) int {
	switch s {
	case StatusPending:
		return c.Pending
	case StatusApproved:
		return c.Approved
	case StatusRejected:
		return c.Rejected
	default:
		return 0
	}
}

// GroupCounts counts records per status. Every record lands in exactly one
// bucket: anything that has not left pending counts as pending, so
// Pending+Approved+Rejected always equals len(records).
func GroupCounts(records []Application) Counts {
	var c Counts
	for _, r := range records {
		c.add(r.Status)
	}
	return c
}

func (c *Counts) add(s Status) {
	switch s {
	case StatusApproved:
		c.Approved++
	case StatusRejected:
		c.Rejected++
	default:
		c.Pending++
	}
}

// =============================================================================
// OVERLAP
// =============================================================================

// RangesOverlap reports whether the inclusive ranges [aStart, aEnd] and
// [bStart, bEnd] share at least one day.
func RangesOverlap(aStart, aEnd, bStart, bEnd Date) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// isLive reports whether an application still claims its dates.
func isLive(a Application) bool { return a.Status == StatusPending || a.Status == StatusApproved }

// Overlaps reports whether a and b are distinct live applications of the
// same student with intersecting dates.
func (a Application) Overlaps(b Application) bool {
	if a.ID == b.ID || a.StudentID != b.StudentID {
		return false
	}
	if !isLive(a) || !isLive(b) {
		return false
	}
	return RangesOverlap(a.StartDate, a.EndDate, b.StartDate, b.EndDate)
}

// Overlapping returns the records that overlap candidate, in input order.
func Overlapping(records []Application, candidate Application) []Application {
	var out []Application
	for _, r := range records {
		if candidate.Overlaps(r) {
			out = append(out, r)
		}
	}
	return out
}

// OverduePending returns pending applications whose start date is already
// before today. Nobody decided them in time; the admin should look.
func OverduePending(records []Application, today Date) []Application {
	var out []Application
	for _, r := range records {
		if r.IsPending() && r.StartDate.Before(today) {
			out = append(out, r)
		}
	}
	return out
}

// =============================================================================
// DISPLAY STATE
// =============================================================================

// View is an application plus the derived fields a screen renders for a
// particular actor.
type View struct {
	Application

	Duration       int
	StatusLabel    string
	LeaveTypeLabel string

	CanEdit   bool
	CanDelete bool
	CanDecide bool
}

// Project computes the display state of app as seen by actor.
func Project(app Application, actor Actor) View {
	return View{
		Application:    app,
		Duration:       app.Duration(),
		StatusLabel:    app.Status.Label(),
		LeaveTypeLabel: app.LeaveType.Label(),
		CanEdit:        Authorize(actor, app, OpEdit) == nil,
		CanDelete:      Authorize(actor, app, OpDelete) == nil,
		CanDecide:      Authorize(actor, app, OpApprove) == nil,
	}
}

// ProjectAll projects every record for actor, preserving order.
func ProjectAll(records []Application, actor Actor) []View {
	views := make([]View, 0, len(records))
	for _, r := range records {
		views = append(views, Project(r, actor))
	}
	return views
}

// =============================================================================
// SUMMARY - Admin dashboard aggregates
// =============================================================================

// TypeSummary aggregates applications of one leave type.
type TypeSummary struct {
	LeaveType    LeaveType
	Counts       Counts
	TotalDays    int
	ApprovedDays int

	// AverageDays is TotalDays / Counts.Total(), rounded to two places.
	AverageDays decimal.Decimal
}

// Summary aggregates a whole record set. Counts and TotalDays cover every
// record, so Counts.Total() equals len(records).
type Summary struct {
	ByType    []TypeSummary // one entry per leave type, in LeaveTypes() order
	Counts    Counts
	TotalDays int

	// Unclassified counts records whose leave type is not in LeaveTypes().
	// They are in Counts and TotalDays but in no ByType entry.
	Unclassified Counts
}

// Summarize aggregates records per leave type. Every known leave type
// appears, with zero counts when unused.
func Summarize(records []Application) Summary {
	index := make(map[LeaveType]int)
	byType := make([]TypeSummary, 0, len(LeaveTypes()))
	for i, t := range LeaveTypes() {
		index[t] = i
		byType = append(byType, TypeSummary{LeaveType: t, AverageDays: decimal.Zero})
	}

	var summary Summary
	for _, r := range records {
		i, ok := index[r.LeaveType]
		if !ok {
			summary.Unclassified.add(r.Status)
			summary.TotalDays += r.Duration()
			continue
		}
		days := r.Duration()
		ts := &byType[i]
		ts.TotalDays += days
		ts.Counts.add(r.Status)
		if r.Status == StatusApproved {
			ts.ApprovedDays += days
		}
	}

	for i := range byType {
		ts := &byType[i]
		if n := ts.Counts.Total(); n > 0 {
			ts.AverageDays = decimal.NewFromInt(int64(ts.TotalDays)).
				Div(decimal.NewFromInt(int64(n))).
				Round(2)
		}
		summary.Counts.Pending += ts.Counts.Pending
		summary.Counts.Approved += ts.Counts.Approved
		summary.Counts.Rejected += ts.Counts.Rejected
		summary.TotalDays += ts.TotalDays
	}
	summary.Counts.Pending += summary.Unclassified.Pending
	summary.Counts.Approved += summary.Unclassified.Approved
	summary.Counts.Rejected += summary.Unclassified.Rejected
	summary.ByType = byType
	return summary
}
