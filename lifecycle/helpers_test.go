package lifecycle_test

import (
	"fmt"
	"time"

	"github.com/warp/hostel-leave/lifecycle"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var (
	today = lifecycle.NewDate(2026, time.March, 10)
	now   = time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)
)

// newTestEngine returns a UTC engine with predictable IDs: leave-1, leave-2, ...
func newTestEngine() *lifecycle.Engine {
	n := 0
	e := lifecycle.NewEngine(time.UTC)
	e.NewID = func() string {
		n++
		return fmt.Sprintf("leave-%d", n)
	}
	return e
}

func validInput(start, end lifecycle.Date) lifecycle.Input {
	return lifecycle.Input{
		LeaveType:          lifecycle.LeaveHome,
		StartDate:          start,
		EndDate:            end,
		Reason:             "Sister's wedding",
		Destination:        "Kandy",
		ContactDuringLeave: "+94 77 123 4567",
		ParentApproval:     true,
	}
}

func pendingApp(id, studentID string, start, end lifecycle.Date) lifecycle.Application {
	return lifecycle.Application{
		ID:                 id,
		StudentID:          studentID,
		LeaveType:          lifecycle.LeaveHome,
		StartDate:          start,
		EndDate:            end,
		Reason:             "Going home",
		Destination:        "Galle",
		ContactDuringLeave: "0771234567",
		Status:             lifecycle.StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
		Version:            1,
	}
}

func withStatus(app lifecycle.Application, s lifecycle.Status) lifecycle.Application {
	app.Status = s
	if s.IsTerminal() {
		by := "A1"
		at := now
		app.ApprovedBy = &by
		app.ApprovalDate = &at
	}
	return app
}
