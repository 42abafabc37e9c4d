package lifecycle_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hostel-leave/lifecycle"
)

// =============================================================================
// END-TO-END LIFECYCLE SCENARIOS
// =============================================================================

func TestScenario_CreateFromTodayForThreeDays(t *testing.T) {
	e := newTestEngine()

	// GIVEN: a fully filled request from today to today+2
	in := validInput(today, today.AddDays(2))

	// WHEN: the student submits it
	app, err := e.Create(in, "S1", now)

	// THEN: it is pending and spans three days
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusPending, app.Status)
	assert.Equal(t, 3, app.Duration())
}

func TestScenario_CreateStartingYesterday(t *testing.T) {
	e := newTestEngine()

	_, err := e.Create(validInput(today.AddDays(-1), today.AddDays(1)), "S1", now)

	assert.ErrorIs(t, err, lifecycle.ErrInvalidDateRange)
}

func TestScenario_AdminApprovesWithEmptyRemarks(t *testing.T) {
	e := newTestEngine()
	app, err := e.Create(validInput(today, today.AddDays(1)), "S1", now)
	require.NoError(t, err)

	approved, err := e.Transition(app, lifecycle.Admin("A1"), lifecycle.DecisionApprove, "", now)

	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "A1", *approved.ApprovedBy)
	require.NotNil(t, approved.ApprovalDate)
	assert.Equal(t, now, *approved.ApprovalDate)
}

func TestScenario_StudentEditsSomeoneElsesApplication(t *testing.T) {
	e := newTestEngine()
	app, err := e.Create(validInput(today, today.AddDays(1)), "S1", now)
	require.NoError(t, err)

	_, err = e.Edit(app, validInput(today, today.AddDays(4)), lifecycle.Student("S2"), now)

	assert.ErrorIs(t, err, lifecycle.ErrForbidden)
	kind, ok := lifecycle.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, lifecycle.KindForbidden, kind)
}

func TestScenario_StudentDeletesOwnApprovedApplication(t *testing.T) {
	e := newTestEngine()
	app, err := e.Create(validInput(today, today.AddDays(1)), "S1", now)
	require.NoError(t, err)
	approved, err := e.Transition(app, lifecycle.Admin("A1"), lifecycle.DecisionApprove, "", now)
	require.NoError(t, err)

	_, err = e.Delete(approved, lifecycle.Student("S1"))

	assert.ErrorIs(t, err, lifecycle.ErrInvalidState)
}

func TestScenario_SecondTransitionFails(t *testing.T) {
	e := newTestEngine()
	app, err := e.Create(validInput(today, today.AddDays(1)), "S1", now)
	require.NoError(t, err)

	// GIVEN: the admin approved it
	approved, err := e.Transition(app, lifecycle.Admin("A1"), lifecycle.DecisionApprove, "ok", now)
	require.NoError(t, err)

	// WHEN: the admin tries to reject the same record
	rejected, err := e.Transition(approved, lifecycle.Admin("A1"), lifecycle.DecisionReject, "changed my mind", now)

	// THEN: the second call fails and the first outcome stands
	assert.ErrorIs(t, err, lifecycle.ErrInvalidState)
	assert.Equal(t, lifecycle.Application{}, rejected)
	assert.Equal(t, lifecycle.StatusApproved, approved.Status)
	assert.Equal(t, "ok", approved.Remarks)
}

// =============================================================================
// PROPERTIES - exhaustive over a window of dates
// =============================================================================

func TestProperty_ValidRangesCreatePending(t *testing.T) {
	e := newTestEngine()
	for s := 0; s < 30; s++ {
		for length := 0; length < 15; length++ {
			start := today.AddDays(s)
			end := start.AddDays(length)

			app, err := e.Create(validInput(start, end), "S1", now)

			require.NoError(t, err, "%s..%s", start, end)
			require.Equal(t, lifecycle.StatusPending, app.Status)
			require.Equal(t, length+1, app.Duration())
		}
	}
}

func TestProperty_EndBeforeStartFailsCreateAndEdit(t *testing.T) {
	e := newTestEngine()
	existing := pendingApp("leave-1", "S1", today, today)

	for s := 1; s < 30; s++ {
		for back := 1; back <= s+3; back++ {
			start := today.AddDays(s)
			end := start.AddDays(-back)

			_, err := e.Create(validInput(start, end), "S1", now)
			require.ErrorIs(t, err, lifecycle.ErrInvalidDateRange, "create %s..%s", start, end)

			_, err = e.Edit(existing, validInput(start, end), lifecycle.Student("S1"), now)
			require.ErrorIs(t, err, lifecycle.ErrInvalidDateRange, "edit %s..%s", start, end)
		}
	}
}

func TestProperty_TransitionSucceedsAtMostOnce(t *testing.T) {
	e := newTestEngine()
	decisions := []lifecycle.Decision{lifecycle.DecisionApprove, lifecycle.DecisionReject}

	for _, first := range decisions {
		for _, second := range decisions {
			app, err := e.Create(validInput(today, today), "S1", now)
			require.NoError(t, err)

			decided, err := e.Transition(app, lifecycle.Admin("A1"), first, "", now)
			require.NoError(t, err)
			assert.Equal(t, first.Outcome(), decided.Status)

			_, err = e.Transition(decided, lifecycle.Admin("A2"), second, "", now)
			assert.ErrorIs(t, err, lifecycle.ErrInvalidState, "%s then %s", first, second)
		}
	}
}

func TestProperty_EveryFailureHasExactlyOneKind(t *testing.T) {
	e := newTestEngine()
	pending := pendingApp("leave-1", "S1", today, today)
	approved := withStatus(pending, lifecycle.StatusApproved)

	failures := []error{}
	collect := func(err error) {
		require.Error(t, err)
		failures = append(failures, err)
	}

	_, err := e.Create(lifecycle.Input{}, "S1", now)
	collect(err)
	_, err = e.Create(validInput(today.AddDays(-1), today), "S1", now)
	collect(err)
	_, err = e.Edit(pending, validInput(today, today), lifecycle.Student("S9"), now)
	collect(err)
	_, err = e.Delete(approved, lifecycle.Student("S1"))
	collect(err)
	_, err = e.Transition(approved, lifecycle.Admin("A1"), lifecycle.DecisionReject, "", now)
	collect(err)

	sentinels := []error{
		lifecycle.ErrMissingField,
		lifecycle.ErrInvalidDateRange,
		lifecycle.ErrForbidden,
		lifecycle.ErrInvalidState,
	}
	for _, f := range failures {
		matched := 0
		for _, s := range sentinels {
			if errors.Is(f, s) {
				matched++
			}
		}
		assert.Equal(t, 1, matched, "%v", f)
	}
}
