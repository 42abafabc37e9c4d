/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built hostel datasets for demos and manual testing. Each
	scenario resets the store and seeds applications from several students
	in every status, dated relative to the service clock so "today" always
	lines up.

AVAILABLE SCENARIOS:

	hostel-week:          Mixed pending/approved/rejected across four students
	overdue-backlog:      Pending requests whose start date has already passed
	overlapping-requests: One student with intersecting date ranges
	empty:                Reset only

HOW SCENARIOS WORK:
 1. Reset store and audit log
 2. For each seed, build the application with the engine, as of its
    creation time, and insert it
 3. Decide seeds that are not pending with the engine, as of their
    decision time, and write them back with compare-and-swap

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "hostel-week"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Add its seeds to 'scenarioSeeds'

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - server.go: scenario routes, mounted only when enabled
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/warp/hostel-leave/lifecycle"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "hostel-week",
		Name:        "Hostel Week",
		Description: "Four students with pending, approved and rejected leave across every leave type",
	},
	{
		ID:          "overdue-backlog",
		Name:        "Overdue Backlog",
		Description: "Pending requests whose start date passed before a warden decided",
	},
	{
		ID:          "overlapping-requests",
		Name:        "Overlapping Requests",
		Description: "One student with intersecting leave ranges, shown on the detail view",
	},
	{
		ID:          "empty",
		Name:        "Empty Hostel",
		Description: "No applications",
	},
}

// seed describes one application relative to the load time. Offsets are in
// days: StartIn from today, CreatedAgo and DecidedAgo back from now.
type seed struct {
	Student     string
	LeaveType   lifecycle.LeaveType
	StartIn     int
	Days        int
	Reason      string
	Destination string
	Contact     string
	Parent      bool
	CreatedAgo  int

	Outcome    lifecycle.Status
	Admin      string
	Remarks    string
	DecidedAgo int
}

var scenarioSeeds = map[string][]seed{
	"hostel-week": {
		{Student: "S1001", LeaveType: lifecycle.LeaveHome, StartIn: 3, Days: 3, Reason: "Sister's wedding", Destination: "Kandy", Contact: "0771234567", Parent: true, CreatedAgo: 1},
		{Student: "S1001", LeaveType: lifecycle.LeaveMedical, StartIn: -8, Days: 2, Reason: "Dental surgery", Destination: "City hospital", Contact: "0771234567", CreatedAgo: 10,
			Outcome: lifecycle.StatusApproved, Admin: "W01", Remarks: "Get well soon", DecidedAgo: 9},
		{Student: "S1002", LeaveType: lifecycle.LeaveAcademic, StartIn: 5, Days: 4, Reason: "Inter-university debate", Destination: "Colombo", Contact: "0719876543", Parent: true, CreatedAgo: 3,
			Outcome: lifecycle.StatusRejected, Admin: "W01", Remarks: "Clashes with mid-semester exams", DecidedAgo: 2},
		{Student: "S1002", LeaveType: lifecycle.LeaveEmergency, StartIn: 0, Days: 2, Reason: "Grandfather admitted to hospital", Destination: "Galle", Contact: "0719876543", Parent: true},
		{Student: "S1003", LeaveType: lifecycle.LeaveHome, StartIn: 10, Days: 5, Reason: "Semester break", Destination: "Jaffna", Contact: "0755551234", Parent: true, CreatedAgo: 4,
			Outcome: lifecycle.StatusApproved, Admin: "W02", DecidedAgo: 1},
		{Student: "S1003", LeaveType: lifecycle.LeaveOther, StartIn: 1, Days: 1, Reason: "Passport appointment", Destination: "Immigration office", Contact: "0755551234", CreatedAgo: 2},
		{Student: "S1004", LeaveType: lifecycle.LeaveMedical, StartIn: 2, Days: 1, Reason: "Eye check-up", Destination: "Eye clinic", Contact: "0781112233", CreatedAgo: 1,
			Outcome: lifecycle.StatusApproved, Admin: "W02", Remarks: "Bring the medical certificate", DecidedAgo: 0},
	},
	"overdue-backlog": {
		{Student: "S2001", LeaveType: lifecycle.LeaveHome, StartIn: -5, Days: 4, Reason: "Family function", Destination: "Matara", Contact: "0701234567", Parent: true, CreatedAgo: 7},
		{Student: "S2002", LeaveType: lifecycle.LeaveAcademic, StartIn: -2, Days: 3, Reason: "Research field visit", Destination: "Anuradhapura", Contact: "0702345678", CreatedAgo: 4},
		{Student: "S2003", LeaveType: lifecycle.LeaveMedical, StartIn: -1, Days: 1, Reason: "Follow-up consultation", Destination: "Teaching hospital", Contact: "0703456789", CreatedAgo: 1},
		{Student: "S2003", LeaveType: lifecycle.LeaveOther, StartIn: 2, Days: 1, Reason: "Bank appointment", Destination: "Town", Contact: "0703456789", CreatedAgo: 1},
		{Student: "S2004", LeaveType: lifecycle.LeaveHome, StartIn: -3, Days: 2, Reason: "Weekend at home", Destination: "Negombo", Contact: "0704567890", CreatedAgo: 6,
			Outcome: lifecycle.StatusApproved, Admin: "W01", DecidedAgo: 5},
	},
	"overlapping-requests": {
		{Student: "S3001", LeaveType: lifecycle.LeaveHome, StartIn: 5, Days: 5, Reason: "Festival holidays", Destination: "Batticaloa", Contact: "0761234567", Parent: true, CreatedAgo: 3},
		{Student: "S3001", LeaveType: lifecycle.LeaveAcademic, StartIn: 7, Days: 2, Reason: "Workshop", Destination: "Peradeniya", Contact: "0761234567", CreatedAgo: 2},
		{Student: "S3001", LeaveType: lifecycle.LeaveOther, StartIn: 9, Days: 2, Reason: "Cousin visiting", Destination: "Trincomalee", Contact: "0761234567", CreatedAgo: 4,
			Outcome: lifecycle.StatusApproved, Admin: "W01", DecidedAgo: 3},
		{Student: "S3001", LeaveType: lifecycle.LeaveMedical, StartIn: 6, Days: 1, Reason: "Lab tests", Destination: "Clinic", Contact: "0761234567", CreatedAgo: 2,
			Outcome: lifecycle.StatusRejected, Admin: "W02", Remarks: "Book an evening slot instead", DecidedAgo: 1},
	},
	"empty": nil,
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := h.decode(r, &req, false); err != nil {
		writeBadRequest(w, "Invalid request body", err)
		return
	}

	seeds, ok := scenarioSeeds[req.ScenarioID]
	if !ok {
		writeBadRequest(w, "Unknown scenario", fmt.Errorf("no scenario %q", req.ScenarioID))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	h.currentScenario = ""
	if err := h.resetStores(ctx); err != nil {
		h.writeServiceError(w, r, "Failed to reset database", err)
		return
	}

	if err := h.loadSeeds(ctx, seeds); err != nil {
		h.writeServiceError(w, r, "Failed to load scenario", err)
		return
	}
	h.currentScenario = req.ScenarioID

	h.logger(r).Info("scenario loaded",
		zap.String("scenario", req.ScenarioID),
		zap.Int("applications", len(seeds)),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "loaded",
		"scenario":     req.ScenarioID,
		"applications": len(seeds),
	})
}

// ResetDatabase clears all applications and audit entries.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.resetStores(r.Context()); err != nil {
		h.writeServiceError(w, r, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) resetStores(ctx context.Context) error {
	reset := func(v any, what string) error {
		rs, ok := v.(lifecycle.Resetter)
		if !ok {
			return fmt.Errorf("%s does not support reset", what)
		}
		return rs.Reset(ctx)
	}
	if err := reset(h.Service.Store, "store"); err != nil {
		return err
	}
	if h.Service.Audit != nil {
		return reset(h.Service.Audit, "audit log")
	}
	return nil
}

func (h *Handler) loadSeeds(ctx context.Context, seeds []seed) error {
	svc := h.Service
	now := svc.Clock()
	today := svc.Today()

	for i, s := range seeds {
		createdAt := now.AddDate(0, 0, -s.CreatedAgo).Add(-time.Duration(len(seeds)-i) * time.Minute)
		start := today.AddDays(s.StartIn)
		in := lifecycle.Input{
			LeaveType:          s.LeaveType,
			StartDate:          start,
			EndDate:            start.AddDays(s.Days - 1),
			Reason:             s.Reason,
			Destination:        s.Destination,
			ContactDuringLeave: s.Contact,
			ParentApproval:     s.Parent,
		}

		app, err := svc.Engine.Create(in, s.Student, createdAt)
		if err != nil {
			return fmt.Errorf("seed %d (%s): %w", i, s.Student, err)
		}
		if err := svc.Store.Insert(ctx, app); err != nil {
			return fmt.Errorf("seed %d (%s): %w", i, s.Student, err)
		}

		if s.Outcome == lifecycle.StatusPending || s.Outcome == 0 {
			continue
		}
		decision := lifecycle.DecisionApprove
		if s.Outcome == lifecycle.StatusRejected {
			decision = lifecycle.DecisionReject
		}
		decidedAt := now.AddDate(0, 0, -s.DecidedAgo)
		if decidedAt.Before(createdAt) {
			decidedAt = createdAt.Add(time.Hour)
		}
		decided, err := svc.Engine.Transition(app, lifecycle.Admin(s.Admin), decision, s.Remarks, decidedAt)
		if err != nil {
			return fmt.Errorf("seed %d (%s): %w", i, s.Student, err)
		}
		if _, err := svc.Store.Update(ctx, decided, app.Version); err != nil {
			return fmt.Errorf("seed %d (%s): %w", i, s.Student, err)
		}
	}
	return nil
}
