package lifecycle

// =============================================================================
// AUTHORIZATION - The single permission table
// =============================================================================
//
//   operation        role     owner   status    result
//   ---------------  -------  ------  --------  ------------
//   edit / delete    any      any     !pending  InvalidState
//   edit / delete    student  yes     pending   ok
//   edit / delete    other    -       pending   Forbidden
//   approve/reject   admin    -       pending   ok
//   approve/reject   other    -       any       InvalidState
//   approve/reject   admin    -       !pending  InvalidState
//
// Status is checked before ownership for edit/delete, so a terminal record
// reports InvalidState no matter who asks.

// Authorize decides whether actor may perform op on app. It has no side
// effects and is consulted before every mutating operation.
func Authorize(actor Actor, app Application, op Operation) error {
	switch op {
	case OpEdit, OpDelete:
		if !app.IsPending() {
			return invalidState("only pending applications can be " + pastTense(op) + ", this one is " + app.Status.String())
		}
		if actor.Role != RoleStudent || actor.ID == "" || actor.ID != app.StudentID {
			return forbidden("only the owning student can " + op.String() + " this application")
		}
		return nil

	case OpApprove, OpReject:
		if actor.Role != RoleAdmin {
			return invalidState("only an admin can " + op.String() + " a pending application")
		}
		if !app.IsPending() {
			return invalidState("application already " + app.Status.String())
		}
		return nil

	default:
		return invalidState("unsupported operation " + op.String())
	}
}

func pastTense(op Operation) string {
	switch op {
	case OpEdit:
		return "edited"
	case OpDelete:
		return "deleted"
	default:
		return op.String() + "d"
	}
}

// CanCreate reports whether actor may submit new applications. Only
// students apply for leave, and only on their own behalf.
func CanCreate(actor Actor) error {
	if actor.Role != RoleStudent || actor.ID == "" {
		return forbidden("only students can apply for leave")
	}
	return nil
}

// CanView reports whether actor may read app: admins read everything,
// students read their own.
func CanView(actor Actor, app Application) error {
	switch {
	case actor.Role == RoleAdmin:
		return nil
	case actor.Role == RoleStudent && actor.ID != "" && actor.ID == app.StudentID:
		return nil
	default:
		return forbidden("application belongs to another student")
	}
}

// CanAdminister reports whether actor may use hostel-wide admin reads
// (summaries, overdue lists, audit trail).
func CanAdminister(actor Actor) error {
	if actor.Role != RoleAdmin {
		return forbidden("admin access required")
	}
	return nil
}
