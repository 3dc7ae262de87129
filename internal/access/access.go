// Package access decides which dashboard actions a signed-in user may take.
package access

import "crmdash/internal/models"

type Role string

const (
	RoleNone        Role = ""
	RoleAdmin       Role = "admin"
	RoleStaffViewer Role = "staff-viewer"
)

// Group names the remote service uses for the two dashboard roles.
const (
	GroupAdmin       = "admin"
	GroupStaffViewer = "staff_viewer"
)

// RoleFor derives the dashboard role from the remote user record.
func RoleFor(u models.User) Role {
	switch {
	case u.IsSuperuser || u.InGroup(GroupAdmin):
		return RoleAdmin
	case u.IsStaff || u.InGroup(GroupStaffViewer):
		return RoleStaffViewer
	default:
		return RoleNone
	}
}

// Permission is what a gated element asks for.
type Permission string

const (
	PermAdmin       Permission = "admin"
	PermStaffViewer Permission = "staff-viewer"
	PermAny         Permission = "any"
)

// Allows reports whether role satisfies perm. Unknown permissions deny.
func Allows(role Role, perm Permission) bool {
	isAdmin := role == RoleAdmin
	isStaff := role == RoleStaffViewer
	switch perm {
	case PermAdmin:
		return isAdmin
	case PermStaffViewer, PermAny:
		return isStaff || isAdmin
	default:
		return false
	}
}

// Action is a single dashboard operation.
type Action string

const (
	ViewClients  Action = "view_clients"
	CreateClient Action = "create_client"
	EditClient   Action = "edit_client"
	DeleteClient Action = "delete_client"

	ViewWorkers  Action = "view_workers"
	CreateWorker Action = "create_worker"
	EditWorker   Action = "edit_worker"
	DeleteWorker Action = "delete_worker"

	ViewAppointments    Action = "view_appointments"
	CreateAppointment   Action = "create_appointment"
	EditAppointment     Action = "edit_appointment"
	DeleteAppointment   Action = "delete_appointment"
	CompleteAppointment Action = "complete_appointment"
	CancelAppointment   Action = "cancel_appointment"
)

// everyone marks actions open to any authenticated user, whatever the role.
const everyone Permission = ""

var actions = map[Action]Permission{
	ViewClients:  everyone,
	CreateClient: PermAdmin,
	EditClient:   PermAdmin,
	DeleteClient: PermAdmin,

	ViewWorkers:  everyone,
	CreateWorker: PermAdmin,
	EditWorker:   PermAdmin,
	DeleteWorker: PermAdmin,

	ViewAppointments:    everyone,
	CreateAppointment:   PermAdmin,
	EditAppointment:     everyone,
	DeleteAppointment:   PermAdmin,
	CompleteAppointment: everyone,
	CancelAppointment:   everyone,
}

// Can reports whether an authenticated user with role may perform action.
func Can(role Role, action Action) bool {
	perm, ok := actions[action]
	if !ok {
		return false
	}
	if perm == everyone {
		return true
	}
	return Allows(role, perm)
}
