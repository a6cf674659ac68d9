package identity

import (
	"github.com/farellandr/eventease/internal/models"
)

// Principal is the authenticated caller, passed explicitly into every
// operation that needs to know who is acting.
type Principal struct {
	UserID   uint
	Role     models.Role
	Approved bool
}

func PrincipalOf(u *models.User) Principal {
	return Principal{UserID: u.ID, Role: u.Role, Approved: u.Approved}
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// Policy decides whether a principal may perform an operation.
type Policy func(p Principal) bool

var (
	CanPublishEvents Policy = func(p Principal) bool {
		return p.IsAdmin() || (p.Role == models.RoleOrganizer && p.Approved)
	}

	CanAdminister Policy = func(p Principal) bool {
		return p.IsAdmin()
	}

	CanPurchase Policy = func(p Principal) bool {
		return p.UserID != 0 && p.Role.Valid()
	}
)

// CanManageEvent covers edit, delete, guest management and ticket validation.
func CanManageEvent(p Principal, e *models.Event) bool {
	if p.IsAdmin() {
		return true
	}
	return CanPublishEvents(p) && e.OwnedBy(p.UserID)
}

// CanValidateTickets lets an event's managers mark its tickets used.
func CanValidateTickets(p Principal, e *models.Event) bool {
	return CanManageEvent(p, e)
}

// CanSeeEvent hides unpublished events from everyone but their managers.
func CanSeeEvent(p Principal, e *models.Event) bool {
	return e.IsPublished || CanManageEvent(p, e)
}
