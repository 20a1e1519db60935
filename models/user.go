package models

// UserRole — роль, приходящая из внешнего identity-провайдера в JWT claims.
// Ядро роли не резолвит, только потребляет.
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleOrganizer UserRole = "organizer"
	RolePlayer    UserRole = "player"
)

// CanManageEvent — достаточно ли роли (или владения событием) для
// организаторских операций.
func (r UserRole) CanManageEvent(userID, organizerID int) bool {
	if r == RoleAdmin {
		return true
	}
	return userID != 0 && userID == organizerID
}
