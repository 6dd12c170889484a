package rbac

// Permission constants, "<resource>:<action>".
const (
	PermDashboardRead = "dashboard:read"

	PermUsersRead  = "users:read"
	PermUsersWrite = "users:write"

	PermMallsRead  = "malls:read"
	PermMallsWrite = "malls:write"

	PermShopsRead  = "shops:read"
	PermShopsWrite = "shops:write"

	PermBookingsRead  = "bookings:read"
	PermBookingsWrite = "bookings:write"

	PermPaymentsRead  = "payments:read"
	PermPaymentsWrite = "payments:write"

	PermInquiriesRead  = "inquiries:read"
	PermInquiriesWrite = "inquiries:write"

	PermNotificationsWrite = "notifications:write"

	PermReportsRead = "reports:read"

	PermSettingsRead  = "settings:read"
	PermSettingsWrite = "settings:write"

	PermAuditRead   = "audit:read"
	PermOutboxAdmin = "outbox:admin"
)

// Role constants.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleViewer  = "viewer"
)

var managerPermissions = []string{
	PermDashboardRead,
	PermMallsRead, PermMallsWrite,
	PermShopsRead, PermShopsWrite,
	PermBookingsRead, PermBookingsWrite,
	PermPaymentsRead, PermPaymentsWrite,
	PermInquiriesRead, PermInquiriesWrite,
	PermNotificationsWrite,
	PermReportsRead,
	PermSettingsRead,
}

var viewerPermissions = []string{
	PermDashboardRead,
	PermMallsRead,
	PermShopsRead,
	PermBookingsRead,
	PermPaymentsRead,
	PermInquiriesRead,
	PermReportsRead,
}

var rolePermissions = map[string]map[string]struct{}{
	RoleAdmin:   toSet(append(managerPermissions, PermUsersRead, PermUsersWrite, PermSettingsWrite, PermAuditRead, PermOutboxAdmin)),
	RoleManager: toSet(managerPermissions),
	RoleViewer:  toSet(viewerPermissions),
}

func toSet(perms []string) map[string]struct{} {
	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// HasPermission reports whether role grants permission.
func HasPermission(role, permission string) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	_, ok = perms[permission]
	return ok
}

// CheckPermission is HasPermission returning an error, for handler use.
func CheckPermission(role, permission string) error {
	if !HasPermission(role, permission) {
		return &PermissionDeniedError{
			Role:       role,
			Permission: permission,
		}
	}
	return nil
}

// PermissionDeniedError means the role lacks a permission.
type PermissionDeniedError struct {
	Role       string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return "insufficient permissions"
}
