package shared

const (
	AdminID       = "admin_id"
	AdminUsername = "admin_username"
	SessionID     = "session_id"
	SessionToken  = "session_token"
	ClientID      = "client_id"

	StatusActive      = "active"
	StatusBlacklisted = "blacklisted"
	StatusWhitelisted = "whitelisted"
)

// VisitorStatuses lists every status an admin may assign to a visitor.
var VisitorStatuses = []string{StatusActive, StatusBlacklisted, StatusWhitelisted}
