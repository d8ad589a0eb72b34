package models

// UserRole mirrors the role claim carried in tokens issued by the external
// auth service. The fixture engine only needs it for route authorization.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleStaff UserRole = "staff"
)
