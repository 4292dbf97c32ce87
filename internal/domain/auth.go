package domain

// SubjectType differentiates visitor vs staff tokens.
type SubjectType string

const (
	SubjectTypeVisitor SubjectType = "VISITOR"
	SubjectTypeStaff   SubjectType = "STAFF"
)

// StaffRole enumerates gate and administrative roles.
type StaffRole string

const (
	StaffRoleGate  StaffRole = "GATE"
	StaffRoleAdmin StaffRole = "ADMIN"
)
