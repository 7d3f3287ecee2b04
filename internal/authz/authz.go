package authz

// Role is the coarse permission tier attached to a user account. It is
// distinct from being a department manager: an employee with the
// employee role can still be referenced by a department's manager_id.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleEmployee:
		return Role(s), true
	}
	return "", false
}

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

func (a Action) IsWrite() bool {
	return a != ActionRead
}

// Principal is the authenticated user behind a request. CompanyID is
// empty until the admin has onboarded a company; EmployeeID is empty
// for accounts not linked to an employee record.
type Principal struct {
	UserID     string `json:"user_id"`
	CompanyID  string `json:"company_id"`
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
}

// Resource is the authorization view of a target entity. OwnerEmployeeID
// is the employee whose record this is (an employee row, a contract);
// ManagerEmployeeID is the employee managing it (a department's
// manager_id, or the manager of the owning department). Either may be
// empty when the notion does not apply.
type Resource struct {
	Kind              string
	CompanyID         string
	OwnerEmployeeID   string
	ManagerEmployeeID string
}

type DenyReason string

const (
	ReasonWrongTenant      DenyReason = "WRONG_TENANT"
	ReasonInsufficientRole DenyReason = "INSUFFICIENT_ROLE"
	ReasonNotOwner         DenyReason = "NOT_OWNER"
)

type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// Authorize is a pure decision table over {role, tenant match,
// ownership}. It never consults storage; callers load the resource view
// first and pass it in. Tenant mismatch wins over every role, including
// admin.
func Authorize(p Principal, action Action, res Resource) Decision {
	if p.CompanyID == "" || p.CompanyID != res.CompanyID {
		return deny(ReasonWrongTenant)
	}

	switch p.Role {
	case RoleAdmin:
		return allow()

	case RoleManager:
		if !action.IsWrite() {
			return allow()
		}
		if p.EmployeeID != "" && p.EmployeeID == res.ManagerEmployeeID {
			return allow()
		}
		return deny(ReasonNotOwner)

	case RoleEmployee:
		if action.IsWrite() {
			return deny(ReasonInsufficientRole)
		}
		if p.EmployeeID != "" && p.EmployeeID == res.OwnerEmployeeID {
			return allow()
		}
		return deny(ReasonNotOwner)
	}

	return deny(ReasonInsufficientRole)
}
