package types

// Role is the organisational role of a user
type Role string

const (
	RolePMO        Role = "PMO"
	RolePM         Role = "PM"
	RoleTeamMember Role = "Team_Member"
)

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RolePMO, RolePM, RoleTeamMember:
		return true
	default:
		return false
	}
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// ParseRole parses a string into a Role
func ParseRole(s string) (Role, error) {
	return parseEnum("role", s, Role.IsValid)
}

// Capability is a single permission granted to a principal
type Capability string

const (
	CapCreateProjects  Capability = "create_projects"
	CapApproveProjects Capability = "approve_projects"
	CapManageBudget    Capability = "manage_budget"
	CapViewAllProjects Capability = "view_all_projects"
	CapManageUsers     Capability = "manage_users"
	CapManageRisks     Capability = "manage_risks"
	CapUploadDocuments Capability = "upload_documents"
	CapDeleteProjects  Capability = "delete_projects"
	CapManageTasks     Capability = "manage_tasks"
)

// AllCapabilities returns every capability known to the system
func AllCapabilities() []Capability {
	return []Capability{
		CapCreateProjects,
		CapApproveProjects,
		CapManageBudget,
		CapViewAllProjects,
		CapManageUsers,
		CapManageRisks,
		CapUploadDocuments,
		CapDeleteProjects,
		CapManageTasks,
	}
}

// IsValid checks if the capability is known
func (c Capability) IsValid() bool {
	for _, known := range AllCapabilities() {
		if c == known {
			return true
		}
	}
	return false
}

// String returns the string representation of the capability
func (c Capability) String() string {
	return string(c)
}

// DefaultCapabilities returns the capabilities granted by a role
func (r Role) DefaultCapabilities() []Capability {
	switch r {
	case RolePMO:
		return AllCapabilities()
	case RolePM:
		return []Capability{
			CapCreateProjects,
			CapManageBudget,
			CapManageRisks,
			CapManageTasks,
			CapUploadDocuments,
		}
	case RoleTeamMember:
		return []Capability{CapUploadDocuments}
	default:
		return nil
	}
}
