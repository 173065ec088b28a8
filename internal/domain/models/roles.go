// internal/domain/models/roles.go
package models

// Volunteer roles. A volunteer's role decides which relation (region, zone,
// or facility) may hold contact back-references to them.
const (
	RoleRegion    = "region"
	RoleZone      = "zone"
	RoleFacility  = "facility"
	RoleVolunteer = "volunteer"
)

// Application modules that security assignments can reference.
const (
	ModuleFacilities = "facilities"
	ModuleInmates    = "inmates"
	ModuleVolunteers = "volunteers"
	ModuleMeetings   = "meetings"
)

// Security access values.
const (
	AccessRead  = "read"
	AccessWrite = "write"
	AccessNone  = "none"
)

// Security levels, widest to narrowest.
const (
	LevelBranch   = "branch"
	LevelRegional = "regional"
	LevelZone     = "zone"
	LevelFacility = "facility"
)

// roleLevels maps a role to the security level its default matrix grants.
var roleLevels = map[string]string{
	RoleRegion:    LevelRegional,
	RoleZone:      LevelZone,
	RoleFacility:  LevelFacility,
	RoleVolunteer: LevelFacility,
}

// DefaultSecurity builds the default security matrix for a role: write
// access for contact roles, read-only for plain volunteers, scoped to the
// level the role implies. Upserts regenerate this matrix whenever the role
// changes.
func DefaultSecurity(role string) []SecurityAssignment {
	level, ok := roleLevels[role]
	if !ok {
		level = LevelFacility
	}
	access := AccessWrite
	if role == RoleVolunteer {
		access = AccessRead
	}
	modules := []string{ModuleFacilities, ModuleInmates, ModuleVolunteers, ModuleMeetings}
	out := make([]SecurityAssignment, 0, len(modules))
	for _, m := range modules {
		out = append(out, SecurityAssignment{Module: m, Access: access, Level: level})
	}
	return out
}
