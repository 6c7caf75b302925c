package permission

// Role is one of the fixed staff roles the backend assigns to an account.
// The console matches roles by exact tag against the policy table; a tag
// it does not recognize grants nothing.
type Role string

const (
	// RolePrimaryAdmin is the owner role with every capability. The tag
	// values are the backend's own role names and must match them exactly.
	RolePrimaryAdmin Role = "AdminPrincipal"
	// RoleSecondaryAdmin manages daily operations but not staff accounts.
	RoleSecondaryAdmin Role = "AdminSecundario"
	// RoleDeliveryAgent only works the order queue.
	RoleDeliveryAgent Role = "Repartidor"
)

// Capability names a single gated destination or UI action.
type Capability string

const (
	// CapDashboard is an exported capability gating the statistics view.
	CapDashboard Capability = "dashboard"
	// CapOrders gates the order queue view.
	CapOrders Capability = "orders"
	// CapCommunities gates the community list view.
	CapCommunities Capability = "communities"
	// CapClients gates the client list view.
	CapClients Capability = "clients"
	// CapUsers gates the staff account view.
	CapUsers Capability = "users"
	// CapAuditLog gates the activity log view.
	CapAuditLog Capability = "audit-log"
	// CapCreateOrder gates the create-order action.
	CapCreateOrder Capability = "create-order"
	// CapCreateUser gates the create-user action.
	CapCreateUser Capability = "create-user"
	// CapDeleteOrder gates the delete-order action.
	CapDeleteOrder Capability = "delete-order"
	// CapChangePassword gates the change-password action.
	CapChangePassword Capability = "change-password"
	// CapDeactivateUser gates the deactivate-user action.
	CapDeactivateUser Capability = "deactivate-user"
)

// capabilities lists every capability in bit order. The list is append-only;
// bit positions are stable for the lifetime of the process.
var capabilities = []Capability{
	CapDashboard,
	CapOrders,
	CapCommunities,
	CapClients,
	CapUsers,
	CapAuditLog,
	CapCreateOrder,
	CapCreateUser,
	CapDeleteOrder,
	CapChangePassword,
	CapDeactivateUser,
}

var capabilityBit = func() map[Capability]int {
	bits := make(map[Capability]int, len(capabilities))
	for i, c := range capabilities {
		bits[c] = i
	}
	return bits
}()

// Set is a fixed capability set. The zero Set grants nothing.
type Set uint64

// Has reports whether the set grants the capability. Unregistered
// capabilities are never granted.
func (s Set) Has(c Capability) bool {
	bit, ok := capabilityBit[c]
	if !ok {
		return false
	}
	return s&(1<<bit) != 0
}

// Len returns the number of granted capabilities.
func (s Set) Len() int {
	n := 0
	for v := uint64(s); v != 0; v &= v - 1 {
		n++
	}
	return n
}

// List returns the granted capabilities in bit order.
func (s Set) List() []Capability {
	var out []Capability
	for i, c := range capabilities {
		if s&(1<<i) != 0 {
			out = append(out, c)
		}
	}
	return out
}

func setOf(caps ...Capability) Set {
	var s Set
	for _, c := range caps {
		bit, ok := capabilityBit[c]
		if !ok {
			panic("permission: unregistered capability " + string(c))
		}
		s |= 1 << bit
	}
	return s
}

// table maps each role to its granted capabilities. Fixed at build time;
// adding a role constant without a row here is caught by the package tests.
var table = map[Role]Set{
	RolePrimaryAdmin: setOf(
		CapDashboard, CapOrders, CapCommunities, CapClients, CapUsers,
		CapAuditLog, CapCreateUser, CapDeleteOrder, CapChangePassword,
		CapDeactivateUser,
	),
	RoleSecondaryAdmin: setOf(
		CapDashboard, CapOrders, CapCommunities, CapClients, CapAuditLog,
		CapDeleteOrder,
	),
	RoleDeliveryAgent: setOf(
		CapOrders, CapCreateOrder,
	),
}

// Resolve returns the capability set granted to role, or the empty set when
// the role is not in the table.
func Resolve(role Role) Set {
	return table[role]
}

// Can reports whether role is granted the capability.
func Can(role Role, c Capability) bool {
	return Resolve(role).Has(c)
}

// Roles returns every role the table recognizes.
func Roles() []Role {
	return []Role{RolePrimaryAdmin, RoleSecondaryAdmin, RoleDeliveryAgent}
}

// Capabilities returns every registered capability in bit order.
func Capabilities() []Capability {
	out := make([]Capability, len(capabilities))
	copy(out, capabilities)
	return out
}

// Known reports whether role is present in the table.
func Known(role Role) bool {
	_, ok := table[role]
	return ok
}
