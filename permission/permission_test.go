package permission

import "testing"

func TestResolveIdempotent(t *testing.T) {
	for _, role := range Roles() {
		first := Resolve(role)
		second := Resolve(role)
		if first != second {
			t.Fatalf("Resolve(%q) not stable: %v vs %v", role, first.List(), second.List())
		}
	}
}

func TestResolveUnknownRoleEmpty(t *testing.T) {
	for _, role := range []Role{"", "Admin", "adminprincipal", "PRIMARYADMIN", "root"} {
		set := Resolve(role)
		if set.Len() != 0 {
			t.Fatalf("Resolve(%q) = %v, want empty set", role, set.List())
		}
	}
}

func TestUnknownRoleFailsClosed(t *testing.T) {
	for _, cap := range Capabilities() {
		if Can("Intruder", cap) {
			t.Fatalf("Can(Intruder, %q) = true, want false", cap)
		}
	}
}

func TestUnregisteredCapabilityNeverGranted(t *testing.T) {
	for _, role := range Roles() {
		if Can(role, "everything") {
			t.Fatalf("Can(%q, everything) = true for unregistered capability", role)
		}
	}
}

func TestEveryRoleHasTableRow(t *testing.T) {
	for _, role := range Roles() {
		if !Known(role) {
			t.Fatalf("role %q has no policy row", role)
		}
		if Resolve(role).Len() == 0 {
			t.Fatalf("role %q resolves to an empty set", role)
		}
	}
}

func TestEveryRoleReachesDefaultLanding(t *testing.T) {
	// The fallback destination must be reachable by every role, otherwise a
	// permission redirect would loop.
	for _, role := range Roles() {
		if !Can(role, CapOrders) {
			t.Fatalf("role %q cannot reach the order queue", role)
		}
	}
}

func TestPolicyTable(t *testing.T) {
	cases := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RolePrimaryAdmin, CapUsers, true},
		{RolePrimaryAdmin, CapCreateUser, true},
		{RolePrimaryAdmin, CapDeactivateUser, true},
		{RolePrimaryAdmin, CapCreateOrder, false},
		{RoleSecondaryAdmin, CapDashboard, true},
		{RoleSecondaryAdmin, CapDeleteOrder, true},
		{RoleSecondaryAdmin, CapUsers, false},
		{RoleSecondaryAdmin, CapCreateUser, false},
		{RoleDeliveryAgent, CapOrders, true},
		{RoleDeliveryAgent, CapCreateOrder, true},
		{RoleDeliveryAgent, CapDashboard, false},
		{RoleDeliveryAgent, CapUsers, false},
		{RoleDeliveryAgent, CapAuditLog, false},
	}

	for _, tc := range cases {
		if got := Can(tc.role, tc.cap); got != tc.want {
			t.Errorf("Can(%q, %q) = %v, want %v", tc.role, tc.cap, got, tc.want)
		}
	}
}

func TestSetList(t *testing.T) {
	set := Resolve(RoleDeliveryAgent)
	list := set.List()
	if len(list) != set.Len() {
		t.Fatalf("List length %d != Len %d", len(list), set.Len())
	}
	for _, c := range list {
		if !set.Has(c) {
			t.Fatalf("List returned %q but Has reports false", c)
		}
	}
}
