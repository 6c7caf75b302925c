package guard

import "github.com/hydrovia/waterdesk/permission"

// Destination names a console view.
type Destination string

const (
	// DestLogin is the login form. It applies the inverse rule: an
	// authenticated session is bounced to the default landing instead.
	DestLogin Destination = "login"
	// DestDashboard is the statistics view.
	DestDashboard Destination = "dashboard"
	// DestOrders is the order queue.
	DestOrders Destination = "orders"
	// DestCommunities is the community list.
	DestCommunities Destination = "communities"
	// DestClients is the client list.
	DestClients Destination = "clients"
	// DestUsers is the staff account view.
	DestUsers Destination = "users"
	// DestAuditLog is the activity log.
	DestAuditLog Destination = "audit-log"
)

// DefaultLanding is where permission redirects and unknown destinations
// land. Every role can reach it.
const DefaultLanding = DestOrders

// Decision is the outcome of evaluating one navigation.
type Decision uint8

const (
	// DecisionLoading suspends the navigation while the session resolves.
	// It is transient, not terminal: the guard re-evaluates once loading
	// completes.
	DecisionLoading Decision = iota
	// DecisionRender lets the destination render.
	DecisionRender
	// DecisionRedirectToLogin bounces an unauthenticated navigation.
	DecisionRedirectToLogin
	// DecisionRedirectToFallback bounces a navigation the session lacks a
	// capability for, or whose destination does not exist.
	DecisionRedirectToFallback
)

func (d Decision) String() string {
	switch d {
	case DecisionLoading:
		return "loading"
	case DecisionRender:
		return "render"
	case DecisionRedirectToLogin:
		return "redirect-to-login"
	case DecisionRedirectToFallback:
		return "redirect-to-fallback"
	default:
		return "unknown"
	}
}

// State is the view of the session manager the guard consumes.
// *waterdesk.Manager satisfies it.
type State interface {
	IsLoading() bool
	IsAuthenticated() bool
	HasPermission(permission.Capability) bool
}

// routes maps each destination to the capability it requires. An empty
// capability means authentication alone is enough. The login destination
// is handled separately.
var routes = map[Destination]permission.Capability{
	DestDashboard:   permission.CapDashboard,
	DestOrders:      permission.CapOrders,
	DestCommunities: permission.CapCommunities,
	DestClients:     permission.CapClients,
	DestUsers:       permission.CapUsers,
	DestAuditLog:    permission.CapAuditLog,
}

// Destinations returns every view destination in navigation order,
// excluding the login form.
func Destinations() []Destination {
	return []Destination{
		DestDashboard,
		DestOrders,
		DestCommunities,
		DestClients,
		DestUsers,
		DestAuditLog,
	}
}

// Known reports whether dest exists in the route table.
func Known(dest Destination) bool {
	if dest == DestLogin {
		return true
	}
	_, ok := routes[dest]
	return ok
}

// RequiredCapability returns the capability gating dest, or false when the
// destination requires only authentication or does not exist.
func RequiredCapability(dest Destination) (permission.Capability, bool) {
	cap, ok := routes[dest]
	if !ok || cap == "" {
		return "", false
	}
	return cap, true
}

// Evaluate decides one navigation. Unknown destinations redirect to the
// default landing unconditionally; known destinations resolve loading,
// then authentication, then the required capability.
func Evaluate(s State, dest Destination) Decision {
	if !Known(dest) {
		return DecisionRedirectToFallback
	}

	if s.IsLoading() {
		return DecisionLoading
	}

	if dest == DestLogin {
		if s.IsAuthenticated() {
			return DecisionRedirectToFallback
		}
		return DecisionRender
	}

	if !s.IsAuthenticated() {
		return DecisionRedirectToLogin
	}

	if cap, required := RequiredCapability(dest); required && !s.HasPermission(cap) {
		return DecisionRedirectToFallback
	}

	return DecisionRender
}

// Path returns the gateway route for a destination.
func Path(dest Destination) string {
	if dest == DestLogin {
		return "/login"
	}
	return "/" + string(dest)
}
