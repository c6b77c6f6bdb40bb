// Package hierarchy holds the fixed chain of command: which agents exist,
// their rank, what each rank may do and who may delegate to whom.
//
// The table is compiled in and read-only. Every function here is pure and
// returns a Decision instead of an error; callers decide whether a denial
// becomes an error and are responsible for auditing it.
package hierarchy

import "fmt"

// Rank orders agents by authority. Lower is more senior.
type Rank float64

const (
	RankAuthority   Rank = 0
	RankCommander   Rank = 0.5
	RankCoordinator Rank = 1
	RankWorker      Rank = 2
)

// Agent names.
const (
	Anton  = "anton"
	Jarvis = "jarvis"
	Kimi   = "kimi"
	Ralph  = "ralph"
	Scout  = "scout"
)

// Actions checked by CheckPermission.
const (
	ActionDelegateToWorker      = "delegate_to_worker"
	ActionDelegateToCoordinator = "delegate_to_coordinator"
	ActionCreateSession         = "create_session"
	ActionSpawnSession          = "spawn_session"
	ActionCloseSession          = "close_session"
	ActionReadAuditLog          = "read_audit_log"
	ActionEscalate              = "escalate"
	ActionResolveEscalation     = "resolve_escalation"
	ActionClaimDelegation       = "claim_delegation"
	ActionCompleteDelegation    = "complete_delegation"
	ActionFailDelegation        = "fail_delegation"

	ActionModifyPermissions      = "modify_permissions"
	ActionGrantPermanentOverride = "grant_permanent_override"
	ActionDeleteAgent            = "delete_agent"
	ActionModifyHierarchy        = "modify_hierarchy"
)

// Agent is one entry of the hierarchy.
type Agent struct {
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Rank        Rank     `json:"rank"`
	DelegatesTo []string `json:"delegatesTo"`
	ReportsTo   string   `json:"reportsTo,omitempty"`
}

// Decision is the result of a permission or delegation check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

func allow(format string, args ...any) Decision {
	return Decision{Allowed: true, Reason: fmt.Sprintf(format, args...)}
}

func deny(format string, args ...any) Decision {
	return Decision{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}

// agents is kept in a fixed order so listings are stable.
var agents = []Agent{
	{Name: Anton, Role: "top authority", Rank: RankAuthority, DelegatesTo: []string{Kimi, Ralph, Scout}},
	{Name: Jarvis, Role: "secondary commander", Rank: RankCommander, DelegatesTo: []string{Kimi, Ralph, Scout}, ReportsTo: Anton},
	{Name: Kimi, Role: "coordinator", Rank: RankCoordinator, DelegatesTo: []string{Ralph, Scout}, ReportsTo: Anton},
	{Name: Ralph, Role: "code worker", Rank: RankWorker, ReportsTo: Kimi},
	{Name: Scout, Role: "research worker", Rank: RankWorker, ReportsTo: Kimi},
}

var byName = func() map[string]*Agent {
	m := make(map[string]*Agent, len(agents))
	for i := range agents {
		m[agents[i].Name] = &agents[i]
	}
	return m
}()

// topOnly actions are never granted below RankAuthority.
var topOnly = map[string]bool{
	ActionModifyPermissions:      true,
	ActionGrantPermanentOverride: true,
	ActionDeleteAgent:            true,
	ActionModifyHierarchy:        true,
}

var rankActions = map[Rank]map[string]bool{
	RankCommander: set(
		ActionDelegateToWorker, ActionDelegateToCoordinator,
		ActionCreateSession, ActionSpawnSession, ActionCloseSession,
		ActionReadAuditLog, ActionEscalate, ActionResolveEscalation,
	),
	RankCoordinator: set(
		ActionDelegateToWorker,
		ActionCreateSession, ActionCloseSession,
		ActionReadAuditLog, ActionEscalate,
		ActionClaimDelegation, ActionCompleteDelegation, ActionFailDelegation,
	),
	RankWorker: set(
		ActionClaimDelegation, ActionCompleteDelegation, ActionFailDelegation,
		ActionEscalate,
	),
}

// sessionOwners may own a session.
var sessionOwners = set(Anton, Jarvis, Kimi)

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

// Agents returns a copy of the hierarchy in its fixed order.
func Agents() []Agent {
	out := make([]Agent, len(agents))
	for i, a := range agents {
		a.DelegatesTo = append([]string(nil), a.DelegatesTo...)
		out[i] = a
	}
	return out
}

// Lookup returns the agent with the given name.
func Lookup(name string) (Agent, bool) {
	a, ok := byName[name]
	if !ok {
		return Agent{}, false
	}
	cp := *a
	cp.DelegatesTo = append([]string(nil), a.DelegatesTo...)
	return cp, true
}

// TopOnlyActions lists the actions reserved for the top authority.
func TopOnlyActions() []string {
	return []string{ActionModifyPermissions, ActionGrantPermanentOverride, ActionDeleteAgent, ActionModifyHierarchy}
}

// Superior returns who name reports to; empty for the top authority or an
// unknown agent.
func Superior(name string) string {
	if a, ok := byName[name]; ok {
		return a.ReportsTo
	}
	return ""
}

// IsSessionOwner reports whether name may own a session.
func IsSessionOwner(name string) bool {
	return sessionOwners[name]
}

// SessionOwners lists the agents that may own sessions, in hierarchy order.
func SessionOwners() []string {
	var out []string
	for _, a := range agents {
		if sessionOwners[a.Name] {
			out = append(out, a.Name)
		}
	}
	return out
}

// CheckPermission decides whether caller may perform action.
func CheckPermission(caller, action string) Decision {
	a, ok := byName[caller]
	if !ok {
		return deny("unknown agent %q", caller)
	}
	if a.Rank == RankAuthority {
		return allow("%s has full authority", caller)
	}
	if topOnly[action] {
		return deny("%s is reserved for the top authority", action)
	}
	if rankActions[a.Rank][action] {
		return allow("%s (rank %g) may %s", caller, float64(a.Rank), action)
	}
	return deny("%s (rank %g) is not permitted to %s", caller, float64(a.Rank), action)
}

// CanDelegate decides whether caller may hand work to target.
func CanDelegate(caller, target string) Decision {
	c, ok := byName[caller]
	if !ok {
		return deny("unknown caller agent %q", caller)
	}
	t, ok := byName[target]
	if !ok {
		return deny("unknown target agent %q", target)
	}
	if c.Name == t.Name {
		return deny("self-delegation is not allowed (%s -> %s)", caller, target)
	}
	if t.Rank < RankCoordinator {
		return deny("%s (rank %g) cannot receive delegated work", target, float64(t.Rank))
	}
	for _, d := range c.DelegatesTo {
		if d == target {
			return allow("%s may delegate to %s", caller, target)
		}
	}
	return deny("%s may not delegate to %s", caller, target)
}
