package fee

import (
	"fmt"
	"sort"
)

// ActivationTitle is shown above the activation confirmation.
const ActivationTitle = "Activate fee rule"

// ActivationMessage explains to the operator which rules the backend will
// deactivate when r is activated. It always names the full tuple.
func ActivationMessage(r Rule) string {
	return fmt.Sprintf(
		"Activating this rule will deactivate all other active rules for gateway %s, currency %s and transaction type %s.",
		r.Gateway, r.Currency, r.TransactionType,
	)
}

// VersionActivationMessage is the confirmation text for activating v. It
// names the version that gets deactivated when versions has one.
func VersionActivationMessage(v Version, versions []Version) string {
	if current, ok := ActiveVersion(versions); ok && current.ID != v.ID {
		return fmt.Sprintf("Version %d will become the only active fee version. Version %d will be deactivated.", v.Version, current.Version)
	}
	return fmt.Sprintf("Version %d will become the only active fee version.", v.Version)
}

// Conflict is a tuple that has more than one ACTIVE rule.
type Conflict struct {
	Tuple   Tuple    `json:"tuple"`
	RuleIDs []string `json:"ruleIds"`
}

// Conflicts lists every tuple with more than one ACTIVE rule, ordered by tuple.
// An empty result means the list honours the one-active-rule-per-tuple rule.
func Conflicts(rules []Rule) []Conflict {
	active := make(map[Tuple][]string)
	for _, r := range rules {
		if r.IsActive() {
			active[r.Tuple()] = append(active[r.Tuple()], r.ID)
		}
	}
	var out []Conflict
	for t, ids := range active {
		if len(ids) > 1 {
			sort.Strings(ids)
			out = append(out, Conflict{Tuple: t, RuleIDs: ids})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Tuple.String() < out[j].Tuple.String()
	})
	return out
}

// ActiveVersion returns the active version. ok is false when none is active.
func ActiveVersion(versions []Version) (v Version, ok bool) {
	for _, candidate := range versions {
		if candidate.IsActive {
			return candidate, true
		}
	}
	return Version{}, false
}

// ActiveVersionCount counts versions flagged active. Anything other than one
// means the backend returned an inconsistent snapshot.
func ActiveVersionCount(versions []Version) int {
	n := 0
	for _, v := range versions {
		if v.IsActive {
			n++
		}
	}
	return n
}
