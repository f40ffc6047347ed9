package policy

import "sort"

// Evaluate decides whether actor may perform action on resource given
// the candidate records. It is a pure function of its inputs: no
// hidden state, no I/O, safe for concurrent use.
//
// Preconditions are checked first and short-circuit with a distinct
// failure: ErrActorInactive, then ErrResourceUnavailable. Both are
// domain-level denials, never system errors. Once preconditions pass,
// an admin actor is granted unconditionally; otherwise the decision is
// a union of grants over the applicable records.
func Evaluate(actor Actor, resource Resource, action Action, candidates []Record) (bool, error) {
	if !actor.IsActive {
		return false, ErrActorInactive
	}
	if resource.IsDeleted {
		return false, ErrResourceUnavailable
	}
	if actor.IsAdmin() {
		return true, nil
	}
	for _, rec := range Applicable(actor, resource, candidates) {
		if rec.GrantsAction(action) {
			return true, nil
		}
	}
	return false, nil
}

// EvaluateOrDefault is Evaluate with precondition failures collapsed
// to false, for call sites that treat any unusable state as no access.
func EvaluateOrDefault(actor Actor, resource Resource, action Action, candidates []Record) bool {
	allowed, err := Evaluate(actor, resource, action, candidates)
	if err != nil {
		return false
	}
	return allowed
}

// GrantedActions returns every action the actor may perform on the
// resource: the full vocabulary for an admin, otherwise the union of
// action sets across the applicable records. The applicable set is
// computed once rather than evaluating per action. Precondition
// failures yield an empty set.
func GrantedActions(actor Actor, resource Resource, candidates []Record) []Action {
	if !actor.IsActive || resource.IsDeleted {
		return nil
	}
	if actor.IsAdmin() {
		return Actions()
	}
	granted := make(map[Action]struct{})
	for _, rec := range Applicable(actor, resource, candidates) {
		for _, a := range rec.Actions() {
			granted[a] = struct{}{}
		}
	}
	out := make([]Action, 0, len(granted))
	for _, a := range Actions() {
		if _, ok := granted[a]; ok {
			out = append(out, a)
		}
	}
	return out
}

// CanManage reports whether the actor may manage the resource.
func CanManage(actor Actor, resource Resource, candidates []Record) bool {
	return EvaluateOrDefault(actor, resource, ActionManage, candidates)
}

// IsOwner reports whether the actor owns the resource. Ownership is a
// structural fact, independent of any policy.
func IsOwner(actor Actor, resource Resource) bool {
	return actor.ID == resource.OwnerID
}

// Applicable filters candidates down to the records that match the
// actor and the resource and are active, ordered by precedence
// (highest first) for deterministic diagnostics. Candidates are
// re-filtered here regardless of upstream filtering. Ordering never
// excludes a grant: evaluation stays union-of-grants.
func Applicable(actor Actor, resource Resource, candidates []Record) []Record {
	var out []Record
	for _, rec := range candidates {
		if !rec.IsActive() {
			continue
		}
		if !rec.AppliesToSubject(SubjectUser, actor.ID) && !rec.AppliesToSubject(SubjectRole, actor.Role) {
			continue
		}
		if !rec.AppliesToResource(resource.Kind, resource.ID) {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].HasHigherPrecedenceThan(out[j])
	})
	return out
}
