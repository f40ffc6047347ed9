// Package policy implements the access-control decision core: the
// permission vocabulary, immutable policy records, and a pure
// evaluator. Nothing in the decision path performs I/O; persistence
// and transport live in the surrounding repository, service, and
// handler files.
package policy

import "fmt"

// Action is an operation a policy can grant.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
)

// Actions returns the full action vocabulary in canonical order.
func Actions() []Action {
	return []Action{ActionRead, ActionWrite, ActionDelete, ActionManage}
}

// Valid reports whether the action belongs to the vocabulary.
func (a Action) Valid() bool {
	switch a {
	case ActionRead, ActionWrite, ActionDelete, ActionManage:
		return true
	}
	return false
}

// ParseAction maps a stored or user-supplied string onto the vocabulary.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.Valid() {
		return "", fmt.Errorf("policy: unknown action %q", s)
	}
	return a, nil
}

// SubjectKind identifies who a policy applies to.
type SubjectKind string

const (
	SubjectUser SubjectKind = "user"
	SubjectRole SubjectKind = "role"
)

// Valid reports whether the subject kind is known.
func (k SubjectKind) Valid() bool {
	return k == SubjectUser || k == SubjectRole
}

// ParseSubjectKind maps a stored string onto a SubjectKind.
func ParseSubjectKind(s string) (SubjectKind, error) {
	k := SubjectKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("policy: unknown subject kind %q", s)
	}
	return k, nil
}

// ResourceKind identifies what a policy applies to.
type ResourceKind string

const (
	ResourceDocument ResourceKind = "document"
	ResourceUser     ResourceKind = "user"
)

// Valid reports whether the resource kind is known.
func (k ResourceKind) Valid() bool {
	return k == ResourceDocument || k == ResourceUser
}

// ParseResourceKind maps a stored string onto a ResourceKind.
func ParseResourceKind(s string) (ResourceKind, error) {
	k := ResourceKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("policy: unknown resource kind %q", s)
	}
	return k, nil
}
