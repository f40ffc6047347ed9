package policy

import (
	"strings"
	"time"
)

// Priority bounds. Lower numbers denote higher precedence.
const (
	MinPriority = 1
	MaxPriority = 1000
)

// RecordFields is the persistence form of a Record. It is what the
// repository scans rows into and what the candidate cache serialises;
// NewRecord is the only way back to a Record, so a round trip always
// re-validates.
type RecordFields struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	SubjectKind  SubjectKind  `json:"subject_kind"`
	SubjectID    string       `json:"subject_id"`
	ResourceKind ResourceKind `json:"resource_kind"`
	ResourceID   string       `json:"resource_id,omitempty"`
	Actions      []Action     `json:"actions"`
	IsActive     bool         `json:"is_active"`
	Priority     int          `json:"priority"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Record is one immutable grant: who it applies to, what it applies
// to, and which actions it allows. All update paths return a fresh
// value; a Record never mutates in place.
type Record struct {
	id           string
	name         string
	description  string
	subjectKind  SubjectKind
	subjectID    string
	resourceKind ResourceKind
	resourceID   string // empty means global for the resource kind
	actions      map[Action]struct{}
	isActive     bool
	priority     int
	createdAt    time.Time
	updatedAt    time.Time
}

// NewRecord validates fields and constructs a Record. There is no
// other constructor, so an invalid Record cannot exist.
func NewRecord(f RecordFields) (Record, error) {
	if strings.TrimSpace(f.ID) == "" {
		return Record{}, &ValidationError{Field: "id", Reason: "must not be blank"}
	}
	if !f.SubjectKind.Valid() {
		return Record{}, &ValidationError{Field: "subject_kind", Reason: "unknown kind"}
	}
	if strings.TrimSpace(f.SubjectID) == "" {
		return Record{}, &ValidationError{Field: "subject_id", Reason: "must not be blank"}
	}
	if !f.ResourceKind.Valid() {
		return Record{}, &ValidationError{Field: "resource_kind", Reason: "unknown kind"}
	}
	if f.ResourceID != "" && strings.TrimSpace(f.ResourceID) == "" {
		return Record{}, &ValidationError{Field: "resource_id", Reason: "must not be blank when present"}
	}
	actions, err := actionSet(f.Actions)
	if err != nil {
		return Record{}, err
	}
	if f.Priority < MinPriority || f.Priority > MaxPriority {
		return Record{}, &ValidationError{Field: "priority", Reason: "must be between 1 and 1000"}
	}
	return Record{
		id:           f.ID,
		name:         f.Name,
		description:  f.Description,
		subjectKind:  f.SubjectKind,
		subjectID:    f.SubjectID,
		resourceKind: f.ResourceKind,
		resourceID:   f.ResourceID,
		actions:      actions,
		isActive:     f.IsActive,
		priority:     f.Priority,
		createdAt:    f.CreatedAt,
		updatedAt:    f.UpdatedAt,
	}, nil
}

func actionSet(actions []Action) (map[Action]struct{}, error) {
	if len(actions) == 0 {
		return nil, &ValidationError{Field: "actions", Reason: "must not be empty"}
	}
	set := make(map[Action]struct{}, len(actions))
	for _, a := range actions {
		if !a.Valid() {
			return nil, &ValidationError{Field: "actions", Reason: "unknown action " + string(a)}
		}
		set[a] = struct{}{}
	}
	return set, nil
}

// Fields returns the persistence form of the record.
func (r Record) Fields() RecordFields {
	return RecordFields{
		ID:           r.id,
		Name:         r.name,
		Description:  r.description,
		SubjectKind:  r.subjectKind,
		SubjectID:    r.subjectID,
		ResourceKind: r.resourceKind,
		ResourceID:   r.resourceID,
		Actions:      r.Actions(),
		IsActive:     r.isActive,
		Priority:     r.priority,
		CreatedAt:    r.createdAt,
		UpdatedAt:    r.updatedAt,
	}
}

// ID returns the record identifier.
func (r Record) ID() string { return r.id }

// Name returns the display name. Names are not evaluated.
func (r Record) Name() string { return r.name }

// Description returns the free-text description.
func (r Record) Description() string { return r.description }

// SubjectKind returns whether the record targets a user or a role.
func (r Record) SubjectKind() SubjectKind { return r.subjectKind }

// SubjectID returns the user identifier or role label targeted.
func (r Record) SubjectID() string { return r.subjectID }

// ResourceKind returns the kind of resource the record scopes.
func (r Record) ResourceKind() ResourceKind { return r.resourceKind }

// ResourceID returns the scoped resource instance, or "" for a global
// record.
func (r Record) ResourceID() string { return r.resourceID }

// IsGlobal reports whether the record applies to every resource of
// its kind.
func (r Record) IsGlobal() bool { return r.resourceID == "" }

// IsActive reports whether the record participates in evaluation.
func (r Record) IsActive() bool { return r.isActive }

// Priority returns the precedence number; lower wins.
func (r Record) Priority() int { return r.priority }

// CreatedAt returns the creation timestamp. Informational only.
func (r Record) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last transformation timestamp. Informational only.
func (r Record) UpdatedAt() time.Time { return r.updatedAt }

// Actions returns the granted actions in canonical vocabulary order.
func (r Record) Actions() []Action {
	out := make([]Action, 0, len(r.actions))
	for _, a := range Actions() {
		if _, ok := r.actions[a]; ok {
			out = append(out, a)
		}
	}
	return out
}

// AppliesToSubject reports whether the record targets the given
// subject exactly.
func (r Record) AppliesToSubject(kind SubjectKind, id string) bool {
	return r.subjectKind == kind && r.subjectID == id
}

// AppliesToResource reports whether the record scopes the given
// resource. A record without a resource ID is the global wildcard for
// its kind and matches every instance.
func (r Record) AppliesToResource(kind ResourceKind, id string) bool {
	if r.resourceKind != kind {
		return false
	}
	return r.resourceID == "" || r.resourceID == id
}

// GrantsAction reports membership of action in the granted set.
func (r Record) GrantsAction(action Action) bool {
	_, ok := r.actions[action]
	return ok
}

// HasHigherPrecedenceThan reports whether r outranks other. Lower
// priority numbers win. Precedence is kept for ordering and
// diagnostics; evaluation itself is union-of-grants and never lets a
// higher-precedence record exclude another grant.
func (r Record) HasHigherPrecedenceThan(other Record) bool {
	return r.priority < other.priority
}

// WithActions returns a copy with the action set replaced.
func (r Record) WithActions(actions []Action) (Record, error) {
	set, err := actionSet(actions)
	if err != nil {
		return Record{}, err
	}
	out := r
	out.actions = set
	out.updatedAt = time.Now().UTC()
	return out, nil
}

// WithPriority returns a copy with the priority replaced.
func (r Record) WithPriority(priority int) (Record, error) {
	if priority < MinPriority || priority > MaxPriority {
		return Record{}, &ValidationError{Field: "priority", Reason: "must be between 1 and 1000"}
	}
	out := r
	out.priority = priority
	out.updatedAt = time.Now().UTC()
	return out, nil
}

// Activate returns an active copy of the record.
func (r Record) Activate() Record {
	out := r
	out.isActive = true
	out.updatedAt = time.Now().UTC()
	return out
}

// Deactivate returns an inactive copy of the record.
func (r Record) Deactivate() Record {
	out := r
	out.isActive = false
	out.updatedAt = time.Now().UTC()
	return out
}
