package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeActor(id, role string) Actor {
	return Actor{ID: id, Role: role, IsActive: true}
}

func liveDocument(id, owner string) Resource {
	return Resource{ID: id, OwnerID: owner, Kind: ResourceDocument}
}

func grant(t *testing.T, id string, subjectKind SubjectKind, subjectID string, resourceID string, actions ...Action) Record {
	t.Helper()
	f := validFields()
	f.ID = id
	f.Name = "grant " + id
	f.SubjectKind = subjectKind
	f.SubjectID = subjectID
	f.ResourceID = resourceID
	f.Actions = actions
	return mustRecord(t, f)
}

func TestEvaluateUserSpecificGrant(t *testing.T) {
	actor := activeActor("u1", "user")
	resource := liveDocument("d1", "u1")
	pol := grant(t, "p1", SubjectUser, "u1", "d1", ActionRead)

	allowed, err := Evaluate(actor, resource, ActionRead, []Record{pol})
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = Evaluate(actor, resource, ActionWrite, []Record{pol})
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestEvaluateEmptyCandidatesDenies(t *testing.T) {
	allowed, err := Evaluate(activeActor("u1", "user"), liveDocument("d1", "u1"), ActionRead, nil)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestEvaluateAdminBypassesPolicies(t *testing.T) {
	admin := activeActor("root", RoleAdmin)
	hostile := grant(t, "p1", SubjectUser, "someone-else", "d1", ActionRead)
	for _, action := range Actions() {
		allowed, err := Evaluate(admin, liveDocument("d1", "other"), action, []Record{hostile})
		require.NoError(t, err)
		assert.True(t, allowed, "admin must be granted %s", action)
		assert.True(t, EvaluateOrDefault(admin, liveDocument("d1", "other"), action, nil))
	}
}

func TestEvaluateInactiveActor(t *testing.T) {
	actor := Actor{ID: "u1", Role: "user", IsActive: false}
	pol := grant(t, "p1", SubjectUser, "u1", "d1", ActionRead)

	_, err := Evaluate(actor, liveDocument("d1", "u1"), ActionRead, []Record{pol})
	assert.ErrorIs(t, err, ErrActorInactive)
	assert.False(t, EvaluateOrDefault(actor, liveDocument("d1", "u1"), ActionRead, []Record{pol}))
}

func TestEvaluateInactiveAdminStillDenied(t *testing.T) {
	admin := Actor{ID: "root", Role: RoleAdmin, IsActive: false}
	_, err := Evaluate(admin, liveDocument("d1", "root"), ActionManage, nil)
	assert.ErrorIs(t, err, ErrActorInactive)
}

func TestEvaluateDeletedResource(t *testing.T) {
	actor := activeActor("u1", "user")
	resource := Resource{ID: "d1", OwnerID: "u1", Kind: ResourceDocument, IsDeleted: true}
	pol := grant(t, "p1", SubjectUser, "u1", "d1", ActionRead)

	_, err := Evaluate(actor, resource, ActionRead, []Record{pol})
	assert.ErrorIs(t, err, ErrResourceUnavailable)
	assert.False(t, EvaluateOrDefault(actor, resource, ActionRead, []Record{pol}))
}

func TestPreconditionOrderActorFirst(t *testing.T) {
	actor := Actor{ID: "u1", Role: "user", IsActive: false}
	resource := Resource{ID: "d1", Kind: ResourceDocument, IsDeleted: true}
	_, err := Evaluate(actor, resource, ActionRead, nil)
	assert.ErrorIs(t, err, ErrActorInactive)
}

func TestEvaluateResourceSpecificScoping(t *testing.T) {
	actor := activeActor("u1", "user")
	pol := grant(t, "p1", SubjectUser, "u1", "d1", ActionRead)

	allowed, err := Evaluate(actor, liveDocument("d1", "u9"), ActionRead, []Record{pol})
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = Evaluate(actor, liveDocument("d2", "u9"), ActionRead, []Record{pol})
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestEvaluateGlobalRolePolicy(t *testing.T) {
	pol := grant(t, "p1", SubjectRole, "user", "", ActionRead, ActionWrite)
	actor := activeActor("u7", "user")

	for _, doc := range []Resource{liveDocument("d1", "a"), liveDocument("d2", "b")} {
		allowed, err := Evaluate(actor, doc, ActionRead, []Record{pol})
		require.NoError(t, err)
		assert.True(t, allowed, "doc %s", doc.ID)
	}

	stranger := activeActor("u7", "viewer")
	allowed, err := Evaluate(stranger, liveDocument("d1", "a"), ActionRead, []Record{pol})
	require.NoError(t, err)
	assert.False(t, allowed, "role label must match exactly")
}

func TestEvaluateSkipsInactiveRecords(t *testing.T) {
	pol := grant(t, "p1", SubjectUser, "u1", "d1", ActionRead).Deactivate()
	allowed, err := Evaluate(activeActor("u1", "user"), liveDocument("d1", "u1"), ActionRead, []Record{pol})
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestEvaluateIgnoresWrongResourceKind(t *testing.T) {
	f := validFields()
	f.ResourceKind = ResourceUser
	f.ResourceID = "u2"
	pol := mustRecord(t, f)
	allowed, err := Evaluate(activeActor("u1", "user"), liveDocument("u2", "u2"), ActionRead, []Record{pol})
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestEvaluateUnionOfGrants(t *testing.T) {
	// Two applicable records with different priorities; the
	// lower-precedence grant still counts.
	first := grant(t, "p1", SubjectRole, "user", "", ActionRead)
	f := validFields()
	f.ID = "p2"
	f.Name = "writer"
	f.SubjectKind = SubjectUser
	f.SubjectID = "u1"
	f.ResourceID = "d1"
	f.Actions = []Action{ActionWrite}
	f.Priority = 900
	second := mustRecord(t, f)

	actor := activeActor("u1", "user")
	resource := liveDocument("d1", "u2")
	allowed, err := Evaluate(actor, resource, ActionWrite, []Record{first, second})
	require.NoError(t, err)
	assert.True(t, allowed, "low-priority grant must not be excluded")
}

func TestApplicableFiltersAndOrders(t *testing.T) {
	userGrant := grant(t, "p1", SubjectUser, "u1", "d1", ActionRead)
	f := validFields()
	f.ID = "p2"
	f.SubjectKind = SubjectRole
	f.SubjectID = "user"
	f.ResourceID = ""
	f.Priority = 50
	roleGrant := mustRecord(t, f)
	foreign := grant(t, "p3", SubjectUser, "u2", "d1", ActionRead)
	inactive := grant(t, "p4", SubjectUser, "u1", "d1", ActionRead).Deactivate()

	got := Applicable(activeActor("u1", "user"), liveDocument("d1", "u9"),
		[]Record{userGrant, roleGrant, foreign, inactive})
	require.Len(t, got, 2)
	assert.Equal(t, "p2", got[0].ID(), "lower priority number first")
	assert.Equal(t, "p1", got[1].ID())
}

func TestGrantedActionsUnion(t *testing.T) {
	reader := grant(t, "p1", SubjectRole, "user", "", ActionRead)
	writer := grant(t, "p2", SubjectUser, "u1", "d1", ActionWrite, ActionDelete)
	actor := activeActor("u1", "user")

	got := GrantedActions(actor, liveDocument("d1", "u9"), []Record{reader, writer})
	assert.Equal(t, []Action{ActionRead, ActionWrite, ActionDelete}, got)

	got = GrantedActions(actor, liveDocument("d2", "u9"), []Record{reader, writer})
	assert.Equal(t, []Action{ActionRead}, got, "specific grant must not leak to d2")
}

func TestGrantedActionsAdminGetsFullVocabulary(t *testing.T) {
	got := GrantedActions(activeActor("root", RoleAdmin), liveDocument("d1", "u1"), nil)
	assert.Equal(t, Actions(), got)
}

func TestGrantedActionsPreconditionsYieldEmpty(t *testing.T) {
	pol := grant(t, "p1", SubjectUser, "u1", "d1", ActionRead)
	inactive := Actor{ID: "u1", Role: "user", IsActive: false}
	assert.Empty(t, GrantedActions(inactive, liveDocument("d1", "u1"), []Record{pol}))

	deleted := Resource{ID: "d1", Kind: ResourceDocument, IsDeleted: true}
	assert.Empty(t, GrantedActions(activeActor("u1", "user"), deleted, []Record{pol}))
}

func TestCanManage(t *testing.T) {
	manager := grant(t, "p1", SubjectUser, "u1", "d1", ActionManage)
	actor := activeActor("u1", "user")
	assert.True(t, CanManage(actor, liveDocument("d1", "u9"), []Record{manager}))
	assert.False(t, CanManage(actor, liveDocument("d2", "u9"), []Record{manager}))
	assert.False(t, CanManage(actor, liveDocument("d1", "u9"), nil))
}

func TestIsOwner(t *testing.T) {
	actor := activeActor("u1", "user")
	assert.True(t, IsOwner(actor, liveDocument("d1", "u1")))
	assert.False(t, IsOwner(actor, liveDocument("d1", "u2")))
	// Ownership is structural: policies and state play no part.
	inactive := Actor{ID: "u1", Role: "user", IsActive: false}
	assert.True(t, IsOwner(inactive, Resource{ID: "d1", OwnerID: "u1", Kind: ResourceDocument, IsDeleted: true}))
}
