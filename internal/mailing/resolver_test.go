package mailing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParentsCountExcludesEmptyEmails(t *testing.T) {
	contacts := []Contact{
		{ID: "1", Email: "a@x.com"},
		{ID: "2", Email: ""},
		{ID: "3", Email: "a@x.com"},
	}

	// Two records qualify; the unique-address list collapses to one. Count and
	// list length differ on purpose.
	assert.Equal(t, 2, CountFor(GroupParents, contacts, nil))
	assert.Equal(t, []string{"a@x.com"}, EmailsFor(GroupParents, contacts, nil))
}

func TestWhitespaceEmailIsNoContact(t *testing.T) {
	contacts := []Contact{{ID: "1", Email: "   "}, {ID: "2", Email: "\t"}}
	assert.Equal(t, 0, CountFor(GroupParents, contacts, nil))
	assert.Empty(t, EmailsFor(GroupParents, contacts, nil))
	assert.Empty(t, EmailsFor(GroupAll, contacts, nil))
}

func TestTeacherAndSupportClassification(t *testing.T) {
	staff := []StaffMember{
		{ID: "1", Role: "Teacher", Department: "Sciences", Email: "t1@x.com"},
		{ID: "2", Role: "Librarian", Email: "lib@x.com"},
	}

	assert.Equal(t, []string{"t1@x.com"}, EmailsFor(GroupTeachers, nil, staff))
	assert.Equal(t, []string{"lib@x.com"}, EmailsFor(GroupSupport, nil, staff))
	assert.Equal(t, 1, CountFor(GroupTeachers, nil, staff))
	assert.Equal(t, 1, CountFor(GroupSupport, nil, staff))
}

func TestTeacherByDepartmentOnly(t *testing.T) {
	staff := []StaffMember{
		{ID: "1", Role: "Lab Technician", Department: "Sciences", Email: "lab@x.com"},
		{ID: "2", Role: "Teacher", Department: "ICT", Email: "ict@x.com"},
		{ID: "3", Role: "Clerk", Department: "ICT", Email: "clerk@x.com"},
	}
	assert.Equal(t, []string{"lab@x.com", "ict@x.com"}, EmailsFor(GroupTeachers, nil, staff))
}

func TestBOMByPositionKeyword(t *testing.T) {
	staff := []StaffMember{
		{ID: "1", Role: "Accountant", Position: "Board Liaison", Email: "b@x.com"},
	}
	assert.Equal(t, 1, CountFor(GroupBOM, nil, staff))
	assert.Equal(t, []string{"b@x.com"}, EmailsFor(GroupBOM, nil, staff))
}

func TestAdministrationByRoleOrDepartment(t *testing.T) {
	staff := []StaffMember{
		{ID: "1", Role: "Principal", Email: "p@x.com"},
		{ID: "2", Role: "Deputy Principal", Email: "dp@x.com"},
		{ID: "3", Role: "Secretary", Department: "Administration", Email: "sec@x.com"},
		{ID: "4", Role: "Teacher", Department: "Sciences", Email: "t@x.com"},
	}
	assert.Equal(t, 3, CountFor(GroupAdministration, nil, staff))
}

func TestNonExclusivePredicates(t *testing.T) {
	// A BOM member in the Administration department counts toward both groups.
	staff := []StaffMember{
		{ID: "1", Role: "BOM Member", Department: "Administration", Email: "both@x.com"},
	}
	assert.Equal(t, 1, CountFor(GroupBOM, nil, staff))
	assert.Equal(t, 1, CountFor(GroupAdministration, nil, staff))
}

func TestAllIsUnionOfParentsAndStaff(t *testing.T) {
	contacts := []Contact{
		{ID: "1", Email: "parent@x.com"},
		{ID: "2", Email: "shared@x.com"},
	}
	staff := []StaffMember{
		{ID: "s1", Role: "Teacher", Email: "shared@x.com"},
		{ID: "s2", Role: "Principal", Email: "p@x.com"},
	}

	all := EmailsFor(GroupAll, contacts, staff)
	assert.Equal(t, []string{"parent@x.com", "shared@x.com", "p@x.com"}, all)

	// No duplicates regardless of overlap between the two source sets.
	seen := map[string]bool{}
	for _, addr := range all {
		require.False(t, seen[addr], "duplicate address %q", addr)
		seen[addr] = true
	}
}

func TestAllWithOnlyStaff(t *testing.T) {
	staff := []StaffMember{{ID: "1", Email: "s@x.com"}}
	assert.Equal(t, []string{"s@x.com"}, EmailsFor(GroupAll, nil, staff))
}

func TestNilInputsResolveEmpty(t *testing.T) {
	for _, g := range []GroupKey{GroupAll, GroupParents, GroupTeachers, GroupAdministration, GroupBOM, GroupSupport, GroupStaff} {
		assert.Equal(t, 0, CountFor(g, nil, nil), string(g))
		assert.Empty(t, EmailsFor(g, nil, nil), string(g))
	}
}

func TestEmailsAreTrimmedAndNonEmpty(t *testing.T) {
	contacts := []Contact{{ID: "1", Email: "  padded@x.com  "}}
	staff := []StaffMember{{ID: "s1", Email: "padded@x.com"}}

	for _, g := range []GroupKey{GroupParents, GroupStaff, GroupAll} {
		for _, addr := range EmailsFor(g, contacts, staff) {
			assert.NotEmpty(t, addr)
			assert.Equal(t, addr, usableEmail(addr))
		}
	}
	// Trimming also collapses the padded duplicate across the two sources.
	assert.Equal(t, []string{"padded@x.com"}, EmailsFor(GroupAll, contacts, staff))
}

func TestNoCaseFolding(t *testing.T) {
	contacts := []Contact{
		{ID: "1", Email: "A@x.com"},
		{ID: "2", Email: "a@x.com"},
	}
	// Addresses differing only by case are distinct recipients.
	assert.Len(t, EmailsFor(GroupParents, contacts, nil), 2)
}

func TestResolverDoesNotMutateInputs(t *testing.T) {
	contacts := []Contact{{ID: "1", Email: " a@x.com "}}
	staff := []StaffMember{{ID: "s1", Role: "Teacher", Email: "t@x.com"}}

	first := EmailsFor(GroupAll, contacts, staff)
	second := EmailsFor(GroupAll, contacts, staff)

	assert.Equal(t, first, second)
	assert.Equal(t, " a@x.com ", contacts[0].Email)
	assert.Equal(t, "t@x.com", staff[0].Email)
}

func TestGroupsOrderAndCounts(t *testing.T) {
	contacts := []Contact{{ID: "1", Email: "parent@x.com"}}
	staff := []StaffMember{
		{ID: "s1", Role: "Teacher", Department: "Sciences", Email: "t@x.com"},
		{ID: "s2", Role: "BOM Member", Email: "b@x.com"},
	}

	groups := Groups(contacts, staff)
	require.Len(t, groups, 7)

	byKey := map[GroupKey]Group{}
	order := make([]GroupKey, 0, len(groups))
	for _, g := range groups {
		byKey[g.Value] = g
		order = append(order, g.Value)
	}

	assert.Equal(t, []GroupKey{GroupAll, GroupParents, GroupTeachers, GroupAdministration, GroupBOM, GroupSupport, GroupStaff}, order)
	assert.Equal(t, 3, byKey[GroupAll].Count)
	assert.Equal(t, 1, byKey[GroupParents].Count)
	assert.Equal(t, 1, byKey[GroupTeachers].Count)
	assert.Equal(t, 1, byKey[GroupBOM].Count)
	assert.Equal(t, 2, byKey[GroupStaff].Count)
	assert.NotEmpty(t, byKey[GroupAll].Label)
	assert.NotEmpty(t, byKey[GroupAll].ShortLabel)
}

// Under the current rules "all" equals parents plus the union of every staff
// sub-group plus remaining staff. Pin the equivalence so a future predicate
// edit that breaks it fails loudly instead of silently diverging.
func TestAllEquivalentToSubGroupUnion(t *testing.T) {
	contacts := []Contact{
		{ID: "1", Email: "parent@x.com"},
		{ID: "2", Email: "shared@x.com"},
	}
	staff := []StaffMember{
		{ID: "s1", Role: "Teacher", Department: "Sciences", Email: "t@x.com"},
		{ID: "s2", Role: "Principal", Email: "p@x.com"},
		{ID: "s3", Role: "BOM Member", Email: "b@x.com"},
		{ID: "s4", Role: "Librarian", Email: "lib@x.com"},
		{ID: "s5", Role: "Groundskeeper", Email: "g@x.com"},
		{ID: "s6", Role: "Teacher", Email: "shared@x.com"},
	}

	union := map[string]struct{}{}
	for _, g := range []GroupKey{GroupParents, GroupTeachers, GroupAdministration, GroupBOM, GroupSupport, GroupStaff} {
		for _, addr := range EmailsFor(g, contacts, staff) {
			union[addr] = struct{}{}
		}
	}

	all := EmailsFor(GroupAll, contacts, staff)
	assert.Len(t, all, len(union))
	for _, addr := range all {
		_, ok := union[addr]
		assert.True(t, ok, addr)
	}
}

func TestValidGroup(t *testing.T) {
	assert.True(t, ValidGroup(GroupParents))
	assert.True(t, ValidGroup(GroupAll))
	assert.False(t, ValidGroup("everyone"))
	assert.False(t, ValidGroup(""))
}
