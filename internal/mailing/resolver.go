// Package mailing classifies contact and staff rows into named recipient
// groups for the campaign composer. Resolution is pure and synchronous:
// inputs are never mutated and malformed input degrades to empty results.
package mailing

import "strings"

// GroupKey identifies a recipient group.
type GroupKey string

const (
	GroupAll            GroupKey = "all"
	GroupParents        GroupKey = "parents"
	GroupTeachers       GroupKey = "teachers"
	GroupAdministration GroupKey = "administration"
	GroupBOM            GroupKey = "bom"
	GroupSupport        GroupKey = "support"
	GroupStaff          GroupKey = "staff"
)

// Contact is a guardian/student row. Only Email drives classification; the
// remaining fields are passthrough display data.
type Contact struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Form      string `json:"form,omitempty"`
	Stream    string `json:"stream,omitempty"`
}

// StaffMember is the staff row shape the resolver consumes. Role, Department
// and Position are free text matched against fixed predicates.
type StaffMember struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department"`
	Position   string `json:"position"`
}

// Group describes a resolvable audience with its current member count.
type Group struct {
	Value      GroupKey `json:"value"`
	Label      string   `json:"label"`
	ShortLabel string   `json:"shortLabel"`
	Count      int      `json:"count"`
}

// teacherDepartments is the department allow-list that qualifies a staff
// member as teaching staff independent of their role string.
var teacherDepartments = map[string]struct{}{
	"Sciences":    {},
	"Mathematics": {},
	"Languages":   {},
	"Humanities":  {},
	"Sports":      {},
}

var supportRoles = map[string]struct{}{
	"Support Staff": {},
	"Librarian":     {},
	"Counselor":     {},
}

// groupOrder fixes the presentation order of Groups.
var groupOrder = []struct {
	key        GroupKey
	label      string
	shortLabel string
}{
	{GroupAll, "Everyone (Parents & Staff)", "Everyone"},
	{GroupParents, "Parents & Guardians", "Parents"},
	{GroupTeachers, "Teaching Staff", "Teachers"},
	{GroupAdministration, "Administration", "Admin"},
	{GroupBOM, "Board of Management", "BOM"},
	{GroupSupport, "Support Staff", "Support"},
	{GroupStaff, "All Staff", "Staff"},
}

// ValidGroup reports whether key names a known recipient group.
func ValidGroup(key GroupKey) bool {
	for _, g := range groupOrder {
		if g.key == key {
			return true
		}
	}
	return false
}

// usableEmail returns the trimmed address, or "" when the record has no
// usable contact address.
func usableEmail(email string) string {
	return strings.TrimSpace(email)
}

func matchesStaffGroup(key GroupKey, s StaffMember) bool {
	switch key {
	case GroupStaff:
		return true
	case GroupTeachers:
		if s.Role == "Teacher" {
			return true
		}
		_, ok := teacherDepartments[s.Department]
		return ok
	case GroupAdministration:
		return s.Role == "Principal" || s.Role == "Deputy Principal" || s.Department == "Administration"
	case GroupBOM:
		return s.Role == "BOM Member" || strings.Contains(strings.ToLower(s.Position), "board")
	case GroupSupport:
		_, ok := supportRoles[s.Role]
		return ok
	}
	return false
}

// CountFor returns the number of records matching the group predicate that
// carry a usable email. Records are counted individually: two records sharing
// one address still count as two. A record may match several groups; the
// predicates are intentionally non-exclusive.
func CountFor(key GroupKey, contacts []Contact, staff []StaffMember) int {
	switch key {
	case GroupParents:
		n := 0
		for _, c := range contacts {
			if usableEmail(c.Email) != "" {
				n++
			}
		}
		return n
	case GroupAll:
		return CountFor(GroupParents, contacts, nil) + CountFor(GroupStaff, nil, staff)
	case GroupTeachers, GroupAdministration, GroupBOM, GroupSupport, GroupStaff:
		n := 0
		for _, s := range staff {
			if usableEmail(s.Email) == "" {
				continue
			}
			if matchesStaffGroup(key, s) {
				n++
			}
		}
		return n
	}
	return 0
}

// EmailsFor returns the deduplicated list of trimmed addresses for the group,
// in first-seen order. Addresses are compared exactly after trimming; no case
// folding is applied. The length may legitimately differ from CountFor when
// several records share one address.
func EmailsFor(key GroupKey, contacts []Contact, staff []StaffMember) []string {
	emails := make([]string, 0)
	seen := make(map[string]struct{})

	add := func(raw string) {
		addr := usableEmail(raw)
		if addr == "" {
			return
		}
		if _, dup := seen[addr]; dup {
			return
		}
		seen[addr] = struct{}{}
		emails = append(emails, addr)
	}

	switch key {
	case GroupParents:
		for _, c := range contacts {
			add(c.Email)
		}
	case GroupAll:
		for _, c := range contacts {
			add(c.Email)
		}
		for _, s := range staff {
			add(s.Email)
		}
	case GroupTeachers, GroupAdministration, GroupBOM, GroupSupport, GroupStaff:
		for _, s := range staff {
			if matchesStaffGroup(key, s) {
				add(s.Email)
			}
		}
	}

	return emails
}

// Groups resolves every named group with labels and counts, in fixed order.
func Groups(contacts []Contact, staff []StaffMember) []Group {
	groups := make([]Group, 0, len(groupOrder))
	for _, g := range groupOrder {
		groups = append(groups, Group{
			Value:      g.key,
			Label:      g.label,
			ShortLabel: g.shortLabel,
			Count:      CountFor(g.key, contacts, staff),
		})
	}
	return groups
}
