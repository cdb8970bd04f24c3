package model

import (
	"encoding/json"
	"fmt"
)

// ProjectRole is the membership state of a user inside a project.
// The zero value is deliberately unused: the absence of a user_project
// row already means "no relationship", so a stored role is always one
// of the five states below.
//
// The numeric order doubles as the authorization order. PENDING and
// INVITED are request states below MEMBER; MANAGER and
// PRINCIPAL_INVESTIGATOR sit above it.
type ProjectRole uint8

const (
	ProjectRolePending ProjectRole = iota + 1 // requested access, awaiting a manager decision
	ProjectRoleInvited                        // invited by a manager, awaiting user acceptance
	ProjectRoleMember
	ProjectRoleManager
	ProjectRolePrincipalInvestigator
)

var projectRoleNames = map[ProjectRole]string{
	ProjectRolePending:               "PENDING",
	ProjectRoleInvited:               "INVITED",
	ProjectRoleMember:                "MEMBER",
	ProjectRoleManager:               "MANAGER",
	ProjectRolePrincipalInvestigator: "PRINCIPAL_INVESTIGATOR",
}

func (r ProjectRole) Valid() bool {
	_, ok := projectRoleNames[r]
	return ok
}

func (r ProjectRole) String() string {
	if name, ok := projectRoleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("ProjectRole(%d)", uint8(r))
}

// ParseProjectRole maps a wire string (e.g. "MEMBER") back to its role.
func ParseProjectRole(s string) (ProjectRole, error) {
	for role, name := range projectRoleNames {
		if name == s {
			return role, nil
		}
	}
	return 0, fmt.Errorf("unknown project role %q", s)
}

// HasDatasetAccess reports whether datasets owned by a user holding
// this role are visible inside the project. This is the predicate the
// visibility synchronizer keeps the dataset_project.approved flag in
// sync with.
func (r ProjectRole) HasDatasetAccess() bool {
	return r >= ProjectRoleMember
}

// CanManageMembers reports whether this role may invite, accept,
// remove or promote other members.
func (r ProjectRole) CanManageMembers() bool {
	return r >= ProjectRoleManager
}

func (r ProjectRole) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid project role %d", uint8(r))
	}
	return json.Marshal(r.String())
}

func (r *ProjectRole) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	role, err := ParseProjectRole(s)
	if err != nil {
		return err
	}
	*r = role
	return nil
}
