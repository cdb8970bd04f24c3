package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRoleCapabilities(t *testing.T) {
	tests := []struct {
		role          ProjectRole
		datasetAccess bool
		manage        bool
	}{
		{ProjectRolePending, false, false},
		{ProjectRoleInvited, false, false},
		{ProjectRoleMember, true, false},
		{ProjectRoleManager, true, true},
		{ProjectRolePrincipalInvestigator, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			assert.Equal(t, tt.datasetAccess, tt.role.HasDatasetAccess())
			assert.Equal(t, tt.manage, tt.role.CanManageMembers())
		})
	}
}

func TestProjectRoleZeroValueInvalid(t *testing.T) {
	var r ProjectRole
	assert.False(t, r.Valid())
	assert.False(t, r.HasDatasetAccess())

	_, err := json.Marshal(r)
	assert.Error(t, err)
}

func TestParseProjectRole(t *testing.T) {
	for _, role := range []ProjectRole{
		ProjectRolePending,
		ProjectRoleInvited,
		ProjectRoleMember,
		ProjectRoleManager,
		ProjectRolePrincipalInvestigator,
	} {
		parsed, err := ParseProjectRole(role.String())
		require.NoError(t, err)
		assert.Equal(t, role, parsed)
	}

	_, err := ParseProjectRole("OWNER")
	assert.Error(t, err)
}

func TestProjectRoleJSONUsesWireNames(t *testing.T) {
	data, err := json.Marshal(ProjectRolePrincipalInvestigator)
	require.NoError(t, err)
	assert.Equal(t, `"PRINCIPAL_INVESTIGATOR"`, string(data))

	var r ProjectRole
	require.NoError(t, json.Unmarshal([]byte(`"INVITED"`), &r))
	assert.Equal(t, ProjectRoleInvited, r)

	assert.Error(t, json.Unmarshal([]byte(`"pending"`), &r))
}
