package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medicare-hq/medicare-api/internal/model"
)

func TestRoleAllowed(t *testing.T) {
	assert.True(t, RoleAllowed(model.RoleAdmin, model.RoleAdmin))
	assert.True(t, RoleAllowed(model.RoleDoctor, model.RoleDoctor, model.RoleAdmin))
	assert.False(t, RoleAllowed(model.RoleUser, model.RoleDoctor, model.RoleAdmin))
	assert.False(t, RoleAllowed(model.RoleUser))
}

func TestOwnerOrRole(t *testing.T) {
	owner := model.AccountID(7)

	assert.True(t, OwnerOrRole(owner, model.RoleUser, owner))
	assert.True(t, OwnerOrRole(1, model.RoleAdmin, owner, model.RoleAdmin))
	assert.False(t, OwnerOrRole(1, model.RoleUser, owner, model.RoleAdmin))
	assert.False(t, OwnerOrRole(1, model.RoleDoctor, owner, model.RoleAdmin))
}
