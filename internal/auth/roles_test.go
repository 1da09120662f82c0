package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrantAndRevoke(t *testing.T) {
	r := NewRoles()

	assert.False(t, r.IsAdmin("0xalice"))

	r.Grant(AdminRole, "0xAlice")
	assert.True(t, r.IsAdmin("0xALICE"))
	assert.False(t, r.IsMinter("0xalice"))

	r.Revoke(AdminRole, "0xalice")
	assert.False(t, r.IsAdmin("0xalice"))
}

func TestRolesAreIndependent(t *testing.T) {
	r := NewRoles()

	r.Grant(MinterRole, "0xbob")

	assert.True(t, r.Has(MinterRole, "0xbob"))
	assert.False(t, r.Has(AdminRole, "0xbob"))
}

func TestRevokeUnknownRoleIsNoop(t *testing.T) {
	r := NewRoles()

	r.Revoke(AdminRole, "0xalice")
	assert.False(t, r.IsAdmin("0xalice"))
}
