package gate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nellusoru/backoffice/gate"
)

func TestNewPermission(t *testing.T) {
	assert.Equal(t, gate.Permission("invoice:create"), gate.NewPermission("invoice", gate.ActionCreate))
}

func TestPermission_Parse(t *testing.T) {
	res, act := gate.Permission("offer:update").Parse()
	assert.Equal(t, "offer", res)
	assert.Equal(t, gate.ActionUpdate, act)

	for _, bad := range []gate.Permission{"invalid", ":view", "offer:"} {
		res, act := bad.Parse()
		assert.Empty(t, res, string(bad))
		assert.Empty(t, act, string(bad))
	}
}

func TestPermission_Matches(t *testing.T) {
	tests := []struct {
		held, requested gate.Permission
		want            bool
	}{
		{"product:create", "product:create", true},
		{"product:create", "product:delete", false},
		{"product:create", "invoice:create", false},
		{"product:*", "product:delete", true},
		{"product:*", "invoice:delete", false},
		{"*:view", "invoice:view", true},
		{"*:view", "invoice:update", false},
		{gate.PermissionAll, "user:create", true},
		{"garbage", "product:create", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.held)+"->"+string(tt.requested), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.held.Matches(tt.requested))
		})
	}
}
