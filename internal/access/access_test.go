package access

import (
	"testing"

	"github.com/example/derbot/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestCapabilities(t *testing.T) {
	p := Policy{AdminID: 100}
	member := &Membership{}
	admin := &Membership{IsAdmin: true}

	tests := []struct {
		name   string
		user   int64
		scope  models.Scope
		member *Membership
		read   bool
		write  bool
	}{
		{"own personal", 1, models.PersonalScope(1), nil, true, true},
		{"foreign personal", 2, models.PersonalScope(1), nil, false, false},
		{"global learner", 1, models.GlobalScope(1), nil, true, false},
		{"global admin", 100, models.GlobalScope(100), nil, true, true},
		{"shared outsider", 1, models.SharedScope(1, 5), nil, false, false},
		{"shared member", 1, models.SharedScope(1, 5), member, true, false},
		{"shared admin", 1, models.SharedScope(1, 5), admin, true, true},
		{"admin principal in shared", 100, models.SharedScope(100, 5), member, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.read, p.CanRead(tt.user, tt.scope, tt.member))
			assert.Equal(t, tt.write, p.CanWrite(tt.user, tt.scope, tt.member))
		})
	}
}

func TestNoAdminConfigured(t *testing.T) {
	var p Policy
	assert.False(t, p.IsAdmin(0))
	assert.False(t, p.CanWrite(0, models.GlobalScope(0), nil))
}

func TestCapabilityHas(t *testing.T) {
	c := Read | List
	assert.True(t, c.Has(Read))
	assert.True(t, c.Has(Read|List))
	assert.False(t, c.Has(Write))
	assert.True(t, None.Has(None))
}
