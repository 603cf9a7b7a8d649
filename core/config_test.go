package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_owners(t *testing.T) {
	t.Setenv("ENV", "test")

	t.Run("defaults", func(t *testing.T) {
		conf := NewConfig()
		assert.True(t, conf.TestMode)
		assert.Equal(t, []string{"keshav.karn@gmail.com", "ready4urexam@gmail.com"}, conf.Tenancy.OwnerEmails)
		assert.True(t, conf.IsOwnerEmail(" Keshav.Karn@gmail.com "))
		assert.False(t, conf.IsOwnerEmail("teacher@dps.edu"))
		assert.False(t, conf.IsOwnerEmail(""))
	})

	t.Run("env override", func(t *testing.T) {
		t.Setenv("TEST_TENANCY_OWNEREMAILS", "a@r4e.com, ,B@r4e.com")
		conf := NewConfig()
		assert.Equal(t, []string{"a@r4e.com", "B@r4e.com"}, conf.Tenancy.OwnerEmails)
		assert.True(t, conf.IsOwnerEmail("b@r4e.com"))
		assert.False(t, conf.IsOwnerEmail("keshav.karn@gmail.com"))
	})
}
