package bootstrap

import (
	"testing"

	"librarium/internal/config"
	"librarium/internal/models"
	"librarium/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func rootConfig() *config.Config {
	return &config.Config{
		Env:                  "development",
		DevRootAdminEmail:    "Root@Example.com",
		DevRootAdminUsername: "root",
		DevRootAdminPassword: "Qwe123!",
	}
}

func TestEnsureDevRootAdmin_CreatesAdmin(t *testing.T) {
	db := testutil.OpenSQLite(t)

	require.NoError(t, EnsureDevRootAdmin(rootConfig(), db))
	require.NoError(t, EnsureDevRootAdmin(rootConfig(), db))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "root@example.com", users[0].Email)
	assert.True(t, users[0].IsAdmin)
	assert.True(t, users[0].IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].Password), []byte("Qwe123!")))
}

func TestEnsureDevRootAdmin_PromotesExisting(t *testing.T) {
	db := testutil.OpenSQLite(t)
	existing := testutil.CreateUser(t, db, "root", false)
	require.NoError(t, db.Model(existing).Update("is_active", false).Error)

	cfg := rootConfig()
	cfg.DevRootAdminEmail = existing.Email
	require.NoError(t, EnsureDevRootAdmin(cfg, db))

	var stored models.User
	require.NoError(t, db.First(&stored, existing.ID).Error)
	assert.True(t, stored.IsAdmin)
	assert.True(t, stored.IsActive)
}

func TestEnsureDevRootAdmin_Skipped(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"production", func(c *config.Config) { c.Env = "production" }},
		{"no email", func(c *config.Config) { c.DevRootAdminEmail = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.OpenSQLite(t)
			cfg := rootConfig()
			tt.mutate(cfg)
			require.NoError(t, EnsureDevRootAdmin(cfg, db))

			var count int64
			require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
			assert.Zero(t, count)
		})
	}
}

func TestEnsureDevRootAdmin_WeakPassword(t *testing.T) {
	db := testutil.OpenSQLite(t)
	cfg := rootConfig()
	cfg.DevRootAdminPassword = "weak_password"
	assert.Error(t, EnsureDevRootAdmin(cfg, db))
}
