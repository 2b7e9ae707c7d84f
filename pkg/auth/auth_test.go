package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/database"
)

func newAuth() *Authenticator {
	return New("jwt-secret", "master-secret", time.Hour).WithBcryptCost(bcrypt.MinCost)
}

func TestToken(t *testing.T) {
	a := newAuth()

	token, err := a.CreateToken("admin")
	require.NoError(t, err)

	claims, err := a.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestToken_WrongSecret(t *testing.T) {
	token, err := newAuth().CreateToken("admin")
	require.NoError(t, err)

	_, err = New("other", "master-secret", time.Hour).VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestToken_Expired(t *testing.T) {
	a := newAuth()
	a.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := a.CreateToken("admin")
	require.NoError(t, err)

	_, err = a.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHMACKey(t *testing.T) {
	a := newAuth()

	key := a.GenerateHMACKey("team-dashboard")
	id, err := a.VerifyHMACKey(key)
	require.NoError(t, err)
	assert.Equal(t, "team-dashboard", id)

	_, err = New("jwt-secret", "another", time.Hour).VerifyHMACKey(key)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = a.VerifyHMACKey("no-signature")
	assert.ErrorIs(t, err, ErrInvalidKeyFormat)

	_, err = a.VerifyHMACKey("a.b.c")
	assert.ErrorIs(t, err, ErrInvalidKeyFormat)
}

func TestPassword(t *testing.T) {
	hash, err := newAuth().HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("s3cret", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestEnsureAdminExists(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&database.MasterUser{}))

	a := newAuth()
	created, err := a.EnsureAdminExists(db, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = a.EnsureAdminExists(db, "other", "pw")
	require.NoError(t, err)
	assert.False(t, created)

	var user database.MasterUser
	require.NoError(t, db.First(&user).Error)
	assert.Equal(t, "admin", user.Username)
	assert.True(t, CheckPasswordHash("admin123", user.PasswordHash))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short"))
	assert.Equal(t, "abcdefgh...wxyz", Preview("abcdefghijklmnopqrstuvwxyz"))
}
