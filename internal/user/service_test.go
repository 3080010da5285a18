package user

import (
	"brand-builder/internal/domain"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}))
	return NewService(NewRepository(db))
}

func TestService_RegisterAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u := &domain.User{Name: "Ada", Email: "ada@example.com", Password: "password123"}
	require.NoError(t, svc.Register(ctx, u))
	assert.NotZero(t, u.ID)
	assert.NotEqual(t, "password123", u.PasswordHash)

	logged, err := svc.Login(ctx, "ada@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	_, err = svc.Login(ctx, "ada@example.com", "wrong")
	assert.Error(t, err)

	err = svc.Register(ctx, &domain.User{Name: "Dup", Email: "ada@example.com", Password: "password123"})
	assert.Error(t, err)
}

func TestService_IncreaseTokenVersion(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	u := &domain.User{Name: "Ada", Email: "ada@example.com", Password: "password123"}
	require.NoError(t, svc.Register(ctx, u))

	require.NoError(t, svc.IncreaseTokenVersion(ctx, u.ID))

	got, err := svc.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.TokenVersion)

	_, err = svc.GetUserByID(ctx, 999)
	assert.Error(t, err)
}

func TestService_EmailIsCaseInsensitive(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u := &domain.User{Name: "Ada", Email: "  Ada@Example.com ", Password: "password123"}
	require.NoError(t, svc.Register(ctx, u))
	assert.Equal(t, "ada@example.com", u.Email)

	_, err := svc.Login(ctx, "ADA@example.com", "password123")
	require.NoError(t, err)

	err = svc.Register(ctx, &domain.User{Name: "Dup", Email: "ada@EXAMPLE.com", Password: "password123"})
	assert.Error(t, err)
}
