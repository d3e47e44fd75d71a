package domain

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	apperrors "github.com/jsiebens/memberd/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestBirthdayLabel(t *testing.T) {
	d := time.Date(1990, time.May, 17, 0, 0, 0, 0, time.UTC)
	m := &Member{BirthDate: &d}

	assert.Equal(t, "5월 17일", m.BirthdayLabel())
	assert.Equal(t, "", (&Member{}).BirthdayLabel())
}

func TestIsBirthday(t *testing.T) {
	d := time.Date(1990, time.May, 17, 0, 0, 0, 0, time.UTC)
	m := &Member{BirthDate: &d}

	assert.True(t, m.IsBirthday(time.Date(2026, time.May, 17, 9, 30, 0, 0, time.UTC)))
	assert.False(t, m.IsBirthday(time.Date(2026, time.May, 18, 0, 0, 0, 0, time.UTC)))
	assert.False(t, (&Member{}).IsBirthday(time.Now()))
}

func TestMemberUpdateValidate(t *testing.T) {
	err := (&MemberUpdate{}).Validate()
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))

	name := "Jane"
	require.NoError(t, (&MemberUpdate{Name: &name}).Validate())
}

func newTestRepository(t *testing.T) Repository {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Member{}))
	return NewRepository(db)
}

func TestGetOrCreateMember(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first, created, err := repo.GetOrCreateMember(ctx, "jane@example.com", "Jane")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "jane@example.com", first.Email)
	assert.Equal(t, "Jane", first.Name)

	second, created, err := repo.GetOrCreateMember(ctx, "jane@example.com", "Janet")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	// profile fields are not refreshed on repeat logins
	assert.Equal(t, "Jane", second.Name)
}

func TestGetMemberNotFound(t *testing.T) {
	repo := newTestRepository(t)

	m, err := repo.GetMember(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestUpdateMember(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	m, _, err := repo.GetOrCreateMember(ctx, "jane@example.com", "Jane")
	require.NoError(t, err)

	name := "Janet"
	require.NoError(t, repo.UpdateMember(ctx, m.ID, &MemberUpdate{Name: &name}))

	updated, err := repo.GetMember(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Janet", updated.Name)
	assert.Equal(t, "jane@example.com", updated.Email)
	assert.Nil(t, updated.BirthDate)

	t.Run("no fields", func(t *testing.T) {
		err := repo.UpdateMember(ctx, m.ID, &MemberUpdate{})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidationError(err))
	})

	t.Run("unknown member", func(t *testing.T) {
		err := repo.UpdateMember(ctx, 42, &MemberUpdate{Name: &name})
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFoundError(err))
	})
}

func TestTransaction(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		err := repo.Transaction(func(rp Repository) error {
			m, _, err := rp.GetOrCreateMember(ctx, "jane@example.com", "Jane")
			if err != nil {
				return err
			}
			return rp.SetMemberLastLogin(ctx, m.ID)
		})
		require.NoError(t, err)

		m, err := repo.GetMemberByEmail(ctx, "jane@example.com")
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.NotNil(t, m.LastLoginAt)
	})

	t.Run("rollback", func(t *testing.T) {
		err := repo.Transaction(func(rp Repository) error {
			if _, _, err := rp.GetOrCreateMember(ctx, "john@example.com", "John"); err != nil {
				return err
			}
			return fmt.Errorf("boom")
		})
		require.Error(t, err)

		m, err := repo.GetMemberByEmail(ctx, "john@example.com")
		require.NoError(t, err)
		assert.Nil(t, m)
	})
}

func TestSetMemberLastLogin(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	m, _, err := repo.GetOrCreateMember(ctx, "jane@example.com", "Jane")
	require.NoError(t, err)
	require.Nil(t, m.LastLoginAt)

	require.NoError(t, repo.SetMemberLastLogin(ctx, m.ID))

	updated, err := repo.GetMember(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.LastLoginAt)
}
