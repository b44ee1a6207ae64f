package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	uow := NewUnitOfWork(db)
	users := NewUserRepository(db)
	profiles := NewProfileRepository(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := uow.Do(ctx, func(ctx context.Context) error {
		user := &model.User{Username: "KATE", Email: "kate@example.com", Password: "x", IsActive: true}
		if err := users.Create(ctx, user); err != nil {
			return err
		}
		if err := profiles.Create(ctx, &model.UserProfile{UserID: user.ID}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := users.ExistsByEmail(ctx, "kate@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUnitOfWork_CommitsAndJoinsOuterTransaction(t *testing.T) {
	db := newTestDB(t)
	uow := NewUnitOfWork(db)
	users := NewUserRepository(db)
	ctx := context.Background()

	err := uow.Do(ctx, func(ctx context.Context) error {
		return uow.Do(ctx, func(ctx context.Context) error {
			return users.Create(ctx, &model.User{Username: "LEO", Email: "leo@example.com", Password: "x", IsActive: true})
		})
	})
	require.NoError(t, err)

	exists, err := users.ExistsByEmail(ctx, "leo@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}
