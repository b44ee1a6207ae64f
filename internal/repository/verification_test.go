package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestVerificationCodeRepository_CreateAndLookup(t *testing.T) {
	db := newTestDB(t)
	repo := NewVerificationCodeRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "erin", "erin@example.com")
	now := time.Now().UTC()

	older := &model.VerificationCode{Code: "111111", UserID: user.ID, CodeType: constants.CodeTypePasswordReset, CreatedAt: now.Add(-time.Hour)}
	newer := &model.VerificationCode{Code: "222222", UserID: user.ID, CodeType: constants.CodeTypePasswordReset, CreatedAt: now}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	dup := &model.VerificationCode{Code: "111111", UserID: user.ID, CodeType: constants.CodeTypeEmailVerification}
	assert.ErrorIs(t, repo.Create(ctx, dup), gorm.ErrDuplicatedKey)

	got, err := repo.GetByCode(ctx, "111111")
	require.NoError(t, err)
	require.NotNil(t, got.User)
	assert.Equal(t, "erin@example.com", got.User.Email)

	latest, err := repo.GetLatest(ctx, user.ID, constants.CodeTypePasswordReset)
	require.NoError(t, err)
	assert.Equal(t, "222222", latest.Code)

	list, err := repo.ListByUser(ctx, user.ID, constants.CodeTypePasswordReset)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "222222", list[0].Code)

	_, err = repo.GetLatest(ctx, user.ID, constants.CodeTypeEmailVerification)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestVerificationCodeRepository_Deletes(t *testing.T) {
	db := newTestDB(t)
	repo := NewVerificationCodeRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "frank", "frank@example.com")
	other := seedUser(t, db, "grace", "grace@example.com")
	now := time.Now().UTC()

	for i, c := range []model.VerificationCode{
		{Code: "100001", UserID: user.ID, CodeType: constants.CodeTypePasswordReset, CreatedAt: now.Add(-48 * time.Hour)},
		{Code: "100002", UserID: user.ID, CodeType: constants.CodeTypePasswordReset, CreatedAt: now},
		{Code: "100003", UserID: user.ID, CodeType: constants.CodeTypeEmailVerification, CreatedAt: now},
		{Code: "100004", UserID: other.ID, CodeType: constants.CodeTypePasswordReset, CreatedAt: now},
	} {
		c := c
		require.NoError(t, repo.Create(ctx, &c), i)
	}

	swept, err := repo.DeleteCreatedBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	deleted, err := repo.DeleteByUserAndType(ctx, user.ID, constants.CodeTypePasswordReset)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.GetByCode(ctx, "100003")
	assert.NoError(t, err)
	_, err = repo.GetByCode(ctx, "100004")
	assert.NoError(t, err)
}
