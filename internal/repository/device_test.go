package repository

import (
	"context"
	"testing"

	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceRepository_UpsertMovesDevice(t *testing.T) {
	db := newTestDB(t)
	repo := NewDeviceRepository(db)
	ctx := context.Background()
	first := seedUser(t, db, "hank", "hank@example.com")
	second := seedUser(t, db, "ivy", "ivy@example.com")

	require.NoError(t, repo.Upsert(ctx, &model.UserDevice{UserID: first.ID, DeviceID: "dev-1", DeviceType: "ios"}))
	require.NoError(t, repo.Upsert(ctx, &model.UserDevice{UserID: second.ID, DeviceID: "dev-1", DeviceType: "android", DeviceToken: "tok"}))

	devices, err := repo.ListByUser(ctx, first.ID)
	require.NoError(t, err)
	assert.Empty(t, devices)

	devices, err = repo.ListByUser(ctx, second.ID)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "android", devices[0].DeviceType)
	assert.Equal(t, "tok", devices[0].DeviceToken)
}
