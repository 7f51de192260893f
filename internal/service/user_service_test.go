package service

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/knockout/internal/utils"
	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrCreateUserByProvider(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userService := NewUserService(f.db, f.userStore)

	gothUser := goth.User{
		Provider:  "discord",
		UserID:    "12345",
		Email:     "player@example.com",
		NickName:  "player",
		AvatarURL: "https://cdn.example.com/a.png",
	}

	created, err := userService.FindOrCreateUserByProvider(ctx, gothUser)
	require.NoError(t, err)
	assert.Equal(t, "player", created.Username)
	assert.Equal(t, "https://cdn.example.com/a.png", utils.OrZero(created.AvatarURL))

	gothUser.NickName = "renamed"
	gothUser.AvatarURL = ""

	found, err := userService.FindOrCreateUserByProvider(ctx, gothUser)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "renamed", found.Username)
	assert.Nil(t, found.AvatarURL)

	stored, err := userService.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", stored.Username)
	assert.Nil(t, stored.AvatarURL)
}

func TestEnsureGuestUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userService := NewUserService(f.db, f.userStore)

	first, err := userService.EnsureGuestUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, GuestUserID, first.ID)

	second, err := userService.EnsureGuestUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, GuestUserID, second.ID)
	assert.Equal(t, first.Username, second.Username)
}
