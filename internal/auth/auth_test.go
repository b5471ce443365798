package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "auth_test_secret_1234"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("tajne_haslo")
	require.NoError(t, err)
	require.NotEqual(t, "tajne_haslo", hash)

	require.True(t, CheckPasswordHash("tajne_haslo", hash))
	require.False(t, CheckPasswordHash("zle_haslo", hash))
}

func TestGenerateAndVerifyJWT(t *testing.T) {
	token, err := GenerateJWT(7, "jkowalski", "Jan Kowalski", []string{"grupa-3a", "nauczyciele"}, testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := VerifyJWT(token, testSecret)
	require.NoError(t, err)
	require.Equal(t, int64(7), claims.UserID)
	require.Equal(t, "jkowalski", claims.Username)
	require.Equal(t, "Jan Kowalski", claims.DisplayName)
	require.Equal(t, []string{"grupa-3a", "nauczyciele"}, claims.Groups)
}

func TestVerifyJWT_WrongSecret(t *testing.T) {
	token, err := GenerateJWT(7, "jkowalski", "Jan Kowalski", nil, testSecret, time.Hour)
	require.NoError(t, err)

	_, err = VerifyJWT(token, "inny_sekret_000000000")
	require.Error(t, err)
}

func TestVerifyJWT_Expired(t *testing.T) {
	token, err := GenerateJWT(7, "jkowalski", "Jan Kowalski", nil, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = VerifyJWT(token, testSecret)
	require.Error(t, err)
}
