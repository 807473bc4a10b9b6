package security_test

import (
	"testing"

	"github.com/api-sage/branch-teller-core/src/internal/security"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	hasher := security.NewBcryptHasher(bcrypt.MinCost)

	digest, err := hasher.Hash("open-sesame")
	require.NoError(t, err)
	require.NotEqual(t, "open-sesame", digest)

	require.True(t, hasher.Verify(digest, "open-sesame"))
	require.False(t, hasher.Verify(digest, "open-sesame!"))
}

func TestBcryptHasherRejectsMalformedDigest(t *testing.T) {
	hasher := security.NewBcryptHasher(bcrypt.MinCost)

	require.False(t, hasher.Verify("", "anything"))
	require.False(t, hasher.Verify("not-a-bcrypt-hash", "anything"))
}
