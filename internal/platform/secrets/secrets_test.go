package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "nameplate/pkg/domain-errors"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.NoError(t, Verify("hunter2", hash))
}

func TestVerifyRejectsMismatch(t *testing.T) {
	hash, err := Hash("hunter2")
	require.NoError(t, err)

	err = Verify("hunter3", hash)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestHashRejectsEmptySecret(t *testing.T) {
	_, err := Hash("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
