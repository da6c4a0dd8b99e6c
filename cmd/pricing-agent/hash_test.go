package main

import (
	"bytes"
	"strings"
	"testing"

	"pricing-agent/pkg/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, hashPassword(strings.NewReader("segredo\n"), &out))

	hash := strings.TrimSpace(out.String())
	assert.True(t, auth.IsBcryptHash(hash))
	assert.True(t, auth.VerifyPassword("segredo", hash))
	assert.False(t, auth.VerifyPassword("segredo\n", hash))
}

func TestHashPassword_Empty(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, hashPassword(strings.NewReader("\n"), &out))
	assert.Empty(t, out.String())
}
