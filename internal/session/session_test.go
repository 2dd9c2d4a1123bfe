package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
)

const secret = "0123456789abcdef-test"

func TestIssueAndVerify(t *testing.T) {
	m, err := NewManager(secret, time.Hour)
	require.NoError(t, err)

	token, err := m.Issue("d1", models.RoleDelegate, "o1", "Bo")
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "d1", claims.Subject)
	assert.Equal(t, models.RoleDelegate, claims.Role)
	assert.Equal(t, "o1", claims.OrganizationKey)
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m, err := NewManager(secret, time.Hour)
	require.NoError(t, err)
	m.WithClock(func() time.Time { return issuedAt })

	token, err := m.Issue("o1", "", "", "")
	require.NoError(t, err)

	m.WithClock(func() time.Time { return issuedAt.Add(2 * time.Hour) })
	_, err = m.Verify(token)
	assert.Error(t, err)

	other, err := NewManager("another-secret-value", time.Hour)
	require.NoError(t, err)
	foreign, err := other.Issue("o1", models.RoleOwner, "o1", "")
	require.NoError(t, err)
	m.WithClock(time.Now)
	_, err = m.Verify(foreign)
	assert.Error(t, err)
}

func TestNewManagerRejectsShortSecret(t *testing.T) {
	_, err := NewManager("short", time.Hour)
	assert.Error(t, err)
}

func TestClaimsContext(t *testing.T) {
	_, ok := ClaimsFrom(context.Background())
	assert.False(t, ok)

	ctx := WithClaims(context.Background(), &Claims{Role: models.RoleOwner})
	c, ok := ClaimsFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, models.RoleOwner, c.Role)
}
