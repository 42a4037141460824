// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package membership

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/hive-decide/models"
	"github.com/danielhkuo/hive-decide/testutil"
)

func TestSQLChecker_IsAdmin(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	testutil.AddHiveMember(t, conn, "hive-1", "alice", models.RoleAdmin)
	testutil.AddHiveMember(t, conn, "hive-1", "bob", "member")

	c := NewSQLChecker(conn)
	ctx := context.Background()

	tests := []struct {
		user, hive string
		want       bool
	}{
		{"alice", "hive-1", true},
		{"bob", "hive-1", false},
		{"alice", "hive-2", false},
		{"carol", "hive-1", false},
	}
	for _, tt := range tests {
		got, err := c.IsAdmin(ctx, tt.user, tt.hive)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s in %s", tt.user, tt.hive)
	}

	assert.NoError(t, RequireAdmin(ctx, c, "alice", "hive-1"))
	assert.ErrorIs(t, RequireAdmin(ctx, c, "bob", "hive-1"), models.ErrForbidden)
}
