// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package conversations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/hive-decide/models"
	"github.com/danielhkuo/hive-decide/testutil"
)

func TestSQLSource_Get(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	convID, _ := testutil.CreateTestConversation(t, conn, "hive-1", models.ConversationTypeUnderstand, models.AnalysisStatusReady)
	src := NewSQLSource(conn)

	c, err := src.Get(context.Background(), convID)
	require.NoError(t, err)
	assert.True(t, Ready(c, "hive-1"))
	assert.False(t, Ready(c, "hive-2"), "conversation of another hive")

	_, err = src.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReady(t *testing.T) {
	base := models.Conversation{HiveID: "h", Type: models.ConversationTypeUnderstand, AnalysisStatus: models.AnalysisStatusReady}
	assert.True(t, Ready(base, "h"))

	pending := base
	pending.AnalysisStatus = "pending"
	assert.False(t, Ready(pending, "h"))

	decide := base
	decide.Type = models.ConversationTypeDecide
	assert.False(t, Ready(decide, "h"))
}

func TestSQLSource_StatementsKeepRequestOrder(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	convID, ids := testutil.CreateTestConversation(t, conn, "hive-1", models.ConversationTypeUnderstand, models.AnalysisStatusReady, "First", "Second", "Third")
	otherID, otherIDs := testutil.CreateTestConversation(t, conn, "hive-1", models.ConversationTypeUnderstand, models.AnalysisStatusReady, "Elsewhere")
	src := NewSQLSource(conn)
	ctx := context.Background()

	got, err := src.Statements(ctx, convID, []string{ids[2], ids[0]})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Third", got[0].Text)
	assert.Equal(t, "First", got[1].Text)
	require.NotNil(t, got[0].ClusterIndex)
	assert.Equal(t, 2, *got[0].ClusterIndex)
	require.NotNil(t, got[0].AgreePercent)
	assert.InDelta(t, 52.0, *got[0].AgreePercent, 1e-9)

	_, err = src.Statements(ctx, convID, []string{ids[0], otherIDs[0]})
	assert.ErrorIs(t, err, ErrUnknownStatement)

	got, err = src.Statements(ctx, otherID, otherIDs)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
