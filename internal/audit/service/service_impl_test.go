package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/microbooks/microbooks/internal/audit/domain"
	"github.com/microbooks/microbooks/internal/clock"
	"github.com/microbooks/microbooks/internal/migration"
	"github.com/microbooks/microbooks/pkg/entityctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T, clk clock.Clock) (auditdomain.Service, *gorm.DB) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))

	node, err := snowflake.NewNode(11)
	require.NoError(t, err)
	return NewService(Params{DB: conn, Log: zap.NewNop(), GenID: node, Clock: clk}), conn
}

func TestRecordWritesEvent(t *testing.T) {
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, conn := newService(t, clock.NewFakeClock(frozen))

	node, err := snowflake.NewNode(12)
	require.NoError(t, err)
	entityID := node.Generate()
	targetID := "CS0001/2026"

	ctx := entityctx.WithActor(context.Background(), "ledger-bot")
	err = svc.Record(ctx, entityID, "ledger.post", "transaction", &targetID, map[string]any{
		"entries": 2,
	})
	require.NoError(t, err)

	var logged auditdomain.AuditLog
	require.NoError(t, conn.First(&logged).Error)
	assert.Equal(t, entityID, logged.EntityID)
	assert.Equal(t, "ledger-bot", logged.Actor)
	assert.Equal(t, "ledger.post", logged.Action)
	require.NotNil(t, logged.TargetID)
	assert.Equal(t, targetID, *logged.TargetID)
	assert.JSONEq(t, `{"entries":2}`, logged.Metadata)
	assert.True(t, logged.CreatedAt.Equal(frozen))
}

func TestRecordValidates(t *testing.T) {
	svc, _ := newService(t, nil)

	err := svc.Record(context.Background(), 0, "ledger.post", "transaction", nil, nil)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidEntity)

	node, err := snowflake.NewNode(13)
	require.NoError(t, err)
	err = svc.Record(context.Background(), node.Generate(), "   ", "transaction", nil, nil)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}
