package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/event-service/internal/audit"
	"github.com/spec-kit/event-service/internal/auth"
	"github.com/spec-kit/event-service/internal/observability"
)

func TestAuditServiceLogsAndCounts(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	metrics := observability.NewMetrics()
	dispatcher := audit.NewInMemoryDispatcher()
	NewAuditService(dispatcher, zap.New(core), metrics).RegisterHandlers()

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, audit.Record{
		Action:  audit.ActionAuthenticate,
		Outcome: audit.OutcomeFailure,
		Reason:  string(auth.KindSignatureInvalid),
		Path:    "/api/events",
	}))
	require.NoError(t, dispatcher.Publish(ctx, audit.Record{
		Action:    audit.ActionLogin,
		Outcome:   audit.OutcomeSuccess,
		SubjectID: "id-1",
	}))

	entries := logs.FilterMessage("security audit").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "audit", entries[0].LoggerName)
	assert.Equal(t, "SIGNATURE_INVALID", entries[0].ContextMap()["reason"])
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.NotEmpty(t, entries[1].ContextMap()["audit_id"])

	snap := metrics.Snapshot()
	assert.EqualValues(t, 1, snap.Auth["authenticate|failure|SIGNATURE_INVALID"])
	assert.EqualValues(t, 1, snap.Auth["login|success"])
}

func TestAuditLevels(t *testing.T) {
	cases := []struct {
		record audit.Record
		want   zapcore.Level
	}{
		{audit.Record{Outcome: audit.OutcomeSuccess}, zapcore.InfoLevel},
		{audit.Record{Outcome: audit.OutcomeFailure, Reason: string(auth.KindSignatureInvalid)}, zapcore.ErrorLevel},
		{audit.Record{Outcome: audit.OutcomeFailure, Reason: string(auth.KindStoreUnavailable)}, zapcore.WarnLevel},
		{audit.Record{Outcome: audit.OutcomeFailure, Reason: string(auth.KindLocked)}, zapcore.WarnLevel},
		{audit.Record{Outcome: audit.OutcomeFailure, Reason: string(auth.KindExpired)}, zapcore.InfoLevel},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, levelFor(tc.record), tc.record.Reason)
	}
}
