package service

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/event-service/internal/audit"
	"github.com/spec-kit/event-service/internal/auth"
	"github.com/spec-kit/event-service/internal/observability"
)

// AuditService writes security audit records to the structured log and metrics.
type AuditService struct {
	dispatcher audit.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewAuditService creates the service.
func NewAuditService(dispatcher audit.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to every audited action.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, action := range audit.Actions {
		a.dispatcher.Subscribe(action, a.handle)
	}
}

func (a *AuditService) handle(_ context.Context, record audit.Record) error {
	a.metrics.RecordAuth(string(record.Action), string(record.Outcome), record.Reason)

	fields := []zap.Field{
		zap.String("audit_id", record.ID),
		zap.String("action", string(record.Action)),
		zap.String("outcome", string(record.Outcome)),
		zap.Time("at", record.Timestamp),
	}
	if record.Reason != "" {
		fields = append(fields, zap.String("reason", record.Reason))
	}
	if record.Subject != "" {
		fields = append(fields, zap.String("subject", record.Subject))
	}
	if record.SubjectID != "" {
		fields = append(fields, zap.String("subject_id", record.SubjectID))
	}
	if record.TokenID != "" {
		fields = append(fields, zap.String("jti", record.TokenID))
	}
	if record.RemoteIP != "" {
		fields = append(fields, zap.String("remote_ip", record.RemoteIP))
	}
	if record.Path != "" {
		fields = append(fields, zap.String("path", record.Path))
	}
	if len(record.Details) > 0 {
		fields = append(fields, zap.Any("details", record.Details))
	}

	a.logger.Log(levelFor(record), "security audit", fields...)
	return nil
}

// A forged signature is a security alert; other failures are routine.
func levelFor(record audit.Record) zapcore.Level {
	if record.Outcome == audit.OutcomeSuccess {
		return zapcore.InfoLevel
	}
	switch auth.Kind(record.Reason) {
	case auth.KindSignatureInvalid:
		return zapcore.ErrorLevel
	case auth.KindStoreUnavailable, auth.KindLocked:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
