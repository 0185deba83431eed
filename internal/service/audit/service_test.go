package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

func TestService_Record(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc := NewWithLogger(zap.New(core))

	ctx := logger.WithRequestID(context.Background(), "req-1")
	ctx = WithActor(ctx, "frontdesk")
	svc.Record(ctx, "update", "patients", 7, []byte(`{"phone":"555","email":"a@b.c"}`))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "record update", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "patients", fields["collection"])
	assert.Equal(t, int64(7), fields["record_id"])
	assert.Equal(t, "frontdesk", fields["actor"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, []interface{}{"email", "phone"}, fields["changed_fields"])
}

func TestService_AnonymousWithoutPatch(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc := NewWithLogger(zap.New(core))

	svc.Record(context.Background(), "delete", "doctors", 3, nil)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "anonymous", fields["actor"])
	assert.NotContains(t, fields, "request_id")
	assert.NotContains(t, fields, "changed_fields")
}

func TestNewService_Disabled(t *testing.T) {
	svc, err := NewService(config.AuditConfig{Enabled: false})
	require.NoError(t, err)
	svc.Record(context.Background(), "create", "patients", 1, nil)
}
