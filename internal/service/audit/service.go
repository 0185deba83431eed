// Package audit writes one structured line per data mutation.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

type actorKey struct{}

// WithActor tags the context with the authenticated operator.
func WithActor(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, actorKey{}, username)
}

func Actor(ctx context.Context) string {
	name, _ := ctx.Value(actorKey{}).(string)
	if name == "" {
		return "anonymous"
	}
	return name
}

type Service struct {
	log *zap.Logger
}

// NewService builds a JSON audit logger writing to cfg.Path. A disabled
// config yields a service that drops every entry.
func NewService(cfg config.AuditConfig) (*Service, error) {
	if !cfg.Enabled {
		return NewWithLogger(zap.NewNop()), nil
	}

	path := cfg.Path
	if path == "" {
		path = "stdout"
	}

	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{path}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	zcfg.Sampling = nil
	zcfg.DisableStacktrace = true
	zcfg.EncoderConfig.TimeKey = "timestamp"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build audit logger: %w", err)
	}
	return NewWithLogger(l.Named("audit")), nil
}

func NewWithLogger(l *zap.Logger) *Service {
	return &Service{log: l}
}

// Record implements repository.Auditor.
func (s *Service) Record(ctx context.Context, action, collection string, id int64, patch []byte) {
	fields := []zap.Field{
		zap.String("action", action),
		zap.String("collection", collection),
		zap.Int64("record_id", id),
		zap.String("actor", Actor(ctx)),
	}
	if rid := logger.RequestID(ctx); rid != "" {
		fields = append(fields, zap.String("request_id", rid))
	}
	if len(patch) > 0 && json.Valid(patch) {
		var changed map[string]json.RawMessage
		if err := json.Unmarshal(patch, &changed); err == nil {
			keys := make([]string, 0, len(changed))
			for k := range changed {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fields = append(fields, zap.Strings("changed_fields", keys))
		}
	}
	s.log.Info("record "+action, fields...)
}

func (s *Service) Sync() error {
	return s.log.Sync()
}
