package connectors

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go-paygate/internal/config"
	"go-paygate/internal/features/workflow"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// ReportingWarehouse mirrors workflow outcomes into a Postgres table
// that the BI stack reads from. It plugs into the engine as an audit
// sink and is strictly best-effort: a warehouse outage never blocks a
// decision.
type ReportingWarehouse struct {
	db  *sql.DB
	log *zap.Logger
}

const createOutcomesTable = `
CREATE TABLE IF NOT EXISTS approval_outcomes (
	id          BIGSERIAL PRIMARY KEY,
	action      TEXT        NOT NULL,
	activity    TEXT        NOT NULL,
	module      TEXT        NOT NULL,
	actor       TEXT        NOT NULL,
	actor_role  TEXT        NOT NULL,
	snapshot    JSONB,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// NewReportingWarehouse opens the warehouse connection. A missing DSN
// disables the connector (returns nil) so local setups run without
// Postgres.
func NewReportingWarehouse(cfg *config.Config, log *zap.Logger) (*ReportingWarehouse, error) {
	if cfg.ReportingDSN == "" {
		log.Info("reporting warehouse disabled, no DSN configured")
		return nil, nil
	}

	db, err := sql.Open("postgres", cfg.ReportingDSN)
	if err != nil {
		return nil, fmt.Errorf("open reporting warehouse: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping reporting warehouse: %w", err)
	}
	if _, err := db.ExecContext(ctx, createOutcomesTable); err != nil {
		return nil, fmt.Errorf("ensure approval_outcomes table: %w", err)
	}

	log.Info("reporting warehouse connected")
	return &ReportingWarehouse{db: db, log: log}, nil
}

func (w *ReportingWarehouse) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	return w.db.Close()
}

// Log implements workflow.AuditSink. Only terminal outcomes are mirrored;
// intermediate submissions and approvals stay in Mongo only.
func (w *ReportingWarehouse) Log(ctx context.Context, actor workflow.Actor, action, activity, module string, snapshot any) {
	if w == nil || w.db == nil {
		return
	}
	switch action {
	case "EXECUTE", "DECLINE", "BYPASS":
	default:
		return
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		payload = []byte("null")
	}

	_, err = w.db.ExecContext(ctx,
		`INSERT INTO approval_outcomes (action, activity, module, actor, actor_role, snapshot) VALUES ($1, $2, $3, $4, $5, $6)`,
		action, activity, module, actor.Username, actor.Role, payload,
	)
	if err != nil {
		w.log.Warn("failed to mirror outcome to reporting warehouse",
			zap.String("action", action),
			zap.String("module", module),
			zap.Error(err))
	}
}

// FanoutSink delivers every audit entry to each underlying sink
type FanoutSink struct {
	sinks []workflow.AuditSink
}

func NewFanoutSink(sinks ...workflow.AuditSink) *FanoutSink {
	var active []workflow.AuditSink
	for _, s := range sinks {
		if s != nil {
			active = append(active, s)
		}
	}
	return &FanoutSink{sinks: active}
}

func (f *FanoutSink) Log(ctx context.Context, actor workflow.Actor, action, activity, module string, snapshot any) {
	for _, s := range f.sinks {
		s.Log(ctx, actor, action, activity, module, snapshot)
	}
}
