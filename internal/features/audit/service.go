package audit

import (
	"context"
	"time"

	common_models "go-paygate/internal/common/models"
	"go-paygate/internal/features/workflow"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type AuditService interface {
	// LogChange records a plain CRUD change with explicit actor fields
	LogChange(ctx context.Context, actor workflow.Actor, action common_models.AuditAction, module, recordID string, changes map[string]common_models.Change) error
	ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error)
}

type AuditServiceImpl struct {
	Repo AuditRepository
	Log  *zap.Logger
}

func NewAuditService(repo AuditRepository, log *zap.Logger) AuditService {
	return &AuditServiceImpl{Repo: repo, Log: log}
}

func (s *AuditServiceImpl) LogChange(ctx context.Context, actor workflow.Actor, action common_models.AuditAction, module, recordID string, changes map[string]common_models.Change) error {
	entry := common_models.AuditLog{
		ID:         primitive.NewObjectID(),
		Action:     action,
		Module:     module,
		RecordID:   recordID,
		ActorRole:  actor.Role,
		ActorEmail: actor.Email,
		ActorName:  actor.Name,
		Changes:    changes,
		Timestamp:  time.Now(),
	}
	return s.Repo.Create(ctx, entry)
}

func (s *AuditServiceImpl) ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit
	return s.Repo.List(ctx, filters, limit, offset)
}

// WorkflowSink adapts the audit repository to the engine's fire-and-
// forget AuditSink contract: failures are logged, never propagated, so
// an audit outage cannot abort a workflow transition.
type WorkflowSink struct {
	repo AuditRepository
	log  *zap.Logger
}

func NewWorkflowSink(repo AuditRepository, log *zap.Logger) *WorkflowSink {
	return &WorkflowSink{repo: repo, log: log}
}

func (s *WorkflowSink) Log(ctx context.Context, actor workflow.Actor, action, activity, module string, snapshot any) {
	entry := common_models.AuditLog{
		ID:         primitive.NewObjectID(),
		Action:     common_models.AuditActionApproval,
		Activity:   activity,
		Module:     module,
		ActorRole:  actor.Role,
		ActorEmail: actor.Email,
		ActorName:  actor.Name,
		Snapshot:   snapshot,
		Changes: map[string]common_models.Change{
			"workflow": {New: action},
		},
		Timestamp: time.Now(),
	}
	if action == "BYPASS" {
		entry.Action = common_models.AuditActionBypass
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.log.Warn("failed to write workflow audit entry",
			zap.String("action", action),
			zap.String("module", module),
			zap.Error(err))
	}
}
