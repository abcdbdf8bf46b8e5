package transaction

import (
	"context"
	"fmt"

	"go-paygate/internal/features/workflow"
)

const (
	RefundOperation = "transaction.refund"

	RefundMakerPermission   = "transactions:refund:maker"
	RefundCheckerPermission = "transactions:refund:checker"
)

// Refund execution is replayed on the background pool once approved;
// the approving checker gets PROCESSING back immediately.
var refundMarker = workflow.Marker{
	MakerPermission:   RefundMakerPermission,
	CheckerPermission: RefundCheckerPermission,
	Activity:          "REFUND",
	Module:            "TRANSACTION",
	PayloadType:       RefundOperation,
	OperationName:     RefundOperation,
	RunInBackground:   true,
}

type TransactionService interface {
	GetTransaction(ctx context.Context, transactionID string) (*Transaction, error)
	ListTransactions(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]Transaction, int64, error)
	ListRefunds(ctx context.Context, transactionID string) ([]Refund, error)
	Refund(ctx context.Context, actor workflow.Actor, req *RefundRequest) (*workflow.Result, error)
}

type TransactionServiceImpl struct {
	Repo   TransactionRepository
	Engine *workflow.Engine
}

func NewTransactionService(repo TransactionRepository, engine *workflow.Engine) TransactionService {
	s := &TransactionServiceImpl{
		Repo:   repo,
		Engine: engine,
	}

	engine.Registry().RegisterPayload(RefundOperation, workflow.JSONPayload[RefundRequest]())
	engine.Registry().RegisterOperation(refundMarker, func(ctx context.Context, payload any) (any, error) {
		req, ok := payload.(*RefundRequest)
		if !ok {
			return nil, fmt.Errorf("unexpected payload type %T", payload)
		}
		return s.Repo.ApplyRefund(ctx, req)
	})

	return s
}

func (s *TransactionServiceImpl) GetTransaction(ctx context.Context, transactionID string) (*Transaction, error) {
	return s.Repo.FindByTransactionID(ctx, transactionID)
}

func (s *TransactionServiceImpl) ListTransactions(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]Transaction, int64, error) {
	if filter == nil {
		filter = map[string]interface{}{}
	}
	offset := (page - 1) * limit
	return s.Repo.List(ctx, filter, limit, offset)
}

func (s *TransactionServiceImpl) ListRefunds(ctx context.Context, transactionID string) ([]Refund, error) {
	return s.Repo.ListRefunds(ctx, transactionID)
}

func (s *TransactionServiceImpl) Refund(ctx context.Context, actor workflow.Actor, req *RefundRequest) (*workflow.Result, error) {
	t, err := s.Repo.FindByTransactionID(ctx, req.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("transaction %s not found", req.TransactionID)
	}
	if req.Amount <= 0 || req.Amount > t.AmountMinor-t.RefundedAmountMinor {
		return nil, fmt.Errorf("refund amount out of range")
	}
	if req.Currency == "" {
		req.Currency = t.Currency
	}

	return s.Engine.Intercept(ctx, actor, refundMarker, workflow.Invocation{
		Payload: req,
		Initial: t,
	})
}
