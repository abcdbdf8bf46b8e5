package settlement

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go-paygate/internal/common/models"
	"go-paygate/internal/features/audit"
	"go-paygate/internal/features/workflow"

	"github.com/xuri/excelize/v2"
)

type SettlementService interface {
	CreateBatch(ctx context.Context, actor workflow.Actor, b *Batch) error
	GetBatch(ctx context.Context, batchID string) (*Batch, error)
	ListBatches(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]Batch, int64, error)
	MarkPaid(ctx context.Context, actor workflow.Actor, batchID string) error
	ExportToExcel(ctx context.Context, actor workflow.Actor, filter map[string]interface{}) ([]byte, string, error)
}

type SettlementServiceImpl struct {
	Repo         SettlementRepository
	AuditService audit.AuditService
}

func NewSettlementService(repo SettlementRepository, auditService audit.AuditService) SettlementService {
	return &SettlementServiceImpl{
		Repo:         repo,
		AuditService: auditService,
	}
}

func (s *SettlementServiceImpl) CreateBatch(ctx context.Context, actor workflow.Actor, b *Batch) error {
	if b.BatchID == "" || b.MerchantID == "" {
		return fmt.Errorf("batch_id and merchant_id are required")
	}
	if err := s.Repo.Create(ctx, b); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, actor, models.AuditActionCreate, "SETTLEMENT", b.BatchID, map[string]models.Change{
		"merchant_id": {New: b.MerchantID},
		"net_minor":   {New: b.NetMinor},
	})
	return nil
}

func (s *SettlementServiceImpl) GetBatch(ctx context.Context, batchID string) (*Batch, error) {
	return s.Repo.FindByBatchID(ctx, batchID)
}

func (s *SettlementServiceImpl) ListBatches(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]Batch, int64, error) {
	if filter == nil {
		filter = map[string]interface{}{}
	}
	offset := (page - 1) * limit
	return s.Repo.List(ctx, filter, limit, offset)
}

func (s *SettlementServiceImpl) MarkPaid(ctx context.Context, actor workflow.Actor, batchID string) error {
	if err := s.Repo.MarkPaid(ctx, batchID); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, actor, models.AuditActionUpdate, "SETTLEMENT", batchID, map[string]models.Change{
		"status": {Old: StatusPending, New: StatusPaid},
	})
	return nil
}

// ExportToExcel renders the filtered batches as an XLSX workbook and
// returns the bytes with a suggested filename.
func (s *SettlementServiceImpl) ExportToExcel(ctx context.Context, actor workflow.Actor, filter map[string]interface{}) ([]byte, string, error) {
	batches, _, err := s.ListBatches(ctx, filter, 1, 0)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Settlements"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	columns := []string{"Batch ID", "Merchant ID", "Currency", "Gross", "Fees", "Net", "Transactions", "Status", "Settled At", "Created At"}
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, b := range batches {
		settledAt := ""
		if b.SettledAt != nil {
			settledAt = b.SettledAt.Format("2006-01-02 15:04:05")
		}
		values := []any{
			b.BatchID,
			b.MerchantID,
			b.Currency,
			float64(b.GrossMinor) / 100,
			float64(b.FeesMinor) / 100,
			float64(b.NetMinor) / 100,
			b.TransactionCount,
			b.Status,
			settledAt,
			b.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("settlements_%s.xlsx", time.Now().Format("20060102_150405"))
	_ = s.AuditService.LogChange(ctx, actor, models.AuditActionExport, "SETTLEMENT", "", map[string]models.Change{
		"rows": {New: len(batches)},
	})
	return buf.Bytes(), filename, nil
}
