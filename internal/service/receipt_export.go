package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"taka-billing/internal/clients"
	"taka-billing/internal/domain"
	"taka-billing/internal/repository"
)

type ReceiptRepository interface {
	List(ctx context.Context, f repository.ReceiptsFilter) ([]domain.Receipt, error)
	HasMoreThan(ctx context.Context, limit int64, f repository.ReceiptsFilter) (bool, error)
}

type ReceiptColumn struct {
	Header string
	Value  func(rc domain.Receipt) any
}

var receiptExportColumns = map[string]ReceiptColumn{
	"receipt_number":  {Header: "Receipt No", Value: func(rc domain.Receipt) any { return rc.ReceiptNumber }},
	"customer_id":     {Header: "Customer", Value: func(rc domain.Receipt) any { return rc.CustomerID }},
	"payment_id":      {Header: "Payment", Value: func(rc domain.Receipt) any { return rc.PaymentID }},
	"invoice_id":      {Header: "Invoice", Value: func(rc domain.Receipt) any { return strPtr(rc.InvoiceID) }},
	"amount":          {Header: "Amount", Value: func(rc domain.Receipt) any { return rc.Amount.StringFixed(2) }},
	"mode_of_payment": {Header: "Mode", Value: func(rc domain.Receipt) any { return string(rc.ModeOfPayment) }},
	"paid_by":         {Header: "Paid By", Value: func(rc domain.Receipt) any { return rc.PaidBy }},
	"created_at":      {Header: "Date", Value: func(rc domain.Receipt) any { return timePtr(rc.CreatedAt) }},
}

const maxReceiptsForExport = 500_000

// ReceiptService produces xlsx exports of the receipt trail. Jobs run in a
// background goroutine; progress is cached in redis and pushed over the
// websocket hub.
type ReceiptService struct {
	repo    ReceiptRepository
	redis   *clients.RedisClient
	storage ExportStorage
	ws      *clients.WebSocketClient
}

func NewReceiptService(repo ReceiptRepository, redis *clients.RedisClient, storage ExportStorage, ws *clients.WebSocketClient) *ReceiptService {
	return &ReceiptService{repo: repo, redis: redis, storage: storage, ws: ws}
}

func (s *ReceiptService) StartReceiptsExport(ctx context.Context, selected []string, filter repository.ReceiptsFilter, userID int64) (string, error) {
	if len(selected) == 0 {
		selected = []string{"created_at", "receipt_number", "customer_id", "payment_id", "invoice_id", "amount", "mode_of_payment", "paid_by"}
	}

	tooMany, err := s.repo.HasMoreThan(ctx, maxReceiptsForExport, filter)
	if err != nil {
		return "", err
	}
	if tooMany {
		return "", fmt.Errorf("too many receipts for export (more than %d records)", maxReceiptsForExport)
	}

	exportID := fmt.Sprintf("exports:%s", uuid.NewString())
	now := time.Now()

	status := &ExportStatus{
		Key:      exportID,
		Type:     "receipts",
		UserID:   userID,
		Filters:  buildReceiptsFiltersMap(filter, selected),
		Progress: 0,
		FileURL:  nil,
		Created:  now,
	}

	_ = saveExportStatus(ctx, s.redis, status)

	go s.runReceiptsExport(context.Background(), exportID, selected, filter, userID, now)

	return exportID, nil
}

func (s *ReceiptService) runReceiptsExport(ctx context.Context, exportID string, selected []string, filter repository.ReceiptsFilter, userID int64, createdAt time.Time) {
	status := &ExportStatus{
		Key:      exportID,
		Type:     "receipts",
		UserID:   userID,
		Filters:  buildReceiptsFiltersMap(filter, selected),
		Progress: 0,
		FileURL:  nil,
		Created:  createdAt,
	}

	receipts, err := s.repo.List(ctx, filter)
	if err != nil {
		s.failExport(ctx, status, userID, exportID, fmt.Sprintf("list receipts failed: %v", err))
		return
	}

	var cols []ReceiptColumn
	for _, key := range selected {
		col, ok := receiptExportColumns[key]
		if !ok {
			continue
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		s.failExport(ctx, status, userID, exportID, "no valid columns selected")
		return
	}

	f := excelize.NewFile()
	sheet := "Receipts"
	f.SetSheetName(f.GetSheetName(0), sheet)

	_ = f.SetDocProps(&excelize.DocProperties{Creator: fmt.Sprintf("user_%d", userID)})

	for i, col := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, col.Header)
	}

	total := len(receipts)
	rowIdx := 2
	chunkSize := 1000
	for i, rc := range receipts {
		for colIdx, col := range cols {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
			_ = f.SetCellValue(sheet, cell, col.Value(rc))
		}
		rowIdx++

		if (i+1)%chunkSize == 0 || i == total-1 {
			raw := float64(i+1) / float64(total) * 100.0
			progress := math.Round(raw)
			if progress >= 100 {
				progress = 95
			}
			status.Progress = progress
			_ = saveExportStatus(ctx, s.redis, status)
			if s.ws != nil {
				_ = s.ws.NotifyExportProgress(ctx, userID, exportID, progress, "generating")
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.failExport(ctx, status, userID, exportID, fmt.Sprintf("write workbook failed: %v", err))
		return
	}

	fileName := fmt.Sprintf("receipts_%s.xlsx", time.Now().Format("20060102_150405"))

	if s.storage == nil {
		s.failExport(ctx, status, userID, exportID, "export storage not configured")
		return
	}

	status.Progress = 95
	_ = saveExportStatus(ctx, s.redis, status)
	if s.ws != nil {
		_ = s.ws.NotifyExportProgress(ctx, userID, exportID, 95, "uploading")
	}

	savedName, err := s.storage.Save(ctx, fileName, buf.Bytes())
	if err != nil {
		s.failExport(ctx, status, userID, exportID, fmt.Sprintf("save export failed: %v", err))
		return
	}

	url := s.storage.GetURL(savedName)
	status.FileURL = &url
	status.Progress = 100
	_ = saveExportStatus(ctx, s.redis, status)
	if s.ws != nil {
		_ = s.ws.NotifyExportProgress(ctx, userID, exportID, 100, "ready")
		_ = s.ws.NotifyExportComplete(ctx, userID, exportID, url, fileName)
	}
}

func (s *ReceiptService) failExport(ctx context.Context, status *ExportStatus, userID int64, exportID, errStr string) {
	log.Printf("[EXPORT] %s: %s", exportID, errStr)
	status.Error = &errStr
	status.Progress = 100
	_ = saveExportStatus(ctx, s.redis, status)
	if s.ws != nil {
		_ = s.ws.NotifyExportFailed(ctx, userID, exportID, errStr)
	}
}

func buildReceiptsFiltersMap(f repository.ReceiptsFilter, fields []string) map[string]interface{} {
	m := map[string]interface{}{}
	if f.CustomerID != nil {
		m["customer_id"] = *f.CustomerID
	} else {
		m["customer_id"] = nil
	}
	if f.Mode != nil {
		m["mode_of_payment"] = string(*f.Mode)
	} else {
		m["mode_of_payment"] = nil
	}
	if f.From != nil {
		m["from"] = f.From.Format("2006-01-02")
	} else {
		m["from"] = nil
	}
	if f.To != nil {
		m["to"] = f.To.Format("2006-01-02")
	} else {
		m["to"] = nil
	}
	m["fields"] = fields
	return m
}
