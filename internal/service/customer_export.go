package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"taka-billing/internal/clients"
	"taka-billing/internal/domain"
	"taka-billing/internal/repository"
)

type CustomerExportRepository interface {
	List(ctx context.Context, f repository.CustomersFilter) ([]domain.Customer, error)
}

type CustomerColumn struct {
	Header string
	Value  func(c domain.Customer) any
}

var customerExportColumns = map[string]CustomerColumn{
	"full_name":       {Header: "Name", Value: func(c domain.Customer) any { return c.FullName() }},
	"phone_number":    {Header: "Phone", Value: func(c domain.Customer) any { return c.PhoneNumber }},
	"location":        {Header: "Location", Value: func(c domain.Customer) any { return strPtr(c.Location) }},
	"house_number":    {Header: "House No", Value: func(c domain.Customer) any { return strPtr(c.HouseNumber) }},
	"monthly_charge":  {Header: "Monthly Charge", Value: func(c domain.Customer) any { return c.MonthlyCharge.StringFixed(2) }},
	"closing_balance": {Header: "Balance", Value: func(c domain.Customer) any { return c.ClosingBalance.StringFixed(2) }},
	"status":          {Header: "Status", Value: func(c domain.Customer) any { return string(c.Status) }},
	"created_at":      {Header: "Registered", Value: func(c domain.Customer) any { return timePtr(c.CreatedAt) }},
}

// CustomerExportService produces xlsx exports of the customer register,
// including closing balances for field collection runs.
type CustomerExportService struct {
	repo    CustomerExportRepository
	redis   *clients.RedisClient
	storage ExportStorage
	ws      *clients.WebSocketClient
}

func NewCustomerExportService(repo CustomerExportRepository, redis *clients.RedisClient, storage ExportStorage, ws *clients.WebSocketClient) *CustomerExportService {
	return &CustomerExportService{repo: repo, redis: redis, storage: storage, ws: ws}
}

func (s *CustomerExportService) StartCustomersExport(ctx context.Context, selected []string, filter repository.CustomersFilter, userID int64) (string, error) {
	if len(selected) == 0 {
		selected = []string{"full_name", "phone_number", "location", "house_number", "monthly_charge", "closing_balance", "status", "created_at"}
	}

	exportID := fmt.Sprintf("exports:%s", uuid.NewString())
	now := time.Now()

	status := &ExportStatus{
		Key:      exportID,
		Type:     "customers",
		UserID:   userID,
		Filters:  map[string]interface{}{"fields": selected},
		Progress: 0,
		FileURL:  nil,
		Created:  now,
	}

	_ = saveExportStatus(ctx, s.redis, status)

	go s.runCustomersExport(context.Background(), exportID, selected, filter, userID, now)

	return exportID, nil
}

func (s *CustomerExportService) runCustomersExport(ctx context.Context, exportID string, selected []string, filter repository.CustomersFilter, userID int64, createdAt time.Time) {
	status := &ExportStatus{
		Key:      exportID,
		Type:     "customers",
		UserID:   userID,
		Filters:  map[string]interface{}{"fields": selected},
		Progress: 0,
		FileURL:  nil,
		Created:  createdAt,
	}

	fail := func(errStr string) {
		status.Error = &errStr
		status.Progress = 100
		_ = saveExportStatus(ctx, s.redis, status)
		if s.ws != nil {
			_ = s.ws.NotifyExportFailed(ctx, userID, exportID, errStr)
		}
	}

	customers, err := s.repo.List(ctx, filter)
	if err != nil {
		fail(fmt.Sprintf("list customers failed: %v", err))
		return
	}

	var cols []CustomerColumn
	for _, key := range selected {
		col, ok := customerExportColumns[key]
		if !ok {
			continue
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		fail("no valid columns selected")
		return
	}

	f := excelize.NewFile()
	sheet := "Customers"
	f.SetSheetName(f.GetSheetName(0), sheet)

	_ = f.SetDocProps(&excelize.DocProperties{Creator: fmt.Sprintf("user_%d", userID)})

	for i, col := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, col.Header)
	}

	total := len(customers)
	rowIdx := 2
	for i, c := range customers {
		for colIdx, col := range cols {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
			_ = f.SetCellValue(sheet, cell, col.Value(c))
		}
		rowIdx++

		if (i+1)%1000 == 0 || i == total-1 {
			progress := math.Round(float64(i+1) / float64(total) * 100.0)
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
		fail(fmt.Sprintf("write workbook failed: %v", err))
		return
	}

	if s.storage == nil {
		fail("export storage not configured")
		return
	}

	fileName := fmt.Sprintf("customers_%s.xlsx", time.Now().Format("20060102_150405"))

	savedName, err := s.storage.Save(ctx, fileName, buf.Bytes())
	if err != nil {
		fail(fmt.Sprintf("save export failed: %v", err))
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
