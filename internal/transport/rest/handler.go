package rest

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"taka-billing/internal/billing"
	"taka-billing/internal/domain"
	"taka-billing/internal/repository"
	"taka-billing/internal/service"
)

type CustomerManager interface {
	Create(ctx context.Context, c *domain.Customer) error
	Get(ctx context.Context, id string) (*domain.Customer, error)
	List(ctx context.Context, f repository.CustomersFilter) ([]domain.Customer, error)
	Update(ctx context.Context, c *domain.Customer) error
	Delete(ctx context.Context, id string) error
	Invoices(ctx context.Context, customerID string) ([]domain.Invoice, error)
	RaiseInvoice(ctx context.Context, customerID string, amount decimal.Decimal) (*domain.Invoice, error)
	Receipts(ctx context.Context, customerID string) ([]domain.Receipt, error)
	ImportCSV(ctx context.Context, r io.Reader) (*service.ImportResult, error)
}

type Settler interface {
	Settle(ctx context.Context, req billing.SettleRequest) (*billing.SettlementResult, error)
	SettleRecorded(ctx context.Context, paymentID string) (*billing.SettlementResult, error)
	AttachPayment(ctx context.Context, paymentID, customerID string) error
	ListPayments(ctx context.Context, f repository.PaymentsFilter) ([]domain.Payment, error)
	RecordCallback(ctx context.Context, t *domain.MpesaTransaction) error
}

type ReceiptExporter interface {
	StartReceiptsExport(
		ctx context.Context,
		selected []string,
		filter repository.ReceiptsFilter,
		userID int64,
	) (string, error)
}

type CustomerExporter interface {
	StartCustomersExport(
		ctx context.Context,
		selected []string,
		filter repository.CustomersFilter,
		userID int64,
	) (string, error)
}

type ExportListService interface {
	GetExports(ctx context.Context, userID int64) ([]interface{}, error)
	GetExport(ctx context.Context, exportID string, userID int64) (interface{}, error)
}

type Handler struct {
	customers  CustomerManager
	settler    Settler
	receipts   ReceiptExporter
	custExport CustomerExporter
	exportList ExportListService
}

func NewHandler(
	customers CustomerManager,
	settler Settler,
	receipts ReceiptExporter,
	custExport CustomerExporter,
	exportList ExportListService,
) *Handler {
	return &Handler{
		customers:  customers,
		settler:    settler,
		receipts:   receipts,
		custExport: custExport,
		exportList: exportList,
	}
}

func (h *Handler) InitRouter() *chi.Mux {
	return h.InitRouterWithAuth(nil)
}

// InitRouterWithAuth mounts all routes. The mpesa callback stays outside the
// auth middleware: the gateway cannot carry our bearer tokens.
func (h *Handler) InitRouterWithAuth(authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	r.Post("/mpesa/callback", h.mpesaCallback)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.listCustomers)
			r.Post("/", h.createCustomer)
			r.Post("/import", h.importCustomers)
			r.Get("/{customer_id}", h.getCustomer)
			r.Put("/{customer_id}", h.updateCustomer)
			r.Delete("/{customer_id}", h.deleteCustomer)
			r.Get("/{customer_id}/invoices", h.listCustomerInvoices)
			r.Post("/{customer_id}/invoices", h.raiseInvoice)
			r.Get("/{customer_id}/receipts", h.listCustomerReceipts)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", h.listPayments)
			r.Post("/", h.settlePayment)
			r.Post("/{payment_id}/settle", h.settleRecordedPayment)
			r.Post("/{payment_id}/attach", h.attachPayment)
		})

		r.Route("/export", func(r chi.Router) {
			r.Get("/", h.listExports)
			r.Get("/{export_id}", h.getExport)
			r.Post("/receipts", h.exportReceipts)
			r.Post("/customers", h.exportCustomers)
		})
	})

	return r
}
