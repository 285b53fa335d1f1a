package ledger

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ledgerpulse/ledgerpulse/internal/httpserver"
)

const dateLayout = "2006-01-02"

// CreateTransactionRequest is the JSON body for POST /{companyId}/transactions.
type CreateTransactionRequest struct {
	Date        string           `json:"date" validate:"required"`
	Amount      *decimal.Decimal `json:"amount" validate:"required"`
	Description string           `json:"description" validate:"required,max=512"`
}

// TransactionView is the JSON shape returned for a single transaction.
type TransactionView struct {
	ID           string          `json:"id"`
	Date         string          `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	CategoryName *string         `json:"categoryName"`
}

func toTransactionView(tx Transaction) TransactionView {
	view := TransactionView{
		ID:          tx.ID,
		Date:        tx.OccurredAt.Format(dateLayout),
		Amount:      tx.Amount,
		Description: tx.Description,
	}
	if tx.Category != "" {
		name := string(tx.Category)
		view.CategoryName = &name
	}
	return view
}

// Handler serves the transaction endpoints (C10): list, create, delete.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates a ledger Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Routes returns the tenant-scoped transaction router, meant to be mounted
// inside the pipeline at /api/v1/{companyId}/transactions.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Delete("/{id}", h.handleDelete)
	return r
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyId")

	transactions, err := h.service.List(r.Context(), companyID, ListFilter{})
	if err != nil {
		httpserver.RespondErr(w, err)
		return
	}

	views := make([]TransactionView, 0, len(transactions))
	for _, tx := range transactions {
		views = append(views, toTransactionView(tx))
	}

	httpserver.Respond(w, http.StatusOK, views)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyId")

	var req CreateTransactionRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	occurredAt, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		httpserver.RespondValidationError(w, []httpserver.ValidationError{
			{Field: "date", Message: "must be formatted as YYYY-MM-DD"},
		})
		return
	}

	tx, err := h.service.Create(r.Context(), companyID, *req.Amount, "", req.Description, occurredAt)
	if err != nil {
		httpserver.RespondErr(w, err)
		return
	}

	httpserver.Respond(w, http.StatusCreated, toTransactionView(*tx))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyId")
	transactionID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), companyID, transactionID); err != nil {
		httpserver.RespondErr(w, err)
		return
	}

	httpserver.Respond(w, http.StatusNoContent, nil)
}
