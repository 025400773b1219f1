package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/josh-kwaku/evend-recon/internal/domain"
)

type statementService interface {
	Generate(ctx context.Context, period domain.Period) ([]domain.VendorStatement, error)
	Finalize(ctx context.Context, vendorID string, period domain.Period) (*domain.VendorStatement, error)
	Send(ctx context.Context, vendorID string, period domain.Period) (*domain.VendorStatement, error)
	List(ctx context.Context, period domain.Period, vendorID string) ([]domain.VendorStatement, error)
	Get(ctx context.Context, vendorID string, period domain.Period) (*domain.VendorStatement, error)
}

type StatementHandler struct {
	statements statementService
}

func NewStatementHandler(statements statementService) *StatementHandler {
	return &StatementHandler{statements: statements}
}

type generateRequest struct {
	Period string `json:"period"`
}

func (h *StatementHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	period, err := domain.ParsePeriod(req.Period)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "period", Message: "must be YYYY-MM"}})
		return
	}

	out, err := h.statements.Generate(r.Context(), period)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toStatementList(out))
}

func (h *StatementHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var period domain.Period
	if v := q.Get("period"); v != "" {
		p, err := domain.ParsePeriod(v)
		if err != nil {
			RespondValidationError(w, []FieldError{{Field: "period", Message: "must be YYYY-MM"}})
			return
		}
		period = p
	}

	out, err := h.statements.List(r.Context(), period, q.Get("vendor_id"))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toStatementList(out))
}

func (h *StatementHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withKey(w, r, h.statements.Get, http.StatusOK)
}

func (h *StatementHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	h.withKey(w, r, h.statements.Finalize, http.StatusOK)
}

func (h *StatementHandler) Send(w http.ResponseWriter, r *http.Request) {
	h.withKey(w, r, h.statements.Send, http.StatusOK)
}

type statementOp func(ctx context.Context, vendorID string, period domain.Period) (*domain.VendorStatement, error)

func (h *StatementHandler) withKey(w http.ResponseWriter, r *http.Request, op statementOp, status int) {
	period, err := domain.ParsePeriod(r.PathValue("period"))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "period", Message: "must be YYYY-MM"}})
		return
	}

	st, err := op(r.Context(), r.PathValue("vendor_id"), period)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, status, toStatementDTO(st))
}

func toStatementList(in []domain.VendorStatement) listResponse[statementDTO] {
	items := make([]statementDTO, 0, len(in))
	for i := range in {
		items = append(items, toStatementDTO(&in[i]))
	}
	return listResponse[statementDTO]{Items: items, Total: len(items)}
}
