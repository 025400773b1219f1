package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/evend-recon/internal/auth"
	"github.com/josh-kwaku/evend-recon/internal/domain"
	"github.com/josh-kwaku/evend-recon/internal/service"
)

type vendorService interface {
	Get(ctx context.Context, id string) (*domain.Vendor, error)
	UpdateCommissionRate(ctx context.Context, id string, req service.CommissionChangeRequest) (*domain.Vendor, error)
	CommissionHistory(ctx context.Context, id string) ([]domain.CommissionRateChange, error)
}

type VendorHandler struct {
	vendors vendorService
}

func NewVendorHandler(vendors vendorService) *VendorHandler {
	return &VendorHandler{vendors: vendors}
}

func (h *VendorHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.vendors.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toVendorDTO(v))
}

type commissionRequest struct {
	CommissionRate string `json:"commission_rate"`
	Reason         string `json:"reason"`
}

// UpdateCommission records the authenticated operator as the author of the
// change.
func (h *VendorHandler) UpdateCommission(w http.ResponseWriter, r *http.Request) {
	operator, ok := auth.OperatorFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req commissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(req.CommissionRate))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "commission_rate", Message: "must be a decimal such as 0.025"}})
		return
	}

	v, err := h.vendors.UpdateCommissionRate(r.Context(), r.PathValue("id"), service.CommissionChangeRequest{
		Rate:      rate,
		ChangedBy: operator,
		Reason:    req.Reason,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toVendorDTO(v))
}

func (h *VendorHandler) CommissionHistory(w http.ResponseWriter, r *http.Request) {
	changes, err := h.vendors.CommissionHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	items := make([]rateChangeDTO, 0, len(changes))
	for _, c := range changes {
		items = append(items, rateChangeDTO{
			ID:        c.ID,
			OldRate:   c.OldRate.String(),
			NewRate:   c.NewRate.String(),
			ChangedBy: c.ChangedBy,
			Reason:    c.Reason,
			ChangedAt: c.ChangedAt,
		})
	}
	RespondSuccess(w, http.StatusOK, listResponse[rateChangeDTO]{Items: items, Total: len(items)})
}
