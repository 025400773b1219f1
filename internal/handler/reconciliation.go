package handler

import (
	"context"
	"net/http"

	"github.com/josh-kwaku/evend-recon/internal/auth"
	"github.com/josh-kwaku/evend-recon/internal/domain"
	"github.com/josh-kwaku/evend-recon/internal/logging"
)

type reconciliationService interface {
	Run(ctx context.Context, date domain.Date, actor string) (*domain.DailyReconciliationSummary, error)
	GetSummary(ctx context.Context, date domain.Date) (*domain.DailyReconciliationSummary, error)
	ListSummaries(ctx context.Context, from, to domain.Date) ([]domain.DailyReconciliationSummary, error)
	Adjustments(ctx context.Context, date domain.Date) ([]domain.Adjustment, error)
	Report(ctx context.Context, from, to domain.Date) (*domain.ReconciliationReport, error)
}

type ReconciliationHandler struct {
	recon reconciliationService
}

func NewReconciliationHandler(recon reconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{recon: recon}
}

func (h *ReconciliationHandler) Run(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	operator, ok := auth.OperatorFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	date, err := domain.ParseDate(r.PathValue("date"))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "date", Message: "must be YYYY-MM-DD"}})
		return
	}

	summary, err := h.recon.Run(r.Context(), date, operator)
	if err != nil {
		log.Warn("reconciliation run failed", "recon_date", date.String(), "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toSummaryDTO(summary))
}

func (h *ReconciliationHandler) Get(w http.ResponseWriter, r *http.Request) {
	date, err := domain.ParseDate(r.PathValue("date"))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "date", Message: "must be YYYY-MM-DD"}})
		return
	}

	summary, err := h.recon.GetSummary(r.Context(), date)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toSummaryDTO(summary))
}

func parseRange(r *http.Request) (from, to domain.Date, fields []FieldError) {
	q := r.URL.Query()

	from, err := domain.ParseDate(q.Get("from"))
	if err != nil {
		fields = append(fields, FieldError{Field: "from", Message: "must be YYYY-MM-DD"})
	}
	to, err = domain.ParseDate(q.Get("to"))
	if err != nil {
		fields = append(fields, FieldError{Field: "to", Message: "must be YYYY-MM-DD"})
	}
	return from, to, fields
}

func (h *ReconciliationHandler) List(w http.ResponseWriter, r *http.Request) {
	from, to, fields := parseRange(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	summaries, err := h.recon.ListSummaries(r.Context(), from, to)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	items := make([]summaryDTO, 0, len(summaries))
	for i := range summaries {
		items = append(items, toSummaryDTO(&summaries[i]))
	}
	RespondSuccess(w, http.StatusOK, listResponse[summaryDTO]{Items: items, Total: len(items)})
}

func (h *ReconciliationHandler) Adjustments(w http.ResponseWriter, r *http.Request) {
	date, err := domain.ParseDate(r.PathValue("date"))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "date", Message: "must be YYYY-MM-DD"}})
		return
	}

	adjustments, err := h.recon.Adjustments(r.Context(), date)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	items := make([]adjustmentDTO, 0, len(adjustments))
	for _, a := range adjustments {
		items = append(items, adjustmentDTO{
			ID:          a.ID,
			ExceptionID: a.ExceptionID,
			Date:        a.Date.String(),
			Amount:      domain.FormatAmount(a.Amount),
			ApprovedBy:  a.ApprovedBy,
			CreatedAt:   a.CreatedAt,
		})
	}
	RespondSuccess(w, http.StatusOK, listResponse[adjustmentDTO]{Items: items, Total: len(items)})
}

func (h *ReconciliationHandler) Report(w http.ResponseWriter, r *http.Request) {
	from, to, fields := parseRange(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	rep, err := h.recon.Report(r.Context(), from, to)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toReportDTO(rep))
}
