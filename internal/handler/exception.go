package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/josh-kwaku/evend-recon/internal/domain"
	"github.com/josh-kwaku/evend-recon/internal/logging"
	"github.com/josh-kwaku/evend-recon/internal/service"
)

type exceptionService interface {
	List(ctx context.Context, f domain.ExceptionFilter) ([]domain.ReconciliationException, int, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.ReconciliationException, error)
	Assign(ctx context.Context, id uuid.UUID, assignee string) (*domain.ReconciliationException, error)
	Resolve(ctx context.Context, id uuid.UUID, req service.ResolveRequest) (*domain.ReconciliationException, error)
}

type ExceptionHandler struct {
	exceptions exceptionService
}

func NewExceptionHandler(exceptions exceptionService) *ExceptionHandler {
	return &ExceptionHandler{exceptions: exceptions}
}

func (h *ExceptionHandler) List(w http.ResponseWriter, r *http.Request) {
	f, fields := parseExceptionFilter(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	out, total, err := h.exceptions.List(r.Context(), f)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	items := make([]exceptionDTO, 0, len(out))
	for i := range out {
		items = append(items, toExceptionDTO(&out[i]))
	}
	RespondSuccess(w, http.StatusOK, listResponse[exceptionDTO]{Items: items, Total: total})
}

func parseExceptionFilter(r *http.Request) (domain.ExceptionFilter, []FieldError) {
	q := r.URL.Query()
	var (
		f    domain.ExceptionFilter
		errs []FieldError
	)

	parseDate := func(field string) *domain.Date {
		v := q.Get(field)
		if v == "" {
			return nil
		}
		d, err := domain.ParseDate(v)
		if err != nil {
			errs = append(errs, FieldError{Field: field, Message: "must be YYYY-MM-DD"})
			return nil
		}
		return &d
	}
	f.DateFrom = parseDate("date_from")
	f.DateTo = parseDate("date_to")

	if v := q.Get("status"); v != "" {
		s := domain.ExceptionStatus(v)
		if !s.IsValid() {
			errs = append(errs, FieldError{Field: "status", Message: "must be pending, investigating, or resolved"})
		}
		f.Status = &s
	}
	if v := q.Get("kind"); v != "" {
		k := domain.ExceptionKind(v)
		if !k.IsValid() {
			errs = append(errs, FieldError{Field: "kind", Message: "unknown exception kind"})
		}
		f.Kind = &k
	}
	if v := q.Get("priority"); v != "" {
		p := domain.Priority(v)
		if !p.IsValid() {
			errs = append(errs, FieldError{Field: "priority", Message: "must be high, medium, or low"})
		}
		f.Priority = &p
	}
	if v := strings.TrimSpace(q.Get("assigned_to")); v != "" {
		f.AssignedTo = &v
	}
	f.IncludeSuperseded = q.Get("include_superseded") == "true"

	parseInt := func(field string) int {
		v := q.Get(field)
		if v == "" {
			return 0
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, FieldError{Field: field, Message: "must be a non-negative integer"})
			return 0
		}
		return n
	}
	f.Limit = parseInt("limit")
	f.Offset = parseInt("offset")

	return f, errs
}

// exceptionID parses the {id} path segment, answering with a validation
// error when it is not a UUID.
func exceptionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "id", Message: "must be a UUID"}})
		return uuid.Nil, false
	}
	return id, true
}

func (h *ExceptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := exceptionID(w, r)
	if !ok {
		return
	}

	e, err := h.exceptions.Get(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toExceptionDTO(e))
}

type assignRequest struct {
	AssignedTo string `json:"assigned_to"`
}

func (h *ExceptionHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := exceptionID(w, r)
	if !ok {
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if strings.TrimSpace(req.AssignedTo) == "" {
		RespondValidationError(w, []FieldError{{Field: "assigned_to", Message: "required"}})
		return
	}

	e, err := h.exceptions.Assign(r.Context(), id, req.AssignedTo)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toExceptionDTO(e))
}

type resolveRequest struct {
	Action           string  `json:"action"`
	Notes            string  `json:"notes"`
	ApprovedBy       string  `json:"approved_by"`
	AdjustmentAmount *string `json:"adjustment_amount"`
}

func (r resolveRequest) Validate() []FieldError {
	var errs []FieldError

	if r.Action == "" {
		errs = append(errs, FieldError{Field: "action", Message: "required"})
	} else if !domain.ResolutionAction(r.Action).IsValid() {
		errs = append(errs, FieldError{Field: "action", Message: "must be manual_adjustment, bank_error, system_correction, or vendor_notification"})
	}
	if strings.TrimSpace(r.Notes) == "" {
		errs = append(errs, FieldError{Field: "notes", Message: "required"})
	}
	if strings.TrimSpace(r.ApprovedBy) == "" {
		errs = append(errs, FieldError{Field: "approved_by", Message: "required"})
	}

	return errs
}

func (h *ExceptionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	id, ok := exceptionID(w, r)
	if !ok {
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	svcReq := service.ResolveRequest{
		Action:     domain.ResolutionAction(req.Action),
		Notes:      req.Notes,
		ApprovedBy: req.ApprovedBy,
	}
	if req.AdjustmentAmount != nil {
		amt, err := domain.ParseAmount(*req.AdjustmentAmount)
		if err != nil {
			RespondValidationError(w, []FieldError{{Field: "adjustment_amount", Message: "must be a decimal with at most two places"}})
			return
		}
		svcReq.AdjustmentAmount = &amt
	}

	e, err := h.exceptions.Resolve(r.Context(), id, svcReq)
	if err != nil {
		log.Warn("exception resolve failed", "exception_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toExceptionDTO(e))
}
