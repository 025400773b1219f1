package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/evend-recon/internal/domain"
)

// Money leaves the API as fixed two-digit decimal strings, e.g. "12.50".

type summaryDTO struct {
	Date             string     `json:"date"`
	Status           string     `json:"status"`
	Currency         string     `json:"currency"`
	SystemCount      int        `json:"system_count"`
	SystemAmount     string     `json:"system_amount"`
	BankCount        int        `json:"bank_count"`
	BankAmount       string     `json:"bank_amount"`
	AdjustmentAmount string     `json:"adjustment_amount"`
	DiscrepancyCount int        `json:"discrepancy_count"`
	Variance         string     `json:"variance"`
	ProcessedBy      *string    `json:"processed_by"`
	ProcessedAt      *time.Time `json:"processed_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

func toSummaryDTO(s *domain.DailyReconciliationSummary) summaryDTO {
	dto := summaryDTO{
		Date:             s.Date.String(),
		Status:           string(s.Status),
		Currency:         string(s.Currency),
		SystemCount:      s.SystemCount,
		SystemAmount:     domain.FormatAmount(s.SystemAmount),
		BankCount:        s.BankCount,
		BankAmount:       domain.FormatAmount(s.BankAmount),
		AdjustmentAmount: domain.FormatAmount(s.AdjustmentAmount),
		DiscrepancyCount: s.DiscrepancyCount,
		Variance:         domain.FormatAmount(s.Variance),
		ProcessedBy:      s.ProcessedBy,
		ProcessedAt:      s.ProcessedAt,
	}
	if !s.UpdatedAt.IsZero() {
		dto.UpdatedAt = &s.UpdatedAt
	}
	return dto
}

type reportDTO struct {
	From                 string         `json:"from"`
	To                   string         `json:"to"`
	Currency             string         `json:"currency"`
	Days                 int            `json:"days"`
	DaysByStatus         map[string]int `json:"days_by_status"`
	SystemAmount         string         `json:"system_amount"`
	BankAmount           string         `json:"bank_amount"`
	AdjustmentAmount     string         `json:"adjustment_amount"`
	Variance             string         `json:"variance"`
	Exceptions           int            `json:"exceptions"`
	ExceptionsByStatus   map[string]int `json:"exceptions_by_status"`
	ExceptionsByKind     map[string]int `json:"exceptions_by_kind"`
	ExceptionsByPriority map[string]int `json:"exceptions_by_priority"`
}

func stringKeys[K ~string](in map[K]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[string(k)] = v
	}
	return out
}

func toReportDTO(r *domain.ReconciliationReport) reportDTO {
	return reportDTO{
		From:                 r.From.String(),
		To:                   r.To.String(),
		Currency:             string(r.Currency),
		Days:                 r.Days,
		DaysByStatus:         stringKeys(r.DaysByStatus),
		SystemAmount:         domain.FormatAmount(r.SystemAmount),
		BankAmount:           domain.FormatAmount(r.BankAmount),
		AdjustmentAmount:     domain.FormatAmount(r.AdjustmentAmount),
		Variance:             domain.FormatAmount(r.Variance),
		Exceptions:           r.Exceptions,
		ExceptionsByStatus:   stringKeys(r.ExceptionsByStatus),
		ExceptionsByKind:     stringKeys(r.ExceptionsByKind),
		ExceptionsByPriority: stringKeys(r.ExceptionsByPriority),
	}
}

type adjustmentDTO struct {
	ID          uuid.UUID `json:"id"`
	ExceptionID uuid.UUID `json:"exception_id"`
	Date        string    `json:"date"`
	Amount      string    `json:"amount"`
	ApprovedBy  string    `json:"approved_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type resolutionDTO struct {
	Action           string    `json:"action"`
	Notes            string    `json:"notes"`
	ApprovedBy       string    `json:"approved_by"`
	AdjustmentAmount *string   `json:"adjustment_amount,omitempty"`
	ResolvedAt       time.Time `json:"resolved_at"`
}

type exceptionDTO struct {
	ID           uuid.UUID      `json:"id"`
	Date         string         `json:"date"`
	Kind         string         `json:"kind"`
	SystemRef    *string        `json:"system_ref"`
	BankRef      *string        `json:"bank_ref"`
	Amount       string         `json:"amount"`
	Description  string         `json:"description"`
	Status       string         `json:"status"`
	AssignedTo   *string        `json:"assigned_to"`
	Priority     string         `json:"priority"`
	Resolution   *resolutionDTO `json:"resolution"`
	SupersededAt *time.Time     `json:"superseded_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func toExceptionDTO(e *domain.ReconciliationException) exceptionDTO {
	dto := exceptionDTO{
		ID:           e.ID,
		Date:         e.Date.String(),
		Kind:         string(e.Kind),
		SystemRef:    e.SystemRef,
		BankRef:      e.BankRef,
		Amount:       domain.FormatAmount(e.Amount),
		Description:  e.Description,
		Status:       string(e.Status),
		AssignedTo:   e.AssignedTo,
		Priority:     string(e.Priority),
		SupersededAt: e.SupersededAt,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
	if res := e.Resolution; res != nil {
		dto.Resolution = &resolutionDTO{
			Action:     string(res.Action),
			Notes:      res.Notes,
			ApprovedBy: res.ApprovedBy,
			ResolvedAt: res.ResolvedAt,
		}
		if res.AdjustmentAmount != nil {
			amt := domain.FormatAmount(*res.AdjustmentAmount)
			dto.Resolution.AdjustmentAmount = &amt
		}
	}
	return dto
}

type statementDTO struct {
	VendorID          string     `json:"vendor_id"`
	VendorName        string     `json:"vendor_name"`
	Period            string     `json:"period"`
	Currency          string     `json:"currency"`
	TotalTransactions int        `json:"total_transactions"`
	TotalAmount       string     `json:"total_amount"`
	CommissionRate    string     `json:"commission_rate"`
	Commission        string     `json:"commission"`
	NetAmount         string     `json:"net_amount"`
	Status            string     `json:"status"`
	GeneratedAt       *time.Time `json:"generated_at"`
	SentAt            *time.Time `json:"sent_at"`
	CreatedAt         time.Time  `json:"created_at"`
}

func toStatementDTO(st *domain.VendorStatement) statementDTO {
	return statementDTO{
		VendorID:          st.VendorID,
		VendorName:        st.VendorName,
		Period:            st.Period.String(),
		Currency:          string(st.Currency),
		TotalTransactions: st.TotalTransactions,
		TotalAmount:       domain.FormatAmount(st.TotalAmount),
		CommissionRate:    st.CommissionRate.String(),
		Commission:        domain.FormatAmount(st.Commission),
		NetAmount:         domain.FormatAmount(st.NetAmount),
		Status:            string(st.Status),
		GeneratedAt:       st.GeneratedAt,
		SentAt:            st.SentAt,
		CreatedAt:         st.CreatedAt,
	}
}

type vendorDTO struct {
	ID             string    `json:"id"`
	BusinessName   string    `json:"business_name"`
	Type           string    `json:"type"`
	Status         string    `json:"status"`
	CommissionRate string    `json:"commission_rate"`
	Currency       string    `json:"currency"`
	Email          string    `json:"email"`
	CreatedAt      time.Time `json:"created_at"`
}

func toVendorDTO(v *domain.Vendor) vendorDTO {
	return vendorDTO{
		ID:             v.ID,
		BusinessName:   v.BusinessName,
		Type:           string(v.Type),
		Status:         string(v.Status),
		CommissionRate: v.CommissionRate.String(),
		Currency:       string(v.Currency),
		Email:          v.Email,
		CreatedAt:      v.CreatedAt,
	}
}

type rateChangeDTO struct {
	ID        uuid.UUID `json:"id"`
	OldRate   string    `json:"old_rate"`
	NewRate   string    `json:"new_rate"`
	ChangedBy string    `json:"changed_by"`
	Reason    string    `json:"reason"`
	ChangedAt time.Time `json:"changed_at"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}
