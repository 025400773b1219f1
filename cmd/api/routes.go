package main

import (
	"net/http"

	"github.com/josh-kwaku/evend-recon/api"
	"github.com/josh-kwaku/evend-recon/internal/app"
	"github.com/josh-kwaku/evend-recon/internal/auth"
	"github.com/josh-kwaku/evend-recon/internal/config"
	"github.com/josh-kwaku/evend-recon/internal/domain"
	"github.com/josh-kwaku/evend-recon/internal/handler"
	"github.com/josh-kwaku/evend-recon/internal/middleware"
)

func newRouter(a *app.App, cfg *config.Config) http.Handler {
	health := handler.NewHealthHandler(a.DB)
	login := handler.NewAuthHandler(auth.Credentials{
		Username:     cfg.AdminUsername,
		PasswordHash: cfg.AdminPasswordHash,
	}, cfg.JWTSecret, cfg.JWTTTL)
	recon := handler.NewReconciliationHandler(a.Reconciliation)
	exceptions := handler.NewExceptionHandler(a.Exceptions)
	statements := handler.NewStatementHandler(a.Statements)
	vendors := handler.NewVendorHandler(a.Vendors)
	rates := handler.NewFXHandler(a.FX, domain.Currency(cfg.ReconCurrency))

	protected := func(h http.HandlerFunc) http.Handler {
		return middleware.Auth(cfg.JWTSecret)(middleware.Idempotency(a.Idempotency)(h))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", health.Liveness)
	mux.HandleFunc("GET /health/ready", health.Readiness)
	mux.HandleFunc("GET /docs", handler.ServeDocs())
	mux.HandleFunc("GET /docs/openapi.yaml", handler.ServeSpec(api.OpenAPISpec))
	mux.HandleFunc("POST /api/v1/auth/login", login.Login)

	mux.Handle("POST /api/v1/reconciliations/{date}/run", protected(recon.Run))
	mux.Handle("GET /api/v1/reconciliations/{date}", protected(recon.Get))
	mux.Handle("GET /api/v1/reconciliations/{date}/adjustments", protected(recon.Adjustments))
	mux.Handle("GET /api/v1/reconciliations", protected(recon.List))
	mux.Handle("GET /api/v1/reconciliations/report", protected(recon.Report))

	mux.Handle("GET /api/v1/exceptions", protected(exceptions.List))
	mux.Handle("GET /api/v1/exceptions/{id}", protected(exceptions.Get))
	mux.Handle("POST /api/v1/exceptions/{id}/assign", protected(exceptions.Assign))
	mux.Handle("POST /api/v1/exceptions/{id}/resolve", protected(exceptions.Resolve))

	mux.Handle("POST /api/v1/statements/generate", protected(statements.Generate))
	mux.Handle("GET /api/v1/statements", protected(statements.List))
	mux.Handle("GET /api/v1/statements/{vendor_id}/{period}", protected(statements.Get))
	mux.Handle("POST /api/v1/statements/{vendor_id}/{period}/finalize", protected(statements.Finalize))
	mux.Handle("POST /api/v1/statements/{vendor_id}/{period}/send", protected(statements.Send))

	mux.Handle("GET /api/v1/vendors/{id}", protected(vendors.Get))
	mux.Handle("PATCH /api/v1/vendors/{id}/commission", protected(vendors.UpdateCommission))
	mux.Handle("GET /api/v1/vendors/{id}/commission/history", protected(vendors.CommissionHistory))

	mux.Handle("GET /api/v1/fx/rates", protected(rates.GetRates))

	return middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))
}
