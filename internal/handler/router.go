package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/loan-tracker/pkg/response"
)

// NewRouter wires every endpoint under its route and wraps it in the
// middleware chain
func NewRouter(loans *LoanHandler, uploads *UploadHandler, health *HealthHandler, log logrus.FieldLogger) http.Handler {
	response.SetLogger(log)
	router := mux.NewRouter()

	// Health check
	router.HandleFunc("/health", health.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", health.Ready).Methods(http.MethodGet)

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// view must be registered before {id}
	api.HandleFunc("/loans/view", loans.ViewLoans).Methods(http.MethodGet)
	api.HandleFunc("/loans", loans.ListLoans).Methods(http.MethodGet)
	api.HandleFunc("/loans", loans.CreateLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans", loans.UpdateLoan).Methods(http.MethodPatch)
	api.HandleFunc("/loans", loans.DeleteLoan).Methods(http.MethodDelete)
	api.HandleFunc("/loans/{id}", loans.GetLoan).Methods(http.MethodGet)
	api.HandleFunc("/loans/{id}", loans.UpdateLoan).Methods(http.MethodPatch)
	api.HandleFunc("/loans/{id}", loans.DeleteLoan).Methods(http.MethodDelete)
	api.HandleFunc("/loans/{id}/toggle", loans.ToggleStatus).Methods(http.MethodPost)

	api.HandleFunc("/uploads", uploads.IssueToken).Methods(http.MethodPost)
	api.HandleFunc("/uploads/{token}", uploads.Upload).Methods(http.MethodPut)
	api.HandleFunc("/uploads/{token}/complete", uploads.Complete).Methods(http.MethodPost)

	router.Use(response.RequestIDMiddleware, response.LoggingMiddleware(log), response.RecoveryMiddleware(log))

	return response.CORSMiddleware(router)
}
