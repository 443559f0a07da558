package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pesalink/loan-service/internal/config"
	"github.com/pesalink/loan-service/internal/handler"
	"github.com/pesalink/loan-service/internal/integrations/mno"
	"github.com/pesalink/loan-service/internal/middleware"
	"github.com/pesalink/loan-service/internal/repository"
	"github.com/pesalink/loan-service/internal/service"
	"github.com/pesalink/loan-service/internal/utils/email"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	godotenv.Load()
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db, time.Duration(cfg.TxTimeoutSeconds)*time.Second)
	sender := email.NewSender(cfg, logger)
	gateway := mno.NewClient(cfg, logger)
	svc := service.NewService(service.NewStore(repo), logger, cfg, sender, gateway)
	h := handler.NewHandler(svc)

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/loans", h.CreateLoan).Methods("POST")
	authRouter.HandleFunc("/loans", h.ListLoans).Methods("GET")
	authRouter.HandleFunc("/loans/export", h.ExportLoans).Methods("GET")
	authRouter.HandleFunc("/loans/stats", h.LoanStats).Methods("GET")
	authRouter.HandleFunc("/loans/{loanId}", h.GetLoan).Methods("GET")
	authRouter.HandleFunc("/loans/{loanId}/approve", h.ApproveLoan).Methods("POST")
	authRouter.HandleFunc("/loans/{loanId}/reject", h.RejectLoan).Methods("POST")
	authRouter.HandleFunc("/loans/{loanId}/disburse", h.DisburseLoan).Methods("POST")
	authRouter.HandleFunc("/transactions/repayment", h.RecordRepayment).Methods("POST")
	authRouter.HandleFunc("/transactions/{reference}/reconcile", h.ReconcileTransaction).Methods("POST")
	authRouter.HandleFunc("/users/{userId}", h.GetUser).Methods("GET")
	authRouter.HandleFunc("/users/{userId}/score-history", h.ScoreHistory).Methods("GET")
	authRouter.HandleFunc("/users/{userId}/score", h.AdjustScore).Methods("POST")
	authRouter.HandleFunc("/tickets", h.OpenTicket).Methods("POST")
	authRouter.HandleFunc("/tickets", h.ListTickets).Methods("GET")
	authRouter.HandleFunc("/tickets/{id}/close", h.CloseTicket).Methods("POST")

	// Background jobs: overdue sweep and gateway poll
	scheduler := cron.New()
	scheduler.AddFunc("@hourly", func() {
		if err := svc.SweepOverdueLoans(context.Background()); err != nil {
			logger.Errorf("Overdue sweep failed: %v", err)
		}
	})
	scheduler.AddFunc("@every 5m", func() {
		if err := svc.PollPendingTransactions(context.Background()); err != nil {
			logger.Errorf("Gateway poll failed: %v", err)
		}
	})
	scheduler.Start()
	defer scheduler.Stop()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
