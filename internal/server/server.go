package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"ebuspay/internal/config"
	"ebuspay/internal/gateway"
	"ebuspay/internal/handler"
	"ebuspay/internal/repository"
	"ebuspay/internal/service"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
)

// Server wires the ledger store, gateway client, services and HTTP surface.
type Server struct {
	router *mux.Router
	server *http.Server
	db     *sql.DB
	logger *slog.Logger
	port   string
}

func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sql.Open("postgres", cfg.GetDBConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Connected to database", "host", cfg.DB.Host, "name", cfg.DB.Name)

	minimumCharge, err := cfg.Payments.MinimumChargeAmount()
	if err != nil {
		db.Close()
		return nil, err
	}
	tolerance, err := cfg.Payments.Tolerance()
	if err != nil {
		db.Close()
		return nil, err
	}

	store := repository.NewStore(db, logger)
	paystack := gateway.NewPaystackClient(cfg.Paystack, logger)

	accountService := service.NewAccountService(store, logger)
	reconciliation := service.NewReconciliationService(store, paystack, minimumCharge, tolerance, logger)

	accountHandler := handler.NewAccountHandler(accountService)
	paymentHandler := handler.NewPaymentHandler(reconciliation, accountService)
	webhookHandler := handler.NewWebhookHandler(reconciliation, cfg.Paystack.SecretKey, logger)

	router := mux.NewRouter()
	router.Use(loggingMiddleware(logger))

	router.HandleFunc("/accounts", accountHandler.CreateAccount).Methods("POST")
	router.HandleFunc("/accounts/{account_id}", accountHandler.DeactivateAccount).Methods("DELETE")
	router.HandleFunc("/accounts/{account_id}/balance", accountHandler.GetBalance).Methods("GET")
	router.HandleFunc("/accounts/{account_id}/transactions", accountHandler.ListTransactions).Methods("GET")

	router.HandleFunc("/payments/initialize", paymentHandler.Initialize).Methods("POST")
	router.HandleFunc("/payments/verify", paymentHandler.Verify).Methods("POST")
	router.HandleFunc("/payments/debit", paymentHandler.Debit).Methods("POST")
	router.HandleFunc("/payments/webhook", webhookHandler.HandleEvent).Methods("POST")

	router.HandleFunc("/transfers", paymentHandler.Transfer).Methods("POST")

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": "database unavailable"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}).Methods("GET")

	return &Server{
		router: router,
		db:     db,
		logger: logger,
	}, nil
}

func loggingMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"duration", time.Since(start),
			)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start listens on the given port ("0" picks a free one) and serves in the
// background.
func (s *Server) Start(port string) (string, error) {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return "", err
	}

	addr := listener.Addr().(*net.TCPAddr)
	s.port = strconv.Itoa(addr.Port)

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server", "port", s.port)

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Server failed", "error", err)
		}
	}()

	return s.port, nil
}

// Stop gracefully shuts down the server and closes the database.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	if s.db != nil {
		s.db.Close()
	}

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) GetPort() string {
	return s.port
}

func (s *Server) GetBaseURL() string {
	return "http://localhost:" + s.port
}

// StartServer builds and starts a server from configuration.
func StartServer(cfg *config.Config) (*Server, string, error) {
	var logger *slog.Logger
	if cfg.ServerPort == "0" {
		// Test environment, keep output quiet.
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	server, err := NewServer(cfg, logger)
	if err != nil {
		return nil, "", err
	}

	port, err := server.Start(cfg.ServerPort)
	if err != nil {
		return nil, "", err
	}

	return server, port, nil
}
