package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gorilla/mux"
	"github.com/payportal/payportal/internal/clock"
	"github.com/payportal/payportal/internal/config"
	"github.com/payportal/payportal/internal/handlers"
	"github.com/payportal/payportal/internal/middleware"
	"github.com/payportal/payportal/internal/notifier"
	"github.com/payportal/payportal/internal/repository"
	"github.com/payportal/payportal/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	clk := clock.System()

	credentialStore, err := initCredentialStore(cfg, clk, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize credential store")
	}

	transactionStore, err := initTransactionStore(cfg, clk, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize transaction store")
	}

	codeNotifier := initNotifier(cfg, logger)

	verificationService := service.NewVerificationService(
		credentialStore,
		transactionStore,
		codeNotifier,
		cfg.Code.Length,
		logger,
	)
	approvalService := service.NewApprovalService(transactionStore, logger)

	paymentHandlers := handlers.NewPaymentHandlers(verificationService, approvalService, transactionStore, logger)
	adminHandlers := handlers.NewAdminHandlers(approvalService, logger)

	router := setupRouter(paymentHandlers, adminHandlers, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func initCredentialStore(cfg *config.Config, clk clock.Clock, logger *logrus.Logger) (repository.CredentialStore, error) {
	switch cfg.Store.CredentialBackend {
	case "memory":
		return repository.NewMemoryCredentialStore(cfg.Code.TTL, cfg.Code.MaxAttempts, clk, logger), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Endpoint,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logger.Info("Redis credential store initialized")
		return repository.NewRedisCredentialStore(client, cfg.Code.TTL, cfg.Code.MaxAttempts, clk, logger), nil
	default:
		return nil, fmt.Errorf("unknown credential store backend: %s", cfg.Store.CredentialBackend)
	}
}

func initTransactionStore(cfg *config.Config, clk clock.Clock, logger *logrus.Logger) (repository.TransactionStore, error) {
	switch cfg.Store.TransactionBackend {
	case "memory":
		return repository.NewMemoryTransactionStore(cfg.Code.IDPrefix, clk, logger), nil
	case "dynamo":
		client, err := initDynamoDB(cfg, logger)
		if err != nil {
			return nil, err
		}
		return repository.NewDynamoTransactionStore(client, cfg.DynamoDB.TableName, cfg.Code.IDPrefix, clk, logger), nil
	default:
		return nil, fmt.Errorf("unknown transaction store backend: %s", cfg.Store.TransactionBackend)
	}
}

func initNotifier(cfg *config.Config, logger *logrus.Logger) notifier.Notifier {
	if config.NotifierMode() == "smtp" {
		logger.WithField("host", cfg.SMTP.Host).Info("SMTP notifier initialized")
		return notifier.NewSMTPNotifier(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.User,
			cfg.SMTP.Password,
			cfg.SMTP.From,
			cfg.SMTP.FromName,
			cfg.Code.TTL,
			cfg.SMTP.Timeout,
			logger,
		)
	}
	logger.Warn("Using log notifier, codes will be written to the log")
	return notifier.NewLogNotifier(logger)
}

func initDynamoDB(cfg *config.Config, logger *logrus.Logger) (*dynamodb.Client, error) {
	var awsCfg aws.Config
	var err error

	if cfg.DynamoDB.Endpoint != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(cfg.DynamoDB.Region),
			awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
				func(service, region string, options ...interface{}) (aws.Endpoint, error) {
					return aws.Endpoint{
						URL:           cfg.DynamoDB.Endpoint,
						SigningRegion: cfg.DynamoDB.Region,
					}, nil
				})),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO())
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg)
	logger.Info("DynamoDB client initialized")
	return client, nil
}

func setupRouter(
	paymentHandlers *handlers.PaymentHandlers,
	adminHandlers *handlers.AdminHandlers,
	logger *logrus.Logger,
) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.LoggingMiddleware(logger))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET", "OPTIONS")

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/transactions", paymentHandlers.CreateTransaction).Methods("POST", "OPTIONS")
	api.HandleFunc("/transactions/{id}", paymentHandlers.GetTransaction).Methods("GET", "OPTIONS")
	api.HandleFunc("/verify-code", paymentHandlers.VerifyCode).Methods("POST", "OPTIONS")
	api.HandleFunc("/resend-code", paymentHandlers.ResendCode).Methods("POST", "OPTIONS")
	api.HandleFunc("/check-approval", paymentHandlers.CheckApproval).Methods("POST", "OPTIONS")

	// Admin routes; authorization is expected to be enforced upstream
	// (reverse proxy or gateway), the approver arrives pre-trusted.
	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/transactions", adminHandlers.ListTransactions).Methods("GET", "OPTIONS")
	admin.HandleFunc("/verify", adminHandlers.ManualVerify).Methods("POST", "OPTIONS")
	admin.HandleFunc("/approve", adminHandlers.Approve).Methods("POST", "OPTIONS")
	admin.HandleFunc("/reject", adminHandlers.Reject).Methods("POST", "OPTIONS")

	return router
}
