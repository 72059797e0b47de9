package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/just-ease/justease-api/internal/application/attachment"
	"github.com/just-ease/justease-api/internal/application/caseintake"
	"github.com/just-ease/justease-api/internal/application/session"
	"github.com/just-ease/justease-api/internal/application/user"
	"github.com/just-ease/justease-api/internal/application/verification"
	"github.com/just-ease/justease-api/internal/config"
	"github.com/just-ease/justease-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/just-ease/justease-api/internal/infrastructure/jwt"
	s3infra "github.com/just-ease/justease-api/internal/infrastructure/s3"
	"github.com/just-ease/justease-api/internal/infrastructure/smtp"
	"github.com/just-ease/justease-api/internal/infrastructure/sns"
	transport "github.com/just-ease/justease-api/internal/transport/http"
	"github.com/just-ease/justease-api/internal/transport/http/handler"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, relying on environment")
	}
	cfg := config.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx := context.Background()

	dynamoClient := dynamo.NewClient(cfg)
	if cfg.AppEnv == "development" {
		dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)
	}

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		slog.Error("failed to load JWT keys", "err", err)
		os.Exit(1)
	}

	s3Client := s3infra.NewClient(cfg)
	objectStore := s3infra.NewStore(s3Client, cfg.S3BucketName)
	mailer := smtp.NewMailer(cfg)

	smsSender, err := sns.NewSender(cfg)
	if err != nil {
		slog.Warn("SNS unavailable, SMS notifications disabled", "err", err)
		smsSender = nil
	}

	userRepo := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)
	otpRepo := dynamo.NewOTPRepo(dynamoClient, cfg.DynamoTables.EmailOTPs)
	sessionRepo := dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions)
	caseRepo := dynamo.NewCaseRepo(dynamoClient, cfg.DynamoTables.Cases)
	attachmentRepo := dynamo.NewAttachmentRepo(dynamoClient, cfg.DynamoTables.Attachments)

	verificationSvc := verification.NewService(verification.ServiceDeps{
		OTPRepo:  otpRepo,
		UserRepo: userRepo,
		Mailer:   mailer,
		OTPTTL:   cfg.OTPTTL,
	})
	userSvc := user.NewService(userRepo, otpRepo)
	sessionSvc := session.NewService(session.ServiceDeps{
		UserRepo:        userRepo,
		SessionRepo:     sessionRepo,
		JWTProvider:     jwtProvider,
		RefreshTokenDur: cfg.RefreshTokenDur,
	})
	caseSvc := caseintake.NewService(caseRepo, smsSender)
	attachmentSvc := attachment.NewService(objectStore, attachmentRepo, caseRepo)

	router := transport.NewRouter(transport.Deps{
		Config:       cfg,
		JWTProvider:  jwtProvider,
		Health:       handler.NewHealthHandler(),
		Verification: handler.NewVerificationHandler(verificationSvc),
		Users:        handler.NewUserHandler(userSvc),
		Sessions:     handler.NewSessionHandler(sessionSvc),
		Cases:        handler.NewCaseHandler(caseSvc),
		Attachments:  handler.NewAttachmentHandler(attachmentSvc),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
	}
	slog.Info("server stopped")
}
