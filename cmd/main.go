package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"taka-billing/internal/billing"
	"taka-billing/internal/clients"
	"taka-billing/internal/config"
	"taka-billing/internal/mpesa"
	"taka-billing/internal/repository"
	"taka-billing/internal/service"
	"taka-billing/internal/transport/auth"
	"taka-billing/internal/transport/rest"
	"taka-billing/internal/transport/websocket"
	"taka-billing/pkg/database/postgres"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system env or defaults")
	}

	// top-level context which we can cancel on shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := config.Load()

	db := mustInitPostgres(cfg.Postgres)
	defer postgres.Close(db)

	if err := repository.Migrate(db); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	redisClient := mustInitRedis(cfg.Redis)
	defer redisClient.Close()

	storageClient, localStorage := mustInitStorage(ctx, cfg)

	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)
	wsClient := clients.NewWebSocketClient(wsHub)

	store := repository.NewStore(db)
	ledger := repository.NewLedger(store)

	smsClient := clients.NewSMSClient(clients.SMSConfig{
		URL:      cfg.SMS.URL,
		APIKey:   cfg.SMS.APIKey,
		SenderID: cfg.SMS.SenderID,
	})
	if smsClient == nil {
		log.Println("[SETTLE] sms gateway not configured, notifications disabled")
	}

	engine := billing.NewEngine(ledger, smsClient, cfg.CountryCode, cfg.Currency)

	poller := mpesa.NewPoller(ledger, engine, cfg.Mpesa.PollInterval, cfg.Mpesa.BatchSize, cfg.CountryCode)
	go poller.Run(ctx)

	customerSvc := service.NewCustomerService(store, cfg.CountryCode)
	settlementSvc := service.NewSettlementService(store, engine, wsClient)
	receiptSvc := service.NewReceiptService(store.Receipts, redisClient, storageClient, wsClient)
	customerExportSvc := service.NewCustomerExportService(store.Customers, redisClient, storageClient, wsClient)
	exportSvc := service.NewExportService(redisClient)

	tokenMiddleware := auth.TokenMiddleware(store.Tokens)

	handler := rest.NewHandler(customerSvc, settlementSvc, receiptSvc, customerExportSvc, exportSvc)
	router := handler.InitRouterWithAuth(tokenMiddleware)

	// public root router: /files stays open so export links work without a
	// bearer token, everything else mounts underneath
	root := chi.NewRouter()

	if localStorage != nil {
		root.Get("/files/{file}", func(w http.ResponseWriter, r *http.Request) {
			file := chi.URLParam(r, "file")
			path := filepath.Join(localStorage.BaseDir, file)
			if _, err := os.Stat(path); err != nil {
				if os.IsNotExist(err) {
					http.NotFound(w, r)
					return
				}
				http.Error(w, "failed to access file", http.StatusInternalServerError)
				return
			}

			// prefer original filename in Content-Disposition (strip random prefix)
			orig := file
			if idx := strings.IndexByte(file, '_'); idx >= 0 {
				orig = file[idx+1:]
			}
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", orig))

			http.ServeFile(w, r, path)
		})
	}

	// websocket endpoint authenticates via ?token= since browsers cannot set
	// headers on upgrade requests
	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		userID, err := auth.GetUserID(r.Context())
		if err != nil {
			token := r.URL.Query().Get("token")
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			apiToken, err := store.Tokens.FindByPlainToken(r.Context(), token)
			if err != nil || apiToken == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			userID = apiToken.UserID
		}

		log.Printf("[WS] connected: user_id=%d", userID)
		wsHub.HandleWebSocket(w, r, userID)
	})

	root.Mount("/", router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      withCORS(root),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on :%s\n", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			srvErr <- err
			return
		}
		srvErr <- nil
	}()

	// delete old export files so the disk does not fill up
	if localStorage != nil {
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := localStorage.CleanupOlderThan(30 * time.Minute); err != nil {
						log.Printf("storage cleanup error: %v", err)
					}
				}
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-srvErr:
		if err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	case sig := <-stop:
		log.Printf("Shutdown signal received: %v", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server Shutdown error: %v", err)
		}

		// stop the websocket hub and the mpesa poller
		cancel()

		log.Println("Shutdown complete")
	}
}

func mustInitPostgres(cfg config.PostgresConfig) *sql.DB {
	db, err := postgres.NewPostgresConnection(postgres.ConnectionInfo{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.User,
		DBName:   cfg.DBName,
		SSLMode:  cfg.SSLMode,
		Password: cfg.Password,
	})
	if err != nil {
		log.Fatalf("postgres init error: %v", err)
	}
	return db
}

func mustInitRedis(cfg config.RedisConfig) *clients.RedisClient {
	client, err := clients.NewRedisClient(clients.RedisConfig{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: time.Duration(cfg.DialTimeout) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		Prefix:      cfg.Prefix,
	})
	if err != nil {
		log.Fatalf("redis init error: %v", err)
	}
	return client
}

// mustInitStorage picks the export destination. The local client is returned
// separately because /files serving and cleanup only apply to it.
func mustInitStorage(ctx context.Context, cfg config.AppConfig) (service.ExportStorage, *clients.StorageClient) {
	if cfg.ExportStorage == "s3" {
		s3Client, err := clients.NewS3Client(ctx, clients.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			UseSSL:          cfg.S3.UseSSL,
			Prefix:          cfg.S3.Prefix,
		})
		if err != nil {
			log.Fatalf("s3 init error: %v", err)
		}
		return s3Client, nil
	}

	localClient, err := clients.NewLocalStorage(cfg.ExportDir, cfg.FilesPublicPrefix, cfg.ExternalURL)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}
	return localClient, localClient
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")

			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
