package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/bmorrisey/rotaledger/internal/backup"
	"github.com/bmorrisey/rotaledger/internal/config"
	"github.com/bmorrisey/rotaledger/internal/handler"
	"github.com/bmorrisey/rotaledger/internal/history"
	"github.com/bmorrisey/rotaledger/internal/ledger"
	"github.com/bmorrisey/rotaledger/internal/middleware"
	"github.com/bmorrisey/rotaledger/internal/rotation"
	"github.com/bmorrisey/rotaledger/internal/store"
	ws "github.com/bmorrisey/rotaledger/internal/websocket"
)

type Server struct {
	db         *sql.DB
	hub        *ws.Hub
	userH      *handler.UserHandler
	choreH     *handler.ChoreHandler
	itemH      *handler.ItemHandler
	historyH   *handler.HistoryHandler
	analyticsH *handler.AnalyticsHandler
	backupH    *handler.BackupHandler
	backups    *backup.Manager
	logger     *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	choreStore := store.NewChoreStore(db)
	itemStore := store.NewItemStore(db)

	resolver := rotation.GlobalOrder{}
	recorder := ledger.NewRecorder(db, userStore, choreStore, itemStore, resolver, logger.With("component", "ledger"))
	historySvc := history.NewService(db)

	backups := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		},
		DBPath:        cfg.DBPath,
		Passphrase:    cfg.BackupPassphrase,
		Interval:      time.Duration(cfg.BackupIntervalHours) * time.Hour,
		RetentionDays: cfg.BackupRetentionDays,
	}, db, logger.With("component", "backup"))

	return &Server{
		db:         db,
		hub:        hub,
		userH:      handler.NewUserHandler(userStore, hub, logger.With("component", "user")),
		choreH:     handler.NewChoreHandler(choreStore, userStore, recorder, resolver, hub, logger.With("component", "chore")),
		itemH:      handler.NewItemHandler(itemStore, userStore, recorder, resolver, hub, logger.With("component", "item")),
		historyH:   handler.NewHistoryHandler(historySvc, logger.With("component", "history")),
		analyticsH: handler.NewAnalyticsHandler(historySvc, cfg.CurrencyCode, logger.With("component", "analytics")),
		backupH:    handler.NewBackupHandler(backups, logger.With("component", "backup")),
		backups:    backups,
		logger:     logger,
	}
}

// Backups exposes the snapshot manager so main can run its schedule
// alongside the HTTP server.
func (s *Server) Backups() *backup.Manager {
	return s.backups
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	mux.HandleFunc("POST /api/users", s.userH.Create)
	mux.HandleFunc("GET /api/users", s.userH.List)
	mux.HandleFunc("GET /api/users/{id}", s.userH.Get)
	mux.HandleFunc("PUT /api/users/{id}", s.userH.Update)
	mux.HandleFunc("PUT /api/users/{id}/active", s.userH.SetActive)
	mux.HandleFunc("DELETE /api/users/{id}", s.userH.Delete)

	mux.HandleFunc("POST /api/chores", s.choreH.Create)
	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.HandleFunc("GET /api/chores/{id}", s.choreH.Get)
	mux.HandleFunc("PUT /api/chores/{id}", s.choreH.Update)
	mux.HandleFunc("DELETE /api/chores/{id}", s.choreH.Delete)
	mux.HandleFunc("POST /api/chores/{id}/complete", s.choreH.Complete)

	mux.HandleFunc("POST /api/items", s.itemH.Create)
	mux.HandleFunc("GET /api/items", s.itemH.List)
	mux.HandleFunc("GET /api/items/{id}", s.itemH.Get)
	mux.HandleFunc("PUT /api/items/{id}", s.itemH.Update)
	mux.HandleFunc("DELETE /api/items/{id}", s.itemH.Delete)
	mux.HandleFunc("POST /api/items/{id}/purchase", s.itemH.Purchase)

	mux.HandleFunc("GET /api/history/completions", s.historyH.Completions)
	mux.HandleFunc("GET /api/history/purchases", s.historyH.Purchases)
	mux.HandleFunc("GET /api/analytics/summary", s.analyticsH.Summary)

	mux.HandleFunc("GET /api/backups", s.backupH.List)
	mux.HandleFunc("POST /api/backups", s.backupH.Run)
	mux.HandleFunc("GET /api/backups/status", s.backupH.Status)
	mux.HandleFunc("GET /api/backups/{key...}", s.backupH.Download)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
