// @title           Magazyn Dokumentów API
// @version         1.0
// @description     Hierarchical document store with share inheritance.
// @host            localhost
// @schemes         http https
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"log"
	"net/http"

	"magazyn-dokumentow/internal/api"
	"magazyn-dokumentow/internal/config"
	"magazyn-dokumentow/internal/database"
	"magazyn-dokumentow/internal/folders"
	"magazyn-dokumentow/internal/storage"
	"magazyn-dokumentow/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "magazyn-dokumentow/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

func newBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.Storage.Backend {
	case "s3":
		return storage.NewS3Storage(context.Background(), storage.S3Config{
			Bucket:    cfg.Storage.S3.Bucket,
			Region:    cfg.Storage.S3.Region,
			Endpoint:  cfg.Storage.S3.Endpoint,
			AccessKey: cfg.Storage.S3.AccessKey,
			SecretKey: cfg.Storage.S3.SecretKey,
			KeyPrefix: cfg.Storage.S3.KeyPrefix,
			PathStyle: cfg.Storage.S3.PathStyle,
		})
	case "memory":
		return storage.NewMemoryStorage(), nil
	default:
		return storage.NewLocalStorage(cfg.Storage.Path)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Nie można wczytać konfiguracji: %v", err)
	}

	dbpool, err := pgxpool.New(context.Background(), cfg.DB.Source)
	if err != nil {
		log.Fatalf("Nie można połączyć się z bazą danych: %v", err)
	}
	defer dbpool.Close()

	if err := dbpool.Ping(context.Background()); err != nil {
		log.Fatalf("Nie można pingować bazy danych: %v", err)
	}
	log.Println("Pomyślnie połączono z bazą danych")

	blobStore, err := newBlobStore(cfg)
	if err != nil {
		log.Fatalf("Nie można zainicjować magazynu plików: %v", err)
	}
	log.Printf("Magazyn plików: %s", cfg.Storage.Backend)

	wsHub := websocket.NewHub()
	go wsHub.Run()

	store := database.NewStore(dbpool)

	manager, err := folders.NewManager(store, blobStore)
	if err != nil {
		log.Fatalf("Nie można zainicjować menedżera folderów: %v", err)
	}

	server := api.NewServer(cfg, store, blobStore, manager, wsHub)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-None-Match"},
		ExposedHeaders:   []string{"Content-Disposition", "ETag"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(api.MetricsMiddleware)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("https://localhost/swagger/doc.json"),
	))

	r.Get("/ws", server.ServeWsHandler)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Magazyn dokumentów działa! Dokumentacja dostępna pod /swagger/index.html"))
	})

	r.Post("/api/v1/auth/login", server.LoginHandler)

	r.Get("/health", server.HealthCheckHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(server.AuthMiddleware)
		r.Get("/me", server.GetCurrentUserHandler)
		r.Get("/nodes", server.ListNodesHandler)
		r.Get("/nodes/tree", server.ListTreeHandler)
		r.Post("/nodes/folder", server.CreateFolderHandler)
		r.Post("/nodes/file", server.UploadFileHandler)
		r.Get("/nodes/archive", server.DownloadArchiveHandler)
		r.Get("/nodes/{nodeId}", server.NodeInfoHandler)
		r.Patch("/nodes/{nodeId}", server.UpdateNodeHandler)
		r.Delete("/nodes/{nodeId}", server.TrashNodeHandler)
		r.Post("/nodes/{nodeId}/restore", server.RestoreNodeHandler)
		r.Delete("/nodes/{nodeId}/purge", server.PurgeNodeHandler)
		r.Post("/nodes/{nodeId}/copy", server.CopyNodeHandler)
		r.Post("/nodes/{nodeId}/share", server.ShareNodeHandler)
		r.Get("/nodes/{nodeId}/download", server.DownloadNodeHandler)
		r.Get("/events", server.GetEventsHandler)
	})

	log.Printf("Uruchamianie serwera na %s", cfg.AppHost)
	if err := http.ListenAndServe(cfg.AppHost, r); err != nil {
		log.Fatalf("Nie można uruchomić serwera: %v", err)
	}
}
