package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"property-portal/internal/config"
	"property-portal/internal/handler"
	"property-portal/internal/media"
	"property-portal/internal/middleware"
	"property-portal/internal/model"
	"property-portal/internal/mongo"
	"property-portal/internal/service"
	"property-portal/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

var bootstrapAdmin string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API on PORT.

With STORE=memory nothing is persisted. Use --bootstrap-admin to register a
super admin for the given identity provider subject so the API can be used.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&bootstrapAdmin, "bootstrap-admin", "", "Auth subject registered as super admin at startup (memory store only)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := telemetry.Init(ctx, cfg.OTelEnabled, serviceName); err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		telemetry.Shutdown(sctx)
	}()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if bootstrapAdmin != "" {
		if cfg.Store != config.StoreMemory {
			return errors.New("--bootstrap-admin is only allowed with the memory store, use `portal user create`")
		}
		_, err := service.NewAccountService(st.Users, st.Agencies).CreateUser(ctx, service.NewUser{
			AuthID: bootstrapAdmin,
			Email:  "admin@localhost",
			Name:   "Bootstrap admin",
			Role:   model.RoleSuperAdmin,
		})
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	uploads, files, closeMedia, err := openMedia(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeMedia()

	listings := telemetry.WrapListings(st.Listings, cfg.OTelEnabled)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(handler.Deps{
		Listings:       service.NewListingService(listings, st.Floors, uploads, logger),
		Metrics:        service.NewMetricsService(listings, st.Users, st.Agencies),
		Auth:           middleware.NewAuth(cfg.JWTSecret, cfg.JWTAlg, st.Users),
		Files:          files,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         logger,
		Ping:           st.ping,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", srv.Addr),
			slog.String("store", cfg.Store), slog.String("media", cfg.MediaBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openMedia returns the upload store and, for GridFS, the reader used by
// GET /api/media/:id. Both are nil when media is disabled.
func openMedia(ctx context.Context, c *config.Config) (media.Store, media.Opener, func(), error) {
	noop := func() {}
	switch c.MediaBackend {
	case config.MediaGridFS:
		client, err := mongo.NewMongoClient(ctx, c.MongoURI)
		if err != nil {
			return nil, nil, noop, err
		}
		g := media.NewGridFS(client, c.MongoDB, c.PublicBaseURL)
		return g, g, disconnect(client), nil
	case config.MediaS3:
		s, err := media.NewS3(ctx, c.S3Bucket, c.S3Region, c.S3BaseURL)
		if err != nil {
			return nil, nil, noop, err
		}
		return s, nil, noop, nil
	default:
		return nil, nil, noop, nil
	}
}

func disconnect(client *mongodriver.Client) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}
}
