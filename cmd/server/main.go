package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/carissacho3/pet-adoption-backend/internal/auth"
	"github.com/carissacho3/pet-adoption-backend/internal/config"
	"github.com/carissacho3/pet-adoption-backend/internal/domain"
	apphttp "github.com/carissacho3/pet-adoption-backend/internal/http"
	"github.com/carissacho3/pet-adoption-backend/internal/repository"
	"github.com/carissacho3/pet-adoption-backend/internal/repository/mongo"
	"github.com/carissacho3/pet-adoption-backend/internal/repository/sqlite"
	"github.com/carissacho3/pet-adoption-backend/internal/service"
	"github.com/carissacho3/pet-adoption-backend/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	petRepo, userRepo, closeDB, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer closeDB()

	if err := petRepo.Init(ctx); err != nil {
		logger.Fatalf("init pet repository: %v", err)
	}
	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	petService := service.NewPetService(petRepo, userRepo)
	userService := service.NewUserService(userRepo, petRepo, tokens, hasher, cfg.Users.DefaultProfilePicture)

	if cfg.Admin.Email != "" {
		admin, err := userService.EnsureAdmin(ctx, domain.Registration{
			Username:  cfg.Admin.Username,
			Email:     cfg.Admin.Email,
			Password:  cfg.Admin.Password,
			FirstName: cfg.Admin.FirstName,
			LastName:  cfg.Admin.LastName,
		})
		if err != nil {
			logger.Fatalf("ensure admin: %v", err)
		}
		logger.WithField("user", admin.ID).Infof("admin account %s ready", admin.Email)
	}

	var images storage.Service
	if cfg.Storage.Bucket != "" {
		s3Images, err := buildStorage(ctx, cfg, logger)
		if err != nil {
			logger.Fatalf("setup storage: %v", err)
		}
		images = s3Images
	} else {
		logger.Warn("storage bucket not set, pet image uploads disabled")
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	apphttp.NewHandler(apphttp.Options{
		Pets:           petService,
		Users:          userService,
		Tokens:         tokens,
		Images:         images,
		ImageKeyPrefix: cfg.Storage.KeyPrefix,
		ImageURLExpiry: cfg.Storage.URLExpiry,
		Logger:         logger,
		APIPrefix:      cfg.Server.APIPrefix,
	}).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func openRepositories(ctx context.Context, cfg config.Config, logger *logrus.Logger) (repository.PetRepository, repository.UserRepository, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		client, err := mongo.Open(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, nil, nil, err
		}
		db := client.Database(cfg.Mongo.Database)
		logger.Infof("using mongo database %s", cfg.Mongo.Database)
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				logger.Warnf("mongo disconnect: %v", err)
			}
		}
		return mongo.NewPetRepository(db), mongo.NewUserRepository(db), closeFn, nil
	default:
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Infof("using sqlite database %s", filepath.Clean(cfg.Database.Path))
		closeFn := func() {
			if err := db.Close(); err != nil {
				logger.Warnf("close sqlite: %v", err)
			}
		}
		return sqlite.NewPetRepository(db), sqlite.NewUserRepository(db), closeFn, nil
	}
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*storage.S3Service, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client, cfg.Storage.Bucket), nil
}
