package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/carissacho3/pet-adoption-backend/internal/auth"
	"github.com/carissacho3/pet-adoption-backend/internal/domain"
	"github.com/carissacho3/pet-adoption-backend/internal/service"
	"github.com/carissacho3/pet-adoption-backend/internal/storage"
)

const defaultAPIPrefix = "/api"

// Options configures a Handler. Images may be nil, in which case the image
// upload route reports the feature as unavailable.
type Options struct {
	Pets           service.PetService
	Users          service.UserService
	Tokens         *auth.TokenService
	Images         storage.Service
	ImageKeyPrefix string
	ImageURLExpiry time.Duration
	Logger         *logrus.Logger
	APIPrefix      string
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	pets        service.PetService
	users       service.UserService
	tokens      *auth.TokenService
	images      storage.Service
	imagePrefix string
	imageExpiry time.Duration
	logger      *logrus.Logger
	prefix      string
}

func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	prefix := "/" + strings.Trim(opts.APIPrefix, "/")
	if prefix == "/" {
		prefix = defaultAPIPrefix
	}
	expiry := opts.ImageURLExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	return &Handler{
		pets:        opts.Pets,
		users:       opts.Users,
		tokens:      opts.Tokens,
		images:      opts.Images,
		imagePrefix: strings.Trim(opts.ImageKeyPrefix, "/"),
		imageExpiry: expiry,
		logger:      logger,
		prefix:      prefix,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(), requestLogger(h.logger))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome"})
	})

	api := router.Group(h.prefix)
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	pets := api.Group("/pets")
	{
		pets.GET("/all", h.listPets)
		pets.GET("/type/:type", h.listPetsByType)
		pets.GET("/:id", h.getPet)
		pets.GET("/:id/image", h.getPetImage)

		admin := pets.Group("", h.authGuard(), h.requireRole(domain.RoleAdmin))
		admin.POST("/add", h.createPet)
		admin.PUT("/update/:id", h.updatePet)
		admin.DELETE("/delete/:id", h.deletePet)
		admin.POST("/:id/image", h.uploadPetImage)
	}

	users := api.Group("/users")
	{
		users.POST("/register", h.register)
		users.POST("/login", h.login)

		me := users.Group("", h.authGuard())
		me.GET("/profile", h.getProfile)
		me.PUT("/profile", h.updateProfile)
		me.DELETE("/profile", h.deleteProfile)
		me.GET("/bookmarks", h.listBookmarks)
		me.POST("/bookmarks/:petId", h.addBookmark)
		me.DELETE("/bookmarks/:petId", h.removeBookmark)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
