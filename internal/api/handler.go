package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"music-store/internal/apperrors"
	"music-store/internal/auth"
	"music-store/internal/models"
	"music-store/internal/service"
	"music-store/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const claimsContextKey = "claims"

// Handler contains HTTP handlers
type Handler struct {
	authService   *auth.Service
	tokens        *auth.TokenService
	catalog       *service.CatalogService
	checkout      *service.CheckoutService
	entitlement   *service.EntitlementService
	reconciler    *service.Reconciler
	webhookSecret string
	assetRoot     string
	logger        *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	authService *auth.Service,
	tokens *auth.TokenService,
	catalog *service.CatalogService,
	checkout *service.CheckoutService,
	entitlement *service.EntitlementService,
	reconciler *service.Reconciler,
	webhookSecret string,
	assetRoot string,
) *Handler {
	return &Handler{
		authService:   authService,
		tokens:        tokens,
		catalog:       catalog,
		checkout:      checkout,
		entitlement:   entitlement,
		reconciler:    reconciler,
		webhookSecret: webhookSecret,
		assetRoot:     assetRoot,
		logger:        util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.MaxMultipartMemory = 25 << 20 // 25MB uploads

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.register)
			authGroup.POST("/login", h.login)
			authGroup.GET("/me", h.requireAuth(), h.me)
		}

		music := api.Group("/music")
		{
			music.GET("", h.listCatalog)
			music.GET("/limited", h.listActiveProducts)
			music.GET("/limited/:id", h.getProduct)
			music.POST("", h.requireAuth(), h.requireAdmin(), h.createProduct)
			music.DELETE("/:id", h.requireAuth(), h.requireAdmin(), h.deleteProduct)
		}

		checkoutGroup := api.Group("/checkout")
		{
			checkoutGroup.POST("/create-session", h.requireAuth(), h.createCheckoutSession)
			checkoutGroup.POST("/complete-session", h.requireAuth(), h.completeCheckoutSession)
		}

		api.POST("/webhooks/stripe", h.stripeWebhook)

		purchases := api.Group("/purchases", h.requireAuth())
		{
			purchases.GET("", h.listPurchases)
			purchases.GET("/:productId/download", h.downloadPurchase)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// requireAuth verifies the bearer token and stores its claims in the request
// context.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
		if !found || scheme != "Bearer" || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			return
		}

		claims, err := h.tokens.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// requireAdmin requires the admin role on claims already verified by
// requireAuth. It must be registered after requireAuth in the chain.
func (h *Handler) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := currentClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			return
		}
		if claims.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Administrator access required"})
			return
		}
		c.Next()
	}
}

func currentClaims(c *gin.Context) *auth.Claims {
	value, ok := c.Get(claimsContextKey)
	if !ok {
		return nil
	}
	claims, _ := value.(*auth.Claims)
	return claims
}

// respondError maps taxonomy errors to HTTP statuses. Internal detail is
// logged server-side only.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput),
		errors.Is(err, apperrors.ErrInvalidSession):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized),
		errors.Is(err, apperrors.ErrInvalidCredentials),
		errors.Is(err, apperrors.ErrInvalidSignature),
		errors.Is(err, apperrors.ErrTokenExpired),
		errors.Is(err, apperrors.ErrTokenMalformed):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrEmailTaken),
		errors.Is(err, apperrors.ErrAlreadyPurchased),
		errors.Is(err, apperrors.ErrPaymentPending):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
