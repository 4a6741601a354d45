package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/duynhne/portfolio-service/internal/core/domain"
	logicv1 "github.com/duynhne/portfolio-service/internal/logic/v1"
	"github.com/duynhne/portfolio-service/middleware"
)

// Client-visible error messages. Details stay in the logs.
const (
	msgInternalError  = "Internal Server Error"
	msgInvalidRequest = "Invalid request"
)

// Internal error codes attached to failure logs.
const (
	codeProfileLookupFailed   = "PROFILE_LOOKUP_FAILED"
	codeUserUpdateFailed      = "USER_UPDATE_FAILED"
	codePortfolioUpdateFailed = "PORTFOLIO_UPDATE_FAILED"
)

// ProfileHandler handles HTTP requests for profiles, users and portfolios
type ProfileHandler struct {
	service *logicv1.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(service *logicv1.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		service: service,
	}
}

// RegisterRoutes mounts the API endpoints on g
func (h *ProfileHandler) RegisterRoutes(g gin.IRoutes) {
	g.POST("/getProfile", h.GetProfile)
	g.POST("/editUser", h.EditUser)
	g.POST("/editPortfolio", h.EditPortfolio)
}

// GetProfileRequest is the body of POST /api/getProfile
type GetProfileRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// GetProfile handles POST /api/getProfile.
// Success answers 201 with {"result": user, "portfolio": portfolio}.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := middleware.GetLoggerFromGinContext(c)

	var req GetProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		logger.Warn("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": sanitizeValidationError(err)})
		return
	}
	span.SetAttributes(attribute.Bool("request.valid", true), attribute.String("user.id", req.UserID))

	profile, err := h.service.GetProfile(ctx, req.UserID)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, domain.ErrInvalidID):
			c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest})
		case errors.Is(err, domain.ErrUserNotFound):
			// an unknown user is an empty lookup, not a failure
			logger.Info("Profile not found", zap.String("user_id", req.UserID))
			c.JSON(http.StatusCreated, gin.H{"result": nil, "portfolio": nil})
		default:
			logger.Error("Failed to get profile",
				zap.String("error_code", codeProfileLookupFailed),
				zap.String("user_id", req.UserID),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternalError})
		}
		return
	}

	logger.Info("Profile retrieved", zap.String("user_id", req.UserID))
	c.JSON(http.StatusCreated, gin.H{
		"result":    profile.Result,
		"portfolio": profile.Portfolio,
	})
}

// EditUser handles POST /api/editUser.
// The body is the user document including its _id.
func (h *ProfileHandler) EditUser(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := middleware.GetLoggerFromGinContext(c)

	edit, ok := bindDocument(c, logger)
	if !ok {
		span.SetAttributes(attribute.Bool("request.valid", false))
		return
	}
	span.SetAttributes(attribute.Bool("request.valid", true))

	updated, err := h.service.EditUser(ctx, edit)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, domain.ErrInvalidID):
			c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest})
		case errors.Is(err, domain.ErrUserNotFound):
			logger.Info("User not found, nothing updated")
			c.JSON(http.StatusOK, gin.H{"updatedUser": nil})
		default:
			logger.Error("Failed to update user",
				zap.String("error_code", codeUserUpdateFailed),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternalError})
		}
		return
	}

	id, _ := updated.ID()
	logger.Info("User updated", zap.String("user_id", id))
	c.JSON(http.StatusOK, gin.H{"updatedUser": updated})
}

// EditPortfolio handles POST /api/editPortfolio.
// The body is the portfolio document including its _id.
func (h *ProfileHandler) EditPortfolio(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := middleware.GetLoggerFromGinContext(c)

	edit, ok := bindDocument(c, logger)
	if !ok {
		span.SetAttributes(attribute.Bool("request.valid", false))
		return
	}
	span.SetAttributes(attribute.Bool("request.valid", true))

	updated, err := h.service.EditPortfolio(ctx, edit)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, domain.ErrInvalidID):
			c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest})
		case errors.Is(err, domain.ErrPortfolioNotFound):
			logger.Info("Portfolio not found, nothing updated")
			c.JSON(http.StatusOK, gin.H{"updatedPortfolio": nil})
		default:
			logger.Error("Failed to update portfolio",
				zap.String("error_code", codePortfolioUpdateFailed),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternalError})
		}
		return
	}

	id, _ := updated.ID()
	logger.Info("Portfolio updated", zap.String("portfolio_id", id))
	c.JSON(http.StatusOK, gin.H{"updatedPortfolio": updated})
}

// bindDocument decodes a JSON object body. On failure it writes the 400
// response and reports false.
func bindDocument(c *gin.Context, logger *zap.Logger) (domain.Document, bool) {
	var doc domain.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		logger.Warn("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": sanitizeValidationError(err)})
		return nil, false
	}
	if _, ok := doc.ID(); !ok {
		logger.Warn("Invalid request", zap.String("reason", "missing or malformed _id"))
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest})
		return nil, false
	}
	return doc, true
}
