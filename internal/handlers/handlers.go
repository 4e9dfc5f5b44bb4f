package handlers

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/example/artifact-scout/internal/auth"
	"github.com/example/artifact-scout/internal/domain"
	"github.com/example/artifact-scout/internal/imageprocessor"
	"github.com/example/artifact-scout/internal/usecase"
)

// MaxUploadSize bounds the image part of a multipart upload.
const MaxUploadSize = domain.MaxImageSize

// maxRequestBody leaves room for the multipart envelope and form fields.
const maxRequestBody = MaxUploadSize + 1<<20

const (
	msgContactFailed = "An error occurred while submitting your contact request. Please try again."
	msgReviewFailed  = "An error occurred while submitting your review request. Please try again."
)

// Analyzer runs the classification pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, req usecase.AnalysisRequest) domain.Outcome
}

// Submissions acknowledges contact and review requests.
type Submissions interface {
	SubmitContact(ctx context.Context, req usecase.ContactRequest) usecase.Acknowledgement
	SubmitReview(ctx context.Context, req usecase.ReviewRequest) usecase.Acknowledgement
}

// Dependencies are the collaborators behind the HTTP routes.
type Dependencies struct {
	Analyzer    Analyzer
	Submissions Submissions
	Processor   imageprocessor.Client
	Logger      *zap.Logger
}

// RegisterRoutes wires the HTTP handlers to the Gin router. authMiddleware
// guards the /api group; pass nil to leave it open.
func RegisterRoutes(router *gin.Engine, deps Dependencies, authMiddleware gin.HandlerFunc) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{deps: deps, logger: logger.Named("http")}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	if authMiddleware != nil {
		api.Use(authMiddleware)
	}
	api.POST("/analyze-image", h.analyzeImage)
	api.POST("/contact-team", h.contactTeam)
	api.POST("/submit-review", h.submitReview)
	api.POST("/enhance-image", h.enhanceImage)
}

type handler struct {
	deps   Dependencies
	logger *zap.Logger
}

// analyzeImage always answers 200; the outcome is carried in the body.
func (h *handler) analyzeImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBody)

	req := usecase.AnalysisRequest{}
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusOK, domain.NewResponse(domain.InvalidInput(usecase.MsgFileTooLarge)))
			return
		}
		h.requestLogger(c).Info("unreadable multipart form", zap.Error(err))
	} else {
		req.Location = firstValue(form.Value["location"])
		req.Threshold = firstValue(form.Value["confidenceThreshold"])
		if files := form.File["image"]; len(files) > 0 {
			data, mimeType, err := readImage(files[0])
			if err != nil {
				h.requestLogger(c).Error("failed to read image part", zap.Error(err))
				c.JSON(http.StatusOK, domain.NewResponse(domain.UnexpectedError(err)))
				return
			}
			req.Image = data
			req.MIMEType = mimeType
		}
	}

	outcome := h.deps.Analyzer.Analyze(c.Request.Context(), req)
	c.JSON(http.StatusOK, domain.NewResponse(outcome))
}

func (h *handler) contactTeam(c *gin.Context) {
	var req usecase.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, h.bindFailure(c, err, msgContactFailed))
		return
	}
	c.JSON(http.StatusOK, h.deps.Submissions.SubmitContact(c.Request.Context(), req))
}

func (h *handler) submitReview(c *gin.Context) {
	var req usecase.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, h.bindFailure(c, err, msgReviewFailed))
		return
	}
	c.JSON(http.StatusOK, h.deps.Submissions.SubmitReview(c.Request.Context(), req))
}

func (h *handler) bindFailure(c *gin.Context, err error, fallback string) usecase.Acknowledgement {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return usecase.Acknowledgement{Success: false, Message: usecase.MsgMissingSubmissionFields}
	}
	h.requestLogger(c).Warn("undecodable submission", zap.Error(err))
	return usecase.Acknowledgement{Success: false, Message: fallback}
}

func (h *handler) enhanceImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBody)

	file, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": usecase.MsgFileTooLarge})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	if file.Size > MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": usecase.MsgFileTooLarge})
		return
	}

	data, mimeType, err := readImage(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to open image"})
		return
	}
	if !domain.IsSupportedMIMEType(mimeType) {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported image type"})
		return
	}

	ctx := c.Request.Context()
	compressed, err := h.deps.Processor.Compress(ctx, data)
	if err == nil {
		data, err = h.deps.Processor.Enhance(ctx, compressed)
	}
	if err != nil {
		if errors.Is(err, imageprocessor.ErrUndecodable) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unable to decode image"})
			return
		}
		h.requestLogger(c).Error("image enhancement failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "image enhancement failed"})
		return
	}

	c.Data(http.StatusOK, "image/jpeg", data)
}

func (h *handler) requestLogger(c *gin.Context) *zap.Logger {
	logger := h.logger.With(zap.String("path", c.FullPath()))
	if userID, ok := auth.GetUserID(c.Request.Context()); ok {
		logger = logger.With(zap.String("user_id", userID))
	}
	return logger
}

// readImage returns the part's bytes and media type. A missing or generic
// Content-Type is replaced by one sniffed from the content.
func readImage(file *multipart.FileHeader) ([]byte, string, error) {
	src, err := file.Open()
	if err != nil {
		return nil, "", err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, "", err
	}

	mimeType := file.Header.Get("Content-Type")
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = parsed
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mimetype.Detect(data).String()
		if i := strings.IndexByte(mimeType, ';'); i >= 0 {
			mimeType = mimeType[:i]
		}
	}
	return data, mimeType, nil
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
