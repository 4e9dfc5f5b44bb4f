package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/artifact-scout/internal/logging"
)

// MsgMissingSubmissionFields is returned when a required submission field is empty.
const MsgMissingSubmissionFields = "Missing required fields."

// ContactRequest asks a matched team to get in touch.
type ContactRequest struct {
	Name             string  `json:"name" binding:"required"`
	Email            string  `json:"email" binding:"required"`
	Comments         string  `json:"comments"`
	TeamName         string  `json:"teamName" binding:"required"`
	ObjectType       string  `json:"objectType"`
	ObjectConfidence float64 `json:"objectConfidence"`
}

// ReviewRequest asks for a manual review after a 5.5 warning.
type ReviewRequest struct {
	Name           string  `json:"name" binding:"required"`
	Email          string  `json:"email" binding:"required"`
	Location       string  `json:"location" binding:"required"`
	ObjectDetected string  `json:"objectDetected" binding:"required"`
	Confidence     float64 `json:"confidence"`
	Timestamp      string  `json:"timestamp"`
}

// Acknowledgement is the reply to a submission.
type Acknowledgement struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SubmissionUseCase acknowledges contact and review requests. Delivery to the
// teams happens outside this service; requests are only logged.
type SubmissionUseCase struct {
	logger *zap.Logger
}

// NewSubmissionUseCase constructs a new use case instance.
func NewSubmissionUseCase(logger *zap.Logger) *SubmissionUseCase {
	return &SubmissionUseCase{logger: logger.Named("submission_usecase")}
}

// SubmitContact acknowledges a contact request.
func (uc *SubmissionUseCase) SubmitContact(ctx context.Context, req ContactRequest) Acknowledgement {
	if blank(req.Name, req.Email, req.TeamName) {
		return Acknowledgement{Success: false, Message: MsgMissingSubmissionFields}
	}

	reference := uuid.NewString()
	logging.WithOperation(uc.logger, "usecase.submit_contact", reference).Info("contact request submitted",
		zap.String("name", req.Name),
		zap.String("email", req.Email),
		zap.String("comments", req.Comments),
		zap.String("team_name", req.TeamName),
		zap.String("object_type", req.ObjectType),
		zap.Float64("object_confidence", req.ObjectConfidence))

	return Acknowledgement{
		Success: true,
		Message: fmt.Sprintf("Thank you, %s! Your message has been sent to team \"%s\". They'll reach out to %s shortly.", req.Name, req.TeamName, req.Email),
	}
}

// SubmitReview acknowledges a review request.
func (uc *SubmissionUseCase) SubmitReview(ctx context.Context, req ReviewRequest) Acknowledgement {
	if blank(req.Name, req.Email, req.Location, req.ObjectDetected) {
		return Acknowledgement{Success: false, Message: MsgMissingSubmissionFields}
	}

	reference := uuid.NewString()
	logging.WithOperation(uc.logger, "usecase.submit_review", reference).Info("review request submitted",
		zap.String("name", req.Name),
		zap.String("email", req.Email),
		zap.String("location", req.Location),
		zap.String("object_detected", req.ObjectDetected),
		zap.Float64("confidence", req.Confidence),
		zap.String("client_timestamp", req.Timestamp))

	return Acknowledgement{
		Success: true,
		Message: fmt.Sprintf("Thank you, %s! Your review request has been submitted. We'll reach out to %s with updates.", req.Name, req.Email),
	}
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
