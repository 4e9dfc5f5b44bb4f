package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/artifact-scout/internal/domain"
	"github.com/example/artifact-scout/internal/logging"
)

const (
	msgMissingFields    = "Missing required fields: image, location, and confidence threshold."
	msgInvalidLocation  = "Invalid location selected."
	msgInvalidThreshold = "Invalid confidence threshold."
	msgInvalidFileType  = "Invalid file type. Please upload a JPEG, PNG, GIF, or WebP image."
)

// MsgFileTooLarge is the 5.1 message for images over domain.MaxImageSize.
const MsgFileTooLarge = "File too large. Maximum size is 10MB."

// Classifier is the vision model boundary.
type Classifier interface {
	Classify(ctx context.Context, image []byte, mimeType string) (*domain.ClassificationResult, error)
}

// TeamResolver looks up the team for a location and lower-cased object type.
// A nil team with a nil error is a miss.
type TeamResolver interface {
	Resolve(ctx context.Context, location, objectType string) (*domain.Team, error)
}

// AuditRecorder accepts audit entries without blocking.
type AuditRecorder interface {
	Record(entry domain.AuditLogEntry)
}

// AnalysisRequest is one submitted image with the user's choices. Location and
// Threshold are raw form values; empty means missing.
type AnalysisRequest struct {
	Image     []byte
	MIMEType  string
	Location  string
	Threshold string
}

// AnalysisUseCase runs the validation and classification gate for uploads.
type AnalysisUseCase struct {
	classifier Classifier
	resolver   TeamResolver
	audit      AuditRecorder
	logger     *zap.Logger
}

// NewAnalysisUseCase constructs a new use case instance.
func NewAnalysisUseCase(classifier Classifier, resolver TeamResolver, audit AuditRecorder, logger *zap.Logger) *AnalysisUseCase {
	return &AnalysisUseCase{
		classifier: classifier,
		resolver:   resolver,
		audit:      audit,
		logger:     logger.Named("analysis_usecase"),
	}
}

// Analyze always returns a well-formed outcome. Infrastructure errors become a
// 5.1 failure carrying the error text and are not audited.
func (uc *AnalysisUseCase) Analyze(ctx context.Context, req AnalysisRequest) (outcome domain.Outcome) {
	requestID := uuid.NewString()
	opLogger := logging.WithOperation(uc.logger, "usecase.analyze", requestID)
	defer func() {
		if p := recover(); p != nil {
			opLogger.Error("analysis panicked", zap.Any("panic", p))
			outcome = domain.UnexpectedError(fmt.Errorf("%v", p))
		}
		observeOutcome(outcome)
	}()

	location, threshold, invalid := validateRequest(req)
	if invalid != nil {
		opLogger.Info("rejected invalid request", zap.String("reason", invalid.Message))
		return *invalid
	}

	result, err := uc.classifier.Classify(ctx, req.Image, req.MIMEType)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.classify", requestID, err)
		opLogger.Error("classification failed", zap.Error(wrapped))
		return domain.UnexpectedError(err)
	}

	outcome, err = uc.decide(ctx, opLogger, location, threshold, result)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.resolve_team", requestID, err)
		opLogger.Error("team lookup failed", zap.Error(wrapped))
		return domain.UnexpectedError(err)
	}
	return outcome
}

func validateRequest(req AnalysisRequest) (domain.Location, domain.Threshold, *domain.Failure) {
	fail := func(message string) (domain.Location, domain.Threshold, *domain.Failure) {
		f := domain.InvalidInput(message)
		return "", 0, &f
	}

	if len(req.Image) == 0 || req.Location == "" || req.Threshold == "" {
		return fail(msgMissingFields)
	}
	location, ok := domain.ParseLocation(req.Location)
	if !ok {
		return fail(msgInvalidLocation)
	}
	threshold, ok := domain.ParseThreshold(req.Threshold)
	if !ok {
		return fail(msgInvalidThreshold)
	}
	if !domain.IsSupportedMIMEType(req.MIMEType) {
		return fail(msgInvalidFileType)
	}
	if len(req.Image) > domain.MaxImageSize {
		return fail(MsgFileTooLarge)
	}
	return location, threshold, nil
}

// decide applies the gate in order; the first matching check wins. Every
// return with a nil error has been audited exactly once.
func (uc *AnalysisUseCase) decide(ctx context.Context, opLogger *zap.Logger, location domain.Location, threshold domain.Threshold, result *domain.ClassificationResult) (domain.Outcome, error) {
	entry := domain.AuditLogEntry{Location: string(location), ConfidenceThreshold: threshold}

	if result.SafetyViolation {
		opLogger.Warn("safety violation", zap.Stringp("violation_type", result.ViolationType))
		return uc.reject(entry, domain.SafetyViolation()), nil
	}
	if !result.IsUnderwater {
		return uc.reject(entry, domain.NotUnderwater()), nil
	}
	if !result.HasManMadeObject {
		return uc.reject(entry, domain.NoManMadeObject()), nil
	}

	// The weaker of the two judgments is compared.
	lowest := min(result.ManMadeConfidence, result.ObjectConfidence)
	if lowest < int(threshold) {
		entry.ObjectDetected = result.ObjectType
		entry.ObjectConfidence = &lowest
		return uc.reject(entry, domain.BelowThreshold(threshold, lowest)), nil
	}

	objectType := ""
	if result.ObjectType != nil {
		objectType = strings.ToLower(*result.ObjectType)
	}
	team, err := uc.resolver.Resolve(ctx, string(location), objectType)
	if err != nil {
		return nil, err
	}

	objectConfidence := result.ObjectConfidence
	entry.ObjectDetected = &objectType
	entry.ObjectConfidence = &objectConfidence
	if team == nil {
		opLogger.Info("no team matched", zap.String("location", string(location)), zap.String("object_type", objectType))
		return uc.reject(entry, domain.NoTeamMatch()), nil
	}

	entry.TeamMatched = &team.TeamName
	uc.audit.Record(entry)

	projectName := ""
	if team.ProjectName != nil {
		projectName = *team.ProjectName
	}
	opLogger.Info("team matched", zap.String("team", team.TeamName), zap.String("object_type", objectType))
	return domain.Success{
		TeamName:          team.TeamName,
		ProjectName:       projectName,
		ObjectType:        objectType,
		ObjectConfidence:  result.ObjectConfidence,
		ManMadeConfidence: result.ManMadeConfidence,
	}, nil
}

func (uc *AnalysisUseCase) reject(entry domain.AuditLogEntry, failure domain.Failure) domain.Failure {
	entry.ErrorType = failure.Code.Ptr()
	uc.audit.Record(entry)
	return failure
}
