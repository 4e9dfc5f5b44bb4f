package domain

import "fmt"

// ErrorCode is the closed set of user-facing failure codes.
type ErrorCode string

const (
	// CodeInvalidInput covers bad input, safety violations and unexpected errors.
	CodeInvalidInput ErrorCode = "5.1"
	// CodeNotUnderwater means the photo was not taken underwater.
	CodeNotUnderwater ErrorCode = "5.2"
	// CodeNoManMadeObject means nothing artificial was found.
	CodeNoManMadeObject ErrorCode = "5.3"
	// CodeBelowThreshold means the weakest confidence missed the threshold.
	CodeBelowThreshold ErrorCode = "5.4"
	// CodeNoTeamMatch is a warning: classification passed but no team handles it.
	CodeNoTeamMatch ErrorCode = "5.5"
)

// Ptr returns a pointer to c, for AuditLogEntry.ErrorType.
func (c ErrorCode) Ptr() *ErrorCode {
	return &c
}

const (
	safetyMessage          = "Error: Your image didn't pass security guardrails. Please upload an appropriate underwater archaeology image."
	notUnderwaterMessage   = "Error: Your image is not an underwater image. Please upload a photo taken underwater."
	noManMadeObjectMessage = "Error: Didn't find any man-made object in the image. Please upload an image containing archaeological artifacts."
	noTeamMatchMessage     = "Warning: Your image didn't match any team in our database. Would you like to submit a review request?"
)

// Outcome is the result of one pipeline run: either Success or Failure.
type Outcome interface {
	outcome()
}

// Success carries the matched team and the classifier's scores.
type Success struct {
	TeamName          string `json:"teamName"`
	ProjectName       string `json:"projectName"`
	ObjectType        string `json:"objectType"`
	ObjectConfidence  int    `json:"objectConfidence"`
	ManMadeConfidence int    `json:"manMadeConfidence"`
}

// Failure carries a user-facing code and message. Build it with one of the
// constructors below.
type Failure struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (Success) outcome() {}
func (Failure) outcome() {}

// IsWarning reports whether the failure offers a follow-up workflow instead of a dead end.
func (f Failure) IsWarning() bool {
	return f.Code == CodeNoTeamMatch
}

// InvalidInput is a 5.1 failure with a specific message.
func InvalidInput(message string) Failure {
	return Failure{Code: CodeInvalidInput, Message: message}
}

// SafetyViolation is the 5.1 failure returned for unsafe content. The violation
// type is never included.
func SafetyViolation() Failure {
	return InvalidInput(safetyMessage)
}

// UnexpectedError is the 5.1 failure for infrastructure errors.
func UnexpectedError(err error) Failure {
	return InvalidInput(fmt.Sprintf("An unexpected error occurred: %v", err))
}

// NotUnderwater is the 5.2 failure.
func NotUnderwater() Failure {
	return Failure{Code: CodeNotUnderwater, Message: notUnderwaterMessage}
}

// NoManMadeObject is the 5.3 failure.
func NoManMadeObject() Failure {
	return Failure{Code: CodeNoManMadeObject, Message: noManMadeObjectMessage}
}

// BelowThreshold is the 5.4 failure; detected is the weakest of the two confidences.
func BelowThreshold(threshold Threshold, detected int) Failure {
	return Failure{
		Code: CodeBelowThreshold,
		Message: fmt.Sprintf(
			"Error: Object identified is below confidence level (Threshold: %d%%, Detected: %d%%). Try uploading a clearer image or adjusting the confidence threshold.",
			threshold, detected,
		),
	}
}

// NoTeamMatch is the 5.5 warning.
func NoTeamMatch() Failure {
	return Failure{Code: CodeNoTeamMatch, Message: noTeamMatchMessage}
}

// Response is the wire shape of an Outcome.
type Response struct {
	Success bool     `json:"success"`
	Error   *Failure `json:"error,omitempty"`
	Result  *Success `json:"result,omitempty"`
}

// NewResponse serializes an outcome. A nil outcome is reported as an unexpected error.
func NewResponse(o Outcome) Response {
	switch v := o.(type) {
	case Success:
		return Response{Success: true, Result: &v}
	case Failure:
		return Response{Success: false, Error: &v}
	default:
		f := UnexpectedError(fmt.Errorf("unknown outcome %T", o))
		return Response{Success: false, Error: &f}
	}
}
