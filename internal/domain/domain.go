package domain

import (
	"strconv"
	"strings"
	"time"
)

// MaxImageSize is the largest upload accepted by the analysis pipeline.
const MaxImageSize = 10 << 20

// Location is a dive region served by the reference table.
type Location string

const (
	LocationMediterranean Location = "mediterranean"
	LocationCaribbean     Location = "caribbean"
	LocationPacific       Location = "pacific"
)

// Locations lists every accepted location.
var Locations = []Location{LocationMediterranean, LocationCaribbean, LocationPacific}

// ParseLocation returns the location matching value exactly.
func ParseLocation(value string) (Location, bool) {
	for _, loc := range Locations {
		if string(loc) == value {
			return loc, true
		}
	}
	return "", false
}

// Threshold is the user-selected minimum confidence, in percent.
type Threshold int

// Thresholds lists every accepted confidence threshold.
var Thresholds = []Threshold{50, 65, 80, 95}

// ParseThreshold parses a decimal form value and checks it against Thresholds.
func ParseThreshold(value string) (Threshold, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, false
	}
	for _, t := range Thresholds {
		if int(t) == n {
			return t, true
		}
	}
	return 0, false
}

// SupportedMIMETypes are the declared upload types accepted for analysis.
var SupportedMIMETypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// IsSupportedMIMEType reports whether mimeType is one of SupportedMIMETypes.
func IsSupportedMIMEType(mimeType string) bool {
	for _, m := range SupportedMIMETypes {
		if m == mimeType {
			return true
		}
	}
	return false
}

// ObjectTypes are the categories the classifier may assign. The values match
// archaeology_teams.object_type.
var ObjectTypes = []string{
	"amphora",
	"pottery",
	"statue",
	"anchor",
	"coin",
	"ship",
	"cargo",
	"cannon",
	"chest",
	"tool",
	"aircraft",
}

// IsKnownObjectType reports whether objectType, case-insensitively, is in ObjectTypes.
func IsKnownObjectType(objectType string) bool {
	lowered := strings.ToLower(objectType)
	for _, t := range ObjectTypes {
		if t == lowered {
			return true
		}
	}
	return false
}

// BoundingBox is expressed as fractions of the image width and height.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ClassificationResult is the typed reply of the vision model.
type ClassificationResult struct {
	SafetyViolation     bool         `json:"safetyViolation"`
	ViolationType       *string      `json:"violationType"`
	IsUnderwater        bool         `json:"isUnderwater"`
	UnderwaterReasoning string       `json:"underwaterReasoning"`
	HasManMadeObject    bool         `json:"hasManMadeObject"`
	ManMadeConfidence   int          `json:"manMadeConfidence"`
	ObjectType          *string      `json:"objectType"`
	ObjectConfidence    int          `json:"objectConfidence"`
	BoundingBox         *BoundingBox `json:"boundingBox"`
}

// Team is a row of the archaeology team reference table.
type Team struct {
	ID          uint      `json:"id"`
	TeamName    string    `json:"team_name"`
	Location    string    `json:"location"`
	ObjectType  string    `json:"object_type"`
	ProjectName *string   `json:"project_name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuditLogEntry records the outcome of one classified pipeline run.
// Nil pointers are stored as empty values.
type AuditLogEntry struct {
	Location            string
	ConfidenceThreshold Threshold
	ObjectDetected      *string
	ObjectConfidence    *int
	TeamMatched         *string
	ErrorType           *ErrorCode
}
