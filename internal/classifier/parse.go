package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/example/artifact-scout/internal/domain"
)

// ErrEmptyReply is returned when the model answered without any text.
var ErrEmptyReply = errors.New("no text response from vision model")

// wireResult mirrors the JSON the model is asked for. Pointers distinguish
// absent fields from zero values.
type wireResult struct {
	SafetyViolation     *bool               `json:"safetyViolation"`
	ViolationType       *string             `json:"violationType"`
	IsUnderwater        *bool               `json:"isUnderwater"`
	UnderwaterReasoning string              `json:"underwaterReasoning"`
	HasManMadeObject    *bool               `json:"hasManMadeObject"`
	ManMadeConfidence   *float64            `json:"manMadeConfidence"`
	ObjectType          *string             `json:"objectType"`
	ObjectConfidence    *float64            `json:"objectConfidence"`
	BoundingBox         *domain.BoundingBox `json:"boundingBox"`
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(text string) string {
	raw := strings.TrimSpace(text)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```")
	if strings.HasPrefix(strings.ToLower(raw), "json") {
		raw = raw[len("json"):]
	}
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}

// ParseReply converts the model's text reply into a ClassificationResult.
func ParseReply(text string) (*domain.ClassificationResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyReply
	}

	var wire wireResult
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &wire); err != nil {
		return nil, fmt.Errorf("decode classification: %w", err)
	}

	switch {
	case wire.SafetyViolation == nil:
		return nil, errors.New("classification missing safetyViolation")
	case wire.IsUnderwater == nil:
		return nil, errors.New("classification missing isUnderwater")
	case wire.HasManMadeObject == nil:
		return nil, errors.New("classification missing hasManMadeObject")
	case wire.ManMadeConfidence == nil:
		return nil, errors.New("classification missing manMadeConfidence")
	}

	manMade, err := confidence("manMadeConfidence", *wire.ManMadeConfidence)
	if err != nil {
		return nil, err
	}

	result := &domain.ClassificationResult{
		SafetyViolation:     *wire.SafetyViolation,
		ViolationType:       wire.ViolationType,
		IsUnderwater:        *wire.IsUnderwater,
		UnderwaterReasoning: wire.UnderwaterReasoning,
		HasManMadeObject:    *wire.HasManMadeObject,
		ManMadeConfidence:   manMade,
	}
	if !result.HasManMadeObject {
		return result, nil
	}

	if wire.ObjectConfidence == nil {
		return nil, errors.New("classification missing objectConfidence")
	}
	objectConf, err := confidence("objectConfidence", *wire.ObjectConfidence)
	if err != nil {
		return nil, err
	}
	result.ObjectConfidence = objectConf
	if wire.ObjectType != nil && strings.TrimSpace(*wire.ObjectType) != "" {
		objectType := strings.TrimSpace(*wire.ObjectType)
		result.ObjectType = &objectType
	}
	if box := wire.BoundingBox; box != nil {
		result.BoundingBox = &domain.BoundingBox{
			X:      clampUnit(box.X),
			Y:      clampUnit(box.Y),
			Width:  clampUnit(box.Width),
			Height: clampUnit(box.Height),
		}
	}
	return result, nil
}

func confidence(field string, value float64) (int, error) {
	if math.IsNaN(value) || value < 0 || value > 100 {
		return 0, fmt.Errorf("classification %s out of range: %v", field, value)
	}
	return int(math.Round(value)), nil
}

func clampUnit(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
