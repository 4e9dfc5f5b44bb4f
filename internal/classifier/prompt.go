package classifier

import (
	"strings"

	"github.com/example/artifact-scout/internal/domain"
)

// instructions is sent with every image. The check order and the category list
// must stay in step with archaeology_teams.object_type.
var instructions = buildInstructions()

func buildInstructions() string {
	categories := strings.Join(domain.ObjectTypes, ", ")
	return `You are analyzing an underwater image for an archaeology project.

Perform these checks in order and return structured JSON:

1. SAFETY CHECK:
   - Does the image contain NSFW content, sexually explicit material, human faces, gore, or violence?
   - Return: { "safetyViolation": true/false, "violationType": "string or null" }

2. UNDERWATER CHECK:
   - Is this clearly an underwater photograph (marine environment, water visibility, aquatic features)?
   - Return: { "isUnderwater": true/false, "reasoning": "brief explanation" }

3. MAN-MADE OBJECT DETECTION:
   - Does the image contain any man-made/artificial objects?
   - Provide confidence score (0-100)
   - Return: { "hasManMadeObject": true/false, "manMadeConfidence": number }

4. OBJECT IDENTIFICATION:
   - If man-made object found, identify the specific type
   - Categories: ` + categories + `
   - Provide confidence score (0-100)
   - Return: { "objectType": "string or null", "objectConfidence": number }

5. BOUNDING BOX:
   - If a man-made object was found, estimate its bounding box as normalized coordinates (0 to 1 range relative to image width/height)
   - x = left edge, y = top edge, width and height as fractions of the image
   - Return: { "boundingBox": { "x": number, "y": number, "width": number, "height": number } | null }

Return ONLY raw valid JSON with this exact structure (no markdown, no code fences, no explanation):
{
  "safetyViolation": boolean,
  "violationType": string | null,
  "isUnderwater": boolean,
  "underwaterReasoning": string,
  "hasManMadeObject": boolean,
  "manMadeConfidence": number,
  "objectType": string | null,
  "objectConfidence": number,
  "boundingBox": { "x": number, "y": number, "width": number, "height": number } | null
}`
}

// Instructions returns the fixed instruction text sent with every image.
func Instructions() string {
	return instructions
}
