package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
)

const analysisPersona = "You are a senior facade renovation consultant. You give homeowners concise, practical and honest assessments in English, with realistic European market prices in euros."

// Section headings the estimate parser looks for. Keep both sides in sync.
var analysisSections = []string{
	"FACADE ASSESSMENT",
	"BEFORE/AFTER VISUALIZATION",
	"RECOMMENDATIONS",
	"PRICING ESTIMATE",
	"TIMELINE",
}

var facadeLabels = map[domain.FacadeType]string{
	domain.FacadeBrick:    "Brick",
	domain.FacadeRender:   "Render / plaster",
	domain.FacadeConcrete: "Concrete",
	domain.FacadePainted:  "Painted surface",
	domain.FacadeOther:    "Other",
}

var conditionLabels = map[domain.Condition]string{
	domain.ConditionCracks:  "Visible cracks",
	domain.ConditionMoss:    "Moss or biological growth",
	domain.ConditionGood:    "Good condition",
	domain.ConditionUnknown: "Unknown",
}

var finishLabels = map[domain.Finish]string{
	domain.FinishNaturalStone: "Natural stone",
	domain.FinishSmooth:       "Smooth render",
	domain.FinishTextured:     "Textured render",
	domain.FinishSuggest:      "Consultant's suggestion",
	domain.FinishOther:        "Other",
}

var finishTextures = map[domain.Finish]string{
	domain.FinishNaturalStone: "natural stone cladding made of irregular stone pieces with visible mortar joints and subtle variation in tone",
	domain.FinishSmooth:       "a smooth, even mineral render with a clean matte surface and crisp edges",
	domain.FinishTextured:     "a textured render with a fine sand-like grain that catches the light",
	domain.FinishSuggest:      "a contemporary facade finish that suits the style and proportions of this building",
	domain.FinishOther:        "a fresh, clean facade finish",
}

var treatmentLabels = map[domain.Treatment]string{
	domain.TreatmentWaterRepellent: "Water-repellent coating",
	domain.TreatmentAntiStain:      "Anti-stain / anti-graffiti protection",
}

var timelineLabels = map[domain.Timeline]string{
	domain.TimelineASAP:          "As soon as possible",
	domain.TimelineOneToThree:    "Within 1-3 months",
	domain.TimelineMoreThanThree: "In more than 3 months",
	domain.TimelineTBD:           "Not decided yet",
}

func labelOr[K comparable](labels map[K]string, key K, fallback string) string {
	if v, ok := labels[key]; ok {
		return v
	}
	return fallback
}

func finishesLabel(sel domain.ProjectSelection) string {
	finishes := sel.PreviewFinishes
	if len(finishes) == 0 && sel.Finish != "" {
		finishes = []domain.Finish{sel.Finish}
	}
	if len(finishes) == 0 {
		return "Not specified"
	}
	names := make([]string, 0, len(finishes))
	for _, f := range finishes {
		names = append(names, labelOr(finishLabels, f, string(f)))
	}
	return strings.Join(names, ", ")
}

func treatmentsLabel(sel domain.ProjectSelection) string {
	if len(sel.Treatments) == 0 {
		return "None"
	}
	names := make([]string, 0, len(sel.Treatments))
	for _, t := range sel.Treatments {
		names = append(names, labelOr(treatmentLabels, t, string(t)))
	}
	return strings.Join(names, ", ")
}

// BuildAnalysisPrompt is deterministic for a given selection and area.
func BuildAnalysisPrompt(sel domain.ProjectSelection, area float64) string {
	address := sel.Address
	if address == "" {
		address = "Not provided"
	}
	surface := sel.SurfaceArea
	if surface == "" {
		surface = "Unknown"
	}

	var b strings.Builder
	b.WriteString("Analyze this facade renovation project. Answer in English, in at most 400 words.\n\n")
	b.WriteString("Project details:\n")
	fmt.Fprintf(&b, "- Address: %s\n", address)
	fmt.Fprintf(&b, "- Facade type: %s\n", labelOr(facadeLabels, sel.FacadeType, "Not specified"))
	fmt.Fprintf(&b, "- Current condition: %s\n", labelOr(conditionLabels, sel.Condition, "Unknown"))
	fmt.Fprintf(&b, "- Surface area: %s (use about %.0f m² for pricing)\n", surface, area)
	fmt.Fprintf(&b, "- Desired finish: %s\n", finishesLabel(sel))
	fmt.Fprintf(&b, "- Protective treatments: %s\n", treatmentsLabel(sel))
	fmt.Fprintf(&b, "- Timeline: %s\n\n", labelOr(timelineLabels, sel.Timeline, "Not specified"))

	b.WriteString("Structure the answer in exactly these five sections, in this order, each heading on its own line:\n")
	for i, name := range analysisSections {
		fmt.Fprintf(&b, "%d. **%s:**\n", i+1, name)
	}
	b.WriteString("\nIn PRICING ESTIMATE give a per-square-metre rate range written like \"€80-150/m²\" ")
	b.WriteString("and one line written exactly like \"TOTAL PROJECT COST: €X - €Y\".\n")
	return b.String()
}

// BuildImagePrompt describes the edit for image providers. Contact details
// never enter the prompt.
func BuildImagePrompt(sel domain.ProjectSelection, withReference bool) string {
	finish := sel.PrimaryFinish()
	label := labelOr(finishLabels, finish, "New finish")
	if finish == domain.FinishSuggest || finish == "" {
		label = "A suitable modern finish"
	}
	texture := labelOr(finishTextures, finish, finishTextures[domain.FinishOther])

	payload := sel
	payload.Contact = domain.Contact{}
	raw, _ := json.Marshal(payload)

	var b strings.Builder
	b.WriteString("Edit this photo of a building facade.\n")
	fmt.Fprintf(&b, "Replace only the wall material with: %s, %s.\n", label, texture)
	if withReference {
		b.WriteString("The additional image is a sample of the target material; match its texture, colour and scale.\n")
	}
	b.WriteString("Hard constraints:\n")
	b.WriteString("- Keep the architecture, geometry, windows, doors, roof and proportions exactly as they are.\n")
	b.WriteString("- Keep the lighting, shadows, camera position and perspective unchanged.\n")
	b.WriteString("- Change only the facade wall surface. Do not add or remove any objects, people, plants or vehicles.\n")
	b.WriteString("- The result must look like a real photograph.\n")
	fmt.Fprintf(&b, "Project selection (JSON): %s\n", raw)
	return b.String()
}
