package domain

import (
	"fmt"
	"slices"
	"strings"
)

type FacadeType string

const (
	FacadeBrick    FacadeType = "brick"
	FacadeRender   FacadeType = "render"
	FacadeConcrete FacadeType = "concrete"
	FacadePainted  FacadeType = "painted"
	FacadeOther    FacadeType = "other"
)

type Condition string

const (
	ConditionCracks  Condition = "cracks"
	ConditionMoss    Condition = "moss"
	ConditionGood    Condition = "good"
	ConditionUnknown Condition = "unknown"
)

type Finish string

const (
	FinishNaturalStone Finish = "natural-stone"
	FinishSmooth       Finish = "smooth"
	FinishTextured     Finish = "textured"
	FinishSuggest      Finish = "suggest"
	FinishOther        Finish = "other"
)

type Treatment string

const (
	TreatmentWaterRepellent Treatment = "water-repellent"
	TreatmentAntiStain      Treatment = "anti-stain"
)

// Neutral treatment choices. They are UI clicks, never stored values.
const (
	TreatmentChoiceNone    = "none"
	TreatmentChoiceUnknown = "unknown"
)

type Timeline string

const (
	TimelineASAP          Timeline = "asap"
	TimelineOneToThree    Timeline = "1-3months"
	TimelineMoreThanThree Timeline = ">3months"
	TimelineTBD           Timeline = "tbd"
)

type Contact struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	PhonePrefix string `json:"phonePrefix,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// Reachable reports whether the contact is complete enough to follow up on.
func (c Contact) Reachable() bool {
	if strings.TrimSpace(c.Name) == "" {
		return false
	}
	return strings.Contains(c.Email, "@") || strings.TrimSpace(c.Phone) != ""
}

// ProjectSelection is the snapshot of homeowner answers at submission time.
type ProjectSelection struct {
	Address         string      `json:"address,omitempty"`
	FacadeType      FacadeType  `json:"facadeType,omitempty"`
	Condition       Condition   `json:"condition,omitempty"`
	SurfaceArea     string      `json:"surfaceArea,omitempty"`
	Finish          Finish      `json:"finish,omitempty"`
	PreviewFinishes []Finish    `json:"previewFinishes,omitempty"`
	Treatments      []Treatment `json:"treatments,omitempty"`
	Timeline        Timeline    `json:"timeline,omitempty"`
	Contact         Contact     `json:"contact"`
}

// PrimaryFinish is the finish used for visualization: the first preview
// finish in the multi-select variant, otherwise the single finish.
func (s ProjectSelection) PrimaryFinish() Finish {
	for _, f := range s.PreviewFinishes {
		if f != "" {
			return f
		}
	}
	return s.Finish
}

// ApplyTreatmentChoice returns the treatment set after the user clicks choice.
// A neutral choice clears everything; a real treatment toggles membership.
func ApplyTreatmentChoice(current []Treatment, choice string) []Treatment {
	choice = strings.TrimSpace(strings.ToLower(choice))
	switch choice {
	case "":
		return append([]Treatment{}, current...)
	case TreatmentChoiceNone, TreatmentChoiceUnknown:
		return []Treatment{}
	}

	t := Treatment(choice)
	out := make([]Treatment, 0, len(current)+1)
	found := false
	for _, existing := range current {
		if existing == t {
			found = true
			continue
		}
		out = append(out, existing)
	}
	if !found {
		out = append(out, t)
	}
	return out
}

// Normalize validates enum fields and reduces the submitted treatments to a
// set: a neutral entry clears everything before it and duplicates collapse, so
// normalizing twice gives the same selection.
func (s ProjectSelection) Normalize() (ProjectSelection, error) {
	out := s
	out.Address = strings.TrimSpace(s.Address)
	out.SurfaceArea = strings.TrimSpace(s.SurfaceArea)

	if !validFacadeType(out.FacadeType) {
		return ProjectSelection{}, WrapError(ErrInvalidInput, "selection", fmt.Errorf("unknown facadeType %q", out.FacadeType))
	}
	if !validCondition(out.Condition) {
		return ProjectSelection{}, WrapError(ErrInvalidInput, "selection", fmt.Errorf("unknown condition %q", out.Condition))
	}
	if !validFinish(out.Finish) {
		return ProjectSelection{}, WrapError(ErrInvalidInput, "selection", fmt.Errorf("unknown finish %q", out.Finish))
	}
	previews := make([]Finish, 0, len(s.PreviewFinishes))
	for _, f := range s.PreviewFinishes {
		if !validFinish(f) {
			return ProjectSelection{}, WrapError(ErrInvalidInput, "selection", fmt.Errorf("unknown preview finish %q", f))
		}
		if f != "" && !slices.Contains(previews, f) {
			previews = append(previews, f)
		}
	}
	if len(s.PreviewFinishes) > 0 {
		out.PreviewFinishes = previews
	}
	if !validTimeline(out.Timeline) {
		return ProjectSelection{}, WrapError(ErrInvalidInput, "selection", fmt.Errorf("unknown timeline %q", out.Timeline))
	}

	treatments := []Treatment{}
	for _, choice := range s.Treatments {
		t := Treatment(strings.TrimSpace(strings.ToLower(string(choice))))
		switch t {
		case "":
			continue
		case TreatmentChoiceNone, TreatmentChoiceUnknown:
			treatments = treatments[:0]
			continue
		case TreatmentWaterRepellent, TreatmentAntiStain:
		default:
			return ProjectSelection{}, WrapError(ErrInvalidInput, "selection", fmt.Errorf("unknown treatment %q", t))
		}
		if !slices.Contains(treatments, t) {
			treatments = append(treatments, t)
		}
	}
	out.Treatments = treatments
	return out, nil
}

func validFacadeType(v FacadeType) bool {
	switch v {
	case "", FacadeBrick, FacadeRender, FacadeConcrete, FacadePainted, FacadeOther:
		return true
	}
	return false
}

func validCondition(v Condition) bool {
	switch v {
	case "", ConditionCracks, ConditionMoss, ConditionGood, ConditionUnknown:
		return true
	}
	return false
}

func validFinish(v Finish) bool {
	switch v {
	case "", FinishNaturalStone, FinishSmooth, FinishTextured, FinishSuggest, FinishOther:
		return true
	}
	return false
}

func validTimeline(v Timeline) bool {
	switch v {
	case "", TimelineASAP, TimelineOneToThree, TimelineMoreThanThree, TimelineTBD:
		return true
	}
	return false
}
