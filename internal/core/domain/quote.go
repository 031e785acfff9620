package domain

import "time"

type LeadGatingMode string

const (
	LeadGatingBefore LeadGatingMode = "before"
	LeadGatingAfter  LeadGatingMode = "after"
)

// Quote is everything the UI (and the PDF renderer) needs after a submission.
type Quote struct {
	ID           string           `json:"id"`
	Selection    ProjectSelection `json:"selection"`
	Analysis     Analysis         `json:"analysis"`
	Estimate     ParsedEstimate   `json:"estimate"`
	Image        *GeneratedImage  `json:"image"`
	ImageStatus  ImageStatus      `json:"imageStatus"`
	ImageMessage string           `json:"imageMessage,omitempty"`
	ImageHint    string           `json:"imageHint,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// Lead is published to sales once contact details are known.
type Lead struct {
	ID          string           `json:"id"`
	QuoteID     string           `json:"quoteId,omitempty"`
	Contact     Contact          `json:"contact"`
	Selection   ProjectSelection `json:"selection"`
	Range       *InvestmentRange `json:"investmentRange,omitempty"`
	GatingMode  LeadGatingMode   `json:"gatingMode"`
	SubmittedAt time.Time        `json:"submittedAt"`
}

// IntakeOutcome is what happened to a lead taken off the queue.
type IntakeOutcome string

const (
	IntakeStored    IntakeOutcome = "stored"
	IntakeDuplicate IntakeOutcome = "duplicate"
	IntakeLogged    IntakeOutcome = "logged"
	IntakeRejected  IntakeOutcome = "rejected"
	IntakeFailed    IntakeOutcome = "failed"
)
