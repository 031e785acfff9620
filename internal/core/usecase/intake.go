package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
	"github.com/kirillkom/facade-estimator/internal/core/ports"
)

// LeadIntakeUseCase records leads delivered by the queue. Without a store the
// lead is only logged.
type LeadIntakeUseCase struct {
	store ports.LeadStore
}

func NewLeadIntakeUseCase(store ports.LeadStore) *LeadIntakeUseCase {
	return &LeadIntakeUseCase{store: store}
}

// Intake rejects leads sales cannot follow up with ErrInvalidInput and
// reports store outages as ErrTemporary. Duplicates are not errors.
func (uc *LeadIntakeUseCase) Intake(ctx context.Context, lead domain.Lead) (domain.IntakeOutcome, error) {
	if lead.ID == "" {
		return domain.IntakeRejected, domain.WrapError(domain.ErrInvalidInput, "lead intake", errors.New("lead without id"))
	}
	if !lead.Contact.Reachable() {
		return domain.IntakeRejected, domain.WrapError(domain.ErrInvalidInput, "lead intake", fmt.Errorf("lead %s has no usable contact", lead.ID))
	}

	outcome := domain.IntakeLogged
	if uc.store != nil {
		inserted, err := uc.store.Save(ctx, lead)
		if err != nil {
			return domain.IntakeFailed, domain.WrapError(domain.ErrTemporary, "store lead", err)
		}
		if !inserted {
			slog.Info("lead_duplicate", "lead_id", lead.ID)
			return domain.IntakeDuplicate, nil
		}
		outcome = domain.IntakeStored
	}

	attrs := []any{
		"lead_id", lead.ID,
		"quote_id", lead.QuoteID,
		"gating_mode", lead.GatingMode,
		"outcome", outcome,
	}
	if lead.Range != nil {
		attrs = append(attrs, "range_min", lead.Range.Min, "range_max", lead.Range.Max)
	}
	slog.Info("lead_intake", attrs...)
	return outcome, nil
}
