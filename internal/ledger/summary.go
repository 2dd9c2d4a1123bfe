package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/access"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
)

// Summarize totals the approved finance records visible to actorID.
// It is recomputed from the store on every call.
func (l *Ledger) Summarize(ctx context.Context, actorID string, f models.Filter) (models.LedgerSnapshot, error) {
	f.Kind = models.KindFinance
	records, err := l.ListVisible(ctx, actorID, models.ViewDashboard, f)
	if err != nil {
		return models.LedgerSnapshot{}, err
	}
	return Snapshot(records), nil
}

// FundBalance is the running balance of approved deposits and withdrawals.
func (l *Ledger) FundBalance(ctx context.Context, actorID string, f models.Filter) (models.FundSnapshot, error) {
	f.Kind = models.KindFund
	records, err := l.ListVisible(ctx, actorID, models.ViewDashboard, f)
	if err != nil {
		return models.FundSnapshot{}, err
	}
	return FundSnapshot(records), nil
}

// Snapshot folds finance records into ledger totals. Records that are not
// approved, or are not finance entries, are skipped.
func Snapshot(records []models.FinanceRecord) models.LedgerSnapshot {
	s := models.LedgerSnapshot{
		TotalIncome:    decimal.Zero,
		TotalExpense:   decimal.Zero,
		PendingAmount:  decimal.Zero,
		ReceivedAmount: decimal.Zero,
	}
	for _, rec := range records {
		entry, ok := rec.Payload.(models.FinanceEntry)
		if !ok || !rec.Counts() {
			continue
		}
		s.Records++
		switch entry.Type {
		case models.EntryIncome:
			s.TotalIncome = s.TotalIncome.Add(entry.Amount)
			if entry.IsPendingIncome() {
				s.PendingAmount = s.PendingAmount.Add(entry.Amount)
			} else {
				s.ReceivedAmount = s.ReceivedAmount.Add(entry.Amount)
			}
		case models.EntryExpense:
			s.TotalExpense = s.TotalExpense.Add(entry.Amount)
		}
	}
	// Both balances may go negative.
	s.NetBalance = s.TotalIncome.Sub(s.TotalExpense)
	s.AvailableBalance = s.ReceivedAmount.Sub(s.TotalExpense)
	return s
}

// FundSnapshot folds approved fund entries into a balance.
func FundSnapshot(records []models.FinanceRecord) models.FundSnapshot {
	s := models.NewFundSnapshot()
	for _, rec := range records {
		s.Add(rec)
	}
	return s
}

// fundWarnings flags a withdrawal larger than the organization's approved
// fund balance, excluding prior's stored contribution on an edit. The write
// still proceeds. Only owners are told the balance figure.
func (l *Ledger) fundWarnings(ctx context.Context, actor models.Actor, rec models.FinanceRecord, prior *models.FinanceRecord) ([]models.Warning, error) {
	entry, ok := rec.Payload.(models.FundEntry)
	if !ok || entry.Direction != models.FundWithdrawal {
		return nil, nil
	}
	totals, err := l.store.FundTotals(ctx, access.ScopeFor(actor))
	if err != nil {
		return nil, err
	}
	if prior != nil {
		totals.Remove(*prior)
	}
	if entry.Amount.LessThanOrEqual(totals.Balance) {
		return nil, nil
	}
	l.logger.WarnContext(ctx, "ledger: withdrawal exceeds fund balance",
		"record_id", rec.ID,
		"actor_id", actor.ID,
		"amount", entry.Amount.String(),
		"balance", totals.Balance.String(),
	)
	msg := fmt.Sprintf("withdrawal of %s exceeds the current fund balance", entry.Amount.StringFixed(2))
	if actor.IsOwner() {
		msg = fmt.Sprintf("withdrawal of %s exceeds the current fund balance of %s", entry.Amount.StringFixed(2), totals.Balance.StringFixed(2))
	}
	return []models.Warning{{Code: "fund_overdraw", Message: msg}}, nil
}
