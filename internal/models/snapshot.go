package models

import "github.com/shopspring/decimal"

// LedgerSnapshot is derived from approved finance records on every request.
type LedgerSnapshot struct {
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpense     decimal.Decimal `json:"total_expense"`
	PendingAmount    decimal.Decimal `json:"pending_amount"`
	ReceivedAmount   decimal.Decimal `json:"received_amount"`
	NetBalance       decimal.Decimal `json:"net_balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	Records          int             `json:"records"`
}

// FundSnapshot is the running balance of the shared cash pool.
type FundSnapshot struct {
	Deposits    decimal.Decimal `json:"deposits"`
	Withdrawals decimal.Decimal `json:"withdrawals"`
	Balance     decimal.Decimal `json:"balance"`
}

// NewFundSnapshot returns zeroed totals.
func NewFundSnapshot() FundSnapshot {
	return FundSnapshot{Deposits: decimal.Zero, Withdrawals: decimal.Zero, Balance: decimal.Zero}
}

// Add folds rec into the totals. Only approved fund entries count.
func (s *FundSnapshot) Add(rec FinanceRecord) {
	entry, ok := rec.Payload.(FundEntry)
	if !ok || !rec.Counts() {
		return
	}
	if entry.Direction == FundDeposit {
		s.Deposits = s.Deposits.Add(entry.Amount)
	} else {
		s.Withdrawals = s.Withdrawals.Add(entry.Amount)
	}
	s.Balance = s.Deposits.Sub(s.Withdrawals)
}

// Remove takes rec's contribution back out of the totals.
func (s *FundSnapshot) Remove(rec FinanceRecord) {
	entry, ok := rec.Payload.(FundEntry)
	if !ok || !rec.Counts() {
		return
	}
	if entry.Direction == FundDeposit {
		s.Deposits = s.Deposits.Sub(entry.Amount)
	} else {
		s.Withdrawals = s.Withdrawals.Sub(entry.Amount)
	}
	s.Balance = s.Deposits.Sub(s.Withdrawals)
}
