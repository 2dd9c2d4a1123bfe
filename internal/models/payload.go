package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tags the payload variant carried by a FinanceRecord.
type Kind string

const (
	KindFinance    Kind = "finance"
	KindInvestment Kind = "investment"
	KindClient     Kind = "client"
	KindFund       Kind = "fund"
)

// Kinds lists every record kind in a stable order.
var Kinds = []Kind{KindFinance, KindInvestment, KindClient, KindFund}

func (k Kind) Valid() bool {
	switch k {
	case KindFinance, KindInvestment, KindClient, KindFund:
		return true
	}
	return false
}

// Facets are the payload fields that visibility filters narrow on.
type Facets struct {
	Date         time.Time
	Category     string
	Counterparty string
	Description  string
}

// Payload is the kind-specific part of a record. The set of implementations
// is closed; approval handling never branches on it.
type Payload interface {
	Kind() Kind
	Validate() error
	Facets() Facets
	sealed()
}

type EntryType string

const (
	EntryIncome  EntryType = "income"
	EntryExpense EntryType = "expense"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentReceived PaymentStatus = "received"
)

// FinanceEntry is an income or expense line.
type FinanceEntry struct {
	Type          EntryType       `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Category      string          `json:"category,omitempty"`
	Counterparty  string          `json:"counterparty,omitempty"`
	Description   string          `json:"description,omitempty"`
	PaymentStatus PaymentStatus   `json:"payment_status,omitempty"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
}

func (FinanceEntry) Kind() Kind { return KindFinance }
func (FinanceEntry) sealed()    {}

func (e FinanceEntry) Validate() error {
	if e.Type != EntryIncome && e.Type != EntryExpense {
		return fmt.Errorf("%w: entry type %q", ErrInvalidPayload, e.Type)
	}
	if err := positive(e.Amount); err != nil {
		return err
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidPayload)
	}
	switch e.PaymentStatus {
	case "", PaymentPending, PaymentReceived:
	default:
		return fmt.Errorf("%w: payment status %q", ErrInvalidPayload, e.PaymentStatus)
	}
	if e.Type == EntryExpense && e.PaymentStatus == PaymentPending {
		return fmt.Errorf("%w: payment status applies to income only", ErrInvalidPayload)
	}
	return nil
}

func (e FinanceEntry) Facets() Facets {
	return Facets{Date: e.Date, Category: e.Category, Counterparty: e.Counterparty, Description: e.Description}
}

// IsPendingIncome reports whether the entry is income not yet received.
func (e FinanceEntry) IsPendingIncome() bool {
	return e.Type == EntryIncome && e.PaymentStatus == PaymentPending
}

// Investment records money placed into an instrument.
type Investment struct {
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	Instrument   string          `json:"instrument"`
	Counterparty string          `json:"counterparty,omitempty"`
	Description  string          `json:"description,omitempty"`
}

func (Investment) Kind() Kind { return KindInvestment }
func (Investment) sealed()    {}

func (i Investment) Validate() error {
	if err := positive(i.Amount); err != nil {
		return err
	}
	if i.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidPayload)
	}
	if strings.TrimSpace(i.Instrument) == "" {
		return fmt.Errorf("%w: instrument is required", ErrInvalidPayload)
	}
	return nil
}

func (i Investment) Facets() Facets {
	return Facets{Date: i.Date, Category: i.Instrument, Counterparty: i.Counterparty, Description: i.Description}
}

// Client is a customer contact.
type Client struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

func (Client) Kind() Kind { return KindClient }
func (Client) sealed()    {}

func (c Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: client name is required", ErrInvalidPayload)
	}
	return nil
}

// Facets for a client carry no date; date filters fall back to the record's
// creation time.
func (c Client) Facets() Facets {
	return Facets{Category: c.Company, Counterparty: c.Name, Description: c.Notes}
}

type FundDirection string

const (
	FundDeposit    FundDirection = "deposit"
	FundWithdrawal FundDirection = "withdrawal"
)

// FundEntry moves cash into or out of the shared pool.
type FundEntry struct {
	Direction   FundDirection   `json:"direction"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
}

func (FundEntry) Kind() Kind { return KindFund }
func (FundEntry) sealed()    {}

func (f FundEntry) Validate() error {
	if f.Direction != FundDeposit && f.Direction != FundWithdrawal {
		return fmt.Errorf("%w: fund direction %q", ErrInvalidPayload, f.Direction)
	}
	if err := positive(f.Amount); err != nil {
		return err
	}
	if f.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidPayload)
	}
	return nil
}

func (f FundEntry) Facets() Facets {
	return Facets{Date: f.Date, Category: f.Category, Description: f.Description}
}

func positive(amount decimal.Decimal) error {
	if amount.Cmp(decimal.Zero) <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidPayload)
	}
	return nil
}

// EncodePayload serializes a payload for storage.
func EncodePayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: payload is required", ErrInvalidPayload)
	}
	return json.Marshal(p)
}

// DecodePayload parses raw JSON into the payload variant for kind.
func DecodePayload(kind Kind, raw []byte) (Payload, error) {
	var (
		p   Payload
		err error
	)
	switch kind {
	case KindFinance:
		var v FinanceEntry
		err = json.Unmarshal(raw, &v)
		p = v
	case KindInvestment:
		var v Investment
		err = json.Unmarshal(raw, &v)
		p = v
	case KindClient:
		var v Client
		err = json.Unmarshal(raw, &v)
		p = v
	case KindFund:
		var v FundEntry
		err = json.Unmarshal(raw, &v)
		p = v
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidPayload, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return p, nil
}
