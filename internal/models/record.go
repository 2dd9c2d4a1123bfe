package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type ApprovalState string

const (
	StatePending  ApprovalState = "pending"
	StateApproved ApprovalState = "approved"
	StateDeclined ApprovalState = "declined"
)

func (s ApprovalState) Valid() bool {
	return s == StatePending || s == StateApproved || s == StateDeclined
}

// FinanceRecord is the shared shape of every approval-gated record.
// OrganizationKey and AuthorDisplay are fixed at creation.
type FinanceRecord struct {
	ID                  string
	Kind                Kind
	OrganizationKey     string
	AuthorID            string
	AuthorDisplay       string
	Payload             Payload
	ApprovalState       ApprovalState
	DeletionRequested   bool
	DeletionRequestedBy string
	Version             int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Counts reports whether the record contributes to ledger totals.
func (r FinanceRecord) Counts() bool {
	return r.ApprovalState == StateApproved
}

// EffectiveDate is the payload date, or the creation time for undated kinds.
func (r FinanceRecord) EffectiveDate() time.Time {
	if r.Payload != nil {
		if d := r.Payload.Facets().Date; !d.IsZero() {
			return d
		}
	}
	return r.CreatedAt
}

type recordJSON struct {
	ID                  string          `json:"id"`
	Kind                Kind            `json:"kind"`
	OrganizationKey     string          `json:"organization_key"`
	AuthorID            string          `json:"author_id"`
	AuthorDisplay       string          `json:"author_display"`
	Payload             json.RawMessage `json:"payload"`
	ApprovalState       ApprovalState   `json:"approval_state"`
	DeletionRequested   bool            `json:"deletion_requested"`
	DeletionRequestedBy string          `json:"deletion_requested_by,omitempty"`
	Version             int64           `json:"version"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func (r FinanceRecord) MarshalJSON() ([]byte, error) {
	raw, err := EncodePayload(r.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(recordJSON{
		ID:                  r.ID,
		Kind:                r.Kind,
		OrganizationKey:     r.OrganizationKey,
		AuthorID:            r.AuthorID,
		AuthorDisplay:       r.AuthorDisplay,
		Payload:             raw,
		ApprovalState:       r.ApprovalState,
		DeletionRequested:   r.DeletionRequested,
		DeletionRequestedBy: r.DeletionRequestedBy,
		Version:             r.Version,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	})
}

func (r *FinanceRecord) UnmarshalJSON(data []byte) error {
	var v recordJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	p, err := DecodePayload(v.Kind, v.Payload)
	if err != nil {
		return fmt.Errorf("record %s: %w", v.ID, err)
	}
	*r = FinanceRecord{
		ID:                  v.ID,
		Kind:                v.Kind,
		OrganizationKey:     v.OrganizationKey,
		AuthorID:            v.AuthorID,
		AuthorDisplay:       v.AuthorDisplay,
		Payload:             p,
		ApprovalState:       v.ApprovalState,
		DeletionRequested:   v.DeletionRequested,
		DeletionRequestedBy: v.DeletionRequestedBy,
		Version:             v.Version,
		CreatedAt:           v.CreatedAt,
		UpdatedAt:           v.UpdatedAt,
	}
	return nil
}

// MutationResult is returned by create and update operations.
type MutationResult struct {
	Record   FinanceRecord `json:"record"`
	Warnings []Warning     `json:"warnings,omitempty"`
}

// Warning is a non-fatal condition surfaced to the caller.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
