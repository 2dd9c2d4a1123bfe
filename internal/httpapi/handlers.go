package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/session"
)

const dateLayout = "2006-01-02"

type recordRequest struct {
	Kind    models.Kind     `json:"kind"`
	Payload json.RawMessage `json:"payload"`
	Version int64           `json:"version,omitempty"`
}

type versionRequest struct {
	Version int64 `json:"version"`
}

type delegateRequest struct {
	DelegateID  string `json:"delegate_id"`
	DisplayName string `json:"display_name"`
}

type onboardingRequest struct {
	DisplayName string `json:"display_name"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	actor, err := s.ledger.Whoami(r.Context(), actorID(r.Context()))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, actor)
}

func (s *Server) handleOnboard(w http.ResponseWriter, r *http.Request) {
	var req onboardingRequest
	if err := readOptionalJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		if claims, ok := session.ClaimsFrom(r.Context()); ok {
			name = claims.DisplayName
		}
	}
	actor, err := s.directory.Onboard(r.Context(), actorID(r.Context()), name)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, actor)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	view := models.View(r.URL.Query().Get("view"))
	records, err := s.ledger.ListVisible(r.Context(), actorID(r.Context()), view, f)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	if records == nil {
		records = []models.FinanceRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	payload, _, err := decodeRecordRequest(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	res, err := s.ledger.Propose(r.Context(), actorID(r.Context()), payload)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.ledger.Get(r.Context(), actorID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	payload, version, err := decodeRecordRequest(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	res, err := s.ledger.Update(r.Context(), actorID(r.Context()), chi.URLParam(r, "id"), payload, version)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	out, err := s.ledger.Retract(r.Context(), actorID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	status := http.StatusOK
	if out.DeletionRequested {
		status = http.StatusAccepted
	}
	writeJSON(w, status, out)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	req, ok := readVersion(w, r)
	if !ok {
		return
	}
	t, err := s.ledger.Approve(r.Context(), actorID(r.Context()), chi.URLParam(r, "id"), req.Version)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDecline(w http.ResponseWriter, r *http.Request) {
	req, ok := readVersion(w, r)
	if !ok {
		return
	}
	t, err := s.ledger.Decline(r.Context(), actorID(r.Context()), chi.URLParam(r, "id"), req.Version)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleConfirmDeletion(w http.ResponseWriter, r *http.Request) {
	t, err := s.ledger.ConfirmDeletion(r.Context(), actorID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCancelDeletion(w http.ResponseWriter, r *http.Request) {
	t, err := s.ledger.CancelDeletion(r.Context(), actorID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	snap, err := s.ledger.Summarize(r.Context(), actorID(r.Context()), f)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleFundBalance(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	snap, err := s.ledger.FundBalance(r.Context(), actorID(r.Context()), f)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleNextInvoice(w http.ResponseWriter, r *http.Request) {
	number, err := s.ledger.NextInvoiceNumber(r.Context(), actorID(r.Context()))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"invoice_number": number})
}

func (s *Server) handleListDelegates(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ledger.Whoami(r.Context(), actorID(r.Context()))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	roster, err := s.directory.Roster(r.Context(), owner)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	if roster == nil {
		roster = []models.RosterEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"delegates": roster})
}

func (s *Server) handleAddDelegate(w http.ResponseWriter, r *http.Request) {
	var req delegateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	owner, err := s.ledger.Whoami(r.Context(), actorID(r.Context()))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	delegate, err := s.directory.AddDelegate(r.Context(), owner, strings.TrimSpace(req.DelegateID), strings.TrimSpace(req.DisplayName))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, delegate)
}

func (s *Server) handleRemoveDelegate(w http.ResponseWriter, r *http.Request) {
	owner, err := s.ledger.Whoami(r.Context(), actorID(r.Context()))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	if err := s.directory.RemoveDelegate(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readVersion decodes the record version a review acts on. It is required so
// an owner never approves content edited after they loaded it.
func readVersion(w http.ResponseWriter, r *http.Request) (versionRequest, bool) {
	var req versionRequest
	if err := readJSON(r, &req); err != nil || req.Version < 1 {
		writeError(w, r, http.StatusBadRequest, "invalid_payload", "body must carry the reviewed record version")
		return versionRequest{}, false
	}
	return req, true
}

// readOptionalJSON decodes a body that callers may omit entirely.
func readOptionalJSON(r *http.Request, dst any) error {
	err := readJSON(r, dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func decodeRecordRequest(r *http.Request) (models.Payload, int64, error) {
	var req recordRequest
	if err := readJSON(r, &req); err != nil {
		return nil, 0, fmt.Errorf("%w: invalid JSON body", models.ErrInvalidPayload)
	}
	if len(req.Payload) == 0 {
		return nil, 0, fmt.Errorf("%w: payload is required", models.ErrInvalidPayload)
	}
	payload, err := models.DecodePayload(req.Kind, req.Payload)
	if err != nil {
		return nil, 0, err
	}
	return payload, req.Version, nil
}

func parseFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	f := models.Filter{
		Kind:     models.Kind(q.Get("kind")),
		Category: strings.TrimSpace(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("q")),
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return models.Filter{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", models.ErrInvalidPayload, p.name)
		}
		*p.dst = &t
	}
	var err error
	if f.Month, err = intParam(q.Get("month"), 1, 12); err != nil {
		return models.Filter{}, fmt.Errorf("%w: month: %v", models.ErrInvalidPayload, err)
	}
	if f.Year, err = intParam(q.Get("year"), 1, 9999); err != nil {
		return models.Filter{}, fmt.Errorf("%w: year: %v", models.ErrInvalidPayload, err)
	}
	return f, nil
}

func intParam(raw string, lo, hi int) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%d out of range", n)
	}
	return n, nil
}
