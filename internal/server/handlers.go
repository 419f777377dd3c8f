package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"tariff-compare/internal/engine"
	"tariff-compare/internal/storage"
	"tariff-compare/internal/tariff"
)

type compareRequest struct {
	UploadID string `json:"uploadId"`
}

type profilePayload struct {
	tariff.ConsumptionProfile
	BillType string `json:"billType"`
}

type compareResponse struct {
	OK       bool                 `json:"ok"`
	Profile  profilePayload       `json:"profile"`
	Ranked   []tariff.RankedOffer `json:"ranked"`
	Best     *tariff.RankedOffer  `json:"best"`
	RunnerUp *tariff.RankedOffer  `json:"runnerUp"`
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type resultResponse struct {
	UploadID    string          `json:"uploadId"`
	Profile     json.RawMessage `json:"profile"`
	Ranked      json.RawMessage `json:"ranked"`
	BestOfferID *string         `json:"bestOfferId"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	uploadID, err := uuid.Parse(req.UploadID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "uploadId must be a valid UUID")
		return
	}

	result, err := s.comparer.CompareOffers(r.Context(), uploadID)
	if err != nil {
		s.logger.Warn().Err(err).Stringer("upload_id", uploadID).Msg("comparison failed")
		writeError(w, statusFor(err), err.Error())
		return
	}

	ranked := result.Ranked
	if len(ranked) > s.surfaced {
		ranked = ranked[:s.surfaced]
	}

	writeJSON(w, http.StatusOK, compareResponse{
		OK: true,
		Profile: profilePayload{
			ConsumptionProfile: result.Profile,
			BillType:           string(result.Profile.Commodity),
		},
		Ranked:   ranked,
		Best:     result.Best(),
		RunnerUp: result.RunnerUp(),
	})
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	uploadID, err := uuid.Parse(mux.Vars(r)["uploadId"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "uploadId must be a valid UUID")
		return
	}

	row, err := s.results.LatestComparison(r.Context(), uploadID)
	if err != nil {
		if errors.Is(err, storage.ErrResultNotFound) {
			writeError(w, http.StatusNotFound, "no comparison result for upload")
			return
		}
		s.logger.Error().Err(err).Stringer("upload_id", uploadID).Msg("failed to load result")
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, resultResponse{
		UploadID:    row.UploadID.String(),
		Profile:     row.ProfileJSON,
		Ranked:      row.RankedOffers,
		BestOfferID: row.BestOfferID,
		CreatedAt:   row.CreatedAt,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps engine errors onto the HTTP surface: client-input problems
// are 4xx, catalog emptiness is an upstream data failure, store outages are
// retryable.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrUploadNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, engine.ErrNoActiveOffers), errors.Is(err, tariff.ErrNoEligibleOffers):
		return http.StatusBadGateway
	case errors.Is(err, engine.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{OK: false, Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
