// Package handlers provides the HTTP handlers of the reference API.
// This file implements the HTTPHandler interface with dependency injection.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/giygas/vetref-api/calculators"
	"github.com/giygas/vetref-api/compat"
	"github.com/giygas/vetref-api/interfaces"
	"github.com/giygas/vetref-api/logging"
	"github.com/giygas/vetref-api/metrics"
	"github.com/giygas/vetref-api/registry"
	"github.com/go-chi/chi/v5"
)

// defaultMaxBodyBytes caps JSON request bodies when no limit is configured
const defaultMaxBodyBytes = 1 << 20

// Defaults are applied to compatibility checks that leave policy or fluid
// empty. MaxBodyBytes caps JSON bodies read by the POST handlers.
type Defaults struct {
	Policy       compat.Policy
	Fluid        compat.Fluid
	MaxBodyBytes int64
}

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	store         interfaces.RegistryStore
	validator     interfaces.DataValidator
	healthChecker interfaces.HealthChecker
	defaults      Defaults
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(store interfaces.RegistryStore, validator interfaces.DataValidator, healthChecker interfaces.HealthChecker, defaults Defaults) interfaces.HTTPHandler {
	if defaults.Policy == "" {
		defaults.Policy = compat.PolicyStandard
	}
	if defaults.Fluid == "" {
		defaults.Fluid = compat.FluidNS
	}
	if defaults.MaxBodyBytes <= 0 {
		defaults.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &HTTPHandlerImpl{
		store:         store,
		validator:     validator,
		healthChecker: healthChecker,
		defaults:      defaults,
	}
}

// Tool is one dashboard entry.
type Tool struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Method      string `json:"method"`
	Endpoint    string `json:"endpoint"`
}

// Tools lists the dashboard entries in display order
var Tools = []Tool{
	{
		ID:          "compatibility",
		Title:       "Drug Compatibility Checker",
		Description: "Y-site compatibility for a set of IV drugs, with carrier fluid notes.",
		Method:      http.MethodPost,
		Endpoint:    "/v1/compatibility/check",
	},
	{
		ID:          "transfusion",
		Title:       "Transfusion Calculator",
		Description: "Whole blood volume needed to reach a target PCV.",
		Method:      http.MethodPost,
		Endpoint:    "/v1/calculators/transfusion",
	},
	{
		ID:          "cri",
		Title:       "CRI Calculator",
		Description: "Pump rate for a constant-rate infusion with dose range checks.",
		Method:      http.MethodPost,
		Endpoint:    "/v1/calculators/cri",
	},
	{
		ID:          "rounding",
		Title:       "ICU Rounding Sheet",
		Description: "Handoff summary for one patient round. Nothing is stored.",
		Method:      http.MethodPost,
		Endpoint:    "/v1/rounding/summary",
	},
}

// CheckRequest is the body of POST /v1/compatibility/check
type CheckRequest struct {
	Drugs  []string `json:"drugs"`
	Policy string   `json:"policy"`
	Fluid  string   `json:"fluid"`
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithErrorFields(w, code, message, nil)
}

func (h *HTTPHandlerImpl) respondWithErrorFields(w http.ResponseWriter, code int, message string, extra map[string]any) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	for k, v := range extra {
		errorResponse[k] = v
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// registry returns the active snapshot or answers 503 when none is loaded
func (h *HTTPHandlerImpl) registry(w http.ResponseWriter) *registry.Registry {
	reg := h.store.GetRegistry()
	if reg == nil {
		h.RespondWithError(w, http.StatusServiceUnavailable, "Registry not loaded")
	}
	return reg
}

// decodeBody reads a JSON request body into v, rejecting unknown fields
func (h *HTTPHandlerImpl) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.defaults.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		logging.Warn("Invalid request body", "path", r.URL.Path, "error", err)
		h.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// ServeDashboard lists the available tools
func (h *HTTPHandlerImpl) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"title":      "Vet ICU Reference",
		"tools":      Tools,
		"disclaimer": compat.Disclaimer,
	})
}

// HealthCheck returns service health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, httpStatus := h.healthChecker.HealthCheck()
	h.RespondWithJSON(w, httpStatus, map[string]any{
		"status": status,
		"data":   details,
	})
}

// ServeDrugsV1 returns the catalog, optionally filtered by ?q= against
// canonical, common and brand names
func (h *HTTPHandlerImpl) ServeDrugsV1(w http.ResponseWriter, r *http.Request) {
	reg := h.registry(w)
	if reg == nil {
		return
	}

	q := r.URL.Query().Get("q")
	if q != "" {
		if err := h.validator.ValidateInput(q); err != nil {
			logging.Warn("Unusual user input", "q", q, "error", err)
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	drugs := reg.Search(q)

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"count": len(drugs),
		"drugs": drugs,
	})
}

// ServeDrugV1 resolves a name or alias and returns the catalog record
func (h *HTTPHandlerImpl) ServeDrugV1(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.validator.ValidateInput(name); err != nil {
		logging.Warn("Unusual user input", "name", name, "error", err)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	reg := h.registry(w)
	if reg == nil {
		return
	}

	rec, err := reg.Record(name)
	if err != nil {
		metrics.UnrecognizedDrugTotal.Inc()
		h.RespondWithError(w, http.StatusNotFound, err.Error())
		return
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"drug":     rec,
		"guidance": rec.Guidance(),
	})
}

// ServeRulesV1 returns the rule table with its provenance and legend
func (h *HTTPHandlerImpl) ServeRulesV1(w http.ResponseWriter, r *http.Request) {
	reg := h.registry(w)
	if reg == nil {
		return
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"source": reg.Source(),
		"legend": reg.Legend(),
		"count":  reg.RuleCount(),
		"rules":  reg.Rules(),
	})
}

// CheckCompatibilityV1 evaluates every pair of the submitted drugs
func (h *HTTPHandlerImpl) CheckCompatibilityV1(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.validator.ValidateSelection(req.Drugs); err != nil {
		logging.Warn("Unusual user input", "drugs", req.Drugs, "error", err)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	policy := h.defaults.Policy
	if req.Policy != "" {
		p, err := compat.ParsePolicy(req.Policy)
		if err != nil {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		policy = p
	}

	fluid := h.defaults.Fluid
	if req.Fluid != "" {
		f, err := compat.ParseFluid(req.Fluid)
		if err != nil {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		fluid = f
	}

	reg := h.registry(w)
	if reg == nil {
		return
	}

	report, err := compat.Check(reg, req.Drugs, policy, fluid)
	switch {
	case errors.Is(err, registry.ErrUnrecognizedDrug):
		metrics.UnrecognizedDrugTotal.Inc()
		h.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, compat.ErrInsufficientSelection):
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		logging.Error("Compatibility check failed", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Compatibility check failed")
		return
	}

	metrics.RecordCheck(string(report.Overall), string(report.Policy))
	h.RespondWithJSON(w, http.StatusOK, report)
}

// TransfusionV1 estimates a whole blood transfusion volume
func (h *HTTPHandlerImpl) TransfusionV1(w http.ResponseWriter, r *http.Request) {
	var in calculators.TransfusionInput
	if !h.decodeBody(w, r, &in) {
		return
	}

	res, err := calculators.Transfusion(in)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.RespondWithJSON(w, http.StatusOK, res)
}

// CRIV1 computes a constant-rate infusion pump rate
func (h *HTTPHandlerImpl) CRIV1(w http.ResponseWriter, r *http.Request) {
	var in calculators.CRIInput
	if !h.decodeBody(w, r, &in) {
		return
	}

	if in.Drug != "" {
		if err := h.validator.ValidateInput(in.Drug); err != nil {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	reg := h.registry(w)
	if reg == nil {
		return
	}

	res, err := calculators.CRI(reg, in)
	switch {
	case errors.Is(err, registry.ErrUnrecognizedDrug):
		metrics.UnrecognizedDrugTotal.Inc()
		h.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"result": res,
		"text":   res.Text(),
	})
}

// RoundingSummaryV1 validates a rounding sheet and renders its handoff text
func (h *HTTPHandlerImpl) RoundingSummaryV1(w http.ResponseWriter, r *http.Request) {
	var sheet calculators.RoundingSheet
	if !h.decodeBody(w, r, &sheet) {
		return
	}

	if err := sheet.Validate(); err != nil {
		var fields calculators.FieldErrors
		if errors.As(err, &fields) {
			h.respondWithErrorFields(w, http.StatusBadRequest, calculators.ErrInvalidRoundingSheet.Error(), map[string]any{
				"fields": fields,
			})
			return
		}
		h.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid rounding sheet: %v", err))
		return
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"summary": sheet.Summary(),
	})
}
