package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/giygas/vetref-api/interfaces"
	"github.com/giygas/vetref-api/registry"
	"github.com/giygas/vetref-api/validation"
	"github.com/go-chi/chi/v5"
)

// ============================================================================
// TEST DATA
// ============================================================================

// defaultRegistry loads the embedded registry or fails the test
func defaultRegistry(t testing.TB) *registry.Registry {
	t.Helper()
	reg, err := registry.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	return reg
}

// ============================================================================
// BUILDERS
// ============================================================================

// MockRegistryStoreBuilder provides fluent interface for building mock stores
type MockRegistryStoreBuilder struct {
	store *MockRegistryStore
}

func NewMockRegistryStoreBuilder() *MockRegistryStoreBuilder {
	return &MockRegistryStoreBuilder{
		store: &MockRegistryStore{lastUpdated: time.Now()},
	}
}

func (b *MockRegistryStoreBuilder) WithRegistry(reg *registry.Registry) *MockRegistryStoreBuilder {
	b.store.reg = reg
	return b
}

func (b *MockRegistryStoreBuilder) WithUpdating(updating bool) *MockRegistryStoreBuilder {
	b.store.updating = updating
	return b
}

func (b *MockRegistryStoreBuilder) Build() *MockRegistryStore {
	return b.store
}

// MockDataValidatorBuilder provides fluent interface for building mock validators
type MockDataValidatorBuilder struct {
	validator *MockDataValidator
}

func NewMockDataValidatorBuilder() *MockDataValidatorBuilder {
	return &MockDataValidatorBuilder{
		validator: &MockDataValidator{},
	}
}

func (b *MockDataValidatorBuilder) WithInputError(err error) *MockDataValidatorBuilder {
	b.validator.inputError = err
	return b
}

func (b *MockDataValidatorBuilder) WithSelectionError(err error) *MockDataValidatorBuilder {
	b.validator.selectionError = err
	return b
}

func (b *MockDataValidatorBuilder) Build() *MockDataValidator {
	return b.validator
}

// MockHealthCheckerBuilder provides fluent interface for building mock health checkers
type MockHealthCheckerBuilder struct {
	checker *MockHealthChecker
}

func NewMockHealthCheckerBuilder() *MockHealthCheckerBuilder {
	return &MockHealthCheckerBuilder{
		checker: &MockHealthChecker{
			status:     "healthy",
			details:    map[string]any{"drugs": 41, "rules": 22},
			httpStatus: http.StatusOK,
		},
	}
}

func (b *MockHealthCheckerBuilder) WithStatus(status string, httpStatus int) *MockHealthCheckerBuilder {
	b.checker.status = status
	b.checker.httpStatus = httpStatus
	return b
}

func (b *MockHealthCheckerBuilder) Build() *MockHealthChecker {
	return b.checker
}

// newTestHandler wires the embedded registry with the real validator
func newTestHandler(t testing.TB) *HTTPHandlerImpl {
	t.Helper()
	store := NewMockRegistryStoreBuilder().WithRegistry(defaultRegistry(t)).Build()
	return NewHTTPHandler(store, validation.NewDataValidator(), NewMockHealthCheckerBuilder().Build(), Defaults{}).(*HTTPHandlerImpl)
}

// ============================================================================
// HTTP HELPERS
// ============================================================================

// HTTPTestHelper provides utilities for HTTP handler testing
type HTTPTestHelper struct {
	t *testing.T
}

func NewHTTPTestHelper(t *testing.T) *HTTPTestHelper {
	return &HTTPTestHelper{t: t}
}

// ExecuteRequest executes an HTTP handler with given parameters
func (h *HTTPTestHelper) ExecuteRequest(handler http.HandlerFunc, method, path string, urlParams map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)

	if len(urlParams) > 0 {
		rctx := chi.NewRouteContext()
		for key, value := range urlParams {
			rctx.URLParams.Add(key, value)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

// PostJSON executes a handler with a JSON body
func (h *HTTPTestHelper) PostJSON(handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

// AssertJSONResponse asserts that response contains valid JSON with expected status
func (h *HTTPTestHelper) AssertJSONResponse(resp *httptest.ResponseRecorder, expectedStatus int, target any) {
	h.t.Helper()
	if resp.Code != expectedStatus {
		h.t.Errorf("Expected status %d, got %d (body %s)", expectedStatus, resp.Code, resp.Body.String())
	}

	bodyStr := resp.Body.String()
	if bodyStr == "" {
		h.t.Error("Response body should not be empty")
	}

	if err := json.Unmarshal([]byte(bodyStr), target); err != nil {
		h.t.Errorf("Response should be valid JSON, got error: %v", err)
	}
}

// AssertErrorResponse asserts the error envelope and returns it
func (h *HTTPTestHelper) AssertErrorResponse(resp *httptest.ResponseRecorder, expectedStatus int) map[string]any {
	h.t.Helper()
	if resp.Code != expectedStatus {
		h.t.Errorf("Expected status %d, got %d (body %s)", expectedStatus, resp.Code, resp.Body.String())
	}

	var errorResp map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &errorResp); err != nil {
		h.t.Errorf("Error response should be valid JSON, got error: %v", err)
	}

	if _, ok := errorResp["error"]; !ok {
		h.t.Error("Error response should have error field")
	}
	if _, ok := errorResp["message"]; !ok {
		h.t.Error("Error response should have message field")
	}
	if errorResp["code"] != float64(expectedStatus) {
		h.t.Errorf("Error response code should be %d, got %v", expectedStatus, errorResp["code"])
	}
	return errorResp
}

// ============================================================================
// MOCK IMPLEMENTATIONS
// ============================================================================

// MockRegistryStore implements interfaces.RegistryStore for testing
type MockRegistryStore struct {
	reg         *registry.Registry
	checksum    uint64
	report      *interfaces.DataQualityReport
	lastUpdated time.Time
	updating    bool
}

func (m *MockRegistryStore) GetRegistry() *registry.Registry                 { return m.reg }
func (m *MockRegistryStore) GetChecksum() uint64                             { return m.checksum }
func (m *MockRegistryStore) GetQualityReport() *interfaces.DataQualityReport { return m.report }
func (m *MockRegistryStore) GetLastUpdated() time.Time                       { return m.lastUpdated }
func (m *MockRegistryStore) IsUpdating() bool                                { return m.updating }
func (m *MockRegistryStore) GetServerStartTime() time.Time                   { return time.Time{} }

func (m *MockRegistryStore) UpdateData(reg *registry.Registry, checksum uint64, report *interfaces.DataQualityReport) {
	m.reg, m.checksum, m.report = reg, checksum, report
	m.lastUpdated = time.Now()
}

func (m *MockRegistryStore) BeginUpdate() bool {
	if m.updating {
		return false
	}
	m.updating = true
	return true
}

func (m *MockRegistryStore) EndUpdate() {
	m.updating = false
}

// MockDataValidator implements interfaces.DataValidator for testing
type MockDataValidator struct {
	inputError     error
	selectionError error
}

func (m *MockDataValidator) ValidateInput(input string) error       { return m.inputError }
func (m *MockDataValidator) ValidateSelection(names []string) error { return m.selectionError }

func (m *MockDataValidator) ReportDataQuality(reg *registry.Registry) *interfaces.DataQualityReport {
	return &interfaces.DataQualityReport{}
}

// MockHealthChecker implements interfaces.HealthChecker for testing
type MockHealthChecker struct {
	status     string
	details    map[string]any
	httpStatus int
}

func (m *MockHealthChecker) HealthCheck() (string, map[string]any, int) {
	return m.status, m.details, m.httpStatus
}

// Compile-time checks
var (
	_ interfaces.RegistryStore = (*MockRegistryStore)(nil)
	_ interfaces.DataValidator = (*MockDataValidator)(nil)
	_ interfaces.HealthChecker = (*MockHealthChecker)(nil)
)
