package server

import (
	"bytes"
	stdjson "encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/finance-planner/internal/planner"
	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type testPlanResponse struct {
	ID         string                 `json:"id"`
	Report     planner.Report         `json:"report"`
	Warnings   []string               `json:"warnings"`
	CSV        string                 `json:"csv"`
	Duration   string                 `json:"duration"`
	Config     map[string]interface{} `json:"config"`
	ConfigYAML string                 `json:"configYaml"`
}

func readTestConfig(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "test", "test_config.yaml"))
	if err != nil {
		t.Fatalf("failed to read test config: %v", err)
	}
	return data
}

func performUpload(t *testing.T, handler http.Handler, contents string, filename string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(contents)); err != nil {
		t.Fatalf("failed to write form data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/plan", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func performEditorJSON(t *testing.T, handler http.Handler, payload interface{}, path string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodePlanResponse(t *testing.T, rr *httptest.ResponseRecorder) testPlanResponse {
	t.Helper()
	var resp testPlanResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp.Error
}

func TestHandlePlanSuccess(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	rr := performUpload(t, handler, string(readTestConfig(t)), "test_config.yaml")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decodePlanResponse(t, rr)
	if resp.ID == "" || resp.ID != resp.Report.ID {
		t.Fatalf("expected matching report id, got %q and %q", resp.ID, resp.Report.ID)
	}
	if len(resp.Report.Plan.CashFlow) != 3 {
		t.Fatalf("expected 3 projection rows, got %d", len(resp.Report.Plan.CashFlow))
	}
	summary := resp.Report.Plan.CashFlowSummary
	if summary == nil || !summary.EndingCash.Equal(decimal.RequireFromString("13299.50")) {
		t.Fatalf("unexpected cash flow summary: %+v", summary)
	}
	if len(resp.Report.Plan.Scenarios) != 3 {
		t.Fatalf("expected 3 scenarios, got %d", len(resp.Report.Plan.Scenarios))
	}
	if !strings.HasPrefix(resp.CSV, "section,name,metric,value\n") {
		t.Fatalf("expected CSV header, got %q", resp.CSV)
	}
	if resp.Duration == "" {
		t.Fatal("expected duration in response")
	}
	if resp.Config == nil {
		t.Fatal("expected config data in response")
	}
	if resp.ConfigYAML == "" {
		t.Fatal("expected config YAML in response")
	}
	if rr.Header().Get(constants.RequestIDHeader) == "" {
		t.Fatal("expected request id header")
	}
}

func TestHandlePlanEditorSuccess(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	var payload map[string]interface{}
	if err := yaml.Unmarshal(readTestConfig(t), &payload); err != nil {
		t.Fatalf("failed to unmarshal yaml: %v", err)
	}

	rr := performEditorJSON(t, handler, map[string]interface{}{
		"config":  payload,
		"options": map[string]interface{}{"periods": 6},
	}, "/api/editor/plan")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decodePlanResponse(t, rr)
	if len(resp.Report.Plan.CashFlow) != 6 {
		t.Fatalf("expected periods option to extend the projection to 6 rows, got %d", len(resp.Report.Plan.CashFlow))
	}
	if len(resp.Report.Plan.Budget) != 2 {
		t.Fatalf("expected 2 budget lines, got %d", len(resp.Report.Plan.Budget))
	}
}

func TestHandlePlanWorkbook(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	var payload map[string]interface{}
	if err := yaml.Unmarshal(readTestConfig(t), &payload); err != nil {
		t.Fatalf("failed to unmarshal yaml: %v", err)
	}

	rr := performEditorJSON(t, handler, payload, "/api/editor/plan?format=xlsx")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Fatalf("expected workbook content type, got %q", ct)
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Disposition"), "attachment; filename=plan-") {
		t.Fatalf("unexpected content disposition %q", rr.Header().Get("Content-Disposition"))
	}

	f, err := excelize.OpenReader(rr.Body)
	if err != nil {
		t.Fatalf("response is not a workbook: %v", err)
	}
	defer func() {
		_ = f.Close()
	}()
	if got, _ := f.GetCellValue("cash_flow", "A2"); got != "2025-01" {
		t.Fatalf("expected first period 2025-01, got %q", got)
	}
}

func TestHandlePlanEditorInvalidOptions(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	tests := map[string]interface{}{
		"options not an object": "yes",
		"fractional periods":    map[string]interface{}{"periods": 1.5},
		"zero periods":          map[string]interface{}{"periods": 0},
		"text periods":          map[string]interface{}{"periods": "twelve"},
	}

	for name, options := range tests {
		t.Run(name, func(t *testing.T) {
			rr := performEditorJSON(t, handler, map[string]interface{}{
				"config":  map[string]interface{}{"ratios": []interface{}{map[string]interface{}{"name": "Q1"}}},
				"options": options,
			}, "/api/editor/plan")
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestHandlePlanEditorInvalidConfigPayload(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	rr := performEditorJSON(t, handler, map[string]interface{}{"config": []int{1, 2}}, "/api/editor/plan")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); !strings.Contains(msg, "expected object") {
		t.Fatalf("unexpected error message %q", msg)
	}
}

func TestHandleConfigExport(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	payload := map[string]interface{}{
		"scenarios": []interface{}{map[string]interface{}{"name": "Baseline", "probability": "1"}},
		"budget":    []interface{}{},
		"output":    map[string]interface{}{"format": "json"},
		"logging":   map[string]interface{}{"level": "info"},
	}

	rr := performEditorJSON(t, handler, payload, "/api/editor/export")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	yamlStr := resp["configYaml"]
	if yamlStr == "" {
		t.Fatal("expected configYaml in response")
	}

	var topLevel []string
	for _, line := range strings.Split(strings.TrimRight(yamlStr, "\n"), "\n") {
		if line == "" || strings.HasPrefix(line, " ") || strings.HasPrefix(line, "-") {
			continue
		}
		topLevel = append(topLevel, strings.SplitN(line, ":", 2)[0])
	}

	expected := []string{"logging", "output", "budget", "scenarios"}
	if strings.Join(topLevel, ",") != strings.Join(expected, ",") {
		t.Fatalf("expected top-level key order %v, got %v", expected, topLevel)
	}
}

func TestHandlePlanMethodNotAllowed(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	for _, path := range []string{"/api/plan", "/api/editor/plan", "/api/editor/export"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected status 405, got %d", path, rr.Code)
		}
	}
}

func TestHandlePlanUploadTooLarge(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 512, "test")

	rr := performUpload(t, handler, strings.Repeat("#", 4096), "config.yaml")
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandlePlanMissingFile(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("note", "no file here"); err != nil {
		t.Fatalf("failed to write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/plan", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); msg != "missing configuration file" {
		t.Fatalf("unexpected error message %q", msg)
	}
}

func TestHandlePlanInvalidYAML(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	rr := performUpload(t, handler, "cashFlow: [", "config.yaml")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandlePlanInputErrors(t *testing.T) {
	tests := map[string]string{
		"empty plan": "output:\n  format: json\n",
		"bad start month": `cashFlow:
  startMonth: "January"
  startingCash: 100
`,
		"unknown budget type": `budget:
  - category: Rent
    type: asset
    criticality: high
    budgeted: 100
    actual: 100
`,
		"unnamed scenario": `scenarios:
  - name: ""
    probability: 1
`,
	}

	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")
	for name, contents := range tests {
		t.Run(name, func(t *testing.T) {
			rr := performUpload(t, handler, contents, "config.yaml")
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}
			if decodeError(t, rr) == "" {
				t.Fatal("expected error message")
			}
		})
	}
}

func TestHandleVersion(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "  ")

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["version"] != "dev" {
		t.Fatalf("expected blank version to fall back to dev, got %q", resp["version"])
	}
}

func TestHealthAndRequestID(t *testing.T) {
	handler := NewHandler(nil, 0, "1.0.0")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(constants.RequestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if got := rr.Header().Get(constants.RequestIDHeader); got != "abc-123" {
		t.Fatalf("expected incoming request id to be echoed, got %q", got)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	h := &handler{logger: zap.NewNop()}
	panicking := h.middlewares().ThenFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	panicking.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
	if rr.Header().Get(constants.RequestIDHeader) == "" {
		t.Fatal("expected request id header on recovered response")
	}
}

func TestCoercePeriods(t *testing.T) {
	valid := map[string]struct {
		in       interface{}
		expected int
	}{
		"float":  {float64(24), 24},
		"int":    {7, 7},
		"int64":  {int64(9), 9},
		"string": {" 18 ", 18},
		"number": {stdjson.Number("36"), 36},
	}
	for name, tt := range valid {
		got, err := coercePeriods(tt.in)
		if err != nil {
			t.Fatalf("%s: coercePeriods() error = %v", name, err)
		}
		if got != tt.expected {
			t.Fatalf("%s: coercePeriods() = %d, expected %d", name, got, tt.expected)
		}
	}

	for _, in := range []interface{}{-1, 2.5, "x", true, nil, stdjson.Number("6.5"), stdjson.Number("0")} {
		if _, err := coercePeriods(in); err == nil {
			t.Fatalf("coercePeriods(%v) expected error", in)
		}
	}
}
