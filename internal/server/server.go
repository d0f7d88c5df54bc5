package server

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/finance-planner/internal/config"
	"github.com/iwvelando/finance-planner/internal/planner"
	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/finance"
	"github.com/iwvelando/finance-planner/pkg/output"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	limiter       *rateLimiter
}

// Option customizes the handler built by NewHandler.
type Option func(*handler)

// WithRateLimit limits each client to requestsPerSecond with the given burst.
// A non-positive rate disables limiting.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(h *handler) {
		if requestsPerSecond > 0 {
			h.limiter = newRateLimiter(requestsPerSecond, burst, h.logger)
		}
	}
}

type planOptions struct {
	Periods int
}

// NewHandler constructs the HTTP handler that serves the plan API.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string, opts ...Option) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, maxUploadSize: maxUploadSize, version: trimmedVersion}
	for _, opt := range opts {
		opt(h)
	}

	mux := http.NewServeMux()

	// Plan API endpoint (file upload)
	mux.HandleFunc("/api/plan", h.handlePlan)

	// Plan API endpoint for editor-driven updates
	mux.HandleFunc("/api/editor/plan", h.handlePlanEditor)

	// Config serialization endpoint for editor downloads
	mux.HandleFunc("/api/editor/export", h.handleConfigExport)

	mux.HandleFunc("/api/version", h.handleVersion)
	mux.HandleFunc("/healthz", h.handleHealth)

	return h.middlewares().Then(mux)
}

type planResponse struct {
	ID         string                 `json:"id"`
	Report     *planner.Report        `json:"report"`
	Warnings   []string               `json:"warnings,omitempty"`
	CSV        string                 `json:"csv"`
	Duration   string                 `json:"duration"`
	Config     map[string]interface{} `json:"config,omitempty"`
	ConfigYAML string                 `json:"configYaml,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handler) handlePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	const op = "server.handlePlan"
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "missing configuration file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return
	}

	configBytes := buf.Bytes()
	configMap, err := decodeYAMLToMap(configBytes)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("error reading config data, %v", err), op)
		return
	}

	h.runPlan(w, r, configBytes, configMap, start, op, planOptions{})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handlePlanEditor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	const op = "server.handlePlanEditor"
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	payload, err := decodeJSONObject(r.Body)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode configuration: %v", err), op)
		return
	}

	configPayload := payload
	if rawConfig, ok := payload["config"]; ok {
		cfgMap, ok := rawConfig.(map[string]interface{})
		if !ok {
			h.respondError(w, r, http.StatusBadRequest, "invalid config payload: expected object", op)
			return
		}
		configPayload = cfgMap
	}

	options := planOptions{}
	if rawOptions, ok := payload["options"]; ok {
		optsMap, ok := rawOptions.(map[string]interface{})
		if !ok {
			h.respondError(w, r, http.StatusBadRequest, "invalid options payload: expected object", op)
			return
		}
		if periodsVal, ok := optsMap["periods"]; ok {
			periods, err := coercePeriods(periodsVal)
			if err != nil {
				h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid periods option: %v", err), op)
				return
			}
			options.Periods = periods
		}
	}

	configBytes, err := yaml.Marshal(yamlNumbers(configPayload))
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	h.runPlan(w, r, configBytes, configPayload, start, op, options)
}

func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	const op = "server.handleConfigExport"
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	payload, err := decodeJSONObject(r.Body)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode configuration: %v", err), op)
		return
	}

	yamlBytes, err := marshalOrderedConfigYAML(payload)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

// marshalOrderedConfigYAML writes logging and output first, then every other
// top-level key in sorted order.
func marshalOrderedConfigYAML(payload map[string]interface{}) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range []string{"logging", "output"} {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key := range payload {
		if _, already := seen[key]; already {
			continue
		}
		remainingKeys = append(remainingKeys, key)
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	return yaml.Marshal(orderedConfig{items: items})
}

type orderedConfig struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedConfig) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}

	for _, item := range o.items {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: item.key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(yamlNumbers(item.value)); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}

	return mapNode, nil
}

func (h *handler) runPlan(w http.ResponseWriter, r *http.Request, configBytes []byte, configMap map[string]interface{}, start time.Time, op string, opts planOptions) {
	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	if opts.Periods > 0 && cfg.CashFlow != nil {
		cfg.CashFlow.Periods = opts.Periods
	}

	report, err := planner.GetReport(h.logger, *cfg)
	if err != nil {
		h.respondError(w, r, statusForPlanError(err), err.Error(), op)
		return
	}

	elapsed := time.Since(start)

	if r.URL.Query().Get("format") == constants.OutputFormatXLSX {
		h.writeWorkbook(w, r, report, op)
		return
	}

	if configMap == nil {
		configMap = make(map[string]interface{})
	}

	response := planResponse{
		ID:         report.ID,
		Report:     report,
		Warnings:   report.Warnings,
		CSV:        output.CsvString(report),
		Duration:   elapsed.String(),
		Config:     configMap,
		ConfigYAML: string(configBytes),
	}

	h.logger.Info("plan computed",
		zap.String("op", op),
		zap.String("request_id", RequestID(r.Context())),
		zap.String("report_id", report.ID),
		zap.Int("warnings", len(report.Warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *handler) writeWorkbook(w http.ResponseWriter, r *http.Request, report *planner.Report, op string) {
	var buf bytes.Buffer
	if err := output.XLSXFormat(&buf, report); err != nil {
		h.respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to build workbook: %v", err), op)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=plan-%s.xlsx", report.ID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("failed to write workbook",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

// statusForPlanError maps caller mistakes to 400 and everything else to 500.
func statusForPlanError(err error) int {
	var inputErr *finance.InputError
	switch {
	case errors.Is(err, planner.ErrEmptyPlan),
		errors.As(err, &inputErr),
		errors.Is(err, finance.ErrInvalidPeriods),
		errors.Is(err, finance.ErrInvalidStartMonth):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) respondError(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	h.logger.Error("plan request failed",
		zap.String("op", op),
		zap.String("request_id", RequestID(r.Context())),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

// coercePeriods accepts the numeric shapes a JSON or form client may send.
func coercePeriods(value interface{}) (int, error) {
	var periods int
	switch v := value.(type) {
	case stdjson.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s is not a whole number", v)
		}
		periods = int(n)
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%v is not a whole number", v)
		}
		periods = int(v)
	case int:
		periods = v
	case int64:
		periods = int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, err
		}
		periods = parsed
	default:
		return 0, fmt.Errorf("unsupported type %T", value)
	}
	if periods < 1 {
		return 0, finance.ErrInvalidPeriods
	}
	return periods, nil
}
