package aamva

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mias/mias/internal/platform/metrics"
)

// maxBatchSize caps the number of scans accepted by one batch request.
const maxBatchSize = 100

// Handler provides HTTP endpoints for driver's license barcode parsing.
type Handler struct {
	concurrency int
}

// NewHandler creates a new barcode handler. concurrency bounds batch parsing.
func NewHandler(concurrency int) *Handler {
	return &Handler{concurrency: concurrency}
}

// RegisterRoutes registers barcode endpoints on the provided route group.
//
//	POST /api/v1/aamva/parse        - Parse one raw scan
//	POST /api/v1/aamva/parse/batch  - Parse many scans
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/aamva/parse", h.ParseScan)
	g.POST("/aamva/parse/batch", h.ParseBatch)
}

type parseRequest struct {
	Raw string `json:"raw"`
}

type parseResponse struct {
	License *License `json:"license"`
	Display string   `json:"display"`
}

type batchRequest struct {
	Scans []string `json:"scans"`
}

type batchResponse struct {
	Results   []Outcome `json:"results"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
}

// ParseScan handles POST /api/v1/aamva/parse. The body is either the raw
// scanner text or JSON of the form {"raw": "..."}.
func (h *Handler) ParseScan(c echo.Context) error {
	raw, err := readScan(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	o := ParseOutcome(raw)
	Observe(raw, o)
	if !o.OK() {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{
			"error": o.Reason(),
		})
	}

	return c.JSON(http.StatusOK, parseResponse{
		License: o.License,
		Display: FormatForDisplay(o),
	})
}

// ParseBatch handles POST /api/v1/aamva/parse/batch.
func (h *Handler) ParseBatch(c echo.Context) error {
	var req batchRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body: " + err.Error(),
		})
	}
	if len(req.Scans) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "scans is required",
		})
	}
	if len(req.Scans) > maxBatchSize {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{
			"error": "too many scans in one batch",
		})
	}

	results := ParseBatch(c.Request().Context(), req.Scans, h.concurrency)
	resp := batchResponse{Results: results}
	for i, o := range results {
		Observe(req.Scans[i], o)
		if o.OK() {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// Observe records parse metrics for one scan.
func Observe(raw string, o Outcome) {
	metrics.BarcodeScanBytes.Observe(float64(len(raw)))
	metrics.BarcodeParsesTotal.WithLabelValues(ResultLabel(o)).Inc()
}

// ResultLabel classifies an outcome for metrics and logs.
func ResultLabel(o Outcome) string {
	var internal *InternalError
	switch {
	case o.OK():
		return "success"
	case errors.Is(o.Err, ErrFormat):
		return "format_error"
	case errors.As(o.Err, &internal):
		return "internal_error"
	default:
		return "error"
	}
}

func readScan(c echo.Context) (string, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return "", errors.New("failed to read request body")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", errors.New("request body is empty")
	}

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		var req parseRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return "", errors.New("invalid request body: " + err.Error())
		}
		if strings.TrimSpace(req.Raw) == "" {
			return "", errors.New("raw is required")
		}
		return req.Raw, nil
	}
	return string(body), nil
}
