package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/eugenenazirov/binpacker/internal/geometry"
	"github.com/eugenenazirov/binpacker/internal/packer"
	"github.com/eugenenazirov/binpacker/internal/render"
	"github.com/eugenenazirov/binpacker/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// maxItemsPerRequest bounds the expanded item count of a single pack request.
const maxItemsPerRequest = 10000

// Handler wires packer and storage dependencies into HTTP handlers.
type Handler struct {
	packer  packer.Packer
	storage storage.Storage

	clock func() time.Time

	mu               sync.RWMutex
	binSizeUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(p packer.Packer, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		packer:  p,
		storage: store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.binSizeUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetBinSize(w http.ResponseWriter, _ *http.Request) {
	size, err := h.storage.GetBinSize()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, binSizeResponse{
		Width:     size.Width,
		Height:    size.Height,
		UpdatedAt: h.currentBinSizeUpdatedAt(),
	})
}

func (h *Handler) handlePutBinSize(w http.ResponseWriter, r *http.Request) {
	var req storage.BinSize
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if err := h.storage.SetBinSize(req); err != nil {
		if errors.Is(err, storage.ErrInvalidBinSize) {
			writeError(w, http.StatusBadRequest, "Invalid bin size", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markBinSizeUpdated()

	size, err := h.storage.GetBinSize()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, binSizeResponse{
		Width:     size.Width,
		Height:    size.Height,
		UpdatedAt: h.currentBinSizeUpdatedAt(),
		Message:   "Bin size updated successfully",
	})
}

func (h *Handler) handlePack(w http.ResponseWriter, r *http.Request) {
	var req packRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	items, err := req.expand()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	size, err := h.storage.GetBinSize()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if req.BinWidth != nil {
		size.Width = *req.BinWidth
	}
	if req.BinHeight != nil {
		size.Height = *req.BinHeight
	}

	start := time.Now()
	result, packErr := h.packer.Pack(items, size.Width, size.Height)
	elapsed := time.Since(start)

	if packErr != nil {
		switch {
		case errors.Is(packErr, packer.ErrInvalidBinSize):
			writeError(w, http.StatusBadRequest, "Invalid bin size", packErr.Error())
		case errors.Is(packErr, packer.ErrInvalidItem):
			writeError(w, http.StatusBadRequest, "Invalid request", packErr.Error())
		default:
			writeInternalError(w, packErr)
		}
		return
	}

	layout, err := h.storage.SaveLayout(storage.Layout{
		Name:      strings.TrimSpace(req.Name),
		BinWidth:  size.Width,
		BinHeight: size.Height,
		Result:    result,
	})
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := newLayoutResponse(layout)
	resp.CalculationTimeMs = elapsed.Milliseconds()
	if len(layout.Result.Dropped) > 0 {
		resp.Suggestion = fmt.Sprintf("%d item(s) exceed the %gx%g bin in both orientations", len(layout.Result.Dropped), size.Width, size.Height)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListLayouts(w http.ResponseWriter, _ *http.Request) {
	layouts, err := h.storage.ListLayouts()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, layoutListResponse{Layouts: layouts, Total: len(layouts)})
}

func (h *Handler) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	layout, ok := h.lookupLayout(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newLayoutResponse(layout))
}

func (h *Handler) handleRenderLayout(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "png"
	}
	contentType, ok := renderContentTypes[format]
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid format", fmt.Sprintf("unsupported render format %q", format), "use one of png, svg, pdf")
		return
	}

	opts := render.DefaultOptions()
	if raw := r.URL.Query().Get("scale"); raw != "" {
		scale, err := strconv.ParseFloat(raw, 64)
		if err != nil || scale <= 0 || scale > 200 {
			writeError(w, http.StatusBadRequest, "Invalid scale", "scale must be a number in (0, 200]")
			return
		}
		opts.Scale = scale
	}

	layout, ok := h.lookupLayout(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = render.PNG(&buf, layout.Result, opts)
	case "svg":
		err = render.SVG(&buf, layout.Result, opts)
	case "pdf":
		err = render.PDF(&buf, layout.Result)
	}
	if err != nil {
		if errors.Is(err, render.ErrNothingToRender) {
			writeError(w, http.StatusUnprocessableEntity, "Nothing to render", err.Error())
			return
		}
		if errors.Is(err, render.ErrCanvasTooLarge) {
			writeError(w, http.StatusUnprocessableEntity, "Layout too large", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", layout.ID+"."+format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) lookupLayout(w http.ResponseWriter, r *http.Request) (storage.Layout, bool) {
	layout, err := h.storage.GetLayout(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrLayoutNotFound) {
			writeError(w, http.StatusNotFound, "Layout not found", err.Error())
			return storage.Layout{}, false
		}
		writeInternalError(w, err)
		return storage.Layout{}, false
	}
	return layout, true
}

func (h *Handler) currentBinSizeUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.binSizeUpdatedAt
}

func (h *Handler) markBinSizeUpdated() {
	h.mu.Lock()
	h.binSizeUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

var renderContentTypes = map[string]string{
	"png": "image/png",
	"svg": "image/svg+xml",
	"pdf": "application/pdf",
}

type packRequest struct {
	Name      string        `json:"name"`
	Items     []itemRequest `json:"items"`
	BinWidth  *float64      `json:"binWidth"`
	BinHeight *float64      `json:"binHeight"`
}

type itemRequest struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Quantity *int    `json:"quantity"`
}

// expand turns the request items into packer input, repeating each entry
// by its quantity. Repeated entries with an ID get "-n" suffixes.
func (req packRequest) expand() ([]geometry.Item, error) {
	items := make([]geometry.Item, 0, len(req.Items))
	for i, in := range req.Items {
		qty := 1
		if in.Quantity != nil {
			qty = *in.Quantity
		}
		if qty <= 0 {
			return nil, fmt.Errorf("items[%d]: quantity must be a positive integer", i)
		}
		if qty > maxItemsPerRequest-len(items) {
			return nil, fmt.Errorf("too many items: at most %d allowed", maxItemsPerRequest)
		}

		for n := 1; n <= qty; n++ {
			item := geometry.Item{ID: in.ID, Label: in.Label, Width: in.Width, Height: in.Height}
			if in.ID != "" && qty > 1 {
				item.ID = in.ID + "-" + strconv.Itoa(n)
			}
			items = append(items, item)
		}
	}
	return items, nil
}

type binResponse struct {
	Index      int             `json:"index"`
	Width      float64         `json:"width"`
	Height     float64         `json:"height"`
	Efficiency float64         `json:"efficiency"`
	Items      []geometry.Item `json:"items"`
}

type layoutResponse struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	BinWidth          float64         `json:"binWidth"`
	BinHeight         float64         `json:"binHeight"`
	Bins              []binResponse   `json:"bins"`
	Dropped           []geometry.Item `json:"dropped"`
	TotalBins         int             `json:"totalBins"`
	PlacedItems       int             `json:"placedItems"`
	Efficiency        float64         `json:"efficiency"`
	CreatedAt         time.Time       `json:"createdAt"`
	CalculationTimeMs int64           `json:"calculationTimeMs"`
	Suggestion        string          `json:"suggestion,omitempty"`
}

func newLayoutResponse(layout storage.Layout) layoutResponse {
	bins := make([]binResponse, len(layout.Result.Bins))
	for i, b := range layout.Result.Bins {
		bins[i] = binResponse{
			Index:      i + 1,
			Width:      b.Width,
			Height:     b.Height,
			Efficiency: b.Efficiency(),
			Items:      b.Items,
		}
	}
	dropped := layout.Result.Dropped
	if dropped == nil {
		dropped = []geometry.Item{}
	}

	return layoutResponse{
		ID:          layout.ID,
		Name:        layout.Name,
		BinWidth:    layout.BinWidth,
		BinHeight:   layout.BinHeight,
		Bins:        bins,
		Dropped:     dropped,
		TotalBins:   len(bins),
		PlacedItems: layout.Result.PlacedCount(),
		Efficiency:  layout.Result.TotalEfficiency(),
		CreatedAt:   layout.CreatedAt,
	}
}

type layoutListResponse struct {
	Layouts []storage.LayoutSummary `json:"layouts"`
	Total   int                     `json:"total"`
}

type binSizeResponse struct {
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	UpdatedAt time.Time `json:"updatedAt"`
	Message   string    `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
