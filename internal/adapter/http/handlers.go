package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/couchcryptid/tick-tracker/internal/analytics"
	"github.com/couchcryptid/tick-tracker/internal/domain"
	"github.com/couchcryptid/tick-tracker/internal/ingest"
)

// maxReportBytes bounds the body of POST /report.
const maxReportBytes = 1 << 20

// Reporter stores user-submitted sightings.
type Reporter interface {
	Submit(ctx context.Context, s ingest.Submission) (domain.Sighting, error)
}

// Handler serves the query API.
type Handler struct {
	engine   *analytics.Engine
	reporter Reporter
	logger   *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(engine *analytics.Engine, reporter Reporter, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, reporter: reporter, logger: logger}
}

// Status reports that the service is up and how many sightings it holds.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	n, err := h.engine.Count(r.Context())
	if err != nil {
		h.internalError(w, "failed to count sightings", err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "running", SightingsInDatabase: n})
}

// ListSightings returns one page of matching sightings, newest first.
func (h *Handler) ListSightings(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid filter", err)
		return
	}
	page, err := intParam(r.URL.Query(), "page", 1, 1, 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page", err)
		return
	}
	perPage, err := intParam(r.URL.Query(), "per_page", analytics.DefaultPerPage, 1, analytics.MaxPerPage)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid per_page", err)
		return
	}

	result, err := h.engine.List(r.Context(), f, page, perPage)
	if err != nil {
		h.internalError(w, "failed to list sightings", err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{
		Data:       toSightingDTOs(result.Sightings),
		Total:      result.Total,
		Page:       result.Page,
		TotalPages: result.TotalPages,
	})
}

// MapSummary returns one marker per resolvable location.
func (h *Handler) MapSummary(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid filter", err)
		return
	}
	rows, err := h.engine.MapSummary(r.Context(), f)
	if err != nil {
		h.internalError(w, "failed to build map summary", err)
		return
	}
	writeJSON(w, http.StatusOK, toMapPointDTOs(rows))
}

// Timeline returns monthly counts for the location in the path.
func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	// chi routes on RawPath when it is set, leaving the param escaped.
	location := chi.URLParam(r, "location")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(location)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid location", err)
			return
		}
		location = unescaped
	}
	timeline, err := h.engine.Timeline(r.Context(), location, r.URL.Query().Get("species"))
	if err != nil {
		h.internalError(w, "failed to build timeline", err)
		return
	}
	writeJSON(w, http.StatusOK, TimelineResponse{Location: location, Timeline: timeline})
}

// RegionalRollup returns per-location counts and shares.
func (h *Handler) RegionalRollup(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid filter", err)
		return
	}
	rollup, err := h.engine.RegionalRollup(r.Context(), f)
	if err != nil {
		h.internalError(w, "failed to build regional rollup", err)
		return
	}
	writeJSON(w, http.StatusOK, rollup)
}

// SpeciesBreakdown returns per-species counts and shares.
func (h *Handler) SpeciesBreakdown(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid filter", err)
		return
	}
	breakdown, err := h.engine.SpeciesBreakdown(r.Context(), f)
	if err != nil {
		h.internalError(w, "failed to build species breakdown", err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

// Seasonal returns twelve monthly counts for a location, optionally
// restricted to one year.
func (h *Handler) Seasonal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	location := strings.TrimSpace(q.Get("location"))
	if location == "" {
		writeError(w, http.StatusBadRequest, "location is required", nil)
		return
	}
	year, ok := analytics.ParseYear(q.Get("year"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid year", fmt.Errorf("expected a 4-digit year, got %q", q.Get("year")))
		return
	}

	series, err := h.engine.Seasonal(r.Context(), location, year)
	if err != nil {
		h.internalError(w, "failed to build seasonal series", err)
		return
	}

	label := "all years"
	if year > 0 {
		label = strconv.Itoa(year)
	}
	writeJSON(w, http.StatusOK, SeasonalResponse{Location: location, Year: label, Data: series})
}

// Report stores a user-submitted sighting. It accepts a JSON body or a
// (multipart) form with the same field names.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxReportBytes)

	req, err := decodeReport(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	sighting, err := h.reporter.Submit(r.Context(), ingest.Submission{
		Date:       req.Date,
		Time:       req.Time,
		Location:   req.Location,
		Species:    req.Species,
		ReportedBy: req.ReportedBy,
		ImageRef:   req.Image,
	})
	if errors.Is(err, domain.ErrRejected) {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err != nil {
		h.internalError(w, "failed to store report", err)
		return
	}

	writeJSON(w, http.StatusCreated, ReportResponse{
		Success: true,
		Message: "Sighting recorded - thank you!",
		ID:      sighting.ID,
	})
}

// Cities returns the location reference table.
func (h *Handler) Cities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toCityDTOs(domain.Cities()))
}

// Species returns the distinct stored species.
func (h *Handler) Species(w http.ResponseWriter, r *http.Request) {
	species, err := h.engine.Species(r.Context())
	if err != nil {
		h.internalError(w, "failed to list species", err)
		return
	}
	writeJSON(w, http.StatusOK, species)
}

func (h *Handler) internalError(w http.ResponseWriter, message string, err error) {
	h.logger.Error(message, "error", err)
	writeError(w, http.StatusInternalServerError, message, nil)
}

// parseFilter reads the location, species, start_date and end_date query
// parameters. Absent parameters impose no constraint.
func parseFilter(q url.Values) (domain.Filter, error) {
	f := domain.Filter{
		Location: strings.TrimSpace(q.Get("location")),
		Species:  strings.TrimSpace(q.Get("species")),
	}
	if s := q.Get("start_date"); s != "" {
		day, err := domain.ParseDay(s)
		if err != nil {
			return domain.Filter{}, fmt.Errorf("start_date: %w", err)
		}
		f.StartDate = day
	}
	if s := q.Get("end_date"); s != "" {
		day, err := domain.ParseDay(s)
		if err != nil {
			return domain.Filter{}, fmt.Errorf("end_date: %w", err)
		}
		f.EndDate = day
	}
	return f, nil
}

// intParam reads an integer query parameter within [lo, hi]; hi <= 0 leaves
// it unbounded above.
func intParam(q url.Values, name string, def, lo, hi int) (int, error) {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, s)
	}
	if n < lo || (hi > 0 && n > hi) {
		if hi > 0 {
			return 0, fmt.Errorf("%s must be between %d and %d", name, lo, hi)
		}
		return 0, fmt.Errorf("%s must be at least %d", name, lo)
	}
	return n, nil
}

func decodeReport(r *http.Request) (ReportRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req ReportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return ReportRequest{}, err
		}
		return req, nil
	}

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxReportBytes); err != nil {
			return ReportRequest{}, err
		}
	} else if err := r.ParseForm(); err != nil {
		return ReportRequest{}, err
	}
	return ReportRequest{
		Date:       r.PostFormValue("date"),
		Time:       r.PostFormValue("time"),
		Location:   r.PostFormValue("location"),
		Species:    r.PostFormValue("species"),
		ReportedBy: r.PostFormValue("reported_by"),
		Image:      r.PostFormValue("image"),
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // response already committed
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
