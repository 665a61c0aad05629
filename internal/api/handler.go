package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yesmonga/karting-sub000/internal/datasource"
	"github.com/yesmonga/karting-sub000/internal/models"
	"github.com/yesmonga/karting-sub000/internal/parser"
	"github.com/yesmonga/karting-sub000/internal/repository"
	"github.com/yesmonga/karting-sub000/internal/service"
)

const (
	apiPrefix        = "/api/v1"
	defaultListLimit = 50
	maxListLimit     = 500
	dateLayout       = "2006-01-02"
)

// Dependencies holds the services behind the API. Live may be nil when no
// live feed is followed.
type Dependencies struct {
	Repos   *repository.Repositories
	Import  *service.ImportService
	Crew    *service.CrewService
	Ballast *service.BallastService
	Live    *service.LiveService
	Logger  *logrus.Logger
}

// Handler serves the API endpoints
type Handler struct {
	races     repository.RaceRepository
	results   repository.ResultRepository
	importer  *service.ImportService
	crew      *service.CrewService
	ballast   *service.BallastService
	live      *service.LiveService
	cache     *ResponseCache
	maxUpload int64
	logger    *logrus.Entry
}

// NewHandler creates a new handler
func NewHandler(deps Dependencies, cache *ResponseCache, maxUpload int64) *Handler {
	return &Handler{
		races:     deps.Repos.Race,
		results:   deps.Repos.Result,
		importer:  deps.Import,
		crew:      deps.Crew,
		ballast:   deps.Ballast,
		live:      deps.Live,
		cache:     cache,
		maxUpload: maxUpload,
		logger:    deps.Logger.WithField("component", "api"),
	}
}

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// TeamSummary is a team record without its lap history
type TeamSummary struct {
	Position   int    `json:"position"`
	KartNumber int    `json:"kart_number"`
	TeamName   string `json:"team_name"`
	TotalLaps  int    `json:"total_laps"`
	BestLapMs  int    `json:"best_lap_ms"`
	BestLap    string `json:"best_lap"`
	Stints     int    `json:"stints"`
	PitStops   []int  `json:"pit_stops"`
}

// ListRaces handles GET /races
func (h *Handler) ListRaces(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondCached(w, r, func() (interface{}, error) {
		return h.races.List(r.Context(), limit)
	})
}

// GetRace handles GET /races/{id}
func (h *Handler) GetRace(w http.ResponseWriter, r *http.Request) {
	raceID, err := uuidParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondCached(w, r, func() (interface{}, error) {
		return h.races.GetByID(r.Context(), raceID)
	})
}

// ListRaceTeams handles GET /races/{id}/teams
func (h *Handler) ListRaceTeams(w http.ResponseWriter, r *http.Request) {
	raceID, err := uuidParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondCached(w, r, func() (interface{}, error) {
		if _, err := h.races.GetByID(r.Context(), raceID); err != nil {
			return nil, err
		}
		teams, err := h.results.GetTeams(r.Context(), raceID)
		if err != nil {
			return nil, err
		}
		out := make([]TeamSummary, 0, len(teams))
		for _, t := range teams {
			out = append(out, TeamSummary{
				Position:   t.Position,
				KartNumber: t.KartNumber,
				TeamName:   t.TeamName,
				TotalLaps:  t.TotalLaps,
				BestLapMs:  t.BestLapMs,
				BestLap:    parser.FormatMs(t.BestLapMs),
				Stints:     len(t.Stints),
				PitStops:   append([]int{}, t.PitStops...),
			})
		}
		return out, nil
	})
}

// GetLapChart handles GET /races/{id}/teams/{kart}/laps
func (h *Handler) GetLapChart(w http.ResponseWriter, r *http.Request) {
	h.withTeamRecord(w, r, func(team *models.TeamRecord) (interface{}, error) {
		return service.LapChart(team), nil
	})
}

// GetStrategy handles GET /races/{id}/teams/{kart}/strategy
func (h *Handler) GetStrategy(w http.ResponseWriter, r *http.Request) {
	h.withTeamRecord(w, r, func(team *models.TeamRecord) (interface{}, error) {
		return service.Strategy(team), nil
	})
}

// GetDriverStats handles GET /races/{id}/teams/{kart}/drivers
func (h *Handler) GetDriverStats(w http.ResponseWriter, r *http.Request) {
	h.withTeamRecord(w, r, func(team *models.TeamRecord) (interface{}, error) {
		drivers, err := h.crew.DriversForRecord(r.Context(), team)
		if err != nil {
			return nil, err
		}
		return service.DriverStats(team, drivers), nil
	})
}

func (h *Handler) withTeamRecord(w http.ResponseWriter, r *http.Request, fn func(*models.TeamRecord) (interface{}, error)) {
	raceID, err := uuidParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	kart, err := intParam(r, "kart")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondCached(w, r, func() (interface{}, error) {
		team, err := h.results.GetTeam(r.Context(), raceID, kart)
		if err != nil {
			return nil, err
		}
		return fn(team)
	})
}

// AssignDriverRequest is the body of a stint driver assignment
type AssignDriverRequest struct {
	DriverID *uuid.UUID `json:"driver_id"`
}

// AssignStintDriver handles PUT /races/{id}/teams/{kart}/stints/{n}/driver
func (h *Handler) AssignStintDriver(w http.ResponseWriter, r *http.Request) {
	raceID, err := uuidParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	kart, err := intParam(r, "kart")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	stint, err := intParam(r, "n")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req AssignDriverRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.crew.AssignDriver(r.Context(), raceID, kart, stint, req.DriverID); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.cache.InvalidatePrefix(fmt.Sprintf("%s/races/%s/teams/%d/", apiPrefix, raceID, kart))
	w.WriteHeader(http.StatusNoContent)
}

// CreateImport handles POST /imports, a multipart form holding the race
// fields and up to three documents named after their kind
func (h *Handler) CreateImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		h.respondError(w, r, fmt.Errorf("%w: %w", models.ErrInvalidInput, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := service.ImportRequest{
		Name:  r.FormValue("name"),
		Track: r.FormValue("track"),
	}
	if v := r.FormValue("race_date"); v != "" {
		date, err := time.Parse(dateLayout, v)
		if err != nil {
			h.respondError(w, r, fmt.Errorf("%w: race_date must be YYYY-MM-DD", models.ErrInvalidInput))
			return
		}
		req.RaceDate = date
	}
	if v := r.FormValue("dry_run"); v != "" {
		dryRun, err := strconv.ParseBool(v)
		if err != nil {
			h.respondError(w, r, fmt.Errorf("%w: dry_run must be a boolean", models.ErrInvalidInput))
			return
		}
		req.DryRun = dryRun
	}

	docs := make(map[datasource.DocumentKind]datasource.Document)
	for field, headers := range r.MultipartForm.File {
		kind, err := datasource.ParseDocumentKind(field)
		if err != nil {
			h.respondError(w, r, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
			return
		}
		if len(headers) == 0 {
			continue
		}
		data, err := readUpload(headers[0])
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		docs[kind] = datasource.Document{Name: headers[0].Filename, Data: data}
	}
	if len(docs) == 0 {
		h.respondError(w, r, fmt.Errorf("%w: no document uploaded", models.ErrInvalidInput))
		return
	}
	req.Source = datasource.NewMemorySource(docs)

	result, err := h.importer.Import(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if !result.DryRun {
		h.cache.InvalidatePrefix(apiPrefix + "/races")
	}
	h.respondJSON(w, http.StatusCreated, result)
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return data, nil
}

// GetImportStats handles GET /imports/stats
func (h *Handler) GetImportStats(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.importer.Metrics().Stats())
}

// CreateTeamRequest is the body of a team creation
type CreateTeamRequest struct {
	Name       string `json:"name"`
	KartNumber *int   `json:"kart_number"`
}

// ListTeams handles GET /teams
func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	h.respondCached(w, r, func() (interface{}, error) {
		return h.crew.ListTeams(r.Context())
	})
}

// CreateTeam handles POST /teams
func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	team, err := h.crew.CreateTeam(r.Context(), req.Name, req.KartNumber)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.cache.InvalidatePrefix(apiPrefix + "/teams")
	h.respondJSON(w, http.StatusCreated, team)
}

// ListDrivers handles GET /teams/{id}/drivers
func (h *Handler) ListDrivers(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuidParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondCached(w, r, func() (interface{}, error) {
		return h.crew.ListDrivers(r.Context(), teamID)
	})
}

// CreateDriver handles POST /teams/{id}/drivers
func (h *Handler) CreateDriver(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuidParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req service.DriverInput
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	driver, err := h.crew.CreateDriver(r.Context(), teamID, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.cache.InvalidatePrefix(apiPrefix + "/teams/" + teamID.String())
	h.cache.InvalidatePrefix(apiPrefix + "/races")
	h.respondJSON(w, http.StatusCreated, driver)
}

// GetDriverBallast handles GET /drivers/{id}/ballast
func (h *Handler) GetDriverBallast(w http.ResponseWriter, r *http.Request) {
	driverID, err := uuidParam(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.ballast.ForDriver(r.Context(), driverID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// GetLive handles GET /live, the relay snapshot of the live state
func (h *Handler) GetLive(w http.ResponseWriter, r *http.Request) {
	if h.live == nil {
		h.respondJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "live timing is not running"})
		return
	}
	snap := h.live.State().Snapshot()
	w.Header().Set("X-Live-Sequence", strconv.FormatUint(snap.Sequence, 10))
	h.respondJSON(w, http.StatusOK, snap)
}

// PostMessageRequest is the body of an onboard message
type PostMessageRequest struct {
	KartNumber int    `json:"kart_number"`
	Text       string `json:"text"`
}

// PostLiveMessage handles POST /live/messages
func (h *Handler) PostLiveMessage(w http.ResponseWriter, r *http.Request) {
	if h.live == nil {
		h.respondError(w, r, models.ErrNoActiveSession)
		return
	}
	var req PostMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	msg, err := h.live.PostMessage(r.Context(), req.KartNumber, req.Text)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, msg)
}

// ListLiveMessages handles GET /live/messages
func (h *Handler) ListLiveMessages(w http.ResponseWriter, r *http.Request) {
	if h.live == nil {
		h.respondError(w, r, models.ErrNoActiveSession)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	msgs, err := h.live.Messages(r.Context(), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []*models.OnboardMessage{}
	}
	h.respondJSON(w, http.StatusOK, msgs)
}

// respondCached serves a read-only response from the cache, loading and
// storing it on a miss
func (h *Handler) respondCached(w http.ResponseWriter, r *http.Request, load func() (interface{}, error)) {
	key := r.URL.RequestURI()
	if body, ok := h.cache.Get(key); ok {
		w.Header().Set("X-Cache", "HIT")
		writeBody(w, http.StatusOK, body)
		return
	}

	v, err := load()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	body, err := encodeJSON(v)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.cache.Set(key, body)
	w.Header().Set("X-Cache", "MISS")
	writeBody(w, http.StatusOK, body)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := encodeJSON(v)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeBody(w, status, body)
}

// respondError maps an error to its HTTP status
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
	}
	h.respondJSON(w, status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var docErr *parser.MalformedDocumentError
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrDuplicateKey), errors.Is(err, models.ErrNoActiveSession):
		return http.StatusConflict
	case errors.Is(err, service.ErrWeightMissing), errors.Is(err, models.ErrNoTeams), errors.As(err, &docErr):
		return http.StatusUnprocessableEntity
	case datasource.IsInvalidData(err):
		return http.StatusUnprocessableEntity
	case datasource.IsNotFound(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func encodeJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return buf.Bytes(), nil
}

func writeBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", models.ErrInvalidInput, err)
	}
	return nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s", models.ErrInvalidID, name)
	}
	return id, nil
}

func intParam(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive number", models.ErrInvalidInput, name)
	}
	return v, nil
}

func queryLimit(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("limit"))
	if v == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(v)
	if err != nil || limit < 1 || limit > maxListLimit {
		return 0, fmt.Errorf("%w: limit must be between 1 and %d", models.ErrInvalidInput, maxListLimit)
	}
	return limit, nil
}
