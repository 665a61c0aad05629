package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yesmonga/karting-sub000/internal/config"
	"github.com/yesmonga/karting-sub000/internal/logger"
	"github.com/yesmonga/karting-sub000/internal/models"
	"github.com/yesmonga/karting-sub000/internal/parser"
	"github.com/yesmonga/karting-sub000/internal/repository"
	"github.com/yesmonga/karting-sub000/internal/service"
)

const rankingReport = `Classement final
Pos Kart Equipe Tours Meilleur tour
1 7 LES RAPIDES 71 1:04.900
2 19 TEAM ALPHA 70 1:05.380
`

const pitStopReport = `Arrêts aux stands
Kart 19 TEAM ALPHA
Relais Tour Temps Sortie Tours Entrée Meilleur Moyenne
1 23 00:25:13 14:02:11 23 14:27:40 1:05.998 1:07.450
2 47 00:26:01 14:28:30 24 14:54:31 1:05.380 1:06.900
3 70 00:25:40 14:55:20 23 15:21:00 1:05.700 1:06.800 Arrivée
Kart 7 LES RAPIDES
Relais Tour Temps Sortie Tours Entrée Meilleur Moyenne
1 35 00:38:02 14:02:11 35 14:40:13 1:04.900 1:05.600
2 71 00:39:10 14:41:00 36 15:20:10 1:05.100 1:05.900 Arrivée
`

type testAPI struct {
	handler http.Handler
	repos   *repository.Repositories
	live    *service.LiveService
}

func testConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{
			Address:       ":0",
			CacheTTL:      time.Minute,
			MaxUploadSize: 1 << 20,
		},
		Ballast:  config.BallastConfig{MinWeightKg: 80, StepKg: 2.5},
		Metrics:  config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Features: config.FeaturesConfig{CacheResponse: true},
	}
}

func newTestAPI(t *testing.T, withLive bool) *testAPI {
	t.Helper()
	log := logger.NewNopLogger()
	repos := repository.NewMemoryRepositories()
	cfg := testConfig()

	deps := Dependencies{
		Repos:   repos,
		Import:  service.NewImportService(repos.Race, repos.Result, parser.DefaultOptions(), log),
		Crew:    service.NewCrewService(repos, log),
		Ballast: service.NewBallastService(repos.Driver, cfg.Ballast),
		Logger:  log,
	}
	if withLive {
		deps.Live = service.NewLiveService(repos.LiveSession, repos.OnboardMessage, log)
	}
	return &testAPI{
		handler: NewServer(cfg, deps).Handler(),
		repos:   repos,
		live:    deps.Live,
	}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) upload(t *testing.T, fields map[string]string, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for kind, data := range files {
		fw, err := mw.CreateFormFile(kind, kind+".txt")
		require.NoError(t, err)
		_, err = fw.Write([]byte(data))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) importRace(t *testing.T) *models.Race {
	t.Helper()
	rec := a.upload(t,
		map[string]string{"name": "24H Lohéac", "track": "loheac", "race_date": "2026-06-13"},
		map[string]string{"ranking": rankingReport, "pitstops": pitStopReport},
	)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result service.ImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotNil(t, result.Race)
	return result.Race
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestImportAndReadRace(t *testing.T) {
	api := newTestAPI(t, false)
	race := api.importRace(t)
	assert.Equal(t, "Lohéac", race.Track)
	assert.Equal(t, 2, race.TeamCount)

	rec := api.do(t, http.MethodGet, "/api/v1/races", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	races := decode[[]models.Race](t, rec)
	require.Len(t, races, 1)
	assert.Equal(t, race.ID, races[0].ID)

	rec = api.do(t, http.MethodGet, "/api/v1/races/"+race.ID.String()+"/teams", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	teams := decode[[]TeamSummary](t, rec)
	require.Len(t, teams, 2)
	assert.Equal(t, 7, teams[0].KartNumber)
	assert.Equal(t, "1:04.900", teams[0].BestLap)
	assert.Equal(t, 3, teams[1].Stints)
	assert.Equal(t, []int{23, 47}, teams[1].PitStops)

	rec = api.do(t, http.MethodGet, "/api/v1/races/"+race.ID.String()+"/teams/19/strategy", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	strategy := decode[service.StrategySummary](t, rec)
	assert.Equal(t, 2, strategy.PitCount)

	rec = api.do(t, http.MethodGet, "/api/v1/imports/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[service.ImportStats](t, rec)
	assert.Equal(t, 1, stats.SuccessfulImports)
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		files  map[string]string
		status int
	}{
		{
			name:   "no documents",
			fields: map[string]string{"name": "Race"},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown document kind",
			fields: map[string]string{"name": "Race"},
			files:  map[string]string{"telemetry": "x"},
			status: http.StatusBadRequest,
		},
		{
			name:   "bad race date",
			fields: map[string]string{"name": "Race", "race_date": "13/06/2026"},
			files:  map[string]string{"ranking": rankingReport},
			status: http.StatusBadRequest,
		},
		{
			name:   "missing race name",
			files:  map[string]string{"ranking": rankingReport},
			status: http.StatusBadRequest,
		},
		{
			name:   "undecodable pdf",
			fields: map[string]string{"name": "Race"},
			files:  map[string]string{"ranking": "%PDF-1.4 garbage"},
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "documents without teams",
			fields: map[string]string{"name": "Race"},
			files:  map[string]string{"ranking": "nothing to see here"},
			status: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, false)
			rec := api.upload(t, tt.fields, tt.files)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
		})
	}
}

func TestDryRunImportIsNotStored(t *testing.T) {
	api := newTestAPI(t, false)
	rec := api.upload(t,
		map[string]string{"name": "Essai", "dry_run": "true"},
		map[string]string{"ranking": rankingReport},
	)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, decode[service.ImportResult](t, rec).DryRun)

	rec = api.do(t, http.MethodGet, "/api/v1/races", nil)
	assert.Empty(t, decode[[]models.Race](t, rec))
}

func TestRequestValidation(t *testing.T) {
	api := newTestAPI(t, false)
	race := api.importRace(t)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"invalid race id", "/api/v1/races/not-a-uuid", http.StatusBadRequest},
		{"unknown race", "/api/v1/races/00000000-0000-0000-0000-000000000001", http.StatusNotFound},
		{"invalid kart", "/api/v1/races/" + race.ID.String() + "/teams/abc/laps", http.StatusBadRequest},
		{"unknown kart", "/api/v1/races/" + race.ID.String() + "/teams/99/laps", http.StatusNotFound},
		{"invalid limit", "/api/v1/races?limit=0", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestResponseCaching(t *testing.T) {
	api := newTestAPI(t, false)
	race := api.importRace(t)
	path := "/api/v1/races/" + race.ID.String() + "/teams/19/drivers"

	rec := api.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	rec = api.do(t, http.MethodGet, path, nil)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	rec = api.do(t, http.MethodPut, "/api/v1/races/"+race.ID.String()+"/teams/19/stints/1/driver", AssignDriverRequest{})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, path, nil)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
}

func TestCrewAndBallast(t *testing.T) {
	api := newTestAPI(t, false)
	race := api.importRace(t)
	kart := 19

	rec := api.do(t, http.MethodPost, "/api/v1/teams", CreateTeamRequest{Name: "Team Alpha", KartNumber: &kart})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	team := decode[models.Team](t, rec)

	rec = api.do(t, http.MethodPost, "/api/v1/teams/"+team.ID.String()+"/drivers",
		map[string]interface{}{"name": "Anna Martin", "color": "#f0a", "weight_kg": 72.5})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	driver := decode[models.Driver](t, rec)
	assert.Equal(t, "MAR", driver.Code)
	assert.Equal(t, "#ff00aa", driver.Color)

	rec = api.do(t, http.MethodGet, "/api/v1/teams/"+team.ID.String()+"/drivers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Driver](t, rec), 1)

	rec = api.do(t, http.MethodGet, "/api/v1/drivers/"+driver.ID.String()+"/ballast", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ballast := decode[service.BallastResult](t, rec)
	assert.Equal(t, "7.5", ballast.BallastKg.String())

	rec = api.do(t, http.MethodPut, "/api/v1/races/"+race.ID.String()+"/teams/19/stints/2/driver",
		AssignDriverRequest{DriverID: &driver.ID})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	record, err := api.repos.Result.GetTeam(context.Background(), race.ID, 19)
	require.NoError(t, err)
	require.NotNil(t, record.Stints[1].DriverID)
	assert.Equal(t, driver.ID, *record.Stints[1].DriverID)

	rec = api.do(t, http.MethodPut, "/api/v1/races/"+race.ID.String()+"/teams/19/stints/9/driver",
		AssignDriverRequest{DriverID: &driver.ID})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/teams", CreateTeamRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLiveEndpoints(t *testing.T) {
	t.Run("not running", func(t *testing.T) {
		api := newTestAPI(t, false)
		assert.Equal(t, http.StatusServiceUnavailable, api.do(t, http.MethodGet, "/api/v1/live", nil).Code)
		assert.Equal(t, http.StatusConflict, api.do(t, http.MethodGet, "/api/v1/live/messages", nil).Code)
	})

	t.Run("running", func(t *testing.T) {
		api := newTestAPI(t, true)
		api.live.HandleMessage("init|r|\ntitle1||24 Heures de Lohéac")

		rec := api.do(t, http.MethodGet, "/api/v1/live", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("X-Live-Sequence"))

		msg := PostMessageRequest{KartNumber: 19, Text: "BOX"}
		assert.Equal(t, http.StatusConflict, api.do(t, http.MethodPost, "/api/v1/live/messages", msg).Code)

		_, err := api.live.StartSession(context.Background(), "24H", "wss://timing.example/ws")
		require.NoError(t, err)

		rec = api.do(t, http.MethodPost, "/api/v1/live/messages", msg)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rec = api.do(t, http.MethodGet, "/api/v1/live/messages?limit=10", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]models.OnboardMessage](t, rec), 1)
	})
}

func TestMetricsAndCORS(t *testing.T) {
	api := newTestAPI(t, false)

	rec := api.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/races", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	rec = httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUploadTooLarge(t *testing.T) {
	api := newTestAPI(t, false)
	big := make([]byte, 2<<20)
	for i := range big {
		big[i] = 'x'
	}
	rec := api.upload(t, map[string]string{"name": "Race"}, map[string]string{"ranking": string(big)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
