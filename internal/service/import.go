package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yesmonga/karting-sub000/internal/datasource"
	"github.com/yesmonga/karting-sub000/internal/logger"
	"github.com/yesmonga/karting-sub000/internal/metrics"
	"github.com/yesmonga/karting-sub000/internal/models"
	"github.com/yesmonga/karting-sub000/internal/parser"
	"github.com/yesmonga/karting-sub000/internal/repository"
)

// Import stages, used in logs and metrics
const (
	StageLoad     = "load"
	StageParse    = "parse"
	StageValidate = "validate"
	StagePersist  = "persist"
)

// ImportRequest describes one race import
type ImportRequest struct {
	Name     string
	Track    string
	RaceDate time.Time
	Source   datasource.DocumentSource
	DryRun   bool
}

// ImportResult is the outcome of an import
type ImportResult struct {
	Race         *models.Race         `json:"race"`
	Teams        []*models.TeamRecord `json:"teams"`
	Warnings     []string             `json:"warnings"`
	Placeholders bool                 `json:"placeholders"`
	DryRun       bool                 `json:"dry_run"`
	Duration     time.Duration        `json:"duration"`
}

// ImportService handles the race import workflow: load the result
// documents, parse them, normalize and validate the team records, then
// persist the race
type ImportService struct {
	races      repository.RaceRepository
	results    repository.ResultRepository
	validator  *DataValidator
	normalizer *DataNormalizer
	opts       parser.Options
	metrics    *ImportMetrics
	logger     *logger.ImportLogger
	now        func() time.Time
}

// NewImportService creates a new import service
func NewImportService(
	races repository.RaceRepository,
	results repository.ResultRepository,
	opts parser.Options,
	log *logrus.Logger,
) *ImportService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &ImportService{
		races:      races,
		results:    results,
		validator:  NewDataValidator(log),
		normalizer: NewDataNormalizer(log),
		opts:       opts,
		metrics:    NewImportMetrics(),
		logger:     logger.NewImportLogger(log),
		now:        time.Now,
	}
}

// Import runs the whole import. With DryRun nothing is persisted.
func (s *ImportService) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	start := s.now()
	s.metrics.RecordStart()

	race := &models.Race{
		ID:       uuid.New(),
		Name:     s.normalizer.NormalizeRaceName(req.Name),
		Track:    s.normalizer.NormalizeTrackName(req.Track),
		RaceDate: req.RaceDate,
		Status:   models.RaceStatusImported,
	}
	if race.RaceDate.IsZero() {
		race.RaceDate = start.UTC().Truncate(24 * time.Hour)
	}
	if err := s.validator.ValidateRace(race); err != nil {
		s.metrics.RecordValidationError()
		return s.fail(race.Name, StageValidate, err)
	}

	result, err := s.parse(ctx, race.Name, req.Source)
	if err != nil {
		return nil, err
	}
	result.DryRun = req.DryRun

	race.TeamCount = len(result.Teams)
	race.ImportedAt = s.now().UTC()
	race.UpdatedAt = race.ImportedAt
	result.Race = race

	if !req.DryRun {
		persistStart := time.Now()
		if err := s.results.ImportRace(ctx, race, result.Teams); err != nil {
			return s.fail(race.Name, StagePersist, fmt.Errorf("failed to save race: %w", err))
		}
		metrics.RecordImportStage(StagePersist, time.Since(persistStart).Seconds())
	}

	s.finish(result, start)
	return result, nil
}

// Reimport parses new documents for an existing race and replaces its team
// records. Driver assignments of the previous records are lost.
func (s *ImportService) Reimport(ctx context.Context, raceID uuid.UUID, src datasource.DocumentSource) (*ImportResult, error) {
	start := s.now()
	s.metrics.RecordStart()

	race, err := s.races.GetByID(ctx, raceID)
	if err != nil {
		return s.fail(raceID.String(), StageLoad, fmt.Errorf("failed to get race: %w", err))
	}

	result, err := s.parse(ctx, race.Name, src)
	if err != nil {
		return nil, err
	}

	if err := s.results.SaveResults(ctx, race.ID, result.Teams); err != nil {
		return s.fail(race.Name, StagePersist, fmt.Errorf("failed to save results: %w", err))
	}
	race.TeamCount = len(result.Teams)
	result.Race = race

	s.finish(result, start)
	return result, nil
}

// parse loads, parses, normalizes and validates the documents of src
func (s *ImportService) parse(ctx context.Context, raceName string, src datasource.DocumentSource) (*ImportResult, error) {
	if src == nil {
		return s.fail(raceName, StageLoad, errors.New("no document source"))
	}

	loadStart := time.Now()
	docs, err := datasource.LoadDocuments(ctx, src)
	if err != nil {
		return s.fail(raceName, StageLoad, err)
	}
	metrics.RecordImportStage(StageLoad, time.Since(loadStart).Seconds())
	s.logger.LogDocumentLoaded(src.Name(), string(datasource.KindRanking), len(docs.Ranking))
	s.logger.LogDocumentLoaded(src.Name(), string(datasource.KindPitStops), len(docs.PitStops))
	s.logger.LogDocumentLoaded(src.Name(), string(datasource.KindLapHistory), len(docs.LapHistory))

	parseStart := time.Now()
	parsed, err := parser.Parse(docs, s.opts)
	if err != nil {
		return s.fail(raceName, StageParse, fmt.Errorf("failed to parse documents: %w", err))
	}
	parseDuration := time.Since(parseStart)
	metrics.RecordImportStage(StageParse, parseDuration.Seconds())

	teams := s.normalizer.NormalizeTeams(parsed.Teams)
	warnings := append([]string(nil), parsed.Warnings...)
	if problems := s.validator.ValidateTeams(teams); len(problems) > 0 {
		s.metrics.RecordValidationError()
		warnings = append(warnings, problems...)
	}

	stints, laps := 0, 0
	for _, t := range teams {
		stints += len(t.Stints)
		laps += len(t.Laps)
		for _, st := range t.Stints {
			metrics.RecordStintStatsSource(st.StatsSource)
		}
	}
	s.logger.LogParseResult(raceName, len(teams), stints, laps, len(warnings), parseDuration)
	for _, w := range warnings {
		s.logger.LogWarning(raceName, w)
	}

	return &ImportResult{
		Teams:        teams,
		Warnings:     warnings,
		Placeholders: parsed.Placeholders,
	}, nil
}

func (s *ImportService) finish(result *ImportResult, start time.Time) {
	result.Duration = s.now().Sub(start)
	s.metrics.RecordSuccess(len(result.Teams), len(result.Warnings), result.DryRun, result.Duration)
	metrics.RecordImport("success", len(result.Teams), len(result.Warnings))
	s.logger.LogImportComplete(result.Race.ID.String(), result.Race.Name, len(result.Teams), result.DryRun)
}

func (s *ImportService) fail(raceName, stage string, err error) (*ImportResult, error) {
	s.metrics.RecordError()
	metrics.RecordImport("error", 0, 0)
	s.logger.LogImportFailed(raceName, stage, err)
	return nil, err
}

// Metrics returns the import metrics of the service
func (s *ImportService) Metrics() *ImportMetrics {
	return s.metrics
}
