package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/yesmonga/karting-sub000/internal/models"
)

// DataValidator validates race, team and driver data
type DataValidator struct {
	validate *validator.Validate
	logger   *logrus.Logger
}

// NewDataValidator creates a new data validator
func NewDataValidator(logger *logrus.Logger) *DataValidator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &DataValidator{validate: validator.New(), logger: logger}
}

// ValidateRace validates race data for required fields and constraints
func (v *DataValidator) ValidateRace(race *models.Race) error {
	if err := v.validate.Struct(race); err != nil {
		return fmt.Errorf("%w: invalid race: %s", models.ErrInvalidInput, strings.Join(describeValidationErrors(err), "; "))
	}
	return nil
}

// ValidateTeam checks a reconstructed team record and returns every problem
// found. Problems are not fatal: the record is still importable.
func (v *DataValidator) ValidateTeam(team *models.TeamRecord) []string {
	var problems []string
	prefix := fmt.Sprintf("kart #%d: ", team.KartNumber)

	if err := v.validate.Struct(team); err != nil {
		for _, msg := range describeValidationErrors(err) {
			problems = append(problems, prefix+msg)
		}
	}

	if !team.StintsContiguous() {
		problems = append(problems, prefix+"stints are not contiguous")
	}

	for i := 1; i < len(team.Laps); i++ {
		if team.Laps[i].LapNumber <= team.Laps[i-1].LapNumber {
			problems = append(problems, fmt.Sprintf("%slap %d is out of order", prefix, team.Laps[i].LapNumber))
			break
		}
	}

	if n := len(team.Stints); n > 0 && team.TotalLaps < team.Stints[n-1].EndLap {
		problems = append(problems, fmt.Sprintf("%stotal laps %d below last stint end %d",
			prefix, team.TotalLaps, team.Stints[n-1].EndLap))
	}

	if len(team.Stints) > 0 && len(team.PitStops) != len(team.Stints)-1 {
		problems = append(problems, fmt.Sprintf("%s%d pit stops for %d stints",
			prefix, len(team.PitStops), len(team.Stints)))
	}

	return problems
}

// ValidateTeams validates every team and checks kart numbers are unique
func (v *DataValidator) ValidateTeams(teams []*models.TeamRecord) []string {
	var problems []string
	seen := make(map[int]bool, len(teams))
	for _, team := range teams {
		if seen[team.KartNumber] {
			problems = append(problems, fmt.Sprintf("kart #%d appears more than once", team.KartNumber))
		}
		seen[team.KartNumber] = true
		problems = append(problems, v.ValidateTeam(team)...)
	}
	return problems
}

// ValidateTeamEntity validates a team of the crew
func (v *DataValidator) ValidateTeamEntity(team *models.Team) error {
	if err := v.validate.Struct(team); err != nil {
		return fmt.Errorf("invalid team: %s", strings.Join(describeValidationErrors(err), "; "))
	}
	return nil
}

// ValidateDriver validates a driver
func (v *DataValidator) ValidateDriver(driver *models.Driver) error {
	if err := v.validate.Struct(driver); err != nil {
		return fmt.Errorf("invalid driver: %s", strings.Join(describeValidationErrors(err), "; "))
	}
	if driver.WeightKg.IsNegative() {
		return fmt.Errorf("invalid driver: weight cannot be negative")
	}
	return nil
}

// ValidateOnboardMessage validates a pit-to-driver message
func (v *DataValidator) ValidateOnboardMessage(msg *models.OnboardMessage) error {
	if err := v.validate.Struct(msg); err != nil {
		return fmt.Errorf("invalid onboard message: %s", strings.Join(describeValidationErrors(err), "; "))
	}
	return nil
}

func describeValidationErrors(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		field := fe.Namespace()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s has invalid value '%v'", field, fe.Value()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s exceeds %s characters", field, fe.Param()))
		case "gtefield", "gtfield":
			msgs = append(msgs, fmt.Sprintf("%s must not be below %s", field, fe.Param()))
		default:
			if fe.Param() != "" {
				msgs = append(msgs, fmt.Sprintf("%s failed %s=%s, got %v", field, fe.Tag(), fe.Param(), fe.Value()))
			} else {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
			}
		}
	}
	return msgs
}
