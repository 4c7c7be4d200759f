package agronomy

import (
	"fmt"
	"time"
)

// StageStatus describes where a crop is in its season on a given date.
type StageStatus struct {
	Stage       GrowthStage `json:"stage"`
	Index       int         `json:"index"`
	ElapsedDays int         `json:"elapsedDays"`

	// DaysIntoStage counts days since the previous stage ended.
	DaysIntoStage int `json:"daysIntoStage"`

	// DaysRemaining counts days until the stage ends; zero on its last day.
	DaysRemaining int `json:"daysRemaining"`

	// NextStage is empty for the final stage.
	NextStage string `json:"nextStage,omitempty"`

	// SeasonComplete is set when the elapsed days exceed the sum of all stage
	// durations. Stage then holds the crop's final stage.
	SeasonComplete bool `json:"seasonComplete"`
}

// ElapsedDays returns the number of whole calendar days from sowing to asOf.
// Both instants are reduced to their calendar date in their own location
// first, so the time of day never matters.
func ElapsedDays(sowing, asOf time.Time) (int, error) {
	if sowing.IsZero() {
		return 0, fmt.Errorf("%w: sowing date is required", ErrInvalidInput)
	}
	if asOf.IsZero() {
		return 0, fmt.Errorf("%w: evaluation date is required", ErrInvalidInput)
	}
	from := civilDate(sowing)
	to := civilDate(asOf)
	days := int((to.Unix() - from.Unix()) / secondsPerDay)
	if days < 0 {
		return 0, fmt.Errorf("%w: sowing date %s is after %s",
			ErrInvalidInput, from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	return days, nil
}

const secondsPerDay = 24 * 60 * 60

func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StageFor returns the crop's growth stage asOf the given date.
//
// Stage durations are accumulated in order and the first stage whose
// cumulative total is >= the elapsed days wins, so the boundary day belongs
// to the stage that is just finishing. Past the end of the season the final
// stage is returned.
func StageFor(sowing time.Time, crop CropProfile, asOf time.Time) (GrowthStage, error) {
	st, err := Progress(sowing, crop, asOf)
	if err != nil {
		return GrowthStage{}, err
	}
	return st.Stage, nil
}

// Progress is StageFor with the position inside the stage.
func Progress(sowing time.Time, crop CropProfile, asOf time.Time) (StageStatus, error) {
	if len(crop.stages) == 0 {
		return StageStatus{}, fmt.Errorf("%w: crop profile has no stages", ErrInvalidInput)
	}
	elapsed, err := ElapsedDays(sowing, asOf)
	if err != nil {
		return StageStatus{}, err
	}

	start := 0
	for i, s := range crop.stages {
		end := start + s.DurationDays
		if elapsed <= end {
			st := StageStatus{
				Stage:         s,
				Index:         i,
				ElapsedDays:   elapsed,
				DaysIntoStage: elapsed - start,
				DaysRemaining: end - elapsed,
			}
			if i+1 < len(crop.stages) {
				st.NextStage = crop.stages[i+1].Name
			}
			return st, nil
		}
		start = end
	}

	last := len(crop.stages) - 1
	return StageStatus{
		Stage:          crop.stages[last],
		Index:          last,
		ElapsedDays:    elapsed,
		DaysIntoStage:  elapsed - (start - crop.stages[last].DurationDays),
		SeasonComplete: true,
	}, nil
}
