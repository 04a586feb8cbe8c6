package model

import "time"

// AutoPilotStateVersion is the current schema version of the persisted
// record. A mismatch on load is treated as corrupt state.
const AutoPilotStateVersion = 1

// AutoPilotState is the one piece of state that survives process restarts.
// Its presence with Enabled=true at startup is itself the signal to resume
// monitoring; it doubles as the mutual-exclusion flag for runs.
type AutoPilotState struct {
	Version     int       `json:"version"`
	Enabled     bool      `json:"enabled"`
	Symbol      string    `json:"symbol"`
	TriggerTime string    `json:"trigger_time"` // wall clock, "15:04" format
	Budget      float64   `json:"budget"`
	AskMin      float64   `json:"ask_min"`
	AskMax      float64   `json:"ask_max"`
	TrendFilter bool      `json:"trend_filter"`
	CreatedAt   time.Time `json:"created_at"`
}

// TriggerToday resolves TriggerTime against the given day in its location.
func (s AutoPilotState) TriggerToday(now time.Time) (time.Time, error) {
	t, err := time.Parse("15:04", s.TriggerTime)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()), nil
}
