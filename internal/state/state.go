package state

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"OptionPilot/internal/model"
)

// DefaultWatchlist seeds the symbol list on first run.
var DefaultWatchlist = []string{"NVDA", "TSLA", "VOO", "PLTR", "SGOV"}

// writeJSON persists v atomically: the document is written to a sibling temp
// file first and renamed into place, so a crash mid-write never leaves a
// truncated file behind.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// LoadWatchlist reads the watchlist from a JSON file. A missing or corrupt
// file falls back to DefaultWatchlist.
func LoadWatchlist(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[WARN] reading watchlist %s: %v, using defaults", path, err)
		}
		return append([]string(nil), DefaultWatchlist...)
	}
	var symbols []string
	if err := json.Unmarshal(data, &symbols); err != nil {
		log.Printf("[WARN] watchlist %s is corrupt: %v, using defaults", path, err)
		return append([]string(nil), DefaultWatchlist...)
	}
	if len(symbols) == 0 {
		return append([]string(nil), DefaultWatchlist...)
	}
	return symbols
}

// SaveWatchlist writes the watchlist as a bare JSON array of symbols.
func SaveWatchlist(path string, symbols []string) error {
	return writeJSON(path, symbols)
}

// LoadAutoPilot reads the persisted autopilot run. A missing, corrupt or
// version-mismatched file means no run is pending; corruption is logged and
// reinitialized rather than surfaced.
func LoadAutoPilot(path string) *model.AutoPilotState {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[WARN] reading autopilot state %s: %v, ignoring", path, err)
		}
		return nil
	}
	var st model.AutoPilotState
	if err := json.Unmarshal(data, &st); err != nil {
		log.Printf("[WARN] autopilot state %s is corrupt: %v, reinitializing", path, err)
		return nil
	}
	if st.Version != model.AutoPilotStateVersion {
		log.Printf("[WARN] autopilot state %s has version %d, want %d, discarding", path, st.Version, model.AutoPilotStateVersion)
		return nil
	}
	if !st.Enabled {
		return nil
	}
	return &st
}

// SaveAutoPilot persists the autopilot run atomically.
func SaveAutoPilot(path string, st *model.AutoPilotState) error {
	st.Version = model.AutoPilotStateVersion
	return writeJSON(path, st)
}

// ClearAutoPilot removes the persisted run. A missing file is not an error.
func ClearAutoPilot(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
