package shift

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/stvaldivia/delivery-engine/internal/domain"
)

// LegacyFile reads the shift state file the previous system maintained.
// Read-only here: this code never writes it, the old admin panel does.
type LegacyFile struct {
	path string
}

func NewLegacyFile(path string) *LegacyFile {
	return &LegacyFile{path: path}
}

type legacyState struct {
	IsOpen   bool   `json:"is_open"`
	OpenedAt string `json:"opened_at"`
	OpenedBy string `json:"opened_by"`
	ClosedAt string `json:"closed_at"`
}

func (f *LegacyFile) Read() (domain.ShiftState, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return domain.ShiftState{}, fmt.Errorf("read legacy shift file: %w", err)
	}

	var raw legacyState
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.ShiftState{}, fmt.Errorf("parse legacy shift file: %w", err)
	}

	st := domain.ShiftState{Status: domain.ShiftClosed, OpenedBy: raw.OpenedBy}
	if raw.IsOpen {
		st.Status = domain.ShiftOpen
	}
	if t, err := time.Parse(time.RFC3339, raw.OpenedAt); err == nil {
		st.OpenedAt = t
	}
	if t, err := time.Parse(time.RFC3339, raw.ClosedAt); err == nil {
		st.ClosedAt = &t
	}
	return st, nil
}
