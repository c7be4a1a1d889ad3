package contracts

import (
	"bytes"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
)

// Score is a quality score that encodes NaN (undefined) as JSON null
type Score float64

// Undefined reports whether the score could not be computed
func (s Score) Undefined() bool {
	return math.IsNaN(float64(s))
}

// MarshalJSON writes null for an undefined score
func (s Score) MarshalJSON() ([]byte, error) {
	if s.Undefined() || math.IsInf(float64(s), 0) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(s))
}

// UnmarshalJSON reads null as an undefined score
func (s *Score) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = Score(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = Score(f)
	return nil
}

// DimensionScore is one line of a run summary
type DimensionScore struct {
	Dimension string `json:"dimension"`
	Score     Score  `json:"score"`
}

// QualitySnapshot is the outcome of one data quality pipeline run
// ⭐ SSOT: 파이프라인 → 저장소/API 전달
type QualitySnapshot struct {
	RunID      uuid.UUID `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Source     string    `json:"source"`

	Dimensions []DimensionScore            `json:"dimensions"` // summary order
	Metrics    map[string]map[string]Score `json:"metrics"`    // dimension → metric → value
	Removed    map[string][]string         `json:"removed"`    // dimension → removed loan ids

	InputOrigRows int `json:"input_orig_rows"`
	InputPerfRows int `json:"input_perf_rows"`
	CleanOrigRows int `json:"clean_orig_rows"`
	CleanPerfRows int `json:"clean_perf_rows"`
}

// Score returns the summary score of a dimension
func (s *QualitySnapshot) Score(dimension string) (Score, bool) {
	for _, d := range s.Dimensions {
		if d.Dimension == dimension {
			return d.Score, true
		}
	}
	return Score(math.NaN()), false
}

// RemovedCount returns the number of loans dropped across all stages
func (s *QualitySnapshot) RemovedCount() int {
	n := 0
	for _, ids := range s.Removed {
		n += len(ids)
	}
	return n
}

// DefinedCount returns how many dimensions produced a score
func (s *QualitySnapshot) DefinedCount() int {
	n := 0
	for _, d := range s.Dimensions {
		if !d.Score.Undefined() {
			n++
		}
	}
	return n
}
