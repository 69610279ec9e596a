package ephemeris

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"

	astromath "github.com/oxygene76/orrery/pkg/astronomy/math"
)

var (
	meanRadiusRe    = regexp.MustCompile(`(?i)mean radius\s*[^=]*=\s*(\d+\.\d+|\d+)`)
	startOfEphem    = "$$SOE"
	endOfEphem      = "$$EOE"
	physicalSection = "physical"
)

// horizonsEnvelope is the JSON wrapper the Horizons API puts around its text output
type horizonsEnvelope struct {
	Result string `json:"result"`
	Error  string `json:"error"`
}

// DecodeHorizonsJSON unwraps the Horizons API JSON response
func DecodeHorizonsJSON(data []byte) (string, error) {
	var env horizonsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("failed to decode horizons response: %w", err)
	}
	if env.Error != "" {
		return "", fmt.Errorf("horizons error: %s", env.Error)
	}
	return env.Result, nil
}

// ParseHorizons parses a Horizons vector-table result (CSV, VEC_TABLE=2).
// The mean radius comes from the physical data block, positions from the
// rows between $$SOE and $$EOE. Any malformed row or ordering problem
// yields an empty series rather than a partial one.
func ParseHorizons(text string) (Series, error) {
	series := Series{MeanRadiusAU: DefaultRadiusAU}
	if km, ok := parseMeanRadius(text); ok {
		series.MeanRadiusAU = km / KmPerAU
	}

	var samples []Sample
	inData := false
	sawEnd := false
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, endOfEphem) {
			sawEnd = true
			break
		}
		if inData {
			if strings.TrimSpace(line) == "" {
				continue
			}
			sample, err := parseVectorRow(line)
			if err != nil {
				return Series{MeanRadiusAU: series.MeanRadiusAU}, fmt.Errorf("failed to parse row %q: %w", line, err)
			}
			samples = append(samples, sample)
			continue
		}
		if strings.Contains(line, startOfEphem) {
			inData = true
		}
	}
	if err := scanner.Err(); err != nil {
		return Series{MeanRadiusAU: series.MeanRadiusAU}, fmt.Errorf("failed to scan horizons output: %w", err)
	}
	if !inData || !sawEnd {
		return Series{MeanRadiusAU: series.MeanRadiusAU}, fmt.Errorf("missing %s/%s markers: %w", startOfEphem, endOfEphem, ErrEmptySeries)
	}

	series.Samples = samples
	if err := series.Validate(); err != nil {
		return Series{MeanRadiusAU: series.MeanRadiusAU}, err
	}
	return series, nil
}

// parseMeanRadius finds the first "mean radius" value after the physical
// data header, in kilometres
func parseMeanRadius(text string) (float64, bool) {
	inPhysical := false
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, physicalSection) {
			inPhysical = true
			continue
		}
		if !inPhysical || !strings.Contains(lower, "mean radius") {
			continue
		}
		m := meanRadiusRe.FindStringSubmatch(line)
		if m == nil {
			return 0, false
		}
		km, err := strconv.ParseFloat(m[1], 64)
		if err != nil || km <= 0 {
			return 0, false
		}
		return km, true
	}
	return 0, false
}

// parseVectorRow reads "JDTDB, Calendar Date, X, Y, Z, ..." in AU
func parseVectorRow(line string) (Sample, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 5 {
		return Sample{}, fmt.Errorf("expected at least 5 columns, got %d", len(fields))
	}

	values := make([]float64, 0, 4)
	for _, idx := range []int{0, 2, 3, 4} {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[idx]), 64)
		if err != nil {
			return Sample{}, fmt.Errorf("column %d: %w", idx, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Sample{}, fmt.Errorf("column %d is not finite", idx)
		}
		values = append(values, v)
	}

	return Sample{
		Time:     julian.JDToTime(values[0]).UTC().Round(time.Millisecond),
		Position: astromath.Vector3{X: values[1], Y: values[2], Z: values[3]},
	}, nil
}
