package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"hisoutlier/adapters/memory"
)

// FactGeneratorConfig configures the synthetic aggregate data generator
type FactGeneratorConfig struct {
	DataElementCount int       `json:"data_element_count"`
	OrgUnitCount     int       `json:"org_unit_count"`
	Months           int       `json:"months"`
	StartDate        time.Time `json:"start_date"`
	BaseValue        float64   `json:"base_value"`
	Noise            float64   `json:"noise"`
	SpikeRate        float64   `json:"spike_rate"`
	SpikeFactor      float64   `json:"spike_factor"`
	NonNumericRate   float64   `json:"non_numeric_rate"`
	Seed             int64     `json:"seed"`
}

// DefaultFactConfig returns sensible defaults for fact generation
func DefaultFactConfig() FactGeneratorConfig {
	return FactGeneratorConfig{
		DataElementCount: 3,
		OrgUnitCount:     10,
		Months:           24,
		StartDate:        time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		BaseValue:        100,
		Noise:            5,
		SpikeRate:        0.01,
		SpikeFactor:      10,
		Seed:             42,
	}
}

// Spike identifies a value planted far outside its series.
type Spike struct {
	DataElementID string
	OrgUnitID     string
	PeriodStart   time.Time
}

// Dataset is a generated set of facts with the spikes planted in it.
type Dataset struct {
	Facts  []memory.Fact
	Ranges []memory.MinMax
	Spikes []Spike
}

// Load adds the dataset to store.
func (d Dataset) Load(store *memory.Store) {
	store.AddFacts(d.Facts...)
	store.SetMinMax(d.Ranges...)
}

// FactGenerator generates monthly aggregate values for a small org unit
// hierarchy: one root, districts of five facilities each.
type FactGenerator struct {
	config FactGeneratorConfig
	rng    *rand.Rand
}

// NewFactGenerator creates a new fact generator
func NewFactGenerator(config FactGeneratorConfig) *FactGenerator {
	return &FactGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate produces one monthly series per data element and facility. The
// same seed always yields the same dataset.
func (g *FactGenerator) Generate() Dataset {
	var d Dataset
	for de := 0; de < g.config.DataElementCount; de++ {
		deID := fmt.Sprintf("de%03d", de+1)
		for ou := 0; ou < g.config.OrgUnitCount; ou++ {
			ouID := fmt.Sprintf("ou%03d", ou+1)
			path := fmt.Sprintf("/root/district%02d/%s", ou/5+1, ouID)
			level := g.config.BaseValue * (0.5 + g.rng.Float64())

			d.Ranges = append(d.Ranges, memory.MinMax{
				DataElementID:         deID,
				OrgUnitID:             ouID,
				CategoryOptionComboID: "default",
				Min:                   math.Floor(level - 3*g.config.Noise),
				Max:                   math.Ceil(level + 3*g.config.Noise),
			})

			for m := 0; m < g.config.Months; m++ {
				start := g.config.StartDate.AddDate(0, m, 0)
				value := strconv.FormatFloat(math.Round(level+g.rng.NormFloat64()*g.config.Noise), 'f', -1, 64)
				if g.rng.Float64() < g.config.SpikeRate {
					value = strconv.FormatFloat(math.Round(level*g.config.SpikeFactor), 'f', -1, 64)
					d.Spikes = append(d.Spikes, Spike{DataElementID: deID, OrgUnitID: ouID, PeriodStart: start})
				} else if g.rng.Float64() < g.config.NonNumericRate {
					value = "n/a"
				}
				d.Facts = append(d.Facts, memory.Fact{
					DataElementID:            deID,
					DataElementName:          "Data element " + strconv.Itoa(de+1),
					ValueType:                "INTEGER_ZERO_OR_POSITIVE",
					OrgUnitID:                ouID,
					OrgUnitName:              "Facility " + strconv.Itoa(ou+1),
					OrgUnitPath:              path,
					CategoryOptionComboID:    "default",
					CategoryOptionComboName:  "default",
					AttributeOptionComboID:   "default",
					AttributeOptionComboName: "default",
					PeriodType:               "Monthly",
					PeriodStart:              start,
					PeriodEnd:                start.AddDate(0, 1, -1),
					Value:                    value,
				})
			}
		}
	}
	return d
}
