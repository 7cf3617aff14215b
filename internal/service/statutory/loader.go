package statutory

import (
	"fmt"
	"os"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/statutory"
	"gopkg.in/yaml.v3"
)

type rateFile struct {
	Version  int                               `yaml:"version"`
	RateSets []statutory.PublishRateSetRequest `yaml:"rate_sets"`
}

// LoadRateFile reads the published rate-set seed file.
func LoadRateFile(path string) ([]statutory.PublishRateSetRequest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rate file: %w", err)
	}
	return ParseRateFile(b)
}

func ParseRateFile(b []byte) ([]statutory.PublishRateSetRequest, error) {
	var rf rateFile
	if err := yaml.Unmarshal(b, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse rate file: %w", err)
	}
	if rf.Version != 1 {
		return nil, fmt.Errorf("%w: unsupported rate file version %d", statutory.ErrInvalidRateSet, rf.Version)
	}
	if len(rf.RateSets) == 0 {
		return nil, fmt.Errorf("%w: rate file lists no rate sets", statutory.ErrInvalidRateSet)
	}

	for i := range rf.RateSets {
		if err := rf.RateSets[i].Validate(); err != nil {
			return nil, fmt.Errorf("rate file: rate set %q: %w", rf.RateSets[i].Version, err)
		}
	}
	return rf.RateSets, nil
}
