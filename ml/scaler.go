package ml

import (
	"errors"
	"fmt"
)

// StandardScaler standardizes a vector with a fitted per-feature mean and
// scale: z = (x - mean) / scale.
type StandardScaler struct {
	Mean     []float64
	Scale    []float64
	WithMean bool
	WithStd  bool
}

func (s *StandardScaler) NumFeatures() int {
	if s.WithMean {
		return len(s.Mean)
	}
	return len(s.Scale)
}

func (s *StandardScaler) validate() error {
	if !s.WithMean && !s.WithStd {
		return nil
	}
	if s.WithMean && len(s.Mean) == 0 {
		return errors.New("scaler has no mean")
	}
	if s.WithStd && len(s.Scale) == 0 {
		return errors.New("scaler has no scale")
	}
	if s.WithMean && s.WithStd && len(s.Mean) != len(s.Scale) {
		return fmt.Errorf("scaler mean has %d values, scale has %d", len(s.Mean), len(s.Scale))
	}
	for i, v := range s.Scale {
		if v < 0 {
			return fmt.Errorf("scaler scale[%d] is negative", i)
		}
	}
	return nil
}

// Transform returns a scaled copy of x.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if n := s.NumFeatures(); n > 0 && len(x) != n {
		return nil, fmt.Errorf("scaler expects %d features, got %d", n, len(x))
	}

	out := make([]float64, len(x))
	for i, v := range x {
		if s.WithMean {
			v -= s.Mean[i]
		}
		if s.WithStd {
			// zero variance columns keep a unit scale
			if scale := s.Scale[i]; scale != 0 {
				v /= scale
			}
		}
		out[i] = v
	}
	return out, nil
}
