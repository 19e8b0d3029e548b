package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		roas float64
		ctr  float64
		want Performance
	}{
		{"excellent at thresholds", 3, 2, PerformanceExcellent},
		{"excellent above", 5.5, 4, PerformanceExcellent},
		{"good", 2.5, 1.8, PerformanceGood},
		{"good at thresholds", 2, 1.5, PerformanceGood},
		{"high roas low ctr drops to medium", 4, 1.2, PerformanceMedium},
		{"medium", 1.6, 1.1, PerformanceMedium},
		{"medium at thresholds", 1.5, 1, PerformanceMedium},
		{"poor", 0.5, 0.5, PerformancePoor},
		{"poor on roas alone", 1.4, 3, PerformancePoor},
		{"zero", 0, 0, PerformancePoor},
		{"negative inputs", -1, -2, PerformancePoor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.roas, tt.ctr))
		})
	}
}
