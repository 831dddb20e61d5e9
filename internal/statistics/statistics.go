// Package statistics summarizes repeated-trial outcomes.
package statistics

import (
	"math"
	"math/rand"
	"sort"
)

// ConfidenceInterval is the result of a bootstrap interval computation over
// per-iteration outcomes.
type ConfidenceInterval struct {
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	Mean      float64 `json:"mean"`
	Level     float64 `json:"confidence_level"`
	Resamples int     `json:"resamples"`
}

// DefaultResamples is the number of bootstrap resamples.
const DefaultResamples = 10000

// PassRate returns the fraction of trials that passed.
func PassRate(passes []bool) float64 {
	if len(passes) == 0 {
		return 0.0
	}
	n := 0
	for _, p := range passes {
		if p {
			n++
		}
	}
	return float64(n) / float64(len(passes))
}

// Flaky reports inconsistent outcomes: some but not all trials passed.
func Flaky(successful, total int) bool {
	return successful > 0 && successful < total
}

// BinarySamples encodes pass/fail trials as 1.0/0.0 samples for resampling.
func BinarySamples(passes []bool) []float64 {
	samples := make([]float64, len(passes))
	for i, p := range passes {
		if p {
			samples[i] = 1.0
		}
	}
	return samples
}

// BootstrapCI computes a percentile-method bootstrap confidence interval
// over the samples. level should be in (0, 1), e.g. 0.95. With fewer than
// two samples the interval collapses to the mean.
func BootstrapCI(samples []float64, level float64) ConfidenceInterval {
	return BootstrapCIWithSeed(samples, level, -1)
}

// BootstrapCIWithSeed is BootstrapCI with a fixed seed for reproducibility.
// A negative seed uses a non-deterministic source.
func BootstrapCIWithSeed(samples []float64, level float64, seed int64) ConfidenceInterval {
	n := len(samples)
	if n < 2 {
		m := mean(samples)
		return ConfidenceInterval{Lower: m, Upper: m, Mean: m, Level: level}
	}

	var rng *rand.Rand
	if seed >= 0 {
		rng = rand.New(rand.NewSource(seed))
	} else {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	resamples := DefaultResamples
	bootMeans := make([]float64, resamples)
	resample := make([]float64, n)
	for i := 0; i < resamples; i++ {
		for j := 0; j < n; j++ {
			resample[j] = samples[rng.Intn(n)]
		}
		bootMeans[i] = mean(resample)
	}
	sort.Float64s(bootMeans)

	alpha := 1.0 - level
	loIdx := int(math.Floor(alpha / 2.0 * float64(resamples)))
	hiIdx := int(math.Floor((1.0 - alpha/2.0) * float64(resamples)))
	if hiIdx >= resamples {
		hiIdx = resamples - 1
	}

	return ConfidenceInterval{
		Lower:     bootMeans[loIdx],
		Upper:     bootMeans[hiIdx],
		Mean:      mean(samples),
		Level:     level,
		Resamples: resamples,
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
