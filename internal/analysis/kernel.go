package analysis

import (
	"math"

	"github.com/tphakala/reefnet-go/internal/conf"
	"github.com/tphakala/reefnet-go/internal/dataset"
	"github.com/tphakala/reefnet-go/internal/filemeta"
	"github.com/tphakala/reefnet-go/internal/results"
)

// DetectionTime is one detection reduced to its treatment and decimal hour of
// day, the raw material of the temporal kernels. These rows are also written
// out as-is for downstream circular statistics in R.
type DetectionTime struct {
	Treatment filemeta.Treatment
	Time      float64 // decimal hours, 0 <= t < 24
}

// SoundKernels is the kernel density result for one sound in one region.
type SoundKernels struct {
	Sound string
	Grid  []float64
	// Densities maps treatment to its density over Grid; treatments with
	// too few detections are absent.
	Densities map[filemeta.Treatment][]float64
	Times     []DetectionTime
}

// KernelDensities computes per-treatment temporal kernels for one sound.
// Only detections on site-days meeting the (stricter) kernel coverage
// threshold contribute. Returns nil when the sound has no usable detections.
func KernelDensities(data *RegionData, sound string, logitCutoff float64, kernelCfg *conf.KernelSettings) (*SoundKernels, int, error) {
	inferences, err := dataset.LoadInferences(
		dataset.InferencePath(data.DataDir(), sound), logitCutoff)
	if err != nil {
		if dataset.IsMissingInput(err) {
			return nil, 0, nil
		}
		return nil, 0, err
	}

	var times []DetectionTime
	skipped := 0
	for i := range inferences {
		record, err := filemeta.Parse(inferences[i].Filename, &data.Config)
		if err != nil {
			skipped++
			continue
		}
		if !data.Valid.Contains(record.Site, record.Day()) {
			continue
		}
		ts := record.LocalTime
		decimal := float64(ts.Hour()) + float64(ts.Minute())/60 + float64(ts.Second())/3600
		times = append(times, DetectionTime{Treatment: record.Treatment, Time: decimal})
	}
	if len(times) == 0 {
		return nil, skipped, nil
	}

	grid := linspace(0, 24, kernelCfg.GridPoints)
	kernels := &SoundKernels{
		Sound:     sound,
		Grid:      grid,
		Densities: make(map[filemeta.Treatment][]float64),
		Times:     times,
	}
	for _, treatment := range Treatments {
		var sample []float64
		for _, dt := range times {
			if dt.Treatment == treatment {
				sample = append(sample, dt.Time)
			}
		}
		density, ok := gaussianKDE(sample, kernelCfg.Smoothing, grid)
		if ok {
			kernels.Densities[treatment] = density
		}
	}
	return kernels, skipped, nil
}

// Overlaps computes the pairwise overlap coefficient between the treatment
// kernels of one sound: the integral of min(f, g) over the 24-hour grid.
// 1 means identical activity patterns, 0 means disjoint.
func (k *SoundKernels) Overlaps(region string) []results.KernelOverlap {
	var rows []results.KernelOverlap
	for i := 0; i < len(Treatments); i++ {
		for j := i + 1; j < len(Treatments); j++ {
			f, okF := k.Densities[Treatments[i]]
			g, okG := k.Densities[Treatments[j]]
			if !okF || !okG {
				continue
			}
			rows = append(rows, results.KernelOverlap{
				Region:     region,
				Sound:      k.Sound,
				TreatmentA: string(Treatments[i]),
				TreatmentB: string(Treatments[j]),
				Overlap:    overlapCoefficient(k.Grid, f, g),
			})
		}
	}
	return rows
}

// gaussianKDE evaluates a Gaussian kernel density estimate on the grid. The
// bandwidth is factor times the sample standard deviation (ddof=1), matching
// the smoothing convention of the kernels used in the study. Returns ok=false
// when the sample is too small or degenerate for a bandwidth.
func gaussianKDE(sample []float64, factor float64, grid []float64) ([]float64, bool) {
	n := len(sample)
	if n < 2 {
		return nil, false
	}

	mean := 0.0
	for _, v := range sample {
		mean += v
	}
	mean /= float64(n)
	variance := 0.0
	for _, v := range sample {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(n - 1)
	if variance == 0 {
		return nil, false
	}

	bandwidth := factor * math.Sqrt(variance)
	norm := 1 / (float64(n) * bandwidth * math.Sqrt(2*math.Pi))

	density := make([]float64, len(grid))
	for i, x := range grid {
		sum := 0.0
		for _, v := range sample {
			z := (x - v) / bandwidth
			sum += math.Exp(-0.5 * z * z)
		}
		density[i] = norm * sum
	}
	return density, true
}

// overlapCoefficient integrates min(f, g) over the grid with the trapezoid
// rule.
func overlapCoefficient(grid, f, g []float64) float64 {
	total := 0.0
	for i := 1; i < len(grid); i++ {
		a := math.Min(f[i-1], g[i-1])
		b := math.Min(f[i], g[i])
		total += (a + b) / 2 * (grid[i] - grid[i-1])
	}
	return total
}

// linspace returns n evenly spaced points over [start, stop], endpoints
// included.
func linspace(start, stop float64, n int) []float64 {
	points := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range points {
		points[i] = start + float64(i)*step
	}
	points[n-1] = stop
	return points
}
