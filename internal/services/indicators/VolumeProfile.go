package indicators

import "RLTradeBot/internal/models"

type VolumeService struct{}

// VolumeProfileResult buckets bar closes into zones by how their volume
// compares to the trailing average.
type VolumeProfileResult struct {
	HighVolumeZones []float64
	LowVolumeZones  []float64
}

func NewVolumeService() *VolumeService {
	return &VolumeService{}
}

// Profile classifies each of the trailing lookback bars: volume above
// 1.5x the window average marks a high-volume zone at that bar's close,
// below 0.5x a low-volume zone.
func (s *VolumeService) Profile(candles []models.Candle, lookback int) VolumeProfileResult {
	if lookback <= 0 || len(candles) < lookback {
		return VolumeProfileResult{}
	}

	window := candles[len(candles)-lookback:]

	avgVolume := 0.0
	for _, c := range window {
		avgVolume += c.Volume
	}
	avgVolume /= float64(lookback)
	if avgVolume == 0 {
		return VolumeProfileResult{}
	}

	var result VolumeProfileResult
	for _, c := range window {
		if c.Volume > avgVolume*1.5 {
			result.HighVolumeZones = append(result.HighVolumeZones, c.Close)
		} else if c.Volume < avgVolume*0.5 {
			result.LowVolumeZones = append(result.LowVolumeZones, c.Close)
		}
	}

	return result
}

// Ratio compares the latest volume against the trailing lookback average
func (s *VolumeService) Ratio(volumes []float64, lookback int) float64 {
	if lookback <= 0 || len(volumes) < lookback {
		return 1
	}

	window := volumes[len(volumes)-lookback:]
	avg := 0.0
	for _, v := range window {
		avg += v
	}
	avg /= float64(lookback)
	if avg == 0 {
		return 1
	}

	return volumes[len(volumes)-1] / avg
}
