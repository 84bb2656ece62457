package analytics

// Band непрерывный участок обнаруженных индексов, границы включительно
type Band struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Len число точек в полосе
func (b Band) Len() int {
	return b.End - b.Start + 1
}

// Center середина полосы
func (b Band) Center() float64 {
	return float64(b.Start+b.End) / 2
}

// Bands группирует возрастающие индексы в непрерывные полосы
func Bands(indices []int) []Band {
	bands := []Band{}
	for _, idx := range indices {
		last := len(bands) - 1
		if last >= 0 && idx == bands[last].End+1 {
			bands[last].End = idx
			continue
		}
		bands = append(bands, Band{Start: idx, End: idx})
	}
	return bands
}
