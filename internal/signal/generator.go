package signal

import "math"

// Значения по умолчанию для синтетического сигнала длиной 200 точек
const (
	DefaultLength     = 200
	DefaultCenter     = 100
	DefaultPeakHeight = 30.0
	DefaultWidth      = 10.0
	DefaultNoiseMin   = 40
	DefaultNoiseMax   = 60
)

// Source источник случайных чисел. *rand.Rand удовлетворяет интерфейсу.
type Source interface {
	Intn(n int) int
}

// Params параметры генератора: равномерный шум + гауссов горб
type Params struct {
	Center     int
	PeakHeight float64
	Width      float64
	NoiseMin   int
	NoiseMax   int
}

// DefaultParams возвращает параметры по умолчанию
func DefaultParams() Params {
	return Params{
		Center:     DefaultCenter,
		PeakHeight: DefaultPeakHeight,
		Width:      DefaultWidth,
		NoiseMin:   DefaultNoiseMin,
		NoiseMax:   DefaultNoiseMax,
	}
}

// Generate генерирует последовательность с параметрами по умолчанию
func Generate(rng Source, length int) []int {
	return DefaultParams().Generate(rng, length)
}

// Generate генерирует length отсчетов. Шум берется из [NoiseMin, NoiseMax]
// включительно, к нему прибавляется целая часть (floor) гауссова сигнала.
func (p Params) Generate(rng Source, length int) []int {
	if length <= 0 {
		return []int{}
	}

	data := make([]int, length)
	span := p.NoiseMax - p.NoiseMin + 1

	for i := range data {
		data[i] = p.NoiseMin + rng.Intn(span)
		data[i] += int(p.Bump(i))
	}

	return data
}

// Bump значение гауссова сигнала в точке i
func (p Params) Bump(i int) float64 {
	d := float64(i - p.Center)
	return p.PeakHeight * math.Exp(-(d*d)/(2*p.Width*p.Width))
}
