package analytics_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weaksource/internal/analytics"
	"weaksource/internal/signal"
)

func TestDetect_Deterministic(t *testing.T) {
	t.Parallel()

	data := signal.Generate(rand.New(rand.NewSource(11)), 200)

	first, err := analytics.Detect(data, 15, 1.6)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := analytics.Detect(data, 15, 1.6)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDetect_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	data := signal.Generate(rand.New(rand.NewSource(5)), 200)
	snapshot := append([]int(nil), data...)

	_, err := analytics.Detect(data, 15, 1.6)
	require.NoError(t, err)
	assert.Equal(t, snapshot, data)
}

func TestDetector_ConstantBackgroundFullyPopulated(t *testing.T) {
	t.Parallel()

	// Окно 1 заполняет все точки, фон ровно 10
	result, err := analytics.NewDetector(1, 1.0).Detect(constant(10, 200))
	require.NoError(t, err)

	assert.Equal(t, 10.0, result.BackgroundLevel)
	assert.Equal(t, 10.0, result.AlarmThreshold)
	assert.Empty(t, result.Indices, "equality is not above threshold")
	assert.Equal(t, 50, result.BackgroundCoverage)

	result, err = analytics.NewDetector(1, 0.9).Detect(constant(10, 200))
	require.NoError(t, err)
	assert.Len(t, result.Indices, 200)
	assert.Equal(t, 0, result.Indices[0])
	assert.Equal(t, 199, result.Indices[199])
}

func TestDetector_BackgroundIncludesUnpopulatedEdge(t *testing.T) {
	t.Parallel()

	// Окно 15: точки 0..6 фонового окна остаются нулями
	result, err := analytics.NewDetector(15, 1.0).Detect(constant(10, 200))
	require.NoError(t, err)

	assert.InDelta(t, 8.6, result.BackgroundLevel, 1e-9)
	assert.Equal(t, 43, result.BackgroundCoverage)

	from, to := analytics.PopulatedRange(200, 15)
	for i := from; i < to; i++ {
		assert.Equal(t, 10.0, result.Smoothed[i])
	}

	// Все заполненные точки выше фона 8.6, незаполненные нет
	assert.Len(t, result.Indices, to-from)
	assert.Equal(t, from, result.Indices[0])
	assert.Equal(t, to-1, result.Indices[len(result.Indices)-1])
}

func TestDetector_ThresholdIsBackgroundTimesFactor(t *testing.T) {
	t.Parallel()

	data := signal.Generate(rand.New(rand.NewSource(1)), 200)
	result, err := analytics.NewDetector(15, 1.6).Detect(data)
	require.NoError(t, err)

	assert.InDelta(t, result.BackgroundLevel*1.6, result.AlarmThreshold, 1e-12)
	for _, idx := range result.Indices {
		assert.Greater(t, result.Smoothed[idx], result.AlarmThreshold)
	}
	for k, v := range result.Smoothed {
		if v > result.AlarmThreshold {
			assert.Contains(t, result.Indices, k)
		}
	}
}

func TestDetect_DefaultSignalLocalizedAtCenter(t *testing.T) {
	t.Parallel()

	for _, seed := range []int64{42, 1, 2024} {
		data := signal.Generate(rand.New(rand.NewSource(seed)), signal.DefaultLength)

		indices, err := analytics.Detect(data, analytics.DefaultWindowSize, analytics.DefaultThresholdFactor)
		require.NoError(t, err)
		require.NotEmpty(t, indices, "seed %d", seed)

		assert.Contains(t, indices, signal.DefaultCenter, "seed %d", seed)
		for _, idx := range indices {
			assert.InDelta(t, signal.DefaultCenter, idx, 20, "seed %d", seed)
		}
		for i := 1; i < len(indices); i++ {
			assert.Greater(t, indices[i], indices[i-1])
		}
	}
}

func TestDetect_Errors(t *testing.T) {
	t.Parallel()

	data := constant(10, 200)

	tests := []struct {
		name   string
		data   []int
		window int
		factor float64
		want   error
	}{
		{name: "zero window", data: data, window: 0, factor: 1.6, want: analytics.ErrInvalidParameter},
		{name: "negative window", data: data, window: -3, factor: 1.6, want: analytics.ErrInvalidParameter},
		{name: "window longer than data", data: data, window: 201, factor: 1.6, want: analytics.ErrInvalidParameter},
		{name: "zero factor", data: data, window: 15, factor: 0, want: analytics.ErrInvalidParameter},
		{name: "negative factor", data: data, window: 15, factor: -1, want: analytics.ErrInvalidParameter},
		{name: "nan factor", data: data, window: 15, factor: math.NaN(), want: analytics.ErrInvalidParameter},
		{name: "inf factor", data: data, window: 15, factor: math.Inf(1), want: analytics.ErrInvalidParameter},
		{name: "short data", data: constant(10, 49), window: 15, factor: 1.6, want: analytics.ErrInsufficientData},
		{name: "empty data", data: nil, window: 1, factor: 1.6, want: analytics.ErrInvalidParameter},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			indices, err := analytics.Detect(tt.data, tt.window, tt.factor)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, indices)
		})
	}
}

func TestDetect_WindowEqualsLength(t *testing.T) {
	t.Parallel()

	// Одна заполненная точка в центре, вне фонового окна
	result, err := analytics.NewDetector(200, 1.6).Detect(constant(10, 200))
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.BackgroundLevel)
	assert.Equal(t, 0, result.BackgroundCoverage)
	assert.Equal(t, []int{100}, result.Indices)
}

func TestDetector_CustomBackgroundSamples(t *testing.T) {
	t.Parallel()

	d := &analytics.Detector{WindowSize: 1, ThresholdFactor: 1.5, BackgroundSamples: 10}

	data := constant(10, 20)
	data[15] = 20

	result, err := d.Detect(data)
	require.NoError(t, err)
	assert.Equal(t, 10.0, result.BackgroundLevel)
	assert.Equal(t, []int{15}, result.Indices)

	_, err = d.Detect(constant(10, 9))
	require.ErrorIs(t, err, analytics.ErrInsufficientData)

	d.BackgroundSamples = 0
	_, err = d.Detect(data)
	require.ErrorIs(t, err, analytics.ErrInvalidParameter)
}

func TestFindAbove_StrictInequality(t *testing.T) {
	t.Parallel()

	values := []float64{1, 2, 3, 2, 1}

	assert.Equal(t, []int{2}, analytics.FindAbove(values, 2))
	assert.Equal(t, []int{1, 2, 3}, analytics.FindAbove(values, 1.5))
	assert.Empty(t, analytics.FindAbove(values, 3))
}
