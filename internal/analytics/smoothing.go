package analytics

// Smooth скользящее среднее с записью в центр окна.
// Значение окна data[i:i+windowSize] пишется в smoothed[i+windowSize/2];
// точки, до которых не дотянулось ни одно окно, остаются 0.
// Сумма окна ведется в целых числах, поэтому результат не копит ошибку округления.
func Smooth(data []int, windowSize int) []float64 {
	n := len(data)
	smoothed := make([]float64, n)
	if windowSize < 1 || windowSize > n {
		return smoothed
	}

	offset := windowSize / 2
	sum := 0
	for j := 0; j < windowSize; j++ {
		sum += data[j]
	}

	for i := 0; ; i++ {
		smoothed[i+offset] = float64(sum) / float64(windowSize)
		if i+windowSize >= n {
			break
		}
		sum += data[i+windowSize] - data[i]
	}

	return smoothed
}
