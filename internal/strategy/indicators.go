package strategy

// rsiValue computes the Relative Strength Index over a price series using
// Wilder's smoothing method. Requires len(prices) > period.
func rsiValue(prices []float64, period int) float64 {
	changes := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		changes = append(changes, prices[i]-prices[i-1])
	}

	var avgGain, avgLoss float64
	for i := 0; i < period; i++ {
		if changes[i] > 0 {
			avgGain += changes[i]
		} else {
			avgLoss -= changes[i]
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period; i < len(changes); i++ {
		if changes[i] > 0 {
			avgGain = (avgGain*float64(period-1) + changes[i]) / float64(period)
			avgLoss = (avgLoss * float64(period-1)) / float64(period)
		} else {
			avgGain = (avgGain * float64(period-1)) / float64(period)
			avgLoss = (avgLoss*float64(period-1) - changes[i]) / float64(period)
		}
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50 // Neutral if no change
		}
		return 100 // Max RSI if only gains
	}

	rs := avgGain / avgLoss
	rsi := 100 - (100 / (1 + rs))
	if rsi > 100 {
		rsi = 100
	} else if rsi < 0 {
		rsi = 0
	}
	return rsi
}

// smaValue computes the Simple Moving Average over the last period prices.
// Requires len(prices) >= period.
func smaValue(prices []float64, period int) float64 {
	total := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		total += prices[i]
	}
	return total / float64(period)
}

// emaValue computes the Exponential Moving Average, seeded with an SMA over
// the first period prices. Requires len(prices) >= period.
func emaValue(prices []float64, period int) float64 {
	multiplier := 2.0 / float64(period+1)
	ema := smaValue(prices[:period], period)
	for i := period; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
	}
	return ema
}
