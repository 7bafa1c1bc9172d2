package waste

// AggregateStats combines every record for productID into ProductStats.
// Environmental fields are averaged; the baseline shelf life is the shelf life
// of the first matching record. ok is false when nothing matches.
func AggregateStats(productID string, records []ProductRecord) (stats ProductStats, ok bool) {
	var (
		sumTemp     float64
		sumHumidity float64
		sumRain     float64
		n           int
	)

	for _, r := range records {
		if r.ProductID != productID {
			continue
		}
		if n == 0 {
			stats.BaselineShelfLife = r.ShelfLifeDays
		}
		sumTemp += r.Temperature
		sumHumidity += r.Humidity
		sumRain += r.RainfallMM
		n++
	}

	if n == 0 {
		return ProductStats{}, false
	}

	stats.ProductID = productID
	stats.AvgTemperature = sumTemp / float64(n)
	stats.AvgHumidity = sumHumidity / float64(n)
	stats.AvgRainfall = sumRain / float64(n)
	stats.Records = n
	return stats, true
}
