package roadnet

// TrafficBuffer returns the fractional duration padding for a shift at the
// given decimal hour. Morning (07–10) and evening (16–20) windows take the
// peak value; everything else, including the midday band, takes off-peak.
func TrafficBuffer(decimalHour, peak, offPeak float64) float64 {
	if decimalHour >= 7 && decimalHour < 10 {
		return peak
	}
	if decimalHour >= 16 && decimalHour < 20 {
		return peak
	}
	return offPeak
}
