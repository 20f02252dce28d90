package predict

// Linear is an ordinary least-squares model over the same features.
type Linear struct {
	Intercept    float64
	Coefficients [NumFeatures]float64
}

// Predict implements sim.Predictor.
func (l *Linear) Predict(inventory, backlog int, demandTrend float64) float64 {
	x := features(inventory, backlog, demandTrend)
	y := l.Intercept
	for i, c := range l.Coefficients {
		y += c * x[i]
	}
	return y
}
