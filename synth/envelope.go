package synth

// SustainLevel is the envelope amplitude between the decay and the release.
const SustainLevel = 0.7

// Envelope returns the ADSR amplitude t seconds into a note lasting duration
// seconds. The phase lengths scale with the note: attack is min(10 ms, 10%),
// decay min(50 ms, 20%) and release min(100 ms, 30%) of the duration. The
// result is always in [0, 1].
func Envelope(t, duration float64) float64 {
	if duration <= 0 || t < 0 {
		return 0
	}
	attack := min(0.01, duration*0.1)
	decay := min(0.05, duration*0.2)
	release := min(0.1, duration*0.3)
	var v float64
	switch {
	case t < attack:
		v = t / attack
	case t < attack+decay:
		v = 1 - (1-SustainLevel)*(t-attack)/decay
	case t < duration-release:
		v = SustainLevel
	default:
		v = SustainLevel * (duration - t) / release
	}
	return max(0, min(1, v))
}
