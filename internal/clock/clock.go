package clock

import "time"

// Clock supplies wall-clock time. Stores take a Clock instead of calling
// time.Now directly so expiry behavior can be driven in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// System returns a Clock backed by time.Now.
func System() Clock {
	return systemClock{}
}
