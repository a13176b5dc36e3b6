package positions

import "time"

//go:generate mockgen -destination=mocks/mock_time_provider.go -package=mocks github.com/ironveil/labyrinth/internal/repositories/positions TimeProvider

type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider returns the wall clock
type RealTimeProvider struct{}

func (RealTimeProvider) Now() time.Time {
	return time.Now()
}
