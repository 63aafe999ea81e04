package store

import "time"

// Auth represents OAuth tokens for Strava API access
type Auth struct {
	AthleteID    int64
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Activity represents a Strava ride summary
type Activity struct {
	ID                   int64
	AthleteID            int64
	Name                 string
	Type                 string
	StartDate            time.Time
	StartDateLocal       time.Time
	Timezone             string
	Distance             float64 // meters
	MovingTime           int     // seconds
	ElapsedTime          int     // seconds
	TotalElevationGain   float64
	AverageSpeed         float64  // m/s
	MaxSpeed             float64  // m/s
	AverageWatts         *float64 // nullable
	MaxWatts             *float64 // nullable
	WeightedAverageWatts *float64 // nullable
	Kilojoules           *float64 // nullable
	AverageHeartrate     *float64 // nullable
	AverageCadence       *float64 // nullable
	DeviceWatts          bool     // true when power comes from a meter, not estimation
	StreamsSynced        bool
	EffortsComputed      bool
}

// StreamPoint represents a single data point from activity streams
type StreamPoint struct {
	ActivityID     int64
	TimeOffset     int      // seconds
	Lat            *float64
	Lng            *float64
	Altitude       *float64 // meters
	VelocitySmooth *float64 // m/s
	Watts          *float64
	Heartrate      *int     // bpm
	Cadence        *int     // rpm
	GradeSmooth    *float64 // percent
	Distance       *float64 // cumulative meters
}

// BestEffort is the maximum average power an activity sustained over a
// duration.
type BestEffort struct {
	ActivityID      int64
	DurationSeconds int
	Watts           float64
}

// Physiology is a fitted or estimated rider profile.
type Physiology struct {
	ID            int64
	CriticalPower float64 // watts
	WPrime        float64 // joules
	RSquared      *float64
	RMSE          *float64
	Source        string  // "fitted" or "archetype"
	Archetype     *string // set when Source == "archetype"
	ComputedAt    time.Time
}
