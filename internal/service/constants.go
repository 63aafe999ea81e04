package service

const (
	// Sync batching
	ActivitiesPerPage = 100 // Strava's maximum page size
	StreamBatchSize   = 50  // streams fetched per sync, respects rate limits

	// Physiology fitting
	ProfileWindowDays = 90 // recent window the CP model is fitted to

	// Pagination limits
	RecentRidesLimit = 10
	RideListLimit    = 200

	// Power sweep shown alongside the optimizer's recommendation
	SweepRows = 7
)
