package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"veloplan/internal/config"
	"veloplan/internal/power"
	"veloplan/internal/store"
	"veloplan/internal/strava"
)

// SyncService orchestrates syncing ride data from Strava and deriving
// the rider's power profile from it.
type SyncService struct {
	client *strava.Client
	store  *store.DB
	rider  config.RiderConfig
}

// NewSyncService creates a new sync service
func NewSyncService(client *strava.Client, db *store.DB, rider config.RiderConfig) *SyncService {
	return &SyncService{
		client: client,
		store:  db,
		rider:  rider,
	}
}

// SyncProgress reports progress during sync
type SyncProgress struct {
	Phase           string // "activities", "streams", "efforts", "physiology"
	Total           int
	Completed       int
	CurrentActivity string
	Error           error
}

// SyncResult contains the results of a sync operation
type SyncResult struct {
	ActivitiesFetched int
	RidesStored       int
	RidesWithPower    int
	StreamsFetched    int
	EffortsComputed   int
	PhysiologyUpdated bool
	Errors            []error
}

// SyncAll performs a full sync:
// activities -> streams -> best efforts -> physiology fit.
func (s *SyncService) SyncAll(ctx context.Context, progress chan<- SyncProgress) (*SyncResult, error) {
	if progress != nil {
		defer close(progress)
	}

	result := &SyncResult{}

	// Phase 1: Sync ride summaries
	if err := s.syncActivities(ctx, progress, result); err != nil {
		return result, fmt.Errorf("syncing activities: %w", err)
	}

	// Phase 2: Fetch streams for rides that need them
	if err := s.syncStreams(ctx, progress, result); err != nil {
		return result, fmt.Errorf("syncing streams: %w", err)
	}

	// Phase 3: Compute best efforts from power streams
	if err := s.computeEfforts(ctx, progress, result); err != nil {
		return result, fmt.Errorf("computing best efforts: %w", err)
	}

	// Phase 4: Refit the rider's power-duration model
	if err := s.fitPhysiology(progress, result); err != nil {
		return result, fmt.Errorf("fitting physiology: %w", err)
	}

	return result, nil
}

// syncActivities fetches new activities from Strava and stores rides
func (s *SyncService) syncActivities(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	// Get last sync time
	lastSyncStr, _ := s.store.GetSyncState(store.SyncKeyLastActivity)
	var after time.Time
	if lastSyncStr != "" {
		after, _ = time.Parse(time.RFC3339, lastSyncStr)
	}

	if progress != nil {
		progress <- SyncProgress{Phase: "activities"}
	}

	page := 1

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		activities, err := s.client.GetActivities(ctx, after, page, ActivitiesPerPage)
		if err != nil {
			return fmt.Errorf("fetching page %d: %w", page, err)
		}

		if len(activities) == 0 {
			break
		}

		result.ActivitiesFetched += len(activities)

		for _, a := range activities {
			if !a.IsRide() {
				continue
			}
			ride := convertActivity(a)
			if err := s.store.UpsertActivity(ride); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("storing activity %d: %w", a.ID, err))
				continue
			}
			result.RidesStored++
			if ride.DeviceWatts {
				result.RidesWithPower++
			}
		}

		if progress != nil {
			progress <- SyncProgress{
				Phase:     "activities",
				Total:     result.ActivitiesFetched,
				Completed: result.RidesStored,
			}
		}

		if len(activities) < ActivitiesPerPage {
			break // Last page
		}

		page++
	}

	// Update last sync time
	s.store.SetSyncState(store.SyncKeyLastActivity, time.Now().Format(time.RFC3339))

	return nil
}

// syncStreams fetches detailed stream data for rides that need it
func (s *SyncService) syncStreams(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	activities, err := s.store.GetActivitiesNeedingStreams(StreamBatchSize)
	if err != nil {
		return fmt.Errorf("getting activities needing streams: %w", err)
	}

	if len(activities) == 0 {
		return nil
	}

	if progress != nil {
		progress <- SyncProgress{Phase: "streams", Total: len(activities)}
	}

	for i, activity := range activities {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if progress != nil {
			progress <- SyncProgress{
				Phase:           "streams",
				Total:           len(activities),
				Completed:       i,
				CurrentActivity: activity.Name,
			}
		}

		streams, err := s.client.GetActivityStreams(ctx, activity.ID)
		if err != nil {
			// Some rides have no streams; keep going.
			result.Errors = append(result.Errors, fmt.Errorf("activity %d (%s): %w", activity.ID, activity.Name, err))
			continue
		}

		points := convertStreams(activity.ID, streams)
		if len(points) > 0 {
			if err := s.store.SaveStreams(activity.ID, points); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("saving streams for %d: %w", activity.ID, err))
				continue
			}
		}

		if err := s.store.MarkStreamsSynced(activity.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("marking synced for %d: %w", activity.ID, err))
			continue
		}

		result.StreamsFetched++
	}

	if progress != nil {
		progress <- SyncProgress{
			Phase:     "streams",
			Total:     len(activities),
			Completed: len(activities),
		}
	}

	return nil
}

// computeEfforts slides the standard duration windows over each new
// power stream and stores the best efforts found
func (s *SyncService) computeEfforts(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	activities, err := s.store.GetActivitiesNeedingEfforts(StreamBatchSize)
	if err != nil {
		return fmt.Errorf("getting activities needing efforts: %w", err)
	}

	if len(activities) == 0 {
		return nil
	}

	if progress != nil {
		progress <- SyncProgress{Phase: "efforts", Total: len(activities)}
	}

	for i, activity := range activities {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if progress != nil {
			progress <- SyncProgress{
				Phase:           "efforts",
				Total:           len(activities),
				Completed:       i,
				CurrentActivity: activity.Name,
			}
		}

		watts, err := s.store.GetPowerStream(activity.ID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("getting power stream for %d: %w", activity.ID, err))
			continue
		}

		efforts := power.BestEffortsFromStream(watts, power.StandardDurations)
		if len(efforts) > 0 {
			if err := s.store.SaveBestEfforts(activity.ID, efforts); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("saving efforts for %d: %w", activity.ID, err))
				continue
			}
			result.EffortsComputed++
		}

		// Mark even empty results so short rides aren't reprocessed.
		if err := s.store.MarkEffortsComputed(activity.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("marking efforts for %d: %w", activity.ID, err))
		}
	}

	if progress != nil {
		progress <- SyncProgress{
			Phase:     "efforts",
			Total:     len(activities),
			Completed: len(activities),
		}
	}

	return nil
}

// fitPhysiology refits CP/W' from the accumulated best efforts
func (s *SyncService) fitPhysiology(progress chan<- SyncProgress, result *SyncResult) error {
	if progress != nil {
		progress <- SyncProgress{Phase: "physiology"}
	}

	phys, err := ComputePhysiology(s.store, s.rider)
	if errors.Is(err, power.ErrInsufficientData) {
		// Not enough ride data yet; the archetype estimate (if any)
		// stays current.
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.store.SavePhysiology(phys); err != nil {
		return fmt.Errorf("saving physiology: %w", err)
	}
	result.PhysiologyUpdated = true

	if progress != nil {
		progress <- SyncProgress{Phase: "physiology", Total: 1, Completed: 1}
	}

	return nil
}

// ComputePhysiology derives the current rider profile. It fits the CP
// model to the recent best-effort profile, widening to the all-time
// profile when the recent window is too sparse. When no fit is
// possible but the rider configured a CP override, the archetype
// estimate is used instead.
func ComputePhysiology(db *store.DB, rider config.RiderConfig) (*store.Physiology, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -ProfileWindowDays).Format(time.RFC3339)
	profile, err := db.GetRecentBestEffortProfile(cutoff)
	if err != nil {
		return nil, fmt.Errorf("loading recent efforts: %w", err)
	}

	fitted, err := power.Fit(profile)
	if errors.Is(err, power.ErrInsufficientData) {
		profile, err = db.GetBestEffortProfile()
		if err != nil {
			return nil, fmt.Errorf("loading efforts: %w", err)
		}
		fitted, err = power.Fit(profile)
	}
	if err == nil {
		phys := &store.Physiology{
			CriticalPower: fitted.CriticalPower,
			WPrime:        fitted.WPrime,
			RSquared:      &fitted.RSquared,
			RMSE:          &fitted.RMSE,
			Source:        store.PhysiologySourceFitted,
			ComputedAt:    time.Now(),
		}
		// An explicit CP override wins over the fit; W' keeps the
		// fitted anaerobic capacity.
		if rider.CriticalPower > 0 {
			phys.CriticalPower = rider.CriticalPower
		}
		return phys, nil
	}
	if !errors.Is(err, power.ErrInsufficientData) {
		return nil, err
	}

	// No usable ride data. Fall back to the archetype estimate when
	// the rider has told us their CP.
	if rider.CriticalPower > 0 {
		est, archErr := power.EstimateFromArchetype(power.Archetype(rider.Archetype), rider.CriticalPower)
		if archErr != nil {
			return nil, archErr
		}
		arch := rider.Archetype
		return &store.Physiology{
			CriticalPower: est.CriticalPower,
			WPrime:        est.WPrime,
			Source:        store.PhysiologySourceArchetype,
			Archetype:     &arch,
			ComputedAt:    time.Now(),
		}, nil
	}

	return nil, power.ErrInsufficientData
}

// RateLimitStatus returns the current rate limit status from the client
func (s *SyncService) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return s.client.RateLimitStatus()
}

// convertActivity converts a Strava API activity to a store activity
func convertActivity(a strava.Activity) *store.Activity {
	activity := &store.Activity{
		ID:                 a.ID,
		AthleteID:          a.Athlete.ID,
		Name:               a.Name,
		Type:               a.Type,
		StartDate:          a.StartDate,
		StartDateLocal:     a.StartDateLocal,
		Timezone:           a.Timezone,
		Distance:           a.Distance,
		MovingTime:         a.MovingTime,
		ElapsedTime:        a.ElapsedTime,
		TotalElevationGain: a.TotalElevationGain,
		AverageSpeed:       a.AverageSpeed,
		MaxSpeed:           a.MaxSpeed,
		DeviceWatts:        a.DeviceWatts,
	}

	if a.AverageWatts > 0 {
		activity.AverageWatts = &a.AverageWatts
	}
	if a.MaxWatts > 0 {
		activity.MaxWatts = &a.MaxWatts
	}
	if a.WeightedAverageWatts > 0 {
		activity.WeightedAverageWatts = &a.WeightedAverageWatts
	}
	if a.Kilojoules > 0 {
		activity.Kilojoules = &a.Kilojoules
	}
	if a.AverageHeartrate > 0 {
		activity.AverageHeartrate = &a.AverageHeartrate
	}
	if a.AverageCadence > 0 {
		activity.AverageCadence = &a.AverageCadence
	}

	return activity
}

// convertStreams converts Strava API streams to store stream points
func convertStreams(activityID int64, s *strava.Streams) []store.StreamPoint {
	if s == nil || s.Time == nil {
		return nil
	}

	length := len(s.Time.Data)
	points := make([]store.StreamPoint, length)

	for i := 0; i < length; i++ {
		p := store.StreamPoint{
			ActivityID: activityID,
			TimeOffset: s.Time.Data[i],
		}

		if s.LatLng != nil && i < len(s.LatLng.Data) {
			lat := s.LatLng.Data[i][0]
			lng := s.LatLng.Data[i][1]
			p.Lat = &lat
			p.Lng = &lng
		}

		if s.Altitude != nil && i < len(s.Altitude.Data) {
			alt := s.Altitude.Data[i]
			p.Altitude = &alt
		}

		if s.VelocitySmooth != nil && i < len(s.VelocitySmooth.Data) {
			vel := s.VelocitySmooth.Data[i]
			p.VelocitySmooth = &vel
		}

		if s.Watts != nil && i < len(s.Watts.Data) {
			w := s.Watts.Data[i]
			p.Watts = &w
		}

		if s.Heartrate != nil && i < len(s.Heartrate.Data) {
			hr := s.Heartrate.Data[i]
			p.Heartrate = &hr
		}

		if s.Cadence != nil && i < len(s.Cadence.Data) {
			cad := s.Cadence.Data[i]
			p.Cadence = &cad
		}

		if s.GradeSmooth != nil && i < len(s.GradeSmooth.Data) {
			grade := s.GradeSmooth.Data[i]
			p.GradeSmooth = &grade
		}

		if s.Distance != nil && i < len(s.Distance.Data) {
			dist := s.Distance.Data[i]
			p.Distance = &dist
		}

		points[i] = p
	}

	return points
}
