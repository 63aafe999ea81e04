package service

import (
	"errors"
	"fmt"
	"sort"

	"veloplan/internal/config"
	"veloplan/internal/pacing"
	"veloplan/internal/route"
	"veloplan/internal/sim"
	"veloplan/internal/store"
)

// ErrNoRouteData is returned when an activity has no GPS trace to
// build a course from
var ErrNoRouteData = errors.New("activity has no route data")

// ErrNoPhysiology is returned when pacing is requested before any
// rider profile exists
var ErrNoPhysiology = errors.New("no rider profile: sync rides or set rider.critical_power")

// QueryService provides read-only queries for the TUI
type QueryService struct {
	store *store.DB
	cfg   *config.Config
}

// NewQueryService creates a new query service
func NewQueryService(db *store.DB, cfg *config.Config) *QueryService {
	return &QueryService{store: db, cfg: cfg}
}

// DashboardData contains all data needed for the dashboard
type DashboardData struct {
	Physiology  *store.Physiology // nil until fitted or estimated
	RecentRides []store.Activity
	TotalRides  int
	BestEfforts map[int]float64
}

// GetDashboardData fetches all data needed for the dashboard
func (q *QueryService) GetDashboardData() (*DashboardData, error) {
	data := &DashboardData{}

	phys, err := q.store.GetLatestPhysiology()
	if err != nil && !errors.Is(err, store.ErrNoPhysiology) {
		return nil, fmt.Errorf("loading physiology: %w", err)
	}
	data.Physiology = phys

	data.RecentRides, err = q.store.ListRidesWithPower(RecentRidesLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("loading recent rides: %w", err)
	}

	data.TotalRides, err = q.store.CountActivities()
	if err != nil {
		return nil, fmt.Errorf("counting rides: %w", err)
	}

	data.BestEfforts, err = q.store.GetBestEffortProfile()
	if err != nil {
		return nil, fmt.Errorf("loading best efforts: %w", err)
	}

	return data, nil
}

// PowerCurvePoint is one duration on the power curve: the measured
// best effort and the fitted model's prediction for it.
type PowerCurvePoint struct {
	DurationSec int
	BestWatts   float64
	ModelWatts  float64
}

// PowerCurveData contains the power-duration curve for display
type PowerCurveData struct {
	Points     []PowerCurvePoint
	Physiology *store.Physiology // nil when no model is fitted yet
}

// GetPowerCurve builds the measured-vs-modeled power curve
func (q *QueryService) GetPowerCurve() (*PowerCurveData, error) {
	efforts, err := q.store.GetBestEffortProfile()
	if err != nil {
		return nil, fmt.Errorf("loading best efforts: %w", err)
	}

	phys, err := q.store.GetLatestPhysiology()
	if err != nil && !errors.Is(err, store.ErrNoPhysiology) {
		return nil, fmt.Errorf("loading physiology: %w", err)
	}

	durations := make([]int, 0, len(efforts))
	for d := range efforts {
		durations = append(durations, d)
	}
	sort.Ints(durations)

	data := &PowerCurveData{Physiology: phys}
	for _, d := range durations {
		point := PowerCurvePoint{DurationSec: d, BestWatts: efforts[d]}
		if phys != nil {
			point.ModelWatts = phys.CriticalPower + phys.WPrime/float64(d)
		}
		data.Points = append(data.Points, point)
	}

	return data, nil
}

// ListRides returns stored rides for course selection
func (q *QueryService) ListRides(limit, offset int) ([]store.Activity, error) {
	if limit <= 0 || limit > RideListLimit {
		limit = RideListLimit
	}
	return q.store.ListActivities(limit, offset)
}

// CoursePlan is a complete pacing plan for a ride's route
type CoursePlan struct {
	Activity   store.Activity
	Course     *route.Course
	Segments   []sim.Segment
	Physiology *store.Physiology
	Result     pacing.Result
	Analysis   pacing.Analysis
	Sweep      []pacing.SweepRow
}

// BuildCourse turns a synced activity's GPS trace into simulator
// segments using the configured segment count and wind.
func (q *QueryService) BuildCourse(activityID int64) (*route.Course, []sim.Segment, error) {
	latlng, altitude, err := q.store.GetRouteStream(activityID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading route stream: %w", err)
	}
	if len(latlng) == 0 {
		return nil, nil, ErrNoRouteData
	}

	course, err := route.FromStreams(latlng, altitude)
	if err != nil {
		return nil, nil, fmt.Errorf("building course: %w", err)
	}

	segments, err := course.EqualSegments(q.cfg.Pacing.SegmentCount)
	if err != nil {
		return nil, nil, fmt.Errorf("segmenting course: %w", err)
	}
	route.ApplyWind(segments, q.cfg.Pacing.WindMS)

	return course, segments, nil
}

// PlanPacing runs the optimizer over an activity's route and returns
// the recommendation with its analysis and a power comparison sweep.
func (q *QueryService) PlanPacing(activityID int64) (*CoursePlan, error) {
	activity, err := q.store.GetActivity(activityID)
	if err != nil {
		return nil, fmt.Errorf("loading activity: %w", err)
	}

	phys, err := q.currentPhysiology()
	if err != nil {
		return nil, err
	}

	course, segments, err := q.BuildCourse(activityID)
	if err != nil {
		return nil, err
	}

	simulator := sim.New(q.cfg.BikeParams())
	optimizer := pacing.NewOptimizer(simulator)
	optimizer.TargetUtilization = q.cfg.Pacing.TargetUtilization

	result := optimizer.Optimize(phys.CriticalPower, phys.WPrime, segments)
	analysis := pacing.Analyze(result, phys.CriticalPower, phys.WPrime)

	lo, hi := pacing.Bounds(phys.CriticalPower)
	sweep, err := pacing.SweepRange(simulator, phys.CriticalPower, phys.WPrime, segments, lo, hi, SweepRows)
	if err != nil {
		return nil, fmt.Errorf("power sweep: %w", err)
	}

	return &CoursePlan{
		Activity:   *activity,
		Course:     course,
		Segments:   segments,
		Physiology: phys,
		Result:     result,
		Analysis:   analysis,
		Sweep:      sweep,
	}, nil
}

// currentPhysiology loads the stored profile, falling back to the
// archetype estimate when nothing is stored but a CP is configured.
func (q *QueryService) currentPhysiology() (*store.Physiology, error) {
	phys, err := q.store.GetLatestPhysiology()
	if err == nil {
		if q.cfg.Rider.CriticalPower > 0 {
			phys.CriticalPower = q.cfg.Rider.CriticalPower
		}
		return phys, nil
	}
	if !errors.Is(err, store.ErrNoPhysiology) {
		return nil, fmt.Errorf("loading physiology: %w", err)
	}

	phys, err = ComputePhysiology(q.store, q.cfg.Rider)
	if err != nil {
		return nil, ErrNoPhysiology
	}
	return phys, nil
}
