package store

import (
	"errors"
	"testing"
	"time"
)

// setupTestDB creates an in-memory database for testing
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewTestDB()
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func testActivity(id int64, start time.Time) *Activity {
	avgWatts := 210.0
	return &Activity{
		ID:             id,
		AthleteID:      123,
		Name:           "Morning Ride",
		Type:           "Ride",
		StartDate:      start,
		StartDateLocal: start,
		Timezone:       "(GMT+01:00) Europe/Zurich",
		Distance:       42000,
		MovingTime:     5400,
		ElapsedTime:    5700,
		AverageSpeed:   7.8,
		MaxSpeed:       16.2,
		AverageWatts:   &avgWatts,
		DeviceWatts:    true,
	}
}

func TestUpsertActivity_InsertAndUpdate(t *testing.T) {
	db := setupTestDB(t)

	start := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	a := testActivity(1, start)
	if err := db.UpsertActivity(a); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	got, err := db.GetActivity(1)
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if got.Name != "Morning Ride" || got.Type != "Ride" {
		t.Errorf("Got %q/%q, want Morning Ride/Ride", got.Name, got.Type)
	}
	if !got.StartDate.Equal(start) {
		t.Errorf("StartDate %v, want %v", got.StartDate, start)
	}
	if got.AverageWatts == nil || *got.AverageWatts != 210 {
		t.Errorf("AverageWatts %v, want 210", got.AverageWatts)
	}
	if got.MaxWatts != nil {
		t.Errorf("MaxWatts should stay nil, got %v", *got.MaxWatts)
	}
	if !got.DeviceWatts || got.StreamsSynced || got.EffortsComputed {
		t.Errorf("Flags wrong: device=%v streams=%v efforts=%v",
			got.DeviceWatts, got.StreamsSynced, got.EffortsComputed)
	}

	// Re-syncing the same activity must not reset the local sync flags.
	if err := db.MarkStreamsSynced(1); err != nil {
		t.Fatalf("Failed to mark synced: %v", err)
	}
	a.Name = "Morning Ride (renamed)"
	if err := db.UpsertActivity(a); err != nil {
		t.Fatalf("Failed to update: %v", err)
	}
	got, err = db.GetActivity(1)
	if err != nil {
		t.Fatalf("Failed to get after update: %v", err)
	}
	if got.Name != "Morning Ride (renamed)" {
		t.Errorf("Name not updated: %q", got.Name)
	}
	if !got.StreamsSynced {
		t.Error("StreamsSynced flag lost on re-upsert")
	}
}

func TestGetActivity_NotFound(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.GetActivity(999); !errors.Is(err, ErrActivityNotFound) {
		t.Errorf("Expected ErrActivityNotFound, got %v", err)
	}
}

func TestMarkStreamsSynced_NotFound(t *testing.T) {
	db := setupTestDB(t)
	if err := db.MarkStreamsSynced(999); !errors.Is(err, ErrActivityNotFound) {
		t.Errorf("Expected ErrActivityNotFound, got %v", err)
	}
}

func TestActivitySyncPipeline(t *testing.T) {
	db := setupTestDB(t)

	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := int64(1); i <= 3; i++ {
		a := testActivity(i, base.AddDate(0, 0, int(i)))
		if i == 3 {
			a.DeviceWatts = false // no power meter, excluded from the pipeline
		}
		if err := db.UpsertActivity(a); err != nil {
			t.Fatalf("Failed to insert %d: %v", i, err)
		}
	}

	needStreams, err := db.GetActivitiesNeedingStreams(10)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(needStreams) != 2 {
		t.Fatalf("Expected 2 power rides needing streams, got %d", len(needStreams))
	}

	if err := db.MarkStreamsSynced(1); err != nil {
		t.Fatalf("Failed to mark: %v", err)
	}

	needEfforts, err := db.GetActivitiesNeedingEfforts(10)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(needEfforts) != 1 || needEfforts[0].ID != 1 {
		t.Fatalf("Expected activity 1 needing efforts, got %v", needEfforts)
	}

	if err := db.MarkEffortsComputed(1); err != nil {
		t.Fatalf("Failed to mark: %v", err)
	}
	needEfforts, err = db.GetActivitiesNeedingEfforts(10)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(needEfforts) != 0 {
		t.Fatalf("Expected no activities needing efforts, got %d", len(needEfforts))
	}
}

func TestGetLatestActivityDate(t *testing.T) {
	db := setupTestDB(t)

	latest, err := db.GetLatestActivityDate()
	if err != nil {
		t.Fatalf("Failed on empty db: %v", err)
	}
	if !latest.IsZero() {
		t.Errorf("Empty db should give zero time, got %v", latest)
	}

	first := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	second := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	db.UpsertActivity(testActivity(1, first))
	db.UpsertActivity(testActivity(2, second))

	latest, err = db.GetLatestActivityDate()
	if err != nil {
		t.Fatalf("Failed: %v", err)
	}
	if !latest.Equal(second) {
		t.Errorf("Latest %v, want %v", latest, second)
	}
}

func TestSaveStreams_ReplaceAndExtract(t *testing.T) {
	db := setupTestDB(t)
	start := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	if err := db.UpsertActivity(testActivity(1, start)); err != nil {
		t.Fatalf("Failed to insert activity: %v", err)
	}

	f := func(v float64) *float64 { return &v }
	points := []StreamPoint{
		{ActivityID: 1, TimeOffset: 0, Lat: f(47.37), Lng: f(8.54), Altitude: f(408), Watts: f(250)},
		{ActivityID: 1, TimeOffset: 1, Lat: f(47.3701), Lng: f(8.5401), Altitude: f(409), Watts: nil},
		{ActivityID: 1, TimeOffset: 2, Lat: nil, Lng: nil, Altitude: f(410), Watts: f(260)},
	}
	if err := db.SaveStreams(1, points); err != nil {
		t.Fatalf("Failed to save streams: %v", err)
	}

	watts, err := db.GetPowerStream(1)
	if err != nil {
		t.Fatalf("Failed to get power stream: %v", err)
	}
	want := []float64{250, 0, 260}
	if len(watts) != len(want) {
		t.Fatalf("Expected %d samples, got %d", len(want), len(watts))
	}
	for i := range want {
		if watts[i] != want[i] {
			t.Errorf("Sample %d = %g, want %g (dropouts become 0)", i, watts[i], want[i])
		}
	}

	latlng, altitude, err := db.GetRouteStream(1)
	if err != nil {
		t.Fatalf("Failed to get route stream: %v", err)
	}
	if len(latlng) != 2 || len(altitude) != 2 {
		t.Fatalf("Expected 2 positioned points, got %d/%d", len(latlng), len(altitude))
	}
	if latlng[0] != [2]float64{47.37, 8.54} {
		t.Errorf("First point %v", latlng[0])
	}

	// Saving again replaces, never appends.
	if err := db.SaveStreams(1, points[:1]); err != nil {
		t.Fatalf("Failed to re-save streams: %v", err)
	}
	got, err := db.GetStreams(1)
	if err != nil {
		t.Fatalf("Failed to get streams: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Expected 1 point after replace, got %d", len(got))
	}
}

func TestBestEffortProfile_MaxAcrossActivities(t *testing.T) {
	db := setupTestDB(t)

	old := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	db.UpsertActivity(testActivity(1, old))
	db.UpsertActivity(testActivity(2, recent))

	if err := db.SaveBestEfforts(1, map[int]float64{60: 420, 300: 330}); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	if err := db.SaveBestEfforts(2, map[int]float64{60: 400, 300: 345, 1200: 290}); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	profile, err := db.GetBestEffortProfile()
	if err != nil {
		t.Fatalf("Failed to get profile: %v", err)
	}
	want := map[int]float64{60: 420, 300: 345, 1200: 290}
	if len(profile) != len(want) {
		t.Fatalf("Profile %v, want %v", profile, want)
	}
	for d, w := range want {
		if profile[d] != w {
			t.Errorf("Duration %d: %g, want max %g", d, profile[d], w)
		}
	}

	// Cutoff excludes the old season's 420W minute.
	recentProfile, err := db.GetRecentBestEffortProfile("2026-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("Failed to get recent profile: %v", err)
	}
	if recentProfile[60] != 400 {
		t.Errorf("Recent 60s effort %g, want 400", recentProfile[60])
	}

	// Recomputing replaces an activity's efforts.
	if err := db.SaveBestEfforts(1, map[int]float64{60: 410}); err != nil {
		t.Fatalf("Failed to re-save: %v", err)
	}
	efforts, err := db.GetActivityBestEfforts(1)
	if err != nil {
		t.Fatalf("Failed to get activity efforts: %v", err)
	}
	if len(efforts) != 1 || efforts[60] != 410 {
		t.Errorf("Activity efforts %v, want only 60s at 410", efforts)
	}
}

func TestPhysiology_LatestWins(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.GetLatestPhysiology(); !errors.Is(err, ErrNoPhysiology) {
		t.Fatalf("Expected ErrNoPhysiology, got %v", err)
	}

	arch := "all_rounder"
	first := &Physiology{
		CriticalPower: 250, WPrime: 16500,
		Source: PhysiologySourceArchetype, Archetype: &arch,
		ComputedAt: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := db.SavePhysiology(first); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	r2 := 0.998
	second := &Physiology{
		CriticalPower: 276, WPrime: 19400, RSquared: &r2,
		Source:     PhysiologySourceFitted,
		ComputedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := db.SavePhysiology(second); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	latest, err := db.GetLatestPhysiology()
	if err != nil {
		t.Fatalf("Failed to get latest: %v", err)
	}
	if latest.CriticalPower != 276 || latest.Source != PhysiologySourceFitted {
		t.Errorf("Latest = %g W / %s, want 276 W fitted", latest.CriticalPower, latest.Source)
	}
	if latest.RSquared == nil || *latest.RSquared != 0.998 {
		t.Errorf("RSquared %v, want 0.998", latest.RSquared)
	}

	history, err := db.ListPhysiologyHistory(10)
	if err != nil {
		t.Fatalf("Failed to list history: %v", err)
	}
	if len(history) != 2 || history[0].CriticalPower != 276 || history[1].CriticalPower != 250 {
		t.Errorf("History wrong: %v", history)
	}
}

func TestAuth_RoundTrip(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.GetAuth(); !errors.Is(err, ErrNoAuth) {
		t.Fatalf("Expected ErrNoAuth, got %v", err)
	}
	if err := db.UpdateTokens("a", "r", time.Now()); !errors.Is(err, ErrNoAuth) {
		t.Fatalf("UpdateTokens on empty db: expected ErrNoAuth, got %v", err)
	}

	expires := time.Now().Add(6 * time.Hour).Truncate(time.Second)
	if err := db.SaveAuth(&Auth{
		AthleteID: 42, AccessToken: "access", RefreshToken: "refresh", ExpiresAt: expires,
	}); err != nil {
		t.Fatalf("Failed to save auth: %v", err)
	}

	auth, err := db.GetAuth()
	if err != nil {
		t.Fatalf("Failed to get auth: %v", err)
	}
	if auth.AthleteID != 42 || auth.AccessToken != "access" {
		t.Errorf("Auth wrong: %+v", auth)
	}
	if !auth.ExpiresAt.Equal(expires) {
		t.Errorf("ExpiresAt %v, want %v", auth.ExpiresAt, expires)
	}

	newExpires := expires.Add(6 * time.Hour)
	if err := db.UpdateTokens("access2", "refresh2", newExpires); err != nil {
		t.Fatalf("Failed to update tokens: %v", err)
	}
	auth, err = db.GetAuth()
	if err != nil {
		t.Fatalf("Failed to get auth: %v", err)
	}
	if auth.AccessToken != "access2" || auth.RefreshToken != "refresh2" {
		t.Errorf("Tokens not updated: %+v", auth)
	}
}

func TestSyncState(t *testing.T) {
	db := setupTestDB(t)

	v, err := db.GetSyncState("missing")
	if err != nil || v != "" {
		t.Errorf("Missing key should give empty string, got %q, %v", v, err)
	}

	if err := db.SetSyncState(SyncKeyLastActivity, "2026-05-10T08:00:00Z"); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}
	if err := db.SetSyncState(SyncKeyLastActivity, "2026-05-11T08:00:00Z"); err != nil {
		t.Fatalf("Failed to overwrite: %v", err)
	}
	v, err = db.GetSyncState(SyncKeyLastActivity)
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if v != "2026-05-11T08:00:00Z" {
		t.Errorf("Got %q", v)
	}
}
