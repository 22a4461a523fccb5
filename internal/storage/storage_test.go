package storage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Quintas0658/olist-ecommerce-project/internal/models"
)

func key(month string, lookback int) models.ProfileKey {
	return models.ProfileKey{Month: models.MustParseMonth(month), Lookback: lookback}
}

func profileFor(k models.ProfileKey) *models.MonthlyProfile {
	rows := []models.SellerProfile{{
		SellerID:       "s1",
		AnalysisMonth:  k.Month,
		LookbackMonths: k.Lookback,
		Tier:           models.TierBasic,
	}}
	return models.NewMonthlyProfile(k.Month, k.Lookback, rows, time.Now())
}

func countingBuilder(calls *int32) BuildFunc {
	return func(_ context.Context, k models.ProfileKey) (*models.MonthlyProfile, error) {
		atomic.AddInt32(calls, 1)
		return profileFor(k), nil
	}
}

func TestProfileStore_GetOrBuildCaches(t *testing.T) {
	s := New()
	var calls int32
	build := countingBuilder(&calls)

	k := key("2018-06", 3)
	first, err := s.GetOrBuild(context.Background(), k, build)
	if err != nil {
		t.Fatalf("GetOrBuild failed: %v", err)
	}
	second, err := s.GetOrBuild(context.Background(), k, build)
	if err != nil {
		t.Fatalf("GetOrBuild failed: %v", err)
	}

	if first != second {
		t.Error("expected the cached profile to be returned on a hit")
	}
	if calls != 1 {
		t.Errorf("expected 1 build, got %d", calls)
	}
}

func TestProfileStore_KeyIncludesLookback(t *testing.T) {
	s := New()
	var calls int32
	build := countingBuilder(&calls)

	for _, k := range []models.ProfileKey{key("2018-06", 3), key("2018-06", 1)} {
		p, err := s.GetOrBuild(context.Background(), k, build)
		if err != nil {
			t.Fatalf("GetOrBuild failed: %v", err)
		}
		if p.Lookback != k.Lookback {
			t.Errorf("expected lookback %d, got %d", k.Lookback, p.Lookback)
		}
	}
	if calls != 2 {
		t.Errorf("expected a build per lookback, got %d", calls)
	}
}

func TestProfileStore_ConcurrentSingleBuild(t *testing.T) {
	s := New()
	var calls int32
	release := make(chan struct{})
	build := func(_ context.Context, k models.ProfileKey) (*models.MonthlyProfile, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return profileFor(k), nil
	}

	k := key("2018-03", 2)
	var wg sync.WaitGroup
	results := make([]*models.MonthlyProfile, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := s.GetOrBuild(context.Background(), k, build)
			if err != nil {
				t.Errorf("GetOrBuild failed: %v", err)
				return
			}
			results[i] = p
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls != 1 {
		t.Errorf("expected exactly 1 build, got %d", calls)
	}
	for i, p := range results {
		if p != results[0] {
			t.Errorf("caller %d got a different profile", i)
		}
	}
}

func TestProfileStore_FailedBuildNotCached(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	fail := func(context.Context, models.ProfileKey) (*models.MonthlyProfile, error) {
		return nil, boom
	}

	k := key("2018-01", 0)
	if _, err := s.GetOrBuild(context.Background(), k, fail); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped build error, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store after failed build, got %d", s.Len())
	}

	var calls int32
	if _, err := s.GetOrBuild(context.Background(), k, countingBuilder(&calls)); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected the retry to build, got %d calls", calls)
	}
}

func TestProfileStore_RejectsInvalidProfile(t *testing.T) {
	s := New()
	k := key("2018-01", 1)
	bad := profileFor(k)
	bad.Sellers[0].SellerID = ""

	if err := s.Put(bad); err == nil {
		t.Error("expected Put to reject a profile with an invalid seller row")
	}
	if err := s.Put(nil); err == nil {
		t.Error("expected Put to reject nil")
	}

	wrong := func(context.Context, models.ProfileKey) (*models.MonthlyProfile, error) {
		return profileFor(key("2017-01", 1)), nil
	}
	if _, err := s.GetOrBuild(context.Background(), k, wrong); err == nil {
		t.Error("expected an error when the builder returns a mismatched key")
	}
}

func TestProfileStore_WarmAndKeys(t *testing.T) {
	s := New()
	var calls int32
	keys := []models.ProfileKey{
		key("2018-03", 1), key("2017-12", 1), key("2018-01", 1), key("2018-01", 0),
	}

	if err := s.Warm(context.Background(), keys, 2, countingBuilder(&calls)); err != nil {
		t.Fatalf("Warm failed: %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 builds, got %d", calls)
	}

	got := s.Keys()
	want := []models.ProfileKey{key("2017-12", 1), key("2018-01", 0), key("2018-01", 1), key("2018-03", 1)}
	if len(got) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	s.Invalidate()
	if s.Len() != 0 {
		t.Errorf("expected empty store after Invalidate, got %d", s.Len())
	}
	if _, ok := s.Get(keys[0]); ok {
		t.Error("expected miss after Invalidate")
	}
}

func TestProfileStore_WarmStopsOnError(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	build := func(_ context.Context, k models.ProfileKey) (*models.MonthlyProfile, error) {
		if k.Month.String() == "2018-02" {
			return nil, boom
		}
		return profileFor(k), nil
	}

	keys := []models.ProfileKey{key("2018-01", 1), key("2018-02", 1), key("2018-03", 1)}
	if err := s.Warm(context.Background(), keys, 1, build); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, ok := s.Get(key("2018-02", 1)); ok {
		t.Error("failed key must not be cached")
	}
}
