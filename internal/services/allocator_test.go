package services

import (
	"context"
	"fmt"
	"inspection-route-service/internal/domain"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAllocator() *Allocator {
	return &Allocator{Sequencer: &DaySequencer{Provider: newTestProvider(), Home: testHome, Rules: DefaultDayRules()}}
}

func TestAllocate_NoStations(t *testing.T) {
	it, err := newTestAllocator().Allocate(context.Background(), nil, 2)
	require.NoError(t, err)

	require.Len(t, it.Days, 2)
	for i, day := range it.Days {
		assert.Equal(t, i+1, day.DayNumber)
		assert.Empty(t, day.Stops)
		assert.Zero(t, day.TotalDistanceKm)
		assert.Equal(t, DefaultDayRules().DayStart, day.ReturnTime)
		assert.True(t, day.Feasible)
	}
	assert.Zero(t, it.ScheduledStations())
}

func TestAllocate_InvalidDayCount(t *testing.T) {
	_, err := newTestAllocator().Allocate(context.Background(), nil, 0)
	require.ErrorIs(t, err, ErrInvalidDayCount)
}

func TestSplitEvenly(t *testing.T) {
	stations := make([]domain.Station, 7)
	for i := range stations {
		stations[i] = station(fmt.Sprint(i), "R", 15, 102)
	}

	chunks, err := SplitEvenly(stations, 3)
	require.NoError(t, err)

	sizes := []int{}
	for _, c := range chunks {
		sizes = append(sizes, len(c))
	}
	assert.Equal(t, []int{3, 2, 2}, sizes)
	assert.Equal(t, "0", chunks[0][0].ID)
	assert.Equal(t, "3", chunks[1][0].ID)
	assert.Equal(t, "5", chunks[2][0].ID)

	chunks, err = SplitEvenly(stations[:2], 4)
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	assert.Empty(t, chunks[3])
}

func TestAllocate_NoDoubleAssignment(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for round := 0; round < 20; round++ {
		n := rng.Intn(40)
		stations := make([]domain.Station, 0, n)
		input := map[string]bool{}
		for i := 0; i < n; i++ {
			st := station(fmt.Sprintf("r%d-%d", round, i), fmt.Sprintf("D%d", rng.Intn(5)),
				testHome.Lat+rng.Float64()*3-1.5, testHome.Lon+rng.Float64()*3-1.5)
			stations = append(stations, st)
			input[st.ID] = true
		}
		days := 1 + rng.Intn(4)

		it, err := newTestAllocator().Allocate(context.Background(), stations, days)
		require.NoError(t, err)
		require.Len(t, it.Days, days)

		seen := map[string]bool{}
		for _, day := range it.Days {
			for _, stop := range day.Stops {
				require.False(t, seen[stop.ID], "station %s assigned twice", stop.ID)
				require.True(t, input[stop.ID], "station %s not in input", stop.ID)
				seen[stop.ID] = true
			}
		}
		for _, st := range it.Dropped {
			require.False(t, seen[st.ID], "dropped station %s was also routed", st.ID)
		}
		assert.Equal(t, n, it.ScheduledStations()+len(it.Dropped))
		assert.Equal(t, n, it.Selected)
	}
}

func TestAllocate_TotalsAddUp(t *testing.T) {
	stations := []domain.Station{
		station("a", "X", 14.90, 102.10),
		station("b", "X", 14.92, 102.12),
		station("c", "Y", 15.10, 101.90),
		station("d", "Y", 15.12, 101.88),
	}

	it, err := newTestAllocator().Allocate(context.Background(), stations, 2)
	require.NoError(t, err)

	var km, minutes float64
	for _, d := range it.Days {
		km += d.TotalDistanceKm
		minutes += d.TotalTimeMinutes
	}
	assert.InDelta(t, km, it.TotalDistanceKm, 1e-9)
	assert.InDelta(t, minutes, it.TotalTimeMinutes, 1e-9)
	assert.Equal(t, []string{"a", "b"}, stopIDs(it.Days[0]))
	assert.Equal(t, []string{"c", "d"}, stopIDs(it.Days[1]))
	assert.Zero(t, it.Shortfall(4))
}
