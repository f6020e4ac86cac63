package meeting_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meety/meety/internal/domain"
	"github.com/meety/meety/internal/meeting"
)

// ---- helpers ---------------------------------------------------------------

func ready(lat, lng float64, a domain.Activity) domain.Participant {
	return domain.Participant{
		ID:       uuid.New(),
		Location: &domain.Coordinate{Lat: lat, Lng: lng},
		Activity: &a,
	}
}

func notReady() domain.Participant {
	return domain.Participant{ID: uuid.New()}
}

// ---- ComputeMeetingPoint -----------------------------------------------------

func TestComputeMeetingPoint_NoReadyParticipants(t *testing.T) {
	_, err := meeting.ComputeMeetingPoint([]domain.Participant{notReady(), notReady()})
	assert.ErrorIs(t, err, domain.ErrInsufficientParticipants)

	_, err = meeting.ComputeMeetingPoint(nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientParticipants)
}

func TestComputeMeetingPoint_SingleParticipantIsPassthrough(t *testing.T) {
	p := ready(51.5074, -0.1278, domain.ActivityCoffee)

	got, err := meeting.ComputeMeetingPoint([]domain.Participant{notReady(), p})
	require.NoError(t, err)
	assert.Equal(t, 51.5074, got.Lat)
	assert.Equal(t, -0.1278, got.Lng)
	assert.Equal(t, "51.507400, -0.127800 (User Location)", got.Address)
}

func TestComputeMeetingPoint_TwoParticipantsIsMidpoint(t *testing.T) {
	got, err := meeting.ComputeMeetingPoint([]domain.Participant{
		ready(40.0, -73.0, domain.ActivityCoffee),
		ready(40.02, -73.02, domain.ActivityCoffee),
	})
	require.NoError(t, err)
	assert.InDelta(t, 40.01, got.Lat, 1e-9)
	assert.InDelta(t, -73.01, got.Lng, 1e-9)
	assert.Equal(t, "40.010000, -73.010000 (Median Center Point)", got.Address)
}

func TestComputeMeetingPoint_IgnoresUnreadyParticipants(t *testing.T) {
	half := notReady()
	half.Location = &domain.Coordinate{Lat: 10, Lng: 10}

	got, err := meeting.ComputeMeetingPoint([]domain.Participant{
		ready(40.0, -73.0, domain.ActivityCoffee),
		half,
		ready(40.02, -73.02, domain.ActivityCoffee),
	})
	require.NoError(t, err)
	assert.InDelta(t, 40.01, got.Lat, 1e-9)
}

// ---- AverageDistance ---------------------------------------------------------

func TestAverageDistance(t *testing.T) {
	t.Run("zero without ready participants", func(t *testing.T) {
		assert.Equal(t, 0.0, meeting.AverageDistance(domain.Coordinate{}, []domain.Participant{notReady()}))
	})

	t.Run("mean over ready participants", func(t *testing.T) {
		ps := []domain.Participant{
			ready(0, 0, domain.ActivityCoffee),
			ready(2, 0, domain.ActivityCoffee),
			notReady(),
		}
		// Each participant is one degree of latitude from the point.
		got := meeting.AverageDistance(domain.Coordinate{Lat: 1, Lng: 0}, ps)
		assert.InDelta(t, 111.19, got, 0.01)
	})
}

// ---- RankedActivities --------------------------------------------------------

func TestRankedActivities(t *testing.T) {
	t.Run("most popular first", func(t *testing.T) {
		got := meeting.RankedActivities([]domain.Participant{
			ready(0, 0, domain.ActivityOutdoor),
			ready(0, 0, domain.ActivityCoffee),
			ready(0, 0, domain.ActivityCoffee),
		})
		assert.Equal(t, []domain.Activity{domain.ActivityCoffee, domain.ActivityOutdoor}, got)
	})

	t.Run("ties keep first-seen order", func(t *testing.T) {
		got := meeting.RankedActivities([]domain.Participant{
			ready(0, 0, domain.ActivityCulture),
			ready(0, 0, domain.ActivitySports),
			ready(0, 0, domain.ActivityNightlife),
		})
		assert.Equal(t, []domain.Activity{domain.ActivityCulture, domain.ActivitySports, domain.ActivityNightlife}, got)
	})

	t.Run("invariant under reordering when no tie exists", func(t *testing.T) {
		a := ready(0, 0, domain.ActivityShopping)
		b := ready(0, 0, domain.ActivityShopping)
		c := ready(0, 0, domain.ActivityShopping)
		d := ready(0, 0, domain.ActivityRestaurant)

		first := meeting.RankedActivities([]domain.Participant{a, b, c, d})
		second := meeting.RankedActivities([]domain.Participant{d, c, a, b})
		assert.Equal(t, first, second)
	})

	t.Run("unready participants do not vote", func(t *testing.T) {
		act := domain.ActivityNightlife
		voter := notReady()
		voter.Activity = &act

		got := meeting.RankedActivities([]domain.Participant{voter, ready(0, 0, domain.ActivityCoffee)})
		assert.Equal(t, []domain.Activity{domain.ActivityCoffee}, got)
	})
}

// ---- ValidateMeetingLocation -------------------------------------------------

func TestValidateMeetingLocation(t *testing.T) {
	ps := []domain.Participant{
		ready(40.0, -73.0, domain.ActivityCoffee),
		ready(40.5, -73.0, domain.ActivityCoffee),
	}
	center := domain.Coordinate{Lat: 40.25, Lng: -73.0}

	assert.True(t, meeting.ValidateMeetingLocation(center, ps, meeting.DefaultMaxReachKm))
	assert.False(t, meeting.ValidateMeetingLocation(center, ps, 10))
}

// ---- Fingerprint / IsStale ---------------------------------------------------

func TestFingerprint_OrderIndependent(t *testing.T) {
	a := ready(40.0, -73.0, domain.ActivityCoffee)
	b := ready(40.02, -73.02, domain.ActivityRestaurant)

	assert.Equal(t,
		meeting.Fingerprint([]domain.Participant{a, b}),
		meeting.Fingerprint([]domain.Participant{b, a}),
	)
}

func TestFingerprint_ChangesWithConfiguration(t *testing.T) {
	a := ready(40.0, -73.0, domain.ActivityCoffee)
	b := ready(40.02, -73.02, domain.ActivityCoffee)
	base := meeting.Fingerprint([]domain.Participant{a, b})

	moved := b
	moved.Location = &domain.Coordinate{Lat: 40.02, Lng: -73.0200001}
	assert.NotEqual(t, base, meeting.Fingerprint([]domain.Participant{a, moved}))

	other := domain.ActivityOutdoor
	switched := b
	switched.Activity = &other
	assert.NotEqual(t, base, meeting.Fingerprint([]domain.Participant{a, switched}))

	assert.NotEqual(t, base, meeting.Fingerprint([]domain.Participant{a}))
}

func TestFingerprint_IgnoresUnreadyParticipants(t *testing.T) {
	a := ready(40.0, -73.0, domain.ActivityCoffee)
	assert.Equal(t,
		meeting.Fingerprint([]domain.Participant{a}),
		meeting.Fingerprint([]domain.Participant{a, notReady()}),
	)
}

func TestIsStale(t *testing.T) {
	a := ready(40.0, -73.0, domain.ActivityCoffee)
	b := ready(40.02, -73.02, domain.ActivityCoffee)
	participants := []domain.Participant{a, b}

	generated := domain.Session{
		Participants:     participants,
		Fingerprint:      meeting.Fingerprint(participants),
		FingerprintCount: len(participants),
	}

	t.Run("fresh after generation", func(t *testing.T) {
		assert.False(t, meeting.IsStale(generated))
	})

	t.Run("never generated is not stale", func(t *testing.T) {
		assert.False(t, meeting.IsStale(domain.Session{Participants: participants}))
	})

	t.Run("moving a participant makes it stale", func(t *testing.T) {
		s := generated
		moved := b
		moved.Location = &domain.Coordinate{Lat: 40.0200001, Lng: -73.02}
		s.Participants = []domain.Participant{a, moved}
		assert.True(t, meeting.IsStale(s))
	})

	t.Run("a joiner without a location makes it stale through the count", func(t *testing.T) {
		s := generated
		s.Participants = []domain.Participant{a, b, notReady()}
		assert.Equal(t, s.Fingerprint, meeting.Fingerprint(s.Participants))
		assert.True(t, meeting.IsStale(s))
	})
}
