package namaz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
}

// sampleDay has every label filled and no post-midnight values.
func sampleDay() Snapshot {
	return Snapshot{
		Sihori:        "04:50",
		Fajr:          "05:00",
		SunriseSafe:   "06:20",
		Zawaal:        "12:15",
		Zohar:         "12:15",
		ZohrEnd:       "15:00",
		Asar:          "15:00",
		AsrEnd:        "18:00",
		MaghribSafe:   "18:10",
		MaghribEnd:    "19:30",
		NisfulLayl:    "01:05",
		NisfulLaylEnd: "02:00",
	}
}

// eveningDay places nisful_layl after midnight, as most providers report it.
func eveningDay() Snapshot {
	s := sampleDay()
	s[NisfulLayl] = "00:20"
	s[NisfulLaylEnd] = "01:10"
	return s
}

// ---------------------------------------------------------------------------
// ResolveNextLabel
// ---------------------------------------------------------------------------

func TestResolveNextLabel_Empty(t *testing.T) {
	assert.Equal(t, Label(""), ResolveNextLabel(nil, at(10, 0)))
	assert.Equal(t, Label(""), ResolveNextLabel(Snapshot{}, at(10, 0)))
}

func TestResolveNextLabel_PriorityOrder(t *testing.T) {
	times := Snapshot{
		Sihori:      "04:00",
		Fajr:        "05:00",
		Zawaal:      "12:00",
		MaghribSafe: "19:00",
		NisfulLayl:  "23:30",
	}
	assert.Equal(t, Sihori, ResolveNextLabel(times, at(3, 0)))
}

func TestResolveNextLabel_PriorityBeatsChronology(t *testing.T) {
	// fajr is nearer in time, but sihori comes first in the priority list.
	times := Snapshot{
		Sihori: "23:00",
		Fajr:   "05:00",
	}
	assert.Equal(t, Sihori, ResolveNextLabel(times, at(3, 0)))
}

func TestResolveNextLabel_Progression(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want Label
	}{
		{"before sihori", at(3, 0), Sihori},
		{"between sihori and fajr", at(4, 55), Fajr},
		{"after fajr", at(5, 30), Zawaal},
		{"afternoon", at(13, 0), MaghribSafe},
		{"exactly at maghrib is not after", at(18, 10), NisfulLayl},
		{"late evening", at(22, 0), NisfulLayl},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveNextLabel(eveningDay(), tt.now))
		})
	}
}

func TestResolveNextLabel_NoneLeft(t *testing.T) {
	// nisful_layl at 01:05 has already passed by the evening.
	assert.Equal(t, Label(""), ResolveNextLabel(sampleDay(), at(22, 0)))
}

func TestResolveNextLabel_SkipsMalformed(t *testing.T) {
	times := Snapshot{
		Sihori: "bad",
		Fajr:   "",
		Zawaal: "12:00",
	}
	assert.Equal(t, Zawaal, ResolveNextLabel(times, at(3, 0)))
}

func TestResolveNextLabel_MidnightIsTwoDaysAhead(t *testing.T) {
	times := Snapshot{NisfulLayl: "00:15"}
	now := at(22, 0)

	assert.Equal(t, NisfulLayl, ResolveNextLabel(times, now))

	got, ok := homeInstant("00:15", now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 12, 0, 15, 0, 0, time.UTC), got)
}

// ---------------------------------------------------------------------------
// ResolveCurrentPeriod
// ---------------------------------------------------------------------------

func TestResolveCurrentPeriod_Table(t *testing.T) {
	tests := []struct {
		name       string
		times      Snapshot
		now        time.Time
		wantName   string
		wantKey    Label
		wantGroup  Group
		wantIsNext bool
		wantNextIn Label
	}{
		{"nisful layl window", sampleDay(), at(1, 20), "Nisful-Layl", NisfulLayl, Evening, false, ""},
		{"pre-dawn", sampleDay(), at(3, 0), "Sihori Ends", Sihori, Morning, false, ""},
		{"between sihori and fajr", sampleDay(), at(4, 55), "Sihori Ends", Sihori, Morning, false, ""},
		{"fajr window", sampleDay(), at(5, 30), "Fajr", Fajr, Morning, false, ""},
		{"morning after sunrise", sampleDay(), at(8, 0), "Zawal", Zawaal, Noon, true, ""},
		{"zohr window", sampleDay(), at(13, 0), "Zohr/Asr", Zohar, Noon, false, ZohrEnd},
		{"asar window", sampleDay(), at(16, 0), "Asar until 18:00", Asar, Noon, false, AsrEnd},
		{"gap before maghrib", sampleDay(), at(18, 5), "Maghrib", MaghribSafe, Evening, true, MaghribSafe},
		{"maghrib window", eveningDay(), at(18, 30), "Maghrib", MaghribSafe, Evening, false, ""},
		{"maghrib/isha", eveningDay(), at(20, 0), "Maghrib/Isha", MaghribEnd, Evening, false, NisfulLayl},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := ResolveNextLabel(tt.times, tt.now)
			got := ResolveCurrentPeriod(tt.times, next, tt.now)

			assert.Equal(t, tt.wantName, got.Name)
			assert.Equal(t, tt.wantKey, got.Key)
			assert.Equal(t, tt.wantGroup, got.Group)
			assert.Equal(t, tt.wantIsNext, got.IsNext)
			assert.Equal(t, tt.wantNextIn, got.NextInList)
		})
	}
}

func TestResolveCurrentPeriod_WindowBoundaries(t *testing.T) {
	times := eveningDay()

	start := ResolveCurrentPeriod(times, NisfulLayl, at(18, 10))
	assert.Equal(t, "Maghrib", start.Name, "start of window is inclusive")

	end := ResolveCurrentPeriod(times, NisfulLayl, at(19, 30))
	assert.Equal(t, "Maghrib/Isha", end.Name, "end of window is exclusive")
}

func TestResolveCurrentPeriod_Descriptions(t *testing.T) {
	isha := ResolveCurrentPeriod(eveningDay(), NisfulLayl, at(20, 0))
	assert.Equal(t, "4 hours 20 minutes", isha.Description)

	sihori := ResolveCurrentPeriod(sampleDay(), Sihori, at(3, 0))
	assert.Equal(t, "1 hour 50 minutes", sihori.Description)
}

func TestResolveCurrentPeriod_MissingAuxiliaryLabels(t *testing.T) {
	times := Snapshot{
		Fajr:        "05:00",
		Zawaal:      "12:15",
		MaghribSafe: "18:10",
	}

	got := ResolveCurrentPeriod(times, MaghribSafe, at(13, 0))
	assert.Equal(t, "Maghrib", got.Name)
	assert.Empty(t, got.EndTime)

	got = ResolveCurrentPeriod(times, Zawaal, at(5, 30))
	assert.Equal(t, "Zawal", got.Name)
}

func TestResolveCurrentPeriod_PassThrough(t *testing.T) {
	got := ResolveCurrentPeriod(sampleDay(), "", at(22, 0))
	assert.Equal(t, Period{}, got)

	got = ResolveCurrentPeriod(sampleDay(), Zohar, at(13, 0))
	assert.Equal(t, Period{Key: Zohar, Name: "zohar"}, got)
}

// ---------------------------------------------------------------------------
// Resolve
// ---------------------------------------------------------------------------

func TestResolve(t *testing.T) {
	st := Resolve(sampleDay(), at(16, 0))

	assert.Equal(t, MaghribSafe, st.Next)
	assert.Equal(t, "18:10", st.NextTime)
	assert.Equal(t, "Asar until 18:00", st.Period.Name)
	assert.Equal(t, Remaining{Hours: 2, Minutes: 10, Text: "2 hours 10 minutes"}, st.Remaining)
}

func TestResolve_NothingNext(t *testing.T) {
	st := Resolve(sampleDay(), at(22, 0))
	assert.Equal(t, Label(""), st.Next)
	assert.Equal(t, Remaining{}, st.Remaining)
}
