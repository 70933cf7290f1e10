package api

import (
	"testing"

	"github.com/smokyabdulrahman/ghari/internal/namaz"
)

func TestHijriDate_Format(t *testing.T) {
	tests := []struct {
		name string
		h    HijriDate
		want string
	}{
		{
			name: "full date",
			h: HijriDate{
				Day:         "10",
				Month:       HijriMonth{Number: 8, En: "Sha'ban"},
				Year:        "1447",
				Designation: HijriDesignation{Abbreviated: "AH"},
			},
			want: "10 Sha'ban 1447 AH",
		},
		{
			name: "missing abbreviated defaults to AH",
			h: HijriDate{
				Day:   "1",
				Month: HijriMonth{Number: 1, En: "Muharram"},
				Year:  "1448",
			},
			want: "1 Muharram 1448 AH",
		},
		{
			name: "empty day returns empty",
			h: HijriDate{
				Month: HijriMonth{En: "Ramadan"},
				Year:  "1447",
			},
			want: "",
		},
		{
			name: "empty month returns empty",
			h: HijriDate{
				Day:  "15",
				Year: "1447",
			},
			want: "",
		},
		{
			name: "empty year returns empty",
			h: HijriDate{
				Day:   "15",
				Month: HijriMonth{En: "Ramadan"},
			},
			want: "",
		},
		{
			name: "all empty returns empty",
			h:    HijriDate{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.h.Format()
			if got != tt.want {
				t.Errorf("HijriDate.Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTimings_Snapshot(t *testing.T) {
	timings := Timings{
		Imsak:     "05:07 (GMT)",
		Fajr:      "05:17 (GMT)",
		Sunrise:   "06:48",
		Dhuhr:     "12:13",
		Asr:       "15:02",
		Sunset:    "17:39",
		Maghrib:   "17:39",
		Isha:      "19:10",
		Midnight:  "00:14",
		Lastthird: "",
	}

	snap := timings.Snapshot()

	want := map[namaz.Label]string{
		namaz.Sihori:      "05:07",
		namaz.Fajr:        "05:17",
		namaz.SunriseSafe: "06:48",
		namaz.Zawaal:      "12:13",
		namaz.Zohar:       "12:13",
		namaz.ZohrEnd:     "15:02",
		namaz.Asar:        "15:02",
		namaz.AsrEnd:      "17:39",
		namaz.MaghribSafe: "17:39",
		namaz.MaghribEnd:  "19:10",
		namaz.NisfulLayl:  "00:14",
	}
	for label, v := range want {
		if got := snap[label]; got != v {
			t.Errorf("%s = %q, want %q", label, got, v)
		}
	}
	if _, ok := snap[namaz.NisfulLaylEnd]; ok {
		t.Error("empty Lastthird should be omitted")
	}
}
