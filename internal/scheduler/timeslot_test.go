package scheduler

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2026-02-03 ")
	if err != nil {
		t.Fatalf("ParseDate returned error: %v", err)
	}
	if d != (Date{Year: 2026, Month: time.February, Day: 3}) {
		t.Fatalf("unexpected date %+v", d)
	}
	if d.String() != "2026-02-03" {
		t.Fatalf("unexpected string %q", d.String())
	}

	for _, bad := range []string{"", "2026-2-3", "03/02/2026", "2026-13-01"} {
		if _, err := ParseDate(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestDateCompare(t *testing.T) {
	a := Date{Year: 2026, Month: time.January, Day: 31}
	b := Date{Year: 2026, Month: time.February, Day: 1}

	if !a.Before(b) || b.Before(a) {
		t.Fatalf("expected %s before %s", a, b)
	}
	if a.Compare(a) != 0 {
		t.Fatalf("expected date to equal itself")
	}
	if (Date{Year: 2025, Month: time.December, Day: 31}).Compare(a) != -1 {
		t.Fatalf("expected year to dominate comparison")
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:05")
	if err != nil {
		t.Fatalf("ParseTimeOfDay returned error: %v", err)
	}
	if tod.Minutes() != 9*60+5 {
		t.Fatalf("unexpected minutes %d", tod.Minutes())
	}
	if tod.String() != "09:05" {
		t.Fatalf("unexpected string %q", tod.String())
	}

	for _, bad := range []string{"", "24:00", "9", "09:60", "noon"} {
		if _, err := ParseTimeOfDay(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestTimeOfDayOfTruncatesSeconds(t *testing.T) {
	got := TimeOfDayOf(time.Date(2026, time.May, 1, 17, 59, 59, 999, time.UTC))
	if got.String() != "17:59" {
		t.Fatalf("expected 17:59, got %s", got)
	}
}

func TestSlotJSONUsesWallClockStrings(t *testing.T) {
	payload := struct {
		Date  Date      `json:"date"`
		Start TimeOfDay `json:"start"`
	}{
		Date:  Date{Year: 2026, Month: time.July, Day: 4},
		Start: TimeOfDay(8*60 + 30),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"date":"2026-07-04","start":"08:30"}` {
		t.Fatalf("unexpected json %s", raw)
	}
}
