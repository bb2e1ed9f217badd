package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeDay(t *testing.T) {
	got, ok := ParseTime("2024-10-10")
	if !ok {
		t.Fatalf("expected ok")
	}
	if FormatDay(got) != "2024-10-10" {
		t.Fatalf("unexpected day %v", got)
	}
}

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestAlignDayRange(t *testing.T) {
	from := time.Date(2024, 10, 12, 15, 30, 0, 0, time.UTC)
	to := time.Date(2024, 10, 10, 9, 0, 0, 0, time.UTC)
	gotFrom, gotTo := AlignDayRange(from, to)
	if FormatDay(gotFrom) != "2024-10-10" || FormatDay(gotTo) != "2024-10-12" {
		t.Fatalf("unexpected range %v %v", gotFrom, gotTo)
	}
	if !gotFrom.Equal(gotFrom.Truncate(24 * time.Hour)) {
		t.Fatalf("expected midnight boundary, got %v", gotFrom)
	}
}
