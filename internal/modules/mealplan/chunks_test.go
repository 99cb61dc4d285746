package mealplan

import (
	"reflect"
	"testing"
)

func TestSplitDays(t *testing.T) {
	cases := []struct {
		from, to, size int
		want           []DayRange
	}{
		{1, 7, 7, []DayRange{{1, 7}}},
		{1, 10, 7, []DayRange{{1, 7}, {8, 10}}},
		{8, 14, 3, []DayRange{{8, 10}, {11, 13}, {14, 14}}},
		{1, 3, 0, []DayRange{{1, 3}}},
		{5, 4, 7, nil},
	}
	for _, tc := range cases {
		got := SplitDays(tc.from, tc.to, tc.size)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("SplitDays(%d,%d,%d)=%v want %v", tc.from, tc.to, tc.size, got, tc.want)
		}
	}
}

func TestDayRange(t *testing.T) {
	r := DayRange{From: 8, To: 14}
	if r.Len() != 7 || !r.Contains(8) || !r.Contains(14) || r.Contains(7) || r.Contains(15) {
		t.Fatalf("unexpected range behavior for %+v", r)
	}
	if (DayRange{From: 3, To: 2}).Len() != 0 {
		t.Fatalf("inverted range should be empty")
	}
}
