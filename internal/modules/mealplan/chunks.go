package mealplan

// SplitDays cuts [from, to] into consecutive ranges of at most size days.
func SplitDays(from, to, size int) []DayRange {
	if size <= 0 {
		size = to - from + 1
	}
	var out []DayRange
	for start := from; start <= to; start += size {
		end := start + size - 1
		if end > to {
			end = to
		}
		out = append(out, DayRange{From: start, To: end})
	}
	return out
}
