package detective

import (
	"fmt"
	"sort"
)

// InsightType classifies which histograms a candidate draws on.
type InsightType string

const (
	PhotoPattern    InsightType = "photo_pattern"
	CalendarPattern InsightType = "calendar_pattern"
	CrossPattern    InsightType = "cross_pattern"
	Surprising      InsightType = "surprising"
)

// InsightCandidate is a single deterministically computed fact about the
// input signals. Evidence always carries at least one numeral that traces
// back to a count or sum in the bundle that produced it; LowConfidence marks
// candidates whose supporting count is below 3. Candidates are created only
// here and never mutated afterwards.
type InsightCandidate struct {
	Type          InsightType `json:"type"`
	Headline      string      `json:"headline"`
	Evidence      string      `json:"evidence"`
	LowConfidence bool        `json:"low_confidence"`
}

var dayNames = [8]string{"", "Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

func dayName(day int) string {
	if day < Sunday || day > Saturday {
		return "unknown day"
	}
	return dayNames[day]
}

// ComputeInsights evaluates the rule set against one bundle and returns the
// candidates in rule order. It is a pure function: no I/O, no randomness,
// byte-identical output for identical input. The result always holds at
// least 2 candidates so downstream stages never see an empty case file.
func ComputeInsights(bundle SignalBundle) []InsightCandidate {
	var out []InsightCandidate

	appendIf := func(c *InsightCandidate) {
		if c != nil {
			out = append(out, *c)
		}
	}

	appendIf(peakHoursRule(bundle))
	appendIf(weekendRule(bundle))
	appendIf(heaviestMeetingDayRule(bundle))
	appendIf(lightMeetingHeavyPhotoRule(bundle))
	appendIf(nightOwlEarlyBirdRule(bundle))
	appendIf(homeBaseRule(bundle))
	appendIf(busyDayCorrelationRule(bundle))
	appendIf(surprisingDayRule(bundle))
	appendIf(sourceOnlyCandidate(bundle))

	return ensureMinimum(bundle, out)
}

// Rule 1: the two most frequent photo hours, by descending count. Requires
// at least 2 nonzero hour buckets; fewer than 3 nonzero buckets marks the
// candidate low-confidence. Ties break toward the smaller hour.
func peakHoursRule(b SignalBundle) *InsightCandidate {
	type bucket struct{ hour, count int }
	var buckets []bucket
	for h := 0; h <= 23; h++ {
		if n := b.PhotoHourOfDay[h]; n > 0 {
			buckets = append(buckets, bucket{hour: h, count: n})
		}
	}
	if len(buckets) < 2 {
		return nil
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		if buckets[i].count != buckets[j].count {
			return buckets[i].count > buckets[j].count
		}
		return buckets[i].hour < buckets[j].hour
	})
	first, second := buckets[0], buckets[1]
	return &InsightCandidate{
		Type:     PhotoPattern,
		Headline: fmt.Sprintf("Peak shutter hours at %d:00 and %d:00", first.hour, second.hour),
		Evidence: fmt.Sprintf("%d photos taken around %d:00 and %d more around %d:00",
			first.count, first.hour, second.count, second.hour),
		LowConfidence: len(buckets) < 3,
	}
}

// Rule 2: weekend photo average beats 1.5x the weekday average.
func weekendRule(b SignalBundle) *InsightCandidate {
	weekendAvg := float64(b.PhotoDayOfWeek[Saturday]+b.PhotoDayOfWeek[Sunday]) / 2
	weekdaySum := 0
	for d := Monday; d <= Friday; d++ {
		weekdaySum += b.PhotoDayOfWeek[d]
	}
	weekdayAvg := float64(weekdaySum) / 5
	if weekdayAvg <= 0 || weekendAvg <= weekdayAvg*1.5 {
		return nil
	}
	return &InsightCandidate{
		Type:     PhotoPattern,
		Headline: "Weekend photographer",
		Evidence: fmt.Sprintf("%d photos on Saturdays and %d on Sundays, against %d across all weekdays combined",
			b.PhotoDayOfWeek[Saturday], b.PhotoDayOfWeek[Sunday], weekdaySum),
	}
}

// Rule 3: the day with the maximum meeting-minutes sum, provided any
// meeting minutes exist. Ties break toward the earlier day.
func heaviestMeetingDayRule(b SignalBundle) *InsightCandidate {
	bestDay, bestMinutes := 0, 0
	for d := Sunday; d <= Saturday; d++ {
		if m := b.MeetingMinutesByDay[d]; m > bestMinutes {
			bestDay, bestMinutes = d, m
		}
	}
	if bestMinutes <= 0 {
		return nil
	}
	return &InsightCandidate{
		Type:     CalendarPattern,
		Headline: fmt.Sprintf("%s is your heaviest meeting day", dayName(bestDay)),
		Evidence: fmt.Sprintf("%d meeting minutes land on %ss, more than any other day", bestMinutes, dayName(bestDay)),
	}
}

// Rule 4: the day with the globally minimum meeting minutes is also the day
// with the globally maximum photo count. Requires nonzero meeting minutes
// and nonzero photo counts, since empty histograms have no meaningful
// extremum. Ties break toward the earlier day on both sides.
func lightMeetingHeavyPhotoRule(b SignalBundle) *InsightCandidate {
	if sumCounts(b.MeetingMinutesByDay) == 0 || sumCounts(b.PhotoDayOfWeek) == 0 {
		return nil
	}
	minDay, minMinutes := Sunday, b.MeetingMinutesByDay[Sunday]
	maxDay, maxPhotos := Sunday, b.PhotoDayOfWeek[Sunday]
	for d := Monday; d <= Saturday; d++ {
		if m := b.MeetingMinutesByDay[d]; m < minMinutes {
			minDay, minMinutes = d, m
		}
		if p := b.PhotoDayOfWeek[d]; p > maxPhotos {
			maxDay, maxPhotos = d, p
		}
	}
	if minDay != maxDay {
		return nil
	}
	return &InsightCandidate{
		Type:     CrossPattern,
		Headline: fmt.Sprintf("Light-meeting %ss become photo days", dayName(minDay)),
		Evidence: fmt.Sprintf("Your lightest meeting day carries just %d meeting minutes and your highest photo count, %d photos",
			minMinutes, maxPhotos),
	}
}

// Rule 5: night owl (hours 20-23 and 0-5) above 20% of photos, else early
// bird (hours 5-8) above 20%. Night is checked first; the two are mutually
// exclusive.
func nightOwlEarlyBirdRule(b SignalBundle) *InsightCandidate {
	if b.TotalPhotos <= 0 {
		return nil
	}
	night, morning := 0, 0
	for h, n := range b.PhotoHourOfDay {
		if h >= 20 || h <= 5 {
			night += n
		}
		if h >= 5 && h <= 8 {
			morning += n
		}
	}
	total := float64(b.TotalPhotos)
	if float64(night)/total > 0.20 {
		return &InsightCandidate{
			Type:     PhotoPattern,
			Headline: "Night owl",
			Evidence: fmt.Sprintf("%d of your %d photos were taken late at night or before dawn", night, b.TotalPhotos),
		}
	}
	if float64(morning)/total > 0.20 {
		return &InsightCandidate{
			Type:     PhotoPattern,
			Headline: "Early bird",
			Evidence: fmt.Sprintf("%d of your %d photos were taken in the early morning", morning, b.TotalPhotos),
		}
	}
	return nil
}

// Rule 6: the single largest location cluster holds more than 30% of
// geotagged photos.
func homeBaseRule(b SignalBundle) *InsightCandidate {
	if b.PhotosWithLocation <= 0 {
		return nil
	}
	largest := 0
	for _, loc := range b.TopLocations {
		if loc.Count > largest {
			largest = loc.Count
		}
	}
	if largest == 0 || float64(largest)/float64(b.PhotosWithLocation) <= 0.30 {
		return nil
	}
	return &InsightCandidate{
		Type:     PhotoPattern,
		Headline: "A clear home base",
		Evidence: fmt.Sprintf("%d of your %d geotagged photos come from a single location cluster", largest, b.PhotosWithLocation),
	}
}

// Rule 7: among days active in either source (photos>3 or events>3), more
// than half are active in both.
func busyDayCorrelationRule(b SignalBundle) *InsightCandidate {
	active, both := 0, 0
	for d := Sunday; d <= Saturday; d++ {
		photoHeavy := b.PhotoDayOfWeek[d] > 3
		eventHeavy := b.CalendarDayOfWeek[d] > 3
		if photoHeavy || eventHeavy {
			active++
		}
		if photoHeavy && eventHeavy {
			both++
		}
	}
	if active == 0 || float64(both)/float64(active) <= 0.50 {
		return nil
	}
	return &InsightCandidate{
		Type:     CrossPattern,
		Headline: "Busy days are busy everywhere",
		Evidence: fmt.Sprintf("%d of your %d busiest days pair heavy photo-taking with a full calendar, across %d photos and %d events",
			both, active, b.TotalPhotos, b.TotalEvents),
	}
}

// Rule 8: the top photo day holds at least twice the count of the second,
// with the second nonzero. Days sort by count descending, ties by day order.
func surprisingDayRule(b SignalBundle) *InsightCandidate {
	type dayCount struct{ day, count int }
	counts := make([]dayCount, 0, 7)
	for d := Sunday; d <= Saturday; d++ {
		counts = append(counts, dayCount{day: d, count: b.PhotoDayOfWeek[d]})
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].count > counts[j].count })
	first, second := counts[0], counts[1]
	if second.count <= 0 || first.count < 2*second.count {
		return nil
	}
	return &InsightCandidate{
		Type:     Surprising,
		Headline: fmt.Sprintf("%ss stand alone", dayName(first.day)),
		Evidence: fmt.Sprintf("%d photos on %ss, at least double the %d of the next busiest day",
			first.count, dayName(first.day), second.count),
	}
}

// sourceOnlyCandidate flags a run that had to proceed on one source. When
// both sources are missing there is no truthful count to cite, so nothing
// is appended and the minimum guarantee takes over instead.
func sourceOnlyCandidate(b SignalBundle) *InsightCandidate {
	switch {
	case b.PhotoSourceAvailable && !b.CalendarSourceAvailable:
		return &InsightCandidate{
			Type:          PhotoPattern,
			Headline:      "Photo-only analysis",
			Evidence:      fmt.Sprintf("Calendar data was unavailable; these findings rest on %d photos alone", b.TotalPhotos),
			LowConfidence: true,
		}
	case b.CalendarSourceAvailable && !b.PhotoSourceAvailable:
		return &InsightCandidate{
			Type:          CalendarPattern,
			Headline:      "Calendar-only analysis",
			Evidence:      fmt.Sprintf("Photo data was unavailable; these findings rest on %d calendar events alone", b.TotalEvents),
			LowConfidence: true,
		}
	default:
		return nil
	}
}

// ensureMinimum pads the candidate list to at least 2 entries so the rest of
// the pipeline always has non-empty input. Padding respects availability
// flags: an unavailable category is never claimed, and the neutral
// placeholders cite only truthful totals (possibly zero).
func ensureMinimum(b SignalBundle, out []InsightCandidate) []InsightCandidate {
	if len(out) >= 2 {
		return out
	}
	if b.PhotoSourceAvailable && b.TotalPhotos > 0 {
		out = append(out, InsightCandidate{
			Type:     PhotoPattern,
			Headline: "An active photographer",
			Evidence: fmt.Sprintf("%d photos in the examined period", b.TotalPhotos),
		})
	}
	if len(out) < 2 && b.CalendarSourceAvailable && b.TotalEvents > 0 {
		out = append(out, InsightCandidate{
			Type:     CalendarPattern,
			Headline: "An organized scheduler",
			Evidence: fmt.Sprintf("%d calendar events in the examined period", b.TotalEvents),
		})
	}
	for i := 0; len(out) < 2; i++ {
		out = append(out, neutralPlaceholder(i))
	}
	return out
}

func neutralPlaceholder(i int) InsightCandidate {
	placeholders := []InsightCandidate{
		{
			Type:          Surprising,
			Headline:      "A quiet case file",
			Evidence:      "0 usable activity signals surfaced in the examined period",
			LowConfidence: true,
		},
		{
			Type:          Surprising,
			Headline:      "The trail runs cold",
			Evidence:      "0 patterns could be established from the available records",
			LowConfidence: true,
		},
	}
	return placeholders[i%len(placeholders)]
}
