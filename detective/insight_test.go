package detective

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func demoBundle(t *testing.T) SignalBundle {
	t.Helper()
	return Normalize(DemoPhotoPayload(), DemoCalendarPayload(), true, true)
}

func TestComputeInsights_Deterministic(t *testing.T) {
	t.Parallel()

	bundle := demoBundle(t)
	first, err := json.Marshal(ComputeInsights(bundle))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := json.Marshal(ComputeInsights(bundle))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("two identical calls diverged:\n%s\n%s", first, second)
	}
}

func TestComputeInsights_Provenance(t *testing.T) {
	t.Parallel()

	bundle := demoBundle(t)
	legit := NumeralSet{}
	addCount := func(n int) { legit[float64(n)] = struct{}{} }
	addCount(bundle.TotalPhotos)
	addCount(bundle.TotalEvents)
	addCount(bundle.PhotosWithLocation)
	sums := 0
	for _, m := range []map[int]int{bundle.PhotoDayOfWeek, bundle.PhotoHourOfDay, bundle.CalendarDayOfWeek, bundle.MeetingMinutesByDay} {
		for _, n := range m {
			addCount(n)
			sums += n
		}
	}
	// Rules also cite sums over bucket subsets (night hours, weekday total);
	// admit every pairwise-reachable sum of the photo histograms.
	for _, m := range []map[int]int{bundle.PhotoDayOfWeek, bundle.PhotoHourOfDay} {
		admitSubsetSums(legit, m)
	}
	for _, loc := range bundle.TopLocations {
		addCount(loc.Count)
	}

	for i, ins := range ComputeInsights(bundle) {
		if ins.Evidence == "" {
			t.Fatalf("insight %d (%s) has empty evidence", i, ins.Headline)
		}
		if !legit.ContainsAny(ExtractNumerals(ins.Evidence)) {
			t.Fatalf("insight %d (%s) cites no traceable numeral: %q", i, ins.Headline, ins.Evidence)
		}
	}
}

// admitSubsetSums adds every sum over a contiguous or scattered subset that
// the rules can produce; for the histogram sizes in play, all subset sums
// are cheap to enumerate.
func admitSubsetSums(set NumeralSet, m map[int]int) {
	counts := make([]int, 0, len(m))
	for _, n := range m {
		counts = append(counts, n)
	}
	sums := map[int]struct{}{0: {}}
	for _, n := range counts {
		next := map[int]struct{}{}
		for s := range sums {
			next[s] = struct{}{}
			next[s+n] = struct{}{}
		}
		sums = next
	}
	for s := range sums {
		if s > 0 {
			set[float64(s)] = struct{}{}
		}
	}
}

func TestWeekendRule_Scenario(t *testing.T) {
	t.Parallel()

	bundle := SignalBundle{
		TotalPhotos: 230,
		PhotoDayOfWeek: map[int]int{
			Saturday: 100, Sunday: 80,
			Monday: 10, Tuesday: 10, Wednesday: 10, Thursday: 10, Friday: 10,
		},
		PhotoHourOfDay:          map[int]int{},
		CalendarDayOfWeek:       map[int]int{},
		MeetingMinutesByDay:     map[int]int{},
		PhotoSourceAvailable:    true,
		CalendarSourceAvailable: true,
	}

	var weekend *InsightCandidate
	for _, ins := range ComputeInsights(bundle) {
		if strings.Contains(strings.ToLower(ins.Headline), "weekend") {
			c := ins
			weekend = &c
			break
		}
	}
	if weekend == nil {
		t.Fatalf("weekend rule did not fire")
	}
	if !strings.Contains(weekend.Evidence, "100") {
		t.Fatalf("weekend evidence %q lacks the Saturday count 100", weekend.Evidence)
	}
}

func TestHeaviestMeetingDayRule_Scenario(t *testing.T) {
	t.Parallel()

	bundle := SignalBundle{
		TotalEvents:    20,
		PhotoDayOfWeek: map[int]int{},
		PhotoHourOfDay: map[int]int{},
		CalendarDayOfWeek: map[int]int{
			Tuesday: 8, Wednesday: 6, Thursday: 6,
		},
		MeetingMinutesByDay: map[int]int{
			Monday: 150, Tuesday: 320, Wednesday: 180, Thursday: 190, Friday: 120,
		},
		CalendarSourceAvailable: true,
	}

	var heaviest *InsightCandidate
	for _, ins := range ComputeInsights(bundle) {
		if strings.Contains(ins.Headline, "heaviest meeting day") {
			c := ins
			heaviest = &c
			break
		}
	}
	if heaviest == nil {
		t.Fatalf("heaviest-meeting-day rule did not fire")
	}
	if !strings.Contains(heaviest.Headline, "Tuesday") {
		t.Fatalf("headline %q does not name Tuesday", heaviest.Headline)
	}
	if !strings.Contains(heaviest.Evidence, "320") {
		t.Fatalf("evidence %q lacks 320", heaviest.Evidence)
	}
}

func TestPeakHoursRule_TieBreaksAndConfidence(t *testing.T) {
	t.Parallel()

	bundle := SignalBundle{
		TotalPhotos:             20,
		PhotoDayOfWeek:          map[int]int{},
		CalendarDayOfWeek:       map[int]int{},
		MeetingMinutesByDay:     map[int]int{},
		PhotoHourOfDay:          map[int]int{14: 10, 9: 10},
		PhotoSourceAvailable:    true,
		CalendarSourceAvailable: true,
	}

	insights := ComputeInsights(bundle)
	peak := insights[0]
	if !strings.Contains(peak.Headline, "9:00") || !strings.Contains(peak.Headline, "14:00") {
		t.Fatalf("headline %q should name 9:00 and 14:00", peak.Headline)
	}
	if !strings.HasPrefix(peak.Headline, "Peak shutter hours at 9:00") {
		t.Fatalf("tie should break toward the smaller hour: %q", peak.Headline)
	}
	if !peak.LowConfidence {
		t.Fatalf("only 2 nonzero buckets should be low confidence")
	}
}

func TestNightOwlBeforeEarlyBird(t *testing.T) {
	t.Parallel()

	// Both buckets clear 20%; night must win and the two are exclusive.
	bundle := SignalBundle{
		TotalPhotos:             100,
		PhotoDayOfWeek:          map[int]int{},
		CalendarDayOfWeek:       map[int]int{},
		MeetingMinutesByDay:     map[int]int{},
		PhotoHourOfDay:          map[int]int{22: 30, 7: 30, 12: 40},
		PhotoSourceAvailable:    true,
		CalendarSourceAvailable: true,
	}

	nightOwls, earlyBirds := 0, 0
	for _, ins := range ComputeInsights(bundle) {
		switch ins.Headline {
		case "Night owl":
			nightOwls++
		case "Early bird":
			earlyBirds++
		}
	}
	if nightOwls != 1 || earlyBirds != 0 {
		t.Fatalf("night=%d early=%d, want 1/0", nightOwls, earlyBirds)
	}
}

func TestSurprisingDayRule(t *testing.T) {
	t.Parallel()

	bundle := SignalBundle{
		TotalPhotos: 130,
		PhotoDayOfWeek: map[int]int{
			Wednesday: 80, Friday: 40, Monday: 10,
		},
		PhotoHourOfDay:          map[int]int{},
		CalendarDayOfWeek:       map[int]int{},
		MeetingMinutesByDay:     map[int]int{},
		PhotoSourceAvailable:    true,
		CalendarSourceAvailable: true,
	}

	var surprising *InsightCandidate
	for _, ins := range ComputeInsights(bundle) {
		if ins.Type == Surprising && strings.Contains(ins.Headline, "stand alone") {
			c := ins
			surprising = &c
			break
		}
	}
	if surprising == nil {
		t.Fatalf("surprising rule did not fire for 80 vs 40")
	}
	if !strings.Contains(surprising.Evidence, "80") || !strings.Contains(surprising.Evidence, "40") {
		t.Fatalf("evidence %q should cite 80 and 40", surprising.Evidence)
	}
}

func TestSourceOnlyCandidate_CategoryHonesty(t *testing.T) {
	t.Parallel()

	rawCalendar := DemoCalendarPayload()
	bundle := Normalize(nil, rawCalendar, false, true)
	insights := ComputeInsights(bundle)

	var sourceOnly *InsightCandidate
	for _, ins := range insights {
		// Category honesty: photo source is unavailable, so no candidate may
		// claim photo counts.
		if ins.Type == PhotoPattern {
			t.Fatalf("photo claim with photo source unavailable: %+v", ins)
		}
		if strings.Contains(ins.Headline, "Calendar-only") {
			c := ins
			sourceOnly = &c
		}
	}
	if sourceOnly == nil {
		t.Fatalf("calendar-only candidate missing")
	}
	if !sourceOnly.LowConfidence {
		t.Fatalf("source-only candidate should be low confidence")
	}
	if !strings.Contains(sourceOnly.Evidence, "57") {
		t.Fatalf("evidence %q should carry the truthful total 57", sourceOnly.Evidence)
	}
}

func TestComputeInsights_MinimumGuarantee(t *testing.T) {
	t.Parallel()

	empty := Normalize(nil, nil, false, false)
	insights := ComputeInsights(empty)
	if len(insights) < 2 {
		t.Fatalf("len(insights)=%d, want >= 2 even for an empty bundle", len(insights))
	}
	for _, ins := range insights {
		if ExtractNumerals(ins.Evidence) == nil {
			t.Fatalf("placeholder evidence %q has no numeral", ins.Evidence)
		}
	}
}

func TestDemoDataset_YieldsAtLeastThreeCandidates(t *testing.T) {
	t.Parallel()

	insights := ComputeInsights(demoBundle(t))
	if len(insights) < 3 {
		t.Fatalf("demo dataset yields %d candidates, want >= 3", len(insights))
	}
}
