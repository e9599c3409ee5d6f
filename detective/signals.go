package detective

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Day-of-week numbering used across every histogram in a SignalBundle.
// Sunday is 1 and Saturday is 7; hour buckets run 0..23.
const (
	Sunday    = 1
	Monday    = 2
	Tuesday   = 3
	Wednesday = 4
	Thursday  = 5
	Friday    = 6
	Saturday  = 7
)

// LocationCluster is one anonymous cluster of geotagged photos. Only the
// size survives normalization; labels and coordinates never enter the bundle.
type LocationCluster struct {
	Count int `json:"count"`
}

// SignalBundle is the canonical signal schema every downstream stage reads.
// It is produced once per run (or served from the signal cache) and is never
// mutated after creation. An unavailable source keeps its maps empty and its
// availability flag false so later stages can suppress claims about it.
type SignalBundle struct {
	TotalPhotos int
	TotalEvents int

	PhotoDayOfWeek      map[int]int
	PhotoHourOfDay      map[int]int
	CalendarDayOfWeek   map[int]int
	MeetingMinutesByDay map[int]int

	TopLocations       []LocationCluster
	PhotosWithLocation int

	PhotoSourceAvailable    bool
	CalendarSourceAvailable bool
}

// Normalize adapts heterogeneous provider payloads into a SignalBundle.
// Payloads are loosely-typed JSON objects; recognized photo keys are
// total_photos, by_day_of_week (day-name keys), by_hour, top_locations and
// with_location, and calendar keys are total_events, events_by_day and
// meeting_minutes_by_day. Missing or malformed fields default to empty maps
// and zero counts — Normalize never fails and never fabricates data.
func Normalize(rawPhoto, rawCalendar map[string]any, photoAvailable, calendarAvailable bool) SignalBundle {
	b := SignalBundle{
		PhotoDayOfWeek:          map[int]int{},
		PhotoHourOfDay:          map[int]int{},
		CalendarDayOfWeek:       map[int]int{},
		MeetingMinutesByDay:     map[int]int{},
		PhotoSourceAvailable:    photoAvailable,
		CalendarSourceAvailable: calendarAvailable,
	}

	if photoAvailable && rawPhoto != nil {
		b.PhotoDayOfWeek = dayHistogram(rawPhoto["by_day_of_week"])
		b.PhotoHourOfDay = hourHistogram(rawPhoto["by_hour"])
		b.TopLocations = locationClusters(rawPhoto["top_locations"])
		b.PhotosWithLocation = countFromAny(rawPhoto["with_location"])
		b.TotalPhotos = declaredOrSummed(rawPhoto["total_photos"], b.PhotoDayOfWeek, b.PhotoHourOfDay)
	}

	if calendarAvailable && rawCalendar != nil {
		b.CalendarDayOfWeek = dayHistogram(rawCalendar["events_by_day"])
		b.MeetingMinutesByDay = dayHistogram(rawCalendar["meeting_minutes_by_day"])
		b.TotalEvents = declaredOrSummed(rawCalendar["total_events"], b.CalendarDayOfWeek, nil)
	}

	return b
}

var dayNumbers = map[string]int{
	"sun": Sunday,
	"mon": Monday,
	"tue": Tuesday,
	"wed": Wednesday,
	"thu": Thursday,
	"fri": Friday,
	"sat": Saturday,
}

// dayNumber maps provider day keys ("Sun", "sunday", "1") onto 1..7.
// Returns 0 for anything unrecognizable.
func dayNumber(key string) int {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return 0
	}
	if n, err := strconv.Atoi(k); err == nil {
		if n >= Sunday && n <= Saturday {
			return n
		}
		return 0
	}
	if len(k) > 3 {
		k = k[:3]
	}
	return dayNumbers[k]
}

func dayHistogram(raw any) map[int]int {
	out := map[int]int{}
	m, ok := raw.(map[string]any)
	if !ok {
		return out
	}
	for key, val := range m {
		day := dayNumber(key)
		if day == 0 {
			continue
		}
		if n, ok := nonNegative(val); ok {
			out[day] += n
		}
	}
	return out
}

func hourHistogram(raw any) map[int]int {
	out := map[int]int{}
	m, ok := raw.(map[string]any)
	if !ok {
		return out
	}
	for key, val := range m {
		h, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || h < 0 || h > 23 {
			continue
		}
		if n, ok := nonNegative(val); ok {
			out[h] += n
		}
	}
	return out
}

func locationClusters(raw any) []LocationCluster {
	arr, ok := raw.([]any)
	if !ok {
		return nil
	}
	var out []LocationCluster
	for _, item := range arr {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if n, ok := nonNegative(m["count"]); ok && n > 0 {
			out = append(out, LocationCluster{Count: n})
		}
	}
	return out
}

// declaredOrSummed prefers the provider's declared total when it is a usable
// positive count, otherwise falls back to summing the histograms it shipped.
func declaredOrSummed(declared any, primary, secondary map[int]int) int {
	if n, ok := nonNegative(declared); ok && n > 0 {
		return n
	}
	if s := sumCounts(primary); s > 0 {
		return s
	}
	return sumCounts(secondary)
}

func sumCounts(m map[int]int) int {
	total := 0
	for _, n := range m {
		total += n
	}
	return total
}

// nonNegative coerces the numeric shapes JSON decoding produces into a count.
// Negative and non-numeric values are treated as malformed and dropped.
func nonNegative(v any) (int, bool) {
	n, ok := anyInt(v)
	if !ok || n < 0 {
		return 0, false
	}
	return n, true
}

func anyInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func countFromAny(v any) int {
	n, _ := nonNegative(v)
	return n
}
