package detective

// Demo payloads stand in for the live signal providers so the pipeline can
// be exercised without real data sources. They are deterministic, shaped
// exactly like provider exports, and rich enough to fire several rules
// (the demo dataset is guaranteed to yield at least 3 candidates).

// DemoPhotoPayload returns the synthetic photo-library export.
func DemoPhotoPayload() map[string]any {
	return map[string]any{
		"total_photos": 163,
		"by_day_of_week": map[string]any{
			"Sun": 38, "Mon": 12, "Tue": 9, "Wed": 14, "Thu": 11, "Fri": 18, "Sat": 61,
		},
		"by_hour": map[string]any{
			"8": 10, "12": 14, "18": 40, "21": 33, "22": 21,
		},
		"top_locations": []any{
			map[string]any{"count": 64},
			map[string]any{"count": 21},
			map[string]any{"count": 9},
		},
		"with_location": 94,
	}
}

// DemoCalendarPayload returns the synthetic calendar export.
func DemoCalendarPayload() map[string]any {
	return map[string]any{
		"total_events": 57,
		"events_by_day": map[string]any{
			"Sun": 1, "Mon": 11, "Tue": 14, "Wed": 9, "Thu": 12, "Fri": 8, "Sat": 2,
		},
		"meeting_minutes_by_day": map[string]any{
			"Mon": 180, "Tue": 320, "Wed": 150, "Thu": 200, "Fri": 120,
		},
	}
}
