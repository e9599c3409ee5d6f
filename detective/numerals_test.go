package detective

import "testing"

func TestExtractNumerals(t *testing.T) {
	t.Parallel()

	got := ExtractNumerals("320 minutes on Tuesdays, up 2.5x from 128")
	want := []float64{320, 2.5, 128}
	if len(got) != len(want) {
		t.Fatalf("ExtractNumerals=%v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ExtractNumerals[%d]=%v, want %v", i, got[i], want[i])
		}
	}

	if ExtractNumerals("no numbers here") != nil {
		t.Fatalf("expected nil for text without numerals")
	}
}

func TestNumeralSet_ComparesByValue(t *testing.T) {
	t.Parallel()

	set := NumeralSetOf("90 photos on weekends", "around 12.0 each weekday")
	if !set.ContainsAny(ExtractNumerals("an average of 90.0")) {
		t.Fatalf("90.0 should match 90 by value")
	}
	if !set.ContainsAny(ExtractNumerals("12 per day")) {
		t.Fatalf("12 should match 12.0 by value")
	}
	if set.ContainsAny(ExtractNumerals("57 somethings")) {
		t.Fatalf("57 should not match")
	}
	if set.ContainsAny(nil) {
		t.Fatalf("empty extraction should not match")
	}
}
