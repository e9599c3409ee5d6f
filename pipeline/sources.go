package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/theimaginaryfoundation/sleuth-o-bot/detective"
)

// PhotoSource fetches the raw photo-library export for the trailing window.
type PhotoSource interface {
	FetchPhotoSignals(ctx context.Context, limitDays int) (map[string]any, error)
}

// CalendarSource fetches the raw calendar export for a day window around now.
type CalendarSource interface {
	FetchCalendarSignals(ctx context.Context, sinceDays, untilDays int) (map[string]any, error)
}

// PrivacyCheck is the result of probing that analysis stays on-device. It
// backs the report's privacy statement and nothing else.
type PrivacyCheck struct {
	NetworkStatus   string
	PrivacyVerified bool
}

// PrivacyProber verifies the offline posture of the run.
type PrivacyProber interface {
	AssertOffline(ctx context.Context) (PrivacyCheck, error)
}

// DemoPhotoSource serves the deterministic synthetic photo dataset.
type DemoPhotoSource struct{}

func (DemoPhotoSource) FetchPhotoSignals(ctx context.Context, limitDays int) (map[string]any, error) {
	return detective.DemoPhotoPayload(), nil
}

// DemoCalendarSource serves the deterministic synthetic calendar dataset.
type DemoCalendarSource struct{}

func (DemoCalendarSource) FetchCalendarSignals(ctx context.Context, sinceDays, untilDays int) (map[string]any, error) {
	return detective.DemoCalendarPayload(), nil
}

// FilePhotoSource reads an exported photo payload JSON file. The payload
// stays loosely typed; the normalizer tolerates whatever shape it carries.
type FilePhotoSource struct {
	Path string
}

func (s FilePhotoSource) FetchPhotoSignals(ctx context.Context, limitDays int) (map[string]any, error) {
	return readPayloadFile(s.Path)
}

// FileCalendarSource reads an exported calendar payload JSON file.
type FileCalendarSource struct {
	Path string
}

func (s FileCalendarSource) FetchCalendarSignals(ctx context.Context, sinceDays, untilDays int) (map[string]any, error) {
	return readPayloadFile(s.Path)
}

func readPayloadFile(path string) (map[string]any, error) {
	if path == "" {
		return nil, errors.New("no export path configured")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(b, &payload); err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}
	return payload, nil
}

// StaticProber reports a fixed offline posture. The CLIs use it: they have
// no live network prober to consult.
type StaticProber struct {
	Status   string
	Verified bool
}

func (p StaticProber) AssertOffline(ctx context.Context) (PrivacyCheck, error) {
	return PrivacyCheck{NetworkStatus: p.Status, PrivacyVerified: p.Verified}, nil
}
