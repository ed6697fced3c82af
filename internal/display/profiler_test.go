package display

import (
	"context"
	"errors"
	"testing"
	"time"
)

// sampleReport mimics system_profiler SPDisplaysDataType -json output for a
// machine with a built-in panel and a virtual display.
const sampleReport = `{
  "SPDisplaysDataType": [
    {
      "_name": "Apple M2",
      "spdisplays_ndrvs": [
        {
          "_name": "Built-in Display",
          "_spdisplays_displayID": "1",
          "_spdisplays_resolution": "2560 x 1664 Retina",
          "_spdisplays_pixels": "2560 x 1664",
          "spdisplays_main": "spdisplays_yes",
          "spdisplays_online": "spdisplays_yes"
        },
        {
          "_name": "Virtual 16:9",
          "_spdisplays_displayID": "a",
          "_spdisplays_resolution": "1920 x 1080 @ 60.00Hz",
          "spdisplays_online": "spdisplays_yes"
        }
      ]
    }
  ]
}`

func TestParseProfilerJSON(t *testing.T) {
	records, err := parseProfilerJSON([]byte(sampleReport))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	builtin := records[0]
	if builtin.Name != "Built-in Display" || builtin.ID != "1" {
		t.Fatalf("unexpected first record: %+v", builtin)
	}
	if !builtin.Main || !builtin.Online {
		t.Fatalf("expected built-in display to be main and online: %+v", builtin)
	}

	virtual := records[1]
	if virtual.Name != "Virtual 16:9" {
		t.Fatalf("unexpected second record: %+v", virtual)
	}
	// Hex "a" must come out as decimal "10" for Sunshine.
	if virtual.ID != "10" {
		t.Fatalf("expected normalized ID 10, got %q", virtual.ID)
	}
	if virtual.Main {
		t.Fatalf("virtual display should not be main")
	}
}

func TestParseProfilerJSON_Invalid(t *testing.T) {
	if _, err := parseProfilerJSON([]byte("not json")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNormalizeID(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"a", "10"},
		{"37D8", "14296"},
		{"1", "1"},
		{"", ""},
		{"not-hex", "not-hex"},
	}
	for _, c := range cases {
		if got := normalizeID(c.in); got != c.want {
			t.Errorf("normalizeID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestList_RetriesEmptyOutput(t *testing.T) {
	calls := 0
	p := NewProfiler(ProfilerConfig{
		Retries:    3,
		RetryDelay: time.Millisecond,
		Runner: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			calls++
			if calls < 3 {
				return []byte("  \n"), nil
			}
			return []byte(sampleReport), nil
		},
	})

	records, err := p.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestList_AllAttemptsFail(t *testing.T) {
	wantErr := errors.New("boom")
	calls := 0
	p := NewProfiler(ProfilerConfig{
		Retries:    2,
		RetryDelay: time.Millisecond,
		Runner: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			calls++
			return nil, wantErr
		},
	})

	_, err := p.List(context.Background())
	if err == nil {
		t.Fatalf("expected error after exhausted retries")
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped runner error, got %v", err)
	}
}

func TestList_EmptyDisplaySetIsValid(t *testing.T) {
	p := NewProfiler(ProfilerConfig{
		Retries:    2,
		RetryDelay: time.Millisecond,
		Runner: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return []byte(`{"SPDisplaysDataType": []}`), nil
		},
	})

	records, err := p.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty set, got %d records", len(records))
	}
}
