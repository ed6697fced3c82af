package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rawdigits/sunshine-macos-displayupdater/internal/config"
	"github.com/rawdigits/sunshine-macos-displayupdater/internal/display"
)

type fakeService struct {
	running      bool
	flavor       string
	restartCalls int
}

func (f *fakeService) EnsureRunning(ctx context.Context) (string, error) {
	return "sunshine already running", nil
}

func (f *fakeService) Restart(ctx context.Context) (string, error) {
	f.restartCalls++
	return "restarted via brew services (sunshine-beta)", nil
}

func (f *fakeService) Detect(ctx context.Context) (string, bool, error) {
	return f.flavor, f.running, nil
}

func (f *fakeService) IsRunning(ctx context.Context) bool {
	return f.running
}

func testServer(t *testing.T, cfg *config.Config, svc *fakeService, records ...display.Record) (*Server, string) {
	t.Helper()
	confPath := filepath.Join(t.TempDir(), "sunshine.conf")
	if err := os.WriteFile(confPath, []byte("output_name = 9A2C\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	enumerate := func(ctx context.Context) ([]display.Record, error) {
		return records, nil
	}
	return newServer(cfg, confPath, enumerate, svc), confPath
}

func TestHandleListDisplays(t *testing.T) {
	s, _ := testServer(t, config.DefaultConfig(), &fakeService{},
		display.Record{Name: "Virtual 16:9", ID: "37D8", Online: true},
		display.Record{Name: "Built-in Display", ID: "1", Main: true},
	)

	_, out, err := s.handleListDisplays(context.Background(), nil, ListDisplaysInput{})
	if err != nil {
		t.Fatalf("list_displays: %v", err)
	}
	if len(out.Displays) != 2 {
		t.Fatalf("expected 2 displays, got %d", len(out.Displays))
	}
	if out.Displays[0].ID != "37D8" || !out.Displays[1].Main {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestHandleUpdateDisplay(t *testing.T) {
	svc := &fakeService{}
	s, confPath := testServer(t, config.DefaultConfig(), svc,
		display.Record{Name: "Virtual 16:9", ID: "37D8"})

	_, out, err := s.handleUpdateDisplay(context.Background(), nil, UpdateDisplayInput{Name: "Virtual"})
	if err != nil {
		t.Fatalf("update_display: %v", err)
	}
	if !out.Changed || !out.Restarted || out.Previous != "9A2C" {
		t.Fatalf("unexpected output %+v", out)
	}
	if svc.restartCalls != 1 {
		t.Fatalf("expected one restart, got %d", svc.restartCalls)
	}
	data, _ := os.ReadFile(confPath)
	if !strings.Contains(string(data), "output_name = 37D8") {
		t.Fatalf("conf not rewritten: %q", data)
	}
}

func TestHandleUpdateDisplay_NoRestart(t *testing.T) {
	svc := &fakeService{}
	s, _ := testServer(t, config.DefaultConfig(), svc,
		display.Record{Name: "Virtual 16:9", ID: "37D8"})

	_, out, err := s.handleUpdateDisplay(context.Background(), nil,
		UpdateDisplayInput{Name: "Virtual", NoRestart: true})
	if err != nil {
		t.Fatalf("update_display: %v", err)
	}
	if out.Restarted || svc.restartCalls != 0 {
		t.Fatalf("restart not suppressed: %+v (%d calls)", out, svc.restartCalls)
	}
}

func TestHandleUpdateDisplay_NotFound(t *testing.T) {
	s, _ := testServer(t, config.DefaultConfig(), &fakeService{},
		display.Record{Name: "Built-in Display", ID: "1"})

	_, _, err := s.handleUpdateDisplay(context.Background(), nil, UpdateDisplayInput{Name: "Nope"})
	if err == nil || !strings.Contains(err.Error(), "Built-in Display") {
		t.Fatalf("expected error listing available displays, got %v", err)
	}
}

func TestHandleGetStatus(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TargetDisplay = "Virtual 16:9"
	svc := &fakeService{running: true, flavor: "sunshine-beta"}
	s, _ := testServer(t, cfg, svc,
		display.Record{Name: "Virtual 16:9", ID: "37D8"})

	_, out, err := s.handleGetStatus(context.Background(), nil, GetStatusInput{})
	if err != nil {
		t.Fatalf("get_status: %v", err)
	}
	if out.OutputName != "9A2C" || out.MatchedID != "37D8" {
		t.Fatalf("unexpected status %+v", out)
	}
	if out.InSync {
		t.Fatalf("9A2C vs 37D8 must report out of sync")
	}
	if !out.SunshineRunning || out.ServiceFlavor != "sunshine-beta" {
		t.Fatalf("service state lost: %+v", out)
	}
}
