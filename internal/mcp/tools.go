package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rawdigits/sunshine-macos-displayupdater/internal/display"
	"github.com/rawdigits/sunshine-macos-displayupdater/internal/reconcile"
	"github.com/rawdigits/sunshine-macos-displayupdater/internal/sunshine"
)

func (s *Server) handleListDisplays(ctx context.Context, _ *mcpsdk.CallToolRequest, _ ListDisplaysInput) (*mcpsdk.CallToolResult, ListDisplaysOutput, error) {
	records, err := s.enumerate(ctx)
	if err != nil {
		return nil, ListDisplaysOutput{}, err
	}

	out := ListDisplaysOutput{Displays: make([]DisplayInfo, 0, len(records))}
	for _, r := range records {
		out.Displays = append(out.Displays, DisplayInfo{
			Name:       r.Name,
			ID:         r.ID,
			Resolution: r.Resolution,
			Main:       r.Main,
			Online:     r.Online,
		})
	}
	return nil, out, nil
}

func (s *Server) handleUpdateDisplay(ctx context.Context, _ *mcpsdk.CallToolRequest, args UpdateDisplayInput) (*mcpsdk.CallToolResult, UpdateDisplayOutput, error) {
	r := reconcile.New(reconcile.Config{
		ConfPath:  s.confPath,
		NoRestart: args.NoRestart || s.config.NoAutoRestart,
		Force:     true,
		Logger:    s.logger,
	}, s.enumerate, s.service)

	res, err := r.Run(ctx, args.Name)
	if err != nil {
		return nil, UpdateDisplayOutput{}, err
	}
	return nil, UpdateDisplayOutput{
		Display:   res.Display.Name,
		ID:        res.Display.ID,
		Previous:  res.Previous,
		Changed:   res.Changed,
		Restarted: res.Restarted,
	}, nil
}

func (s *Server) handleGetStatus(ctx context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	current, err := sunshine.CurrentOutputName(s.confPath)
	if err != nil {
		return nil, GetStatusOutput{}, err
	}

	out := GetStatusOutput{
		OutputName:      current,
		TargetDisplay:   s.config.TargetDisplay,
		SunshineRunning: s.service.IsRunning(ctx),
	}
	if flavor, _, err := s.service.Detect(ctx); err == nil {
		out.ServiceFlavor = flavor
	}

	if s.config.TargetDisplay != "" {
		records, err := s.enumerate(ctx)
		if err != nil {
			return nil, GetStatusOutput{}, err
		}
		if rec, _, err := display.Match(s.config.TargetDisplay, records); err == nil {
			out.MatchedDisplay = rec.Name
			out.MatchedID = rec.ID
			out.InSync = current == rec.ID
		}
	}
	return nil, out, nil
}
