package main

import (
	"fmt"
	"io"
	"sync"

	model "github.com/zhouzirui/docchat/internal/model/widget"
	"github.com/zhouzirui/docchat/internal/service/widget"
)

// lineSurface prints assistant turns and errors as plain lines.
type lineSurface struct {
	widget.NopSurface

	out    io.Writer
	errOut io.Writer

	mu   sync.Mutex
	name string
}

func newLineSurface(out, errOut io.Writer) *lineSurface {
	return &lineSurface{out: out, errOut: errOut, name: model.DefaultDisplayName}
}

func (s *lineSurface) ApplyProfile(profile model.PresentationProfile) {
	s.mu.Lock()
	s.name = profile.DisplayName
	s.mu.Unlock()
}

func (s *lineSurface) ShowTurn(turn model.Turn) {
	if turn.Role != model.RoleAssistant {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "%s: %s\n", s.name, turn.Text)
}

func (s *lineSurface) ShowError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.errOut, "❌ %s\n", message)
}
