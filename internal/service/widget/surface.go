package widget

import model "github.com/zhouzirui/docchat/internal/model/widget"

// Surface is whatever renders a mounted widget. The controller calls it from
// its own goroutines; implementations that own an event loop must hand the
// calls over to that loop instead of rendering in place.
type Surface interface {
	// ApplyProfile restyles the widget. Called once at mount with defaults and
	// once more when the remote profile has been resolved.
	ApplyProfile(profile model.PresentationProfile)
	// ShowTurn renders a turn that was just appended to the transcript.
	ShowTurn(turn model.Turn)
	// ShowError renders a query failure. Errors are not turns.
	ShowError(message string)
	// SetBusy shows the typing indicator and disables input while true.
	SetBusy(busy bool)
	// SetVisible shows or hides the chat window.
	SetVisible(open bool)
	// FocusInput moves focus to the message entry.
	FocusInput()
}

// NopSurface discards every call. Useful for headless hosts.
type NopSurface struct{}

func (NopSurface) ApplyProfile(model.PresentationProfile) {}
func (NopSurface) ShowTurn(model.Turn)                    {}
func (NopSurface) ShowError(string)                       {}
func (NopSurface) SetBusy(bool)                           {}
func (NopSurface) SetVisible(bool)                        {}
func (NopSurface) FocusInput()                            {}
