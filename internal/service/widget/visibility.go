package widget

import model "github.com/zhouzirui/docchat/internal/model/widget"

// Toggle opens a closed widget and closes an open one. The first open with
// an empty transcript greets the user with the current profile's greeting.
func (c *Controller) Toggle() {
	c.turnMu.Lock()
	defer c.turnMu.Unlock()
	c.toggle()
}

// Escape closes an open widget and does nothing to a closed one.
func (c *Controller) Escape() {
	c.turnMu.Lock()
	defer c.turnMu.Unlock()

	if c.Visibility() != model.Open {
		return
	}
	c.toggle()
}

func (c *Controller) toggle() {
	c.mu.Lock()
	c.visibility = c.visibility.Toggled()
	open := c.visibility == model.Open
	greeting := c.profile.Greeting
	c.mu.Unlock()

	c.surface.SetVisible(open)
	if !open {
		return
	}

	c.surface.FocusInput()
	if c.transcript.IsEmpty() {
		c.appendTurn(model.AssistantTurn(greeting))
	}
}
