// Package drag turns pointer gestures over the board into lane-transition
// intents. The controller is a pure state machine: it never mutates tasks
// and holds no error state. Whoever owns it feeds in press/hover/release
// events and acts on the Move an accepted release produces.
package drag

import "taskdeck/internal/models"

// State is the controller's phase.
type State int

const (
	Idle State = iota
	Dragging
	Hovering
)

// Move is a lane-transition intent produced by an accepted release.
type Move struct {
	TaskID int64
	From   models.Status
	To     models.Status
}

// Controller tracks one drag gesture at a time.
type Controller struct {
	state  State
	taskID int64
	source models.Status
	target models.Status
}

// NewController returns an idle controller.
func NewController() *Controller {
	return &Controller{}
}

// State returns the current phase.
func (c *Controller) State() State {
	return c.state
}

// TaskID returns the card being dragged, valid outside Idle.
func (c *Controller) TaskID() int64 {
	return c.taskID
}

// Source returns the lane the drag started from, valid outside Idle.
func (c *Controller) Source() models.Status {
	return c.source
}

// Target returns the highlighted lane, valid only while Hovering.
func (c *Controller) Target() (models.Status, bool) {
	return c.target, c.state == Hovering
}

// Press begins a drag on a task card. A press during an active gesture
// restarts the gesture; the prior one is abandoned without effect.
func (c *Controller) Press(taskID int64, source models.Status) {
	c.state = Dragging
	c.taskID = taskID
	c.source = source
	c.target = ""
}

// HoverLane highlights the lane under the pointer. Visual feedback only; no
// model mutation happens until release.
func (c *Controller) HoverLane(target models.Status) {
	if c.state == Idle {
		return
	}
	c.state = Hovering
	c.target = target
}

// HoverOutside clears the lane highlight while the pointer is over no lane.
func (c *Controller) HoverOutside() {
	if c.state == Idle {
		return
	}
	c.state = Dragging
	c.target = ""
}

// Release ends the gesture. It returns a Move when the pointer was over a
// lane; the source lane is not special-cased here, the board's same-status
// no-op rule covers it. A release outside any lane returns nil.
func (c *Controller) Release() *Move {
	defer c.reset()
	if c.state != Hovering {
		return nil
	}
	return &Move{TaskID: c.taskID, From: c.source, To: c.target}
}

// Cancel abandons the gesture with no mutation (escape key, interrupted
// drag, focus loss).
func (c *Controller) Cancel() {
	c.reset()
}

func (c *Controller) reset() {
	c.state = Idle
	c.taskID = 0
	c.source = ""
	c.target = ""
}
