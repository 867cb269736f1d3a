package drag

import (
	"testing"

	"taskdeck/internal/models"
)

func TestReleaseOverLaneProducesMove(t *testing.T) {
	c := NewController()
	c.Press(7, models.StatusTodo)
	if c.State() != Dragging {
		t.Fatalf("state after press: %v", c.State())
	}

	c.HoverLane(models.StatusInProgress)
	if c.State() != Hovering {
		t.Fatalf("state after hover: %v", c.State())
	}

	move := c.Release()
	if move == nil {
		t.Fatal("release over a lane must produce a move")
	}
	if move.TaskID != 7 || move.From != models.StatusTodo || move.To != models.StatusInProgress {
		t.Fatalf("wrong move: %+v", move)
	}
	if c.State() != Idle {
		t.Fatal("controller must reset after release")
	}
}

func TestReleaseOutsideAnyLaneIsDiscarded(t *testing.T) {
	c := NewController()
	c.Press(7, models.StatusTodo)
	c.HoverLane(models.StatusCompleted)
	c.HoverOutside()

	if move := c.Release(); move != nil {
		t.Fatalf("release outside a lane produced %+v", move)
	}
	if c.State() != Idle {
		t.Fatal("controller must reset after a discarded release")
	}
}

func TestReleaseWithoutHoverIsDiscarded(t *testing.T) {
	c := NewController()
	c.Press(7, models.StatusTodo)

	if move := c.Release(); move != nil {
		t.Fatalf("release without hover produced %+v", move)
	}
	if c.State() != Idle {
		t.Fatal("controller must reset")
	}
}

func TestSameLaneReleaseStillReportsMove(t *testing.T) {
	// The controller does not special-case the source lane; the board model
	// decides that a same-status move is a no-op.
	c := NewController()
	c.Press(7, models.StatusTodo)
	c.HoverLane(models.StatusTodo)

	move := c.Release()
	if move == nil || move.From != move.To {
		t.Fatalf("expected a same-lane move, got %+v", move)
	}
}

func TestCancelDropsGesture(t *testing.T) {
	c := NewController()
	c.Press(7, models.StatusTodo)
	c.HoverLane(models.StatusInReview)
	c.Cancel()

	if c.State() != Idle {
		t.Fatal("cancel must reset the controller")
	}
	if move := c.Release(); move != nil {
		t.Fatalf("release after cancel produced %+v", move)
	}
}

func TestHoverTransitions(t *testing.T) {
	c := NewController()
	c.Press(3, models.StatusInProgress)

	c.HoverLane(models.StatusTodo)
	if target, ok := c.Target(); !ok || target != models.StatusTodo {
		t.Fatalf("target = %v, %v", target, ok)
	}

	c.HoverOutside()
	if _, ok := c.Target(); ok {
		t.Fatal("target must clear when the pointer leaves every lane")
	}
	if c.State() != Dragging {
		t.Fatalf("state after leaving lanes: %v", c.State())
	}
}

func TestHoverWhileIdleIsIgnored(t *testing.T) {
	c := NewController()
	c.HoverLane(models.StatusTodo)
	if c.State() != Idle {
		t.Fatal("hover without a press must not start a gesture")
	}
	if move := c.Release(); move != nil {
		t.Fatalf("release while idle produced %+v", move)
	}
}
