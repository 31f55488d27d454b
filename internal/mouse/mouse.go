// Package mouse translates Bubble Tea mouse events into UI actions by
// hit-testing them against screen-space regions registered each frame.
package mouse

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// doubleClickWindow is the longest gap between two clicks on the same
// region that still counts as a double click.
const doubleClickWindow = 400 * time.Millisecond

// wheelStep is how many lines one wheel tick scrolls.
const wheelStep = 3

// Rect is a rectangle in terminal cells. The right and bottom edges are
// exclusive, so a zero-width or zero-height rect contains nothing.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the cell at (x, y) lies inside the rect.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Region is a named hit area with an optional payload, typically the
// index of the row it represents.
type Region struct {
	ID   string
	Rect Rect
	Data any
}

// HitMap holds the regions registered for the current frame. Regions
// added later sit on top of earlier ones.
type HitMap struct {
	regions []Region
}

// NewHitMap returns an empty hit map.
func NewHitMap() *HitMap {
	return &HitMap{}
}

// Add registers a region.
func (hm *HitMap) Add(id string, r Rect, data any) {
	hm.regions = append(hm.regions, Region{ID: id, Rect: r, Data: data})
}

// AddRect registers a region from raw coordinates.
func (hm *HitMap) AddRect(id string, x, y, w, h int, data any) {
	hm.Add(id, Rect{X: x, Y: y, W: w, H: h}, data)
}

// Test returns the topmost region containing (x, y), or nil.
func (hm *HitMap) Test(x, y int) *Region {
	for i := len(hm.regions) - 1; i >= 0; i-- {
		if hm.regions[i].Rect.Contains(x, y) {
			r := hm.regions[i]
			return &r
		}
	}
	return nil
}

// Clear removes all regions.
func (hm *HitMap) Clear() {
	hm.regions = hm.regions[:0]
}

// Regions returns a copy of the registered regions in registration order.
func (hm *HitMap) Regions() []Region {
	out := make([]Region, len(hm.regions))
	copy(out, hm.regions)
	return out
}

// ActionType classifies what a mouse event means for the UI.
type ActionType int

const (
	ActionNone ActionType = iota
	ActionClick
	ActionDoubleClick
	ActionScrollUp
	ActionScrollDown
	ActionScrollLeft
	ActionScrollRight
	ActionDrag
	ActionDragEnd
	ActionHover
)

// MouseAction is the interpreted result of one mouse event. X and Y are
// the raw event coordinates, kept for callers that route by position
// when no region was hit.
type MouseAction struct {
	Type   ActionType
	Region *Region
	X, Y   int
	Delta  int // scroll lines, negative scrolls up
	DragDX int
	DragDY int
}

// ClickResult reports what a click landed on.
type ClickResult struct {
	Region        *Region
	IsDoubleClick bool
}

// Handler tracks click and drag state across events. Callers rebuild
// HitMap whenever the layout changes.
type Handler struct {
	HitMap *HitMap

	lastClickID string
	lastClickAt time.Time

	dragging       bool
	dragRegion     string
	dragStartX     int
	dragStartY     int
	dragStartValue int
}

// NewHandler returns a handler with an empty hit map.
func NewHandler() *Handler {
	return &Handler{HitMap: NewHitMap()}
}

// HandleClick hit-tests a left click and tracks double clicks. A second
// click on the same region within the double-click window reports
// IsDoubleClick and resets, so a third click starts over.
func (h *Handler) HandleClick(x, y int) ClickResult {
	region := h.HitMap.Test(x, y)
	if region == nil {
		h.lastClickID = ""
		return ClickResult{}
	}

	now := time.Now()
	if region.ID == h.lastClickID && now.Sub(h.lastClickAt) <= doubleClickWindow {
		h.lastClickID = ""
		return ClickResult{Region: region, IsDoubleClick: true}
	}
	h.lastClickID = region.ID
	h.lastClickAt = now
	return ClickResult{Region: region}
}

// StartDrag begins a drag anchored at (x, y). startValue is whatever the
// caller wants back when applying the delta, typically a pane width.
func (h *Handler) StartDrag(x, y int, region string, startValue int) {
	h.dragging = true
	h.dragRegion = region
	h.dragStartX = x
	h.dragStartY = y
	h.dragStartValue = startValue
}

// IsDragging reports whether a drag is in progress.
func (h *Handler) IsDragging() bool {
	return h.dragging
}

// DragRegion returns the region name passed to StartDrag, or "".
func (h *Handler) DragRegion() string {
	return h.dragRegion
}

// DragStartValue returns the value captured when the drag began.
func (h *Handler) DragStartValue() int {
	return h.dragStartValue
}

// DragDelta returns the offset of (x, y) from the drag anchor.
func (h *Handler) DragDelta(x, y int) (int, int) {
	return x - h.dragStartX, y - h.dragStartY
}

// EndDrag finishes the drag and clears its state.
func (h *Handler) EndDrag() {
	h.dragging = false
	h.dragRegion = ""
	h.dragStartX = 0
	h.dragStartY = 0
	h.dragStartValue = 0
}

// Clear empties the hit map.
func (h *Handler) Clear() {
	h.HitMap.Clear()
}

// HandleMouse interprets a raw mouse event against the current hit map
// and drag state.
func (h *Handler) HandleMouse(msg tea.MouseMsg) MouseAction {
	switch msg.Action {
	case tea.MouseActionPress:
		return h.handlePress(msg)

	case tea.MouseActionMotion:
		if h.dragging {
			dx, dy := h.DragDelta(msg.X, msg.Y)
			return MouseAction{Type: ActionDrag, X: msg.X, Y: msg.Y, DragDX: dx, DragDY: dy}
		}
		return MouseAction{Type: ActionHover, Region: h.HitMap.Test(msg.X, msg.Y), X: msg.X, Y: msg.Y}

	case tea.MouseActionRelease:
		if h.dragging {
			h.EndDrag()
			return MouseAction{Type: ActionDragEnd, X: msg.X, Y: msg.Y}
		}
		return MouseAction{Type: ActionNone, X: msg.X, Y: msg.Y}
	}
	return MouseAction{Type: ActionNone, X: msg.X, Y: msg.Y}
}

func (h *Handler) handlePress(msg tea.MouseMsg) MouseAction {
	action := MouseAction{Type: ActionNone, Region: h.HitMap.Test(msg.X, msg.Y), X: msg.X, Y: msg.Y}

	switch msg.Button {
	case tea.MouseButtonLeft:
		result := h.HandleClick(msg.X, msg.Y)
		if result.Region == nil {
			action.Region = nil
			return action
		}
		action.Region = result.Region
		action.Type = ActionClick
		if result.IsDoubleClick {
			action.Type = ActionDoubleClick
		}
		return action

	case tea.MouseButtonWheelUp:
		action.Type = ActionScrollUp
		action.Delta = -wheelStep
		if msg.Shift {
			action.Type = ActionScrollLeft
		}
		return action

	case tea.MouseButtonWheelDown:
		action.Type = ActionScrollDown
		action.Delta = wheelStep
		if msg.Shift {
			action.Type = ActionScrollRight
		}
		return action

	// Horizontal wheels report the Mac natural-scrolling direction, so
	// left means scroll the content right.
	case tea.MouseButtonWheelLeft:
		action.Type = ActionScrollRight
		action.Delta = wheelStep
		return action

	case tea.MouseButtonWheelRight:
		action.Type = ActionScrollLeft
		action.Delta = -wheelStep
		return action
	}
	return action
}
