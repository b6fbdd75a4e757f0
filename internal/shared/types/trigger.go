package types

// TriggerKind identifies the class of input capable of changing visibility.
type TriggerKind string

const (
	TriggerHotkey     TriggerKind = "hotkey"
	TriggerEdgeDwell  TriggerKind = "edge_dwell"
	TriggerEdgeScroll TriggerKind = "edge_scroll"
	TriggerMenuClick  TriggerKind = "menu_click"
)

// Edge identifies a screen edge for dwell and scroll bindings.
type Edge string

const (
	EdgeTop    Edge = "top"
	EdgeBottom Edge = "bottom"
	EdgeLeft   Edge = "left"
	EdgeRight  Edge = "right"
)

// TriggerBinding is an immutable binding loaded from configuration.
// At most one binding per kind is active program-wide.
type TriggerBinding struct {
	Kind        TriggerKind `json:"kind" yaml:"kind"`
	Toggle      string      `json:"toggle,omitempty" yaml:"toggle"`
	QuickHide   string      `json:"quick_hide,omitempty" yaml:"quick_hide"`
	Edge        Edge        `json:"edge,omitempty" yaml:"edge"`
	DwellMs     uint        `json:"dwell_ms,omitempty" yaml:"dwell_ms"`
	Sensitivity float64     `json:"sensitivity,omitempty" yaml:"sensitivity"`
}

// VisibilityState is the process-wide surface visibility. Transitions happen
// only inside the trigger coordinator.
type VisibilityState string

const (
	VisibilityHidden    VisibilityState = "hidden"
	VisibilityRevealing VisibilityState = "revealing"
	VisibilityVisible   VisibilityState = "visible"
	VisibilityHiding    VisibilityState = "hiding"
)

// MenuAction is an explicit UI request routed through the coordinator.
type MenuAction string

const (
	MenuShow   MenuAction = "show"
	MenuHide   MenuAction = "hide"
	MenuToggle MenuAction = "toggle"
)

// PointerSample is one pointer position report from the host input layer.
type PointerSample struct {
	X int `json:"x"`
	Y int `json:"y"`
	// TimestampMs is the host monotonic timestamp in milliseconds.
	TimestampMs int64 `json:"t"`
}
