package ipc

// FrameRequest addresses a frame by unit index and local offset in seconds.
type FrameRequest struct {
	AnimationIndex  int     `json:"animation_index"`
	AnimationOffset float64 `json:"animation_offset"`
}

// Point is a 3D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Style carries the drawing attributes of a mobject.
type Style struct {
	FillColor     string  `json:"fill_color"`
	FillOpacity   float64 `json:"fill_opacity"`
	StrokeColor   string  `json:"stroke_color"`
	StrokeOpacity float64 `json:"stroke_opacity"`
	StrokeWidth   float64 `json:"stroke_width"`
}

// Mobject is one serialized object of a frame.
type Mobject struct {
	ID          string  `json:"id"`
	NeedsRedraw bool    `json:"needs_redraw"`
	Points      []Point `json:"points"`
	Style       Style   `json:"style"`
}

// FrameResponse answers GetFrameAtTime. Skipped stands in for the absent
// reply given for units run in skip mode.
type FrameResponse struct {
	FramePending      bool      `json:"frame_pending"`
	SceneFinished     bool      `json:"scene_finished"`
	AnimationFinished bool      `json:"animation_finished"`
	Duration          float64   `json:"duration"`
	AnimationName     string    `json:"animation_name,omitempty"`
	Mobjects          []Mobject `json:"mobjects"`
	Skipped           bool      `json:"skipped,omitempty"`
}

// RendererStatusRequest asks which scene is being served.
type RendererStatusRequest struct{}

// UnitStatus describes the live unit.
type UnitStatus struct {
	Index    int     `json:"index"`
	Kind     string  `json:"kind"`
	Name     string  `json:"name"`
	Duration float64 `json:"duration"`
	Skipped  bool    `json:"skipped"`
}

// RendererStatusResponse reports the served scene and its progress.
type RendererStatusResponse struct {
	SceneName   string      `json:"scene_name"`
	SessionID   string      `json:"session_id"`
	CachedUnits int         `json:"cached_units"`
	LiveUnit    *UnitStatus `json:"live_unit,omitempty"`
	Finished    bool        `json:"finished"`
}

// SceneLocationRequest is reserved.
type SceneLocationRequest struct{}

// SceneLocationResponse is reserved.
type SceneLocationResponse struct{}

// StatusRequest is sent to the renderer to announce the served scene.
type StatusRequest struct {
	SceneName string `json:"scene_name"`
}

// StatusResponse is the renderer's empty acknowledgement.
type StatusResponse struct{}

// AnimationReadyRequest tells a waiting renderer that a unit became live.
type AnimationReadyRequest struct {
	SceneName string `json:"scene_name"`
	UnitIndex int    `json:"unit_index"`
}

// AnimationReadyResponse is the renderer's empty acknowledgement.
type AnimationReadyResponse struct{}
