package dayphase

import "strings"

const (
	DirectionDiagonal = "315deg"
	DirectionDown     = "to bottom"
)

// GradientSpec is a linear background gradient: a direction and ordered color stops.
type GradientSpec struct {
	Direction string   `json:"direction"`
	Stops     []string `json:"stops"`
}

// CSS renders the gradient as a CSS background value.
func (g GradientSpec) CSS() string {
	if len(g.Stops) == 0 {
		return ""
	}
	parts := make([]string, 0, len(g.Stops)+1)
	parts = append(parts, g.Direction)
	parts = append(parts, g.Stops...)
	return "linear-gradient(" + strings.Join(parts, ", ") + ")"
}

func (g GradientSpec) clone() GradientSpec {
	stops := make([]string, len(g.Stops))
	copy(stops, g.Stops)
	return GradientSpec{Direction: g.Direction, Stops: stops}
}

// GradientKey indexes the gradient table.
type GradientKey struct {
	Phase Phase
	Theme Theme
}

var neutral = GradientSpec{Direction: DirectionDown, Stops: []string{"#444", "#666"}}

// Neutral returns the gradient painted when no day window could be resolved.
func Neutral() GradientSpec {
	return neutral.clone()
}

var gradients = map[GradientKey]GradientSpec{
	{Night, Light}:     {Direction: DirectionDiagonal, Stops: []string{"#525c93", "#2e3868"}},
	{Night, Dark}:      {Direction: DirectionDiagonal, Stops: []string{"#111", "#333"}},
	{Morning, Light}:   {Direction: DirectionDown, Stops: []string{"#627294", "#9fa7b0", "#eeae5f", "#c1614e"}},
	{Morning, Dark}:    {Direction: DirectionDown, Stops: []string{"#444", "#666", "#eeae5f", "#c1614e"}},
	{Afternoon, Light}: {Direction: DirectionDown, Stops: []string{"#7bc1f0", "#5a99dd"}},
	{Afternoon, Dark}:  {Direction: DirectionDown, Stops: []string{"#444", "#777"}},
	{Evening, Light}:   {Direction: DirectionDown, Stops: []string{"#808cb6", "#385b93"}},
	{Evening, Dark}:    {Direction: DirectionDown, Stops: []string{"#444", "#555"}},
}

// Gradients returns a copy of the full (phase, theme) gradient table.
func Gradients() map[GradientKey]GradientSpec {
	out := make(map[GradientKey]GradientSpec, len(gradients))
	for key, spec := range gradients {
		out[key] = spec.clone()
	}
	return out
}

// Gradient looks up a single table entry.
func Gradient(phase Phase, theme Theme) (GradientSpec, bool) {
	spec, ok := gradients[GradientKey{Phase: phase, Theme: theme}]
	if !ok {
		return GradientSpec{}, false
	}
	return spec.clone(), true
}

// IconFor picks the image asset for a phase. All daytime phases share the sunrise asset.
func IconFor(phase Phase) string {
	if phase == Night {
		return IconMoon
	}
	return IconSunrise
}
