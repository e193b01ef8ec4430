package scene

// BlendHighlight applies the hover/selection tint to a base color.
// Hover brightens toward cyan, selection tints toward orange, and the
// combined state blends both. Every channel is capped at 1.
func BlendHighlight(c [3]float32, h HighlightState) [3]float32 {
	r, g, b := c[0], c[1], c[2]
	switch h {
	case HighlightHovered:
		return clampColor(r*1.2+0.1, g*1.2+0.15, b*1.2+0.2)
	case HighlightSelected:
		return clampColor(r*0.7+0.3, g*0.7+0.2, b*0.5)
	case HighlightHoveredAndSelected:
		return clampColor(r*0.6+0.4, g*0.6+0.35, b*0.4+0.1)
	}
	return c
}

func clampColor(r, g, b float32) [3]float32 {
	return [3]float32{min(r, 1), min(g, 1), min(b, 1)}
}
