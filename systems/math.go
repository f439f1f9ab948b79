package systems

import "math"

// clamp01 clamps a float32 value to the [0, 1] range.
func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// clamp01f is clamp01 for scoring math done in float64.
func clamp01f(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// normalizeAngle wraps an angle to [-Pi, Pi].
func normalizeAngle(angle float32) float32 {
	for angle > math.Pi {
		angle -= 2 * math.Pi
	}
	for angle < -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}

// clampToWorld keeps a point inside [margin, w-margin] x [margin, h-margin].
func clampToWorld(x, y, w, h, margin float32) (float32, float32) {
	if x < margin {
		x = margin
	} else if x > w-margin {
		x = w - margin
	}
	if y < margin {
		y = margin
	} else if y > h-margin {
		y = h - margin
	}
	return x, y
}
