package timestate

import "sunsetrd/internal/sunsetrd"

// EaseFraction applies the same cubic Bezier ease curve used for
// sunset/sunrise transitions to an arbitrary linear fraction in [0, 1],
// for callers outside this package that need the identical curve shape
// (the startup animator ramping towards its captured target).
func EaseFraction(x float64) float64 {
	return bezierEase(x)
}

// bezierEase evaluates the fixed cubic Bezier ease curve with control points
// P0=(0,0), P1=(BezierP1X,BezierP1Y), P2=(BezierP2X,BezierP2Y), P3=(1,1) at
// the given linear fraction x, returning y(t) for the t that solves x(t)=x.
//
// Newton's method converges in a handful of iterations for this curve shape;
// bisection is the fallback for the rare case the derivative is near zero.
func bezierEase(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}

	t := x // initial guess
	for i := 0; i < 5; i++ {
		cx := bezierComponent(t, sunsetrd.BezierP1X, sunsetrd.BezierP2X) - x
		dx := bezierComponentDerivative(t, sunsetrd.BezierP1X, sunsetrd.BezierP2X)
		if dx == 0 {
			break
		}
		next := t - cx/dx
		if next < 0 || next > 1 {
			break
		}
		t = next
		if abs(cx) < 1e-6 {
			return bezierComponent(t, sunsetrd.BezierP1Y, sunsetrd.BezierP2Y)
		}
	}

	// Bisection fallback.
	lo, hi := 0.0, 1.0
	for i := 0; i < 40; i++ {
		mid := (lo + hi) / 2
		if bezierComponent(mid, sunsetrd.BezierP1X, sunsetrd.BezierP2X) < x {
			lo = mid
		} else {
			hi = mid
		}
	}
	t = (lo + hi) / 2
	return bezierComponent(t, sunsetrd.BezierP1Y, sunsetrd.BezierP2Y)
}

// bezierComponent evaluates one cubic Bezier coordinate (x or y) at parameter
// t for control points P0=0, P1=p1, P2=p2, P3=1.
func bezierComponent(t, p1, p2 float64) float64 {
	u := 1 - t
	return 3*u*u*t*p1 + 3*u*t*t*p2 + t*t*t
}

func bezierComponentDerivative(t, p1, p2 float64) float64 {
	u := 1 - t
	return 3*u*u*p1 + 6*u*t*(p2-p1) + 3*t*t*(1-p2)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
