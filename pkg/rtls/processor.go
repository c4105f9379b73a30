// Package rtls turns distances to fixed anchors into a 2D position.
package rtls

import (
	"fmt"
	"math"
)

// Anchor is an accessory mounted at a known position, with the latest distance to it in meters
type Anchor struct {
	X, Y, Z  float64
	Distance float64
}

// Location is an estimated position. Z is only set when known.
type Location struct {
	X float64  `json:"x"`
	Y float64  `json:"y"`
	Z *float64 `json:"z,omitempty"`
}

func (l Location) String() string { return fmt.Sprintf("(%.2f, %.2f)", l.X, l.Y) }

// Process estimates the position from anchors. Three anchors are solved exactly,
// more by least squares. Distances are first projected onto the plane at
// height zRef. It returns nil when there are too few usable anchors or they are collinear.
func Process(anchors []Anchor, zRef float64) *Location {
	usable := make([]Anchor, 0, len(anchors))
	for _, a := range anchors {
		if a.Distance > 0 {
			usable = append(usable, a)
		}
	}
	if len(usable) < 3 {
		return nil
	}
	corrected := correctZ(usable, zRef)
	if len(corrected) < 3 {
		return nil
	}
	if len(usable) == 3 {
		return trilaterate(corrected)
	}
	return leastSquares(corrected)
}

// correctZ drops anchors whose distance does not reach the plane
func correctZ(anchors []Anchor, zRef float64) []Anchor {
	out := make([]Anchor, 0, len(anchors))
	for _, a := range anchors {
		dz2 := (a.Z - zRef) * (a.Z - zRef)
		r2 := a.Distance * a.Distance
		if r2 <= dz2 {
			continue
		}
		a.Distance = math.Sqrt(r2 - dz2)
		out = append(out, a)
	}
	return out
}

func trilaterate(a []Anchor) *Location {
	x1, y1, r1 := a[0].X, a[0].Y, a[0].Distance
	x2, y2, r2 := a[1].X, a[1].Y, a[1].Distance
	x3, y3, r3 := a[2].X, a[2].Y, a[2].Distance

	A := 2 * (x2 - x1)
	B := 2 * (y2 - y1)
	C := r1*r1 - r2*r2 - x1*x1 + x2*x2 - y1*y1 + y2*y2
	D := 2 * (x3 - x2)
	E := 2 * (y3 - y2)
	F := r2*r2 - r3*r3 - x2*x2 + x3*x3 - y2*y2 + y3*y3

	det := A*E - B*D
	if det == 0 {
		return nil
	}
	return &Location{X: (C*E - B*F) / det, Y: (A*F - C*D) / det}
}

// leastSquares linearizes against the first anchor and solves the 2x2 normal equations
func leastSquares(a []Anchor) *Location {
	x0, y0, r0 := a[0].X, a[0].Y, a[0].Distance
	var ata [2][2]float64
	var atb [2]float64
	for _, an := range a[1:] {
		row := [2]float64{2 * (an.X - x0), 2 * (an.Y - y0)}
		b := r0*r0 - an.Distance*an.Distance - x0*x0 + an.X*an.X - y0*y0 + an.Y*an.Y
		for j := 0; j < 2; j++ {
			for k := 0; k < 2; k++ {
				ata[j][k] += row[j] * row[k]
			}
			atb[j] += row[j] * b
		}
	}
	det := ata[0][0]*ata[1][1] - ata[0][1]*ata[1][0]
	if det == 0 {
		return nil
	}
	return &Location{
		X: (ata[1][1]*atb[0] - ata[0][1]*atb[1]) / det,
		Y: (-ata[1][0]*atb[0] + ata[0][0]*atb[1]) / det,
	}
}
