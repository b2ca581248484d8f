// Package tle reads NORAD three-line element sets from files or a remote
// source such as CelesTrak.
package tle

import "time"

// Entry is one satellite's two-line element set with the orbit parameters
// the viewer needs already decoded.
type Entry struct {
	NORADID        int
	Name           string
	Epoch          time.Time
	InclinationDeg float64
	MeanMotion     float64 // revolutions per day
	Line1          string
	Line2          string
}
