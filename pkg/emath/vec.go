package emath

import(
	"fmt"

	"golang.org/x/image/math/f64"
)

// Vec3 is a colour triple, channels nominally in [0,1].
type Vec3 f64.Vec3

func (v Vec3)String() string { return fmt.Sprintf("[%12.10f, %12.10f, %12.10f]", v[0], v[1], v[2]) }
