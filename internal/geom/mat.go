package geom

import "math"

// Mat4 is a 4x4 homogeneous transform in row-major order:
// m00,m01,m02,m03, m10,... Rotations used by the shape-measure engine keep
// the translation column zero and the last row [0 0 0 1].
type Mat4 [16]float64

// RotationTolerance is the tolerance used when checking that a matrix is a
// proper rotation (orthonormal basis, determinant +1).
const RotationTolerance = 0.01

// Identity returns the identity transform.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mul returns the composition m·n (n applied first).
func (m Mat4) Mul(n Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var s float64
			for k := 0; k < 4; k++ {
				s += m[i*4+k] * n[k*4+j]
			}
			out[i*4+j] = s
		}
	}
	return out
}

// Apply transforms the point v by m (rotation plus translation column).
func (m Mat4) Apply(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[1]*v.Y + m[2]*v.Z + m[3],
		m[4]*v.X + m[5]*v.Y + m[6]*v.Z + m[7],
		m[8]*v.X + m[9]*v.Y + m[10]*v.Z + m[11],
	}
}

// Det3 returns the determinant of the 3x3 rotation submatrix.
func (m Mat4) Det3() float64 {
	return m[0]*(m[5]*m[10]-m[6]*m[9]) -
		m[1]*(m[4]*m[10]-m[6]*m[8]) +
		m[2]*(m[4]*m[9]-m[5]*m[8])
}

// IsRotation reports whether m is a proper rigid rotation: determinant of the
// rotation submatrix ≈ +1 (no reflection) and last row [0 0 0 1].
func (m Mat4) IsRotation() bool {
	if math.Abs(m.Det3()-1.0) > RotationTolerance {
		return false
	}
	if m[12] != 0 || m[13] != 0 || m[14] != 0 || math.Abs(m[15]-1.0) > 0.001 {
		return false
	}
	return true
}

// Transpose3 returns m with its rotation submatrix transposed, which inverts
// a pure rotation.
func (m Mat4) Transpose3() Mat4 {
	out := Identity()
	out[0], out[1], out[2] = m[0], m[4], m[8]
	out[4], out[5], out[6] = m[1], m[5], m[9]
	out[8], out[9], out[10] = m[2], m[6], m[10]
	return out
}

// RotationX returns a rotation of angle radians about the x axis.
func RotationX(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		1, 0, 0, 0,
		0, c, -s, 0,
		0, s, c, 0,
		0, 0, 0, 1,
	}
}

// RotationY returns a rotation of angle radians about the y axis.
func RotationY(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		c, 0, s, 0,
		0, 1, 0, 0,
		-s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// RotationZ returns a rotation of angle radians about the z axis.
func RotationZ(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		c, -s, 0, 0,
		s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// FromEuler builds a rotation from Euler angles (radians) composed as
// Rz(az)·Ry(ay)·Rx(ax). The engine only requires a fixed, consistent
// convention; this matches the row-major composition used elsewhere.
func FromEuler(ax, ay, az float64) Mat4 {
	return RotationZ(az).Mul(RotationY(ay)).Mul(RotationX(ax))
}

// FromAxisAngle builds a rotation of angle radians about the given axis
// (normalized internally) using the Rodrigues formula.
func FromAxisAngle(axis Vec3, angle float64) Mat4 {
	a := axis.Normalize()
	c, s := math.Cos(angle), math.Sin(angle)
	t := 1 - c
	x, y, z := a.X, a.Y, a.Z
	return Mat4{
		t*x*x + c, t*x*y - s*z, t*x*z + s*y, 0,
		t*x*y + s*z, t*y*y + c, t*y*z - s*x, 0,
		t*x*z - s*y, t*y*z + s*x, t*z*z + c, 0,
		0, 0, 0, 1,
	}
}

// Flat returns the transform as a flattened row-major [16]float64. Used for
// serializing rotations across the API boundary.
func (m Mat4) Flat() [16]float64 {
	return [16]float64(m)
}
