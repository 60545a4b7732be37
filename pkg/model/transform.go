package model

import (
	"github.com/flywave/go3d/quaternion"
	"github.com/flywave/go3d/vec3"
)

// Transform is a translation, rotation and scale triple.
type Transform struct {
	Translation vec3.T
	Rotation    quaternion.T
	Scale       vec3.T
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{Rotation: quaternion.Ident, Scale: vec3.T{1, 1, 1}}
}

// World returns the world transform of bone i. Missing world components
// fall back to the local ones.
func (s *Skeleton) World(i int) Transform {
	b := &s.Bones[i]
	t := Identity()
	switch {
	case b.WorldPosition != nil:
		t.Translation = *b.WorldPosition
	case b.LocalPosition != nil:
		t.Translation = *b.LocalPosition
	}
	switch {
	case b.WorldRotation != nil:
		t.Rotation = *b.WorldRotation
	case b.LocalRotation != nil:
		t.Rotation = *b.LocalRotation
	}
	switch {
	case b.WorldScale != nil:
		t.Scale = *b.WorldScale
	case b.LocalScale != nil:
		t.Scale = *b.LocalScale
	}
	return t
}

// Local returns the transform of bone i relative to its parent. Components
// stored on the bone are used as-is; missing ones are derived from the
// bone's and its parent's world transforms.
func (s *Skeleton) Local(i int) Transform {
	b := &s.Bones[i]
	world := s.World(i)

	parent := Identity()
	if p := int(b.Parent); p >= 0 && p < len(s.Bones) && p != i {
		parent = s.World(p)
	}
	inv := conjugate(parent.Rotation)

	t := world
	if b.LocalPosition != nil {
		t.Translation = *b.LocalPosition
	} else {
		delta := vec3.Sub(&world.Translation, &parent.Translation)
		t.Translation = inv.RotatedVec3(&delta)
	}
	if b.LocalRotation != nil {
		t.Rotation = *b.LocalRotation
	} else {
		t.Rotation = quaternion.Mul(&inv, &world.Rotation)
	}
	if b.LocalScale != nil {
		t.Scale = *b.LocalScale
	}
	return t
}

func conjugate(q quaternion.T) quaternion.T {
	return quaternion.T{-q[0], -q[1], -q[2], q[3]}
}
