package cast

import (
	"encoding/binary"
	"strings"
)

// NodeID is a node's four-character type code stored as a little-endian uint32.
type NodeID uint32

// Known node types. Other identifiers are preserved in the tree but carry
// no meaning for the model importer.
const (
	NodeRoot        NodeID = 0x746F6F72 // "root"
	NodeModel       NodeID = 0x6C646F6D // "modl"
	NodeMesh        NodeID = 0x6873656D // "mesh"
	NodeBlendShape  NodeID = 0x68736C62 // "blsh"
	NodeSkeleton    NodeID = 0x6C656B73 // "skel"
	NodeBone        NodeID = 0x656E6F62 // "bone"
	NodeIKHandle    NodeID = 0x64686B69 // "ikhd"
	NodeConstraint  NodeID = 0x74736E63 // "cnst"
	NodeAnimation   NodeID = 0x6D696E61 // "anim"
	NodeCurve       NodeID = 0x76727563 // "curv"
	NodeNotifyTrack NodeID = 0x6669746E // "ntif"
	NodeMaterial    NodeID = 0x6C74616D // "matl"
	NodeFile        NodeID = 0x656C6966 // "file"
	NodeInstance    NodeID = 0x74736E69 // "inst"
)

// String returns the four-character code, with non-printable bytes escaped.
func (id NodeID) String() string {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(id))

	var sb strings.Builder
	for _, c := range b {
		if c >= 0x20 && c < 0x7F {
			sb.WriteByte(c)
		} else {
			sb.WriteString(`\x`)
			sb.WriteByte("0123456789abcdef"[c>>4])
			sb.WriteByte("0123456789abcdef"[c&0x0F])
		}
	}
	return sb.String()
}

// NodeIDFromString builds a NodeID from a four-character code.
// Shorter codes are zero-padded; longer ones are truncated.
func NodeIDFromString(code string) NodeID {
	var b [4]byte
	copy(b[:], code)
	return NodeID(binary.LittleEndian.Uint32(b[:]))
}
