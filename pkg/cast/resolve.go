package cast

// FindByHash searches the descendants of root depth-first, in child order,
// and returns the first node whose hash matches. root itself is not a
// candidate. A miss is a normal outcome, not an error.
//
// Hash 0 means "no reference" by convention; callers should not resolve it.
func FindByHash(root *Node, hash uint64) (*Node, bool) {
	if root == nil {
		return nil, false
	}
	for _, c := range root.Children {
		if c.Hash == hash {
			return c, true
		}
		if found, ok := FindByHash(c, hash); ok {
			return found, true
		}
	}
	return nil, false
}
