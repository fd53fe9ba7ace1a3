// Package hierarchy flattens the two tree-shaped reference structures of the
// operational store into flat lookup maps: the product-category folder tree
// into per-item path attributes, and the multi-root organizational forest
// into per-department label stacks.
//
// Both resolvers are pure functions over an immutable snapshot. They never
// touch the database and never fail on missing or malformed links short of
// an actual cycle; unresolved entities simply stay out of the result maps
// and surface downstream as unknown labels.
package hierarchy

// CategoryNode is one row of the catalog snapshot. The snapshot holds both
// folders and leaf items in a single table; folders form the tree, items
// hang off it via ParentID.
type CategoryNode struct {
	ID       int64
	Code     string // item code; empty for folders
	Name     string
	ParentID int64 // enclosing folder id; 0 marks a top-level node
	IsFolder bool
	Deleted  bool
}

// CategoryPath is the flattened folder chain of one catalog item.
// RootFolder is the ancestor closest to the tree root, Folder3 the one
// closest to the item. Levels the chain does not reach stay nil.
type CategoryPath struct {
	RootFolder *string
	Folder1    *string
	Folder2    *string
	Folder3    *string
}

// CatalogEntry pairs an item's display name with its resolved folder path.
type CatalogEntry struct {
	Name string
	Path CategoryPath
}

// maxFolderDepth caps the upward walk. Chains deeper than this keep only
// the four folders nearest the item; older ancestors are silently dropped.
const maxFolderDepth = 4

// ResolveCategories builds the item-code → catalog entry map.
//
// Only non-deleted folder nodes participate in the tree. The walk climbs
// from each item's enclosing folder toward the root and stops at the depth
// cap, at a missing parent, or at a parent that is deleted or not a folder.
// An item whose enclosing folder cannot be resolved keeps an all-nil path;
// that is a data condition, not an error. Deleted items stay in the map
// with an all-nil path: the deletion flag only severs the folder chain,
// not the name, so historical line items still resolve their display name.
// An empty snapshot yields an empty map.
func ResolveCategories(nodes []CategoryNode) map[string]CatalogEntry {
	folders := make(map[int64]CategoryNode)
	for _, n := range nodes {
		if n.IsFolder && !n.Deleted {
			folders[n.ID] = n
		}
	}

	out := make(map[string]CatalogEntry)
	for _, n := range nodes {
		if n.IsFolder || n.Code == "" {
			continue
		}
		if n.Deleted {
			out[n.Code] = CatalogEntry{Name: n.Name}
			continue
		}

		// chain collects folder names item-side first.
		chain := make([]string, 0, maxFolderDepth)
		id := n.ParentID
		for depth := 0; depth < maxFolderDepth; depth++ {
			f, ok := folders[id]
			if !ok {
				break
			}
			chain = append(chain, f.Name)
			id = f.ParentID
		}

		out[n.Code] = CatalogEntry{Name: n.Name, Path: pathFromChain(chain)}
	}
	return out
}

// pathFromChain turns an item-side-first folder chain into the fixed
// four-level path. The deepest collected folder becomes RootFolder, then
// levels fill toward the item; a chain of depth d leaves 4-d levels nil.
func pathFromChain(chain []string) CategoryPath {
	var p CategoryPath
	slots := []**string{&p.RootFolder, &p.Folder1, &p.Folder2, &p.Folder3}
	for i := len(chain) - 1; i >= 0; i-- {
		name := chain[i]
		*slots[len(chain)-1-i] = &name
	}
	return p
}
