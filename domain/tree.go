package domain

import (
	"path"
	"sort"
	"strings"
)

// markdownExtensions is the set of file extensions recognized as Markdown.
var markdownExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".mdown":    true,
	".mkd":      true,
	".mkdn":     true,
	".mdwn":     true,
	".mdtxt":    true,
	".mdtext":   true,
}

// IsMarkdownPath reports whether the path points at a Markdown file.
func IsMarkdownPath(p string) bool {
	return markdownExtensions[strings.ToLower(path.Ext(p))]
}

// FlatEntry is one row of a provider's flat tree listing, before it is
// assembled into a forest.
type FlatEntry struct {
	Path string
	Dir  bool
}

// BuildForest assembles a provider's flat tree listing into a rooted forest
// of TreeNodes. Paths are normalized to posix style relative to the
// repository root and children are ordered directories first, then by name.
//
// With markdownOnly set, non-Markdown files are dropped and directories are
// kept only while they still contain at least one qualifying descendant;
// ancestor directories of a kept file always survive.
func BuildForest(entries []FlatEntry, markdownOnly bool) []*TreeNode {
	nodes := make(map[string]*TreeNode)
	var roots []*TreeNode

	var ensureDir func(dirPath string) *TreeNode
	ensureDir = func(dirPath string) *TreeNode {
		if node, ok := nodes[dirPath]; ok {
			return node
		}
		node := &TreeNode{
			Path: dirPath,
			Name: path.Base(dirPath),
			Type: NodeTypeDirectory,
		}
		nodes[dirPath] = node
		if parent := path.Dir(dirPath); parent != "." {
			parentNode := ensureDir(parent)
			parentNode.Children = append(parentNode.Children, node)
		} else {
			roots = append(roots, node)
		}
		return node
	}

	for _, entry := range entries {
		cleaned := normalizeTreePath(entry.Path)
		if cleaned == "" {
			continue
		}

		if entry.Dir {
			ensureDir(cleaned)
			continue
		}

		if markdownOnly && !IsMarkdownPath(cleaned) {
			continue
		}

		if _, ok := nodes[cleaned]; ok {
			// Duplicate path within one snapshot; keep the first node.
			continue
		}

		node := &TreeNode{
			Path: cleaned,
			Name: path.Base(cleaned),
			Type: NodeTypeFile,
		}
		nodes[cleaned] = node
		if parent := path.Dir(cleaned); parent != "." {
			parentNode := ensureDir(parent)
			parentNode.Children = append(parentNode.Children, node)
		} else {
			roots = append(roots, node)
		}
	}

	if markdownOnly {
		roots = pruneEmptyDirectories(roots)
	}
	sortForest(roots)
	return roots
}

func normalizeTreePath(raw string) string {
	cleaned := strings.Trim(strings.ReplaceAll(raw, "\\", "/"), "/")
	if cleaned == "" || cleaned == "." {
		return ""
	}
	return path.Clean(cleaned)
}

// pruneEmptyDirectories drops directory nodes that ended up with no file
// descendants after filtering.
func pruneEmptyDirectories(nodes []*TreeNode) []*TreeNode {
	kept := nodes[:0]
	for _, node := range nodes {
		if node.Type == NodeTypeDirectory {
			node.Children = pruneEmptyDirectories(node.Children)
			if len(node.Children) == 0 {
				continue
			}
		}
		kept = append(kept, node)
	}
	return kept
}

func sortForest(nodes []*TreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Type != nodes[j].Type {
			return nodes[i].Type == NodeTypeDirectory
		}
		return strings.ToLower(nodes[i].Name) < strings.ToLower(nodes[j].Name)
	})
	for _, node := range nodes {
		if len(node.Children) > 0 {
			sortForest(node.Children)
		}
	}
}

// FindNode walks a forest looking for the node at the given path.
func FindNode(nodes []*TreeNode, target string) *TreeNode {
	cleaned := normalizeTreePath(target)
	for _, node := range nodes {
		if node.Path == cleaned {
			return node
		}
		if node.Type == NodeTypeDirectory && strings.HasPrefix(cleaned, node.Path+"/") {
			if found := FindNode(node.Children, cleaned); found != nil {
				return found
			}
		}
	}
	return nil
}

// CountFiles returns the number of file nodes in a forest.
func CountFiles(nodes []*TreeNode) int {
	total := 0
	for _, node := range nodes {
		if node.Type == NodeTypeFile {
			total++
			continue
		}
		total += CountFiles(node.Children)
	}
	return total
}
