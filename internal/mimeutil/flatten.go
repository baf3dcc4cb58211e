// Package mimeutil handles both directions of MIME: flattening and
// classifying inbound payload trees, and compiling outbound RFC822 messages.
package mimeutil

import (
	"github.com/maildesk-io/maildesk/internal/provider"
)

// maxDepth bounds the descent into untrusted payload trees.
const maxDepth = 100

// Flatten normalizes an arbitrarily nested multipart tree into its leaf parts
// in the provider's original order. Container nodes (those with children) are
// expanded in place and never appear in the output, so multipart/related and
// multipart/alternative nesting is transparent to callers.
func Flatten(root *provider.Part) []*provider.Part {
	if root == nil {
		return nil
	}
	var leaves []*provider.Part
	appendLeaves(root, 0, &leaves)
	return leaves
}

func appendLeaves(part *provider.Part, depth int, leaves *[]*provider.Part) {
	if part == nil || depth > maxDepth {
		return
	}
	if len(part.Parts) > 0 {
		for _, child := range part.Parts {
			appendLeaves(child, depth+1, leaves)
		}
		return
	}
	*leaves = append(*leaves, part)
}
