package links

import (
	"github.com/apiprobe/apiprobe/errors"
	"github.com/apiprobe/apiprobe/openapi"
)

// Index holds every parsed link of a document, addressable by source
// operation for status matching and by target operation for graph traversal.
type Index struct {
	links    []*Link
	bySource map[string][]*Link
	byTarget map[string][]*Link
}

// Build parses the declared links of every operation into an index. Malformed
// links are reported joined into the returned error; the index stays usable
// for the rest.
func Build(ops []*openapi.Operation) (*Index, error) {
	idx := &Index{
		bySource: map[string][]*Link{},
		byTarget: map[string][]*Link{},
	}

	var errs []error
	for _, op := range ops {
		for selector, spec := range op.Responses.All() {
			if spec.Links == nil {
				continue
			}

			for name, raw := range spec.Links.All() {
				link, err := parseLink(op.ID(), StatusSelector(selector), name, raw)
				if err != nil {
					errs = append(errs, err)
					continue
				}

				idx.links = append(idx.links, link)
				idx.bySource[link.Source] = append(idx.bySource[link.Source], link)
				if target := resolveTarget(link, ops); target != "" {
					idx.byTarget[target] = append(idx.byTarget[target], link)
				}
			}
		}
	}

	return idx, errors.Join(errs...)
}

// resolveTarget maps a link onto its target operation's identity. Reference
// targets that match no known operation resolve to empty.
func resolveTarget(link *Link, ops []*openapi.Operation) string {
	if link.TargetID != "" {
		return link.TargetID
	}

	for _, op := range ops {
		if link.TargetsOperation(op) {
			return op.ID()
		}
	}

	return ""
}

// Links returns every parsed link in declaration order.
func (idx *Index) Links() []*Link {
	return idx.links
}

// Len returns the number of parsed links.
func (idx *Index) Len() int {
	return len(idx.links)
}

// Outgoing returns the source operation's links whose status selector covers
// the observed status. The sibling selector set drives default exclusivity.
func (idx *Index) Outgoing(source string, status int, siblings []string) []*Link {
	var matched []*Link
	for _, link := range idx.bySource[source] {
		if link.Selector.Matches(status, siblings) {
			matched = append(matched, link)
		}
	}
	return matched
}

// Incoming returns every link that targets the operation.
func (idx *Index) Incoming(target string) []*Link {
	return idx.byTarget[target]
}
