// Package hierarchy provides an immutable, indexed view of the harmonized
// tariff schedule taxonomy with lookup and traversal queries.
package hierarchy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chrishsmith/sourcify-sub007/internal/common"
	"github.com/chrishsmith/sourcify-sub007/internal/model"
)

// Store indexes the tariff taxonomy for lookup, ancestor, sibling, and child
// queries. Immutable after construction and safe for concurrent use.
type Store struct {
	byCode    map[string]*model.HtsNode
	children  map[string][]string
	byChapter map[string][]string
	revision  string
}

// NewStore builds a Store from a node snapshot. Every node is validated;
// a non-chapter node whose parent is absent from the snapshot is a corrupt
// dataset and fails construction.
func NewStore(nodes []model.HtsNode) (*Store, error) {
	s := &Store{
		byCode:    make(map[string]*model.HtsNode, len(nodes)),
		children:  make(map[string][]string),
		byChapter: make(map[string][]string),
	}

	for i := range nodes {
		n := &nodes[i]
		if err := n.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInternalInconsistency, err)
		}
		if _, dup := s.byCode[n.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate code %s", common.ErrInternalInconsistency, n.Code)
		}
		s.byCode[n.Code] = n
		s.revision = n.Revision
	}

	for code, n := range s.byCode {
		if !n.IsChapter() {
			if _, ok := s.byCode[n.ParentCode]; !ok {
				return nil, fmt.Errorf("%w: node %s references missing parent %s",
					common.ErrInternalInconsistency, code, n.ParentCode)
			}
			s.children[n.ParentCode] = append(s.children[n.ParentCode], code)
		}
		s.byChapter[n.Chapter()] = append(s.byChapter[n.Chapter()], code)
	}

	for _, codes := range s.children {
		sort.Strings(codes)
	}
	for _, codes := range s.byChapter {
		sort.Strings(codes)
	}

	return s, nil
}

// Len returns the number of nodes in the store.
func (s *Store) Len() int {
	return len(s.byCode)
}

// Revision returns the schedule revision identifier of the loaded snapshot.
func (s *Store) Revision() string {
	return s.revision
}

// Normalize strips separators from a raw HTS code and validates it against
// the canonical form: digits only, even length, 2-10 digits. Malformed input
// fails with ErrInvalidCodeFormat.
func Normalize(raw string) (string, error) {
	code := strings.Map(func(r rune) rune {
		switch r {
		case '.', ' ', '-':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if code == "" {
		return "", fmt.Errorf("%w: empty code", common.ErrInvalidCodeFormat)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q contains non-digit characters", common.ErrInvalidCodeFormat, raw)
		}
	}
	if len(code) < 2 || len(code) > 10 {
		return "", fmt.Errorf("%w: %q has %d digits, want 2-10", common.ErrInvalidCodeFormat, raw, len(code))
	}
	if len(code)%2 != 0 {
		// Statistical extracts occasionally drop a leading zero from the
		// final pair; restore the even-length canonical form.
		code = code[:len(code)-1] + "0" + code[len(code)-1:]
	}
	return code, nil
}

// Lookup returns the node for a code, normalizing first. Unknown codes fail
// with ErrCodeNotFound; callers may treat that as non-fatal and retry a
// shorter prefix.
func (s *Store) Lookup(raw string) (*model.HtsNode, error) {
	code, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	n, ok := s.byCode[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s (try a shorter prefix)", common.ErrCodeNotFound, code)
	}
	return n, nil
}

// LookupPrefix returns the node for the longest known even-length prefix of
// the code, falling back from 10 to 2 digits. Used when a full statistical
// line is absent from the loaded revision.
func (s *Store) LookupPrefix(raw string) (*model.HtsNode, error) {
	code, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	for l := len(code); l >= 2; l -= 2 {
		if n, ok := s.byCode[code[:l]]; ok {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", common.ErrCodeNotFound, code)
}

// Ancestors returns the chain from chapter to the code itself, inclusive,
// strictly increasing in code length. A broken parent link mid-chain fails
// with ErrInternalInconsistency.
func (s *Store) Ancestors(raw string) ([]*model.HtsNode, error) {
	n, err := s.Lookup(raw)
	if err != nil {
		return nil, err
	}

	chain := []*model.HtsNode{n}
	for !n.IsChapter() {
		parent, ok := s.byCode[n.ParentCode]
		if !ok {
			return nil, fmt.Errorf("%w: node %s references missing parent %s",
				common.ErrInternalInconsistency, n.Code, n.ParentCode)
		}
		chain = append(chain, parent)
		n = parent
	}

	// reverse to chapter-first order
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// Siblings returns the nodes sharing the code's parent, excluding the code
// itself, in code order. Chapters have no siblings beyond the other chapters.
func (s *Store) Siblings(raw string) ([]*model.HtsNode, error) {
	n, err := s.Lookup(raw)
	if err != nil {
		return nil, err
	}

	var pool []string
	if n.IsChapter() {
		for code, node := range s.byCode {
			if node.IsChapter() {
				pool = append(pool, code)
			}
		}
		sort.Strings(pool)
	} else {
		pool = s.children[n.ParentCode]
	}

	out := make([]*model.HtsNode, 0, len(pool))
	for _, code := range pool {
		if code != n.Code {
			out = append(out, s.byCode[code])
		}
	}
	return out, nil
}

// Children returns the direct descendants of a code, in code order.
func (s *Store) Children(raw string) ([]*model.HtsNode, error) {
	n, err := s.Lookup(raw)
	if err != nil {
		return nil, err
	}
	codes := s.children[n.Code]
	out := make([]*model.HtsNode, 0, len(codes))
	for _, code := range codes {
		out = append(out, s.byCode[code])
	}
	return out, nil
}

// NodesByChapter returns every node under a 2-digit chapter, in code order.
func (s *Store) NodesByChapter(chapter string) []*model.HtsNode {
	codes := s.byChapter[chapter]
	out := make([]*model.HtsNode, 0, len(codes))
	for _, code := range codes {
		out = append(out, s.byCode[code])
	}
	return out
}

// Chapters returns every chapter code present in the snapshot, sorted.
func (s *Store) Chapters() []string {
	out := make([]string, 0, len(s.byChapter))
	for ch := range s.byChapter {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}
