package classification

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"

	"github.com/matzehuels/lineage/pkg/dag"
	"github.com/matzehuels/lineage/pkg/errors"
)

// Relation is one parent/child pair. Parent is strictly more general than
// Child.
type Relation struct {
	Parent string `json:"parent" yaml:"parent" toml:"parent" bson:"parent"`
	Child  string `json:"child" yaml:"child" toml:"child" bson:"child"`
}

// Classification is one named hierarchy: a relation list plus optional
// human-readable labels keyed by code.
type Classification struct {
	Name      string            `json:"name" yaml:"name" toml:"name" bson:"name"`
	Relations []Relation        `json:"relations" yaml:"relations" toml:"relations" bson:"relations"`
	Labels    map[string]string `json:"labels,omitempty" yaml:"labels,omitempty" toml:"labels,omitempty" bson:"labels,omitempty"`
}

// Edges returns the relations as graph edges.
func (c *Classification) Edges() []dag.Edge {
	out := make([]dag.Edge, len(c.Relations))
	for i, r := range c.Relations {
		out[i] = dag.Edge{From: r.Parent, To: r.Child}
	}
	return out
}

// Codes returns every code that appears as a relation endpoint, sorted.
func (c *Classification) Codes() []string {
	seen := make(map[string]bool, len(c.Relations))
	var out []string
	for _, r := range c.Relations {
		for _, code := range [2]string{r.Parent, r.Child} {
			if !seen[code] {
				seen[code] = true
				out = append(out, code)
			}
		}
	}
	slices.Sort(out)
	return out
}

// Validate checks the name and every relation endpoint.
func (c *Classification) Validate() error {
	if err := errors.ValidateName(c.Name); err != nil {
		return err
	}
	for _, r := range c.Relations {
		if err := errors.ValidateCode(r.Parent); err != nil {
			return err
		}
		if err := errors.ValidateCode(r.Child); err != nil {
			return err
		}
	}
	return nil
}

// Digest returns a content hash of the classification that is independent
// of relation order and duplicates. Used as a cache key component.
func (c *Classification) Digest() string {
	lines := make([]string, 0, len(c.Relations)+len(c.Labels))
	for _, r := range c.Relations {
		lines = append(lines, "r\x00"+r.Parent+"\x00"+r.Child)
	}
	for code, label := range c.Labels {
		lines = append(lines, "l\x00"+code+"\x00"+label)
	}
	slices.Sort(lines)
	lines = slices.Compact(lines)

	h := sha256.New()
	h.Write([]byte(c.Name))
	for _, l := range lines {
		h.Write([]byte{'\n'})
		h.Write([]byte(l))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// normalize trims codes, drops exact duplicates, self loops and relations
// with an empty endpoint. It returns the dropped relations so callers can
// report them.
func (c *Classification) normalize() (dropped []Relation) {
	seen := make(map[Relation]bool, len(c.Relations))
	kept := c.Relations[:0]
	for _, r := range c.Relations {
		r = Relation{Parent: strings.TrimSpace(r.Parent), Child: strings.TrimSpace(r.Child)}
		if r.Parent == "" || r.Child == "" || r.Parent == r.Child {
			dropped = append(dropped, r)
			continue
		}
		if seen[r] {
			continue
		}
		seen[r] = true
		kept = append(kept, r)
	}
	c.Relations = kept

	if len(c.Labels) > 0 {
		labels := make(map[string]string, len(c.Labels))
		for code, label := range c.Labels {
			if code = strings.TrimSpace(code); code != "" {
				labels[code] = label
			}
		}
		c.Labels = labels
	}
	return dropped
}
