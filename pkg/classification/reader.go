package classification

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/graph"
)

// Reader decodes one relation-list file format.
type Reader interface {
	// Read decodes a classification from r. name is used when the input
	// does not carry a name of its own.
	Read(r io.Reader, name string) (Classification, error)
	// Supports reports whether this reader handles the given filename.
	Supports(filename string) bool
	// Format returns the format identifier (e.g. "json", "csv").
	Format() string
}

// Readers returns the built-in readers.
func Readers() []Reader {
	return []Reader{JSONReader{}, YAMLReader{}, TOMLReader{}, CSVReader{}, CSVReader{Comma: '\t'}}
}

// DetectReader finds a reader that supports the given file path.
// Returns an INVALID_FORMAT error if no reader matches.
func DetectReader(path string, readers ...Reader) (Reader, error) {
	if len(readers) == 0 {
		readers = Readers()
	}
	name := filepath.Base(path)
	for _, r := range readers {
		if r.Supports(name) {
			return r, nil
		}
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported classification file: %s", name)
}

// ReaderFor returns the built-in reader for a format identifier.
func ReaderFor(format string) (Reader, error) {
	for _, r := range Readers() {
		if r.Format() == strings.ToLower(format) {
			return r, nil
		}
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown classification format: %q", format)
}

// ReadFile reads a classification file, picking the reader from the file
// extension. The classification name defaults to the file stem.
func ReadFile(path string) (Classification, error) {
	r, err := DetectReader(path)
	if err != nil {
		return Classification{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Classification{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "classification file %s", path)
		}
		return Classification{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	c, err := r.Read(f, Stem(path))
	if err != nil {
		return Classification{}, fmt.Errorf("read %s: %w", path, err)
	}
	return c, nil
}

// Stem returns the file name without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func hasExt(name string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// =============================================================================
// Structured formats
// =============================================================================

// document is the shared shape of JSON, YAML and TOML classification
// files. Codes are decoded as any so that numeric codes can be formatted
// without losing leading digits to float notation.
type document struct {
	Name      string         `json:"name" yaml:"name" toml:"name"`
	Relations []rawRelation  `json:"relations" yaml:"relations" toml:"relations"`
	Labels    map[string]any `json:"labels" yaml:"labels" toml:"labels"`
	// Node/edge form, as written by the graph package.
	Nodes []graph.Node `json:"nodes" yaml:"nodes" toml:"nodes"`
	Edges []graph.Edge `json:"edges" yaml:"edges" toml:"edges"`
}

type rawRelation struct {
	Parent any `json:"parent" yaml:"parent" toml:"parent"`
	Child  any `json:"child" yaml:"child" toml:"child"`
}

func (d document) classification(name string) (Classification, error) {
	c := Classification{Name: d.Name}
	if c.Name == "" {
		c.Name = name
	}
	for i, r := range d.Relations {
		parent, err := CodeString(r.Parent)
		if err != nil {
			return Classification{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "relation %d parent", i)
		}
		child, err := CodeString(r.Child)
		if err != nil {
			return Classification{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "relation %d child", i)
		}
		c.Relations = append(c.Relations, Relation{Parent: parent, Child: child})
	}
	for _, e := range d.Edges {
		c.Relations = append(c.Relations, Relation{Parent: e.From, Child: e.To})
	}

	if len(d.Labels) > 0 || len(d.Nodes) > 0 {
		c.Labels = make(map[string]string, len(d.Labels)+len(d.Nodes))
	}
	for code, v := range d.Labels {
		label, err := CodeString(v)
		if err != nil {
			return Classification{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "label of %s", code)
		}
		c.Labels[code] = label
	}
	for _, n := range d.Nodes {
		if n.Label != "" {
			c.Labels[n.ID] = n.Label
		}
	}
	return c, nil
}

// JSONReader reads .json classification files. Both the relation form
// ({"name", "relations", "labels"}) and the node/edge graph form are
// accepted.
type JSONReader struct{}

func (JSONReader) Format() string            { return "json" }
func (JSONReader) Supports(name string) bool { return hasExt(name, ".json") }
func (JSONReader) Read(r io.Reader, name string) (Classification, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return Classification{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
	}
	return doc.classification(name)
}

// YAMLReader reads .yaml and .yml classification files.
type YAMLReader struct{}

func (YAMLReader) Format() string            { return "yaml" }
func (YAMLReader) Supports(name string) bool { return hasExt(name, ".yaml", ".yml") }
func (YAMLReader) Read(r io.Reader, name string) (Classification, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return Classification{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml")
	}
	return doc.classification(name)
}

// TOMLReader reads .toml classification files:
//
//	name = "icd10"
//
//	[[relations]]
//	parent = "A00-B99"
//	child = "A00"
//
//	[labels]
//	A00 = "Cholera"
type TOMLReader struct{}

func (TOMLReader) Format() string            { return "toml" }
func (TOMLReader) Supports(name string) bool { return hasExt(name, ".toml") }
func (TOMLReader) Read(r io.Reader, name string) (Classification, error) {
	var doc document
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return Classification{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode toml")
	}
	return doc.classification(name)
}

// =============================================================================
// Delimited formats
// =============================================================================

// CSVReader reads delimited relation lists: one "parent,child" pair per
// row, an optional third column with the child's label, an optional header
// row naming the columns, and '#' comment lines. Comma defaults to ','; a
// reader with Comma '\t' handles .tsv files.
type CSVReader struct {
	Comma rune
}

func (c CSVReader) comma() rune {
	if c.Comma == 0 {
		return ','
	}
	return c.Comma
}

func (c CSVReader) Format() string {
	if c.comma() == '\t' {
		return "tsv"
	}
	return "csv"
}

func (c CSVReader) Supports(name string) bool {
	if c.comma() == '\t' {
		return hasExt(name, ".tsv", ".tab")
	}
	return hasExt(name, ".csv")
}

func (c CSVReader) Read(r io.Reader, name string) (Classification, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Classification{}, err
	}
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	cr.Comma = c.comma()
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	out := Classification{Name: name}
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Classification{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "%s row %d", c.Format(), row)
		}
		if len(rec) < 2 {
			return Classification{}, errors.New(errors.ErrCodeInvalidFormat,
				"%s row %d: expected at least 2 columns, got %d", c.Format(), row, len(rec))
		}
		if row == 1 && isHeader(rec) {
			continue
		}
		rel := Relation{Parent: strings.TrimSpace(rec[0]), Child: strings.TrimSpace(rec[1])}
		out.Relations = append(out.Relations, rel)
		if len(rec) > 2 && strings.TrimSpace(rec[2]) != "" {
			if out.Labels == nil {
				out.Labels = make(map[string]string)
			}
			out.Labels[rel.Child] = strings.TrimSpace(rec[2])
		}
	}
	return out, nil
}

func isHeader(rec []string) bool {
	p, c := strings.ToLower(strings.TrimSpace(rec[0])), strings.ToLower(strings.TrimSpace(rec[1]))
	return (p == "parent" || p == "from") && (c == "child" || c == "to")
}

// =============================================================================
// Code normalization
// =============================================================================

// CodeString converts a decoded scalar into a code string. Strings are
// trimmed and JSON numbers keep their source text. Other integers are
// formatted in base 10 and floats without an exponent, so 10 never becomes
// "1e+01". A leading zero only survives when the source quoted the code.
func CodeString(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(x), nil
	case json.Number:
		// Unquoted JSON codes keep their source text: 1.10 is not 1.1.
		return x.String(), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float64:
		return formatFloat(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	}
	return "", fmt.Errorf("unsupported code type %T", v)
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
