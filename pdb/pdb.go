// Package pdb reads atom records from Protein Data Bank (PDB) files into structures.
package pdb

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/steric/atom"
	"go.viam.com/steric/logging"
)

// Format selects how record lines are split into fields.
type Format int

const (
	// FormatColumns reads the fixed columns defined by the PDB format. Lines too short to hold
	// coordinates fall back to FormatFields.
	FormatColumns Format = iota
	// FormatFields splits lines on whitespace and expects at least 11 fields: record, serial, name,
	// residue, chain, residue sequence, x, y, z, occupancy and temperature factor. Records whose
	// chain id is blank or whose fields run together cannot be read this way.
	FormatFields
)

// ParseFormat parses a format name. An empty name selects FormatColumns.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "", "columns":
		return FormatColumns, nil
	case "fields", "whitespace":
		return FormatFields, nil
	}
	return FormatColumns, errors.Errorf("unknown pdb format %q", name)
}

type readOptions struct {
	format        Format
	defaultRadius float64
	radii         map[string]float64
	strict        bool
	logger        logging.Logger
}

// Option configures reading.
type Option func(*readOptions)

// WithFormat sets how record lines are split.
func WithFormat(format Format) Option {
	return func(o *readOptions) {
		o.format = format
	}
}

// WithDefaultRadius sets the radius given to atoms whose element has no entry in the radius table.
func WithDefaultRadius(radius float64) Option {
	return func(o *readOptions) {
		o.defaultRadius = radius
	}
}

// WithRadii sets a per-element radius table, keyed by upper case element symbol.
func WithRadii(radii map[string]float64) Option {
	return func(o *readOptions) {
		o.radii = radii
	}
}

// WithStrict makes any malformed ATOM or HETATM record fail the read instead of being skipped.
func WithStrict(strict bool) Option {
	return func(o *readOptions) {
		o.strict = strict
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(o *readOptions) {
		o.logger = logger
	}
}

// ReadFile returns the structure read from the PDB file at path, named after the file.
func ReadFile(ctx context.Context, path string, opts ...Option) (*atom.Structure, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)

	return Read(ctx, filepath.Base(path), f, opts...)
}

// Read returns the structure made of every ATOM and HETATM record in r, in file order. Other
// records are ignored. Malformed records are skipped with a warning unless WithStrict is set.
func Read(ctx context.Context, name string, r io.Reader, opts ...Option) (*atom.Structure, error) {
	_, span := trace.StartSpan(ctx, "pdb::Read")
	defer span.End()

	o := readOptions{defaultRadius: atom.DefaultRadius}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Global().Sublogger("pdb")
	}
	if !(o.defaultRadius > 0) {
		return nil, errors.Errorf("default radius must be positive, got %v", o.defaultRadius)
	}

	var atoms []atom.Atom
	var malformed error
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		record := recordName(line)
		if record != "ATOM" && record != "HETATM" {
			continue
		}

		a, err := parseRecord(line, o.format)
		if err != nil {
			malformed = multierr.Append(malformed, errors.Wrapf(err, "%s line %d", name, lineNum))
			continue
		}
		a.Radius = o.radiusFor(a.Element)
		atoms = append(atoms, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "error reading %s", name)
	}

	if malformed != nil {
		if o.strict {
			return nil, malformed
		}
		o.logger.Warnw("skipped malformed records",
			"file", name, "count", len(multierr.Errors(malformed)), "error", malformed.Error())
	}

	structure, err := atom.NewStructure(name, atoms)
	if err != nil {
		return nil, err
	}
	o.logger.Debugw("read structure", "file", name, "atoms", structure.Len(), "lines", lineNum)
	span.AddAttributes(trace.Int64Attribute("atoms", int64(structure.Len())))
	return structure, nil
}

func (o readOptions) radiusFor(element string) float64 {
	if r, ok := o.radii[strings.ToUpper(element)]; ok {
		return r
	}
	return o.defaultRadius
}

func recordName(line string) string {
	if len(line) >= 6 {
		return strings.TrimSpace(line[:6])
	}
	return strings.TrimSpace(line)
}

func parseRecord(line string, format Format) (atom.Atom, error) {
	// coordinates end at column 54
	if format == FormatColumns && len(line) >= 54 {
		return parseColumns(line)
	}
	return parseFields(line)
}

// column returns the 1-indexed, inclusive column range [from, to] of line, trimmed. Ranges past
// the end of the line are cut short.
func column(line string, from, to int) string {
	if from > len(line) {
		return ""
	}
	return strings.TrimSpace(line[from-1 : min(to, len(line))])
}

func parseColumns(line string) (atom.Atom, error) {
	var err error
	a := atom.Atom{
		Record:  column(line, 1, 6),
		Name:    column(line, 13, 16),
		Residue: column(line, 18, 20),
		Chain:   column(line, 22, 22),
		Element: column(line, 77, 78),
	}
	a.ID, err = parseInt("serial", column(line, 7, 11), err)
	a.ResidueSeq, err = parseInt("residue sequence", column(line, 23, 26), err)
	x, err := parseFloat("x", column(line, 31, 38), err)
	y, err := parseFloat("y", column(line, 39, 46), err)
	z, err := parseFloat("z", column(line, 47, 54), err)
	a.Position = r3.Vector{X: x, Y: y, Z: z}
	a.Occupancy, err = parseOptionalFloat("occupancy", column(line, 55, 60), err)
	a.TempFactor, err = parseOptionalFloat("temperature factor", column(line, 61, 66), err)
	if err != nil {
		return atom.Atom{}, err
	}
	if a.Element == "" {
		a.Element = elementFromName(a.Name)
	}
	return a, nil
}

func parseFields(line string) (atom.Atom, error) {
	fields := strings.Fields(line)
	if len(fields) <= 10 {
		return atom.Atom{}, errors.Errorf("expected at least 11 fields, got %d", len(fields))
	}
	var err error
	a := atom.Atom{
		Record:  fields[0],
		Name:    fields[2],
		Residue: fields[3],
		Chain:   fields[4],
	}
	a.ID, err = parseInt("serial", fields[1], err)
	a.ResidueSeq, err = parseInt("residue sequence", fields[5], err)
	x, err := parseFloat("x", fields[6], err)
	y, err := parseFloat("y", fields[7], err)
	z, err := parseFloat("z", fields[8], err)
	a.Position = r3.Vector{X: x, Y: y, Z: z}
	a.Occupancy, err = parseFloat("occupancy", fields[9], err)
	a.TempFactor, err = parseFloat("temperature factor", fields[10], err)
	if err != nil {
		return atom.Atom{}, err
	}
	if len(fields) > 11 {
		a.Element = fields[len(fields)-1]
		// a trailing number is a temperature factor or charge, not an element
		if _, err := strconv.ParseFloat(a.Element, 64); err == nil {
			a.Element = ""
		}
	}
	if a.Element == "" {
		a.Element = elementFromName(a.Name)
	}
	return a, nil
}

// elementFromName guesses the element from an atom name such as "CA" or "OD1": the leading
// letters up to the first digit, reduced to the first letter for the common organic elements.
func elementFromName(name string) string {
	letters := strings.TrimLeftFunc(name, func(r rune) bool { return r >= '0' && r <= '9' })
	if letters == "" {
		return ""
	}
	switch letters[0] {
	case 'C', 'N', 'O', 'S', 'H', 'P':
		return letters[:1]
	}
	end := 1
	if len(letters) > 1 && letters[1] >= 'A' && letters[1] <= 'Z' {
		end = 2
	}
	return letters[:end]
}

// The parse helpers short-circuit on a previous error so a record reports its first bad field.

func parseInt(field, value string, prev error) (int, error) {
	if prev != nil {
		return 0, prev
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Errorf("invalid %s %q", field, value)
	}
	return v, nil
}

func parseFloat(field, value string, prev error) (float64, error) {
	if prev != nil {
		return 0, prev
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.Errorf("invalid %s %q", field, value)
	}
	return v, nil
}

func parseOptionalFloat(field, value string, prev error) (float64, error) {
	if prev == nil && value == "" {
		return 0, nil
	}
	return parseFloat(field, value, prev)
}
