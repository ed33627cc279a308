// Package testutils provides fixtures shared by package tests.
package testutils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/steric/atom"
)

// PDBRecord lays out a as a line on the fixed PDB ATOM/HETATM columns. Empty descriptive fields are
// filled with an alanine alpha carbon on chain A.
func PDBRecord(a atom.Atom) string {
	record, name, residue, chain := a.Record, a.Name, a.Residue, a.Chain
	if record == "" {
		record = "ATOM"
	}
	if name == "" {
		name = "CA"
	}
	if residue == "" {
		residue = "ALA"
	}
	if chain == "" {
		chain = "A"
	}
	return fmt.Sprintf("%-6s%5d  %-3s %3s %1s%4d    %8.3f%8.3f%8.3f%6.2f%6.2f          %2s",
		record, a.ID, name, residue, chain, a.ResidueSeq,
		a.Position.X, a.Position.Y, a.Position.Z, a.Occupancy, a.TempFactor, a.Element)
}

// WritePDB writes atoms as a PDB file named name in dir and returns its path.
func WritePDB(t *testing.T, dir, name string, atoms ...atom.Atom) string {
	t.Helper()
	var sb strings.Builder
	for _, a := range atoms {
		sb.WriteString(PDBRecord(a))
		sb.WriteByte('\n')
	}
	sb.WriteString("END\n")
	path := filepath.Join(dir, name)
	test.That(t, os.WriteFile(path, []byte(sb.String()), 0o600), test.ShouldBeNil)
	return path
}
