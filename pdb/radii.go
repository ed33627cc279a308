package pdb

// VanDerWaalsRadii are the Bondi van der Waals radii in angstroms for elements common in
// biomolecular structures, keyed by upper case element symbol.
var VanDerWaalsRadii = map[string]float64{
	"H":  1.20,
	"C":  1.70,
	"N":  1.55,
	"O":  1.52,
	"F":  1.47,
	"P":  1.80,
	"S":  1.80,
	"CL": 1.75,
	"BR": 1.85,
	"I":  1.98,
	"SE": 1.90,
	"NA": 2.27,
	"MG": 1.73,
	"K":  2.75,
	"ZN": 1.39,
	"CU": 1.40,
}
