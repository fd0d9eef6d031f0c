package catalog

// wireNames maps internal region codes to the borough names the report
// backend accepts. The backend rejects anything outside this set.
var wireNames = map[string]string{
	"M":  "Manhattan",
	"Bk": "Brooklyn",
	"Q":  "Queens",
	"Bx": "Bronx",
	"SI": "Staten Island",
}

// WireName returns the backend borough name for a region code.
func WireName(code string) (string, bool) {
	name, ok := wireNames[code]
	return name, ok
}

// WireNames returns every borough name the backend accepts, in catalog order.
func WireNames() []string {
	return []string{"Manhattan", "Brooklyn", "Queens", "Bronx", "Staten Island"}
}

// NormalizeWireName folds display variants onto the wire vocabulary.
// "The Bronx" is the only variant in use.
func NormalizeWireName(name string) string {
	if name == "The Bronx" {
		return "Bronx"
	}
	return name
}
