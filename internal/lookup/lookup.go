// Package lookup serves the static reference tables used when
// filling in asset metadata: airports for planes and marinas/ports
// for boats.  The tables are compiled in and read-only; no datastore
// is involved.
package lookup

// Airport is one row of the airports reference table.
type Airport struct {
	Code    string `json:"code"` // IATA code
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// Port is one row of the ports reference table.
type Port struct {
	Code    string `json:"code"` // UN/LOCODE
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
}

var airports = []Airport{
	{Code: "APF", Name: "Naples Municipal", City: "Naples", Country: "US"},
	{Code: "ASE", Name: "Aspen/Pitkin County", City: "Aspen", Country: "US"},
	{Code: "BCT", Name: "Boca Raton", City: "Boca Raton", Country: "US"},
	{Code: "EGE", Name: "Eagle County Regional", City: "Vail", Country: "US"},
	{Code: "FRG", Name: "Republic", City: "Farmingdale", Country: "US"},
	{Code: "HPN", Name: "Westchester County", City: "White Plains", Country: "US"},
	{Code: "JAC", Name: "Jackson Hole", City: "Jackson", Country: "US"},
	{Code: "LGB", Name: "Long Beach", City: "Long Beach", Country: "US"},
	{Code: "MVY", Name: "Martha's Vineyard", City: "Vineyard Haven", Country: "US"},
	{Code: "OPF", Name: "Miami-Opa Locka Executive", City: "Miami", Country: "US"},
	{Code: "PBI", Name: "Palm Beach International", City: "West Palm Beach", Country: "US"},
	{Code: "SUN", Name: "Friedman Memorial", City: "Hailey", Country: "US"},
	{Code: "TEB", Name: "Teterboro", City: "Teterboro", Country: "US"},
	{Code: "VNY", Name: "Van Nuys", City: "Los Angeles", Country: "US"},
}

var ports = []Port{
	{Code: "USACK", Name: "Nantucket Boat Basin", City: "Nantucket", Country: "US"},
	{Code: "USANP", Name: "Annapolis Harbor", City: "Annapolis", Country: "US"},
	{Code: "USFLL", Name: "Bahia Mar Yachting Center", City: "Fort Lauderdale", Country: "US"},
	{Code: "USHYA", Name: "Hyannis Marina", City: "Hyannis", Country: "US"},
	{Code: "USMIA", Name: "Miami Beach Marina", City: "Miami", Country: "US"},
	{Code: "USNEW", Name: "Newport Shipyard", City: "Newport", Country: "US"},
	{Code: "USSAG", Name: "Sag Harbor Cove", City: "Sag Harbor", Country: "US"},
	{Code: "USSDX", Name: "Shelter Island Marina", City: "San Diego", Country: "US"},
	{Code: "USSEA", Name: "Elliott Bay Marina", City: "Seattle", Country: "US"},
	{Code: "USSFO", Name: "South Beach Harbor", City: "San Francisco", Country: "US"},
}

// Airports returns the full airports table.  The slice is shared;
// callers must not mutate it.
func Airports() []Airport { return airports }

// Ports returns the full ports table.  The slice is shared; callers
// must not mutate it.
func Ports() []Port { return ports }
