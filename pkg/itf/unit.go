package itf

// UnitAttributes lists the level-2/level-3 fields copied onto a unit.
var UnitAttributes = []string{
	"prtnm", "thermalhdid", "dvtststdt", "socket", "tstordnum", "tiuid",
	"eqpprtid", "siteid", "prttesterid", "tiuprscdid", "visualid",
	"subflstpid", "binn", "curfbin", "curibin",
}

var unitAttributeSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(UnitAttributes))
	for _, a := range UnitAttributes {
		m[a] = struct{}{}
	}
	return m
}()

// Header holds the file level fields of an ITF log.
type Header struct {
	LotID       string
	SSpec       string
	Program     string
	LCode       string
	SysID       string
	FacID       string
	Temperature string
}

// Token is one mapped test name and its captured value. Value is empty
// when no value line followed the name.
type Token struct {
	Name  string
	Value string
}

// Unit is one tested device as seen between two unit boundaries.
type Unit struct {
	VisualID   string
	Attributes map[string]string
	// Tokens keeps first-seen order; a repeated name updates in place.
	Tokens []Token
	// Locations maps SSID to "lot_wafer_x_y".
	Locations map[string]string
}

func newUnit() *Unit {
	return &Unit{
		Attributes: make(map[string]string),
		Locations:  make(map[string]string),
	}
}

func (u *Unit) setToken(name, value string) {
	for i := range u.Tokens {
		if u.Tokens[i].Name == name {
			u.Tokens[i].Value = value
			return
		}
	}
	u.Tokens = append(u.Tokens, Token{Name: name, Value: value})
}

// Attribute returns a unit attribute or "".
func (u *Unit) Attribute(name string) string {
	return u.Attributes[name]
}

// File is the parsed content of one ITF log.
type File struct {
	Name   string
	Header Header
	Units  []*Unit
}
