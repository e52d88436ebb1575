// Package ucp answers Unicode character-property questions for the compiler
// and both matchers: the category of a code point, its other case, script
// membership, and the \p{...} property-name table.
//
// Property data comes from the standard library's unicode tables; this
// package only adds the numbering that the bytecode stores in its operands.
package ucp

import (
	"sort"
	"unicode"
)

// Type selects how a property operand's value is interpreted.
type Type uint8

const (
	// Any matches every character (\p{Any}).
	Any Type = iota
	// LAmp matches cased letters: Lu, Ll or Lt (\p{L&}).
	LAmp
	// General matches a one-letter general category (\p{L}).
	General
	// Particular matches a two-letter category (\p{Lu}).
	Particular
	// Script matches a script name (\p{Greek}).
	Script
)

// Category is a two-letter Unicode general category.
type Category uint8

// Particular categories, in the order used by operand values.
const (
	Cc Category = iota
	Cf
	Cn
	Co
	Cs
	Ll
	Lm
	Lo
	Lt
	Lu
	Mc
	Me
	Mn
	Nd
	Nl
	No
	Pc
	Pd
	Pe
	Pf
	Pi
	Po
	Ps
	Sc
	Sk
	Sm
	So
	Zl
	Zp
	Zs
	numCategories
)

// Group is a one-letter general category.
type Group uint8

// General categories.
const (
	GroupC Group = iota
	GroupL
	GroupM
	GroupN
	GroupP
	GroupS
	GroupZ
	numGroups
)

var categoryNames = [numCategories]string{
	"Cc", "Cf", "Cn", "Co", "Cs", "Ll", "Lm", "Lo", "Lt", "Lu",
	"Mc", "Me", "Mn", "Nd", "Nl", "No", "Pc", "Pd", "Pe", "Pf",
	"Pi", "Po", "Ps", "Sc", "Sk", "Sm", "So", "Zl", "Zp", "Zs",
}

// Cn has no table; it is whatever no other category claims.
var categoryTables = [numCategories]*unicode.RangeTable{
	unicode.Cc, unicode.Cf, nil, unicode.Co, unicode.Cs,
	unicode.Ll, unicode.Lm, unicode.Lo, unicode.Lt, unicode.Lu,
	unicode.Mc, unicode.Me, unicode.Mn,
	unicode.Nd, unicode.Nl, unicode.No,
	unicode.Pc, unicode.Pd, unicode.Pe, unicode.Pf, unicode.Pi, unicode.Po, unicode.Ps,
	unicode.Sc, unicode.Sk, unicode.Sm, unicode.So,
	unicode.Zl, unicode.Zp, unicode.Zs,
}

var groupNames = [numGroups]string{"C", "L", "M", "N", "P", "S", "Z"}

// String returns the two-letter category name.
func (c Category) String() string {
	if c < numCategories {
		return categoryNames[c]
	}
	return "??"
}

// Group returns the one-letter category containing c.
func (c Category) Group() Group {
	switch categoryNames[c][0] {
	case 'L':
		return GroupL
	case 'M':
		return GroupM
	case 'N':
		return GroupN
	case 'P':
		return GroupP
	case 'S':
		return GroupS
	case 'Z':
		return GroupZ
	}
	return GroupC
}

var latin1 [256]Category

var (
	scriptNames  []string
	scriptTables []*unicode.RangeTable
)

// Property is one entry of the \p{...} name table.
type Property struct {
	Name  string
	Type  Type
	Value uint8
}

var properties []Property

func init() {
	for r := 0; r < 256; r++ {
		latin1[r] = lookupSlow(rune(r))
	}

	for name := range unicode.Scripts {
		scriptNames = append(scriptNames, name)
	}
	sort.Strings(scriptNames)
	scriptTables = make([]*unicode.RangeTable, len(scriptNames))
	for i, name := range scriptNames {
		scriptTables[i] = unicode.Scripts[name]
	}

	properties = append(properties, Property{Name: "Any", Type: Any}, Property{Name: "L&", Type: LAmp})
	for i, name := range groupNames {
		properties = append(properties, Property{Name: name, Type: General, Value: uint8(i)})
	}
	for i, name := range categoryNames {
		properties = append(properties, Property{Name: name, Type: Particular, Value: uint8(i)})
	}
	for i, name := range scriptNames {
		if i > 255 {
			break
		}
		properties = append(properties, Property{Name: name, Type: Script, Value: uint8(i)})
	}
	sort.Slice(properties, func(i, j int) bool { return properties[i].Name < properties[j].Name })
}

func lookupSlow(r rune) Category {
	for c, tab := range categoryTables {
		if tab != nil && unicode.Is(tab, r) {
			return Category(c)
		}
	}
	return Cn
}

// CategoryOf returns the particular category of r.
func CategoryOf(r rune) Category {
	if r >= 0 && r < 256 {
		return latin1[r]
	}
	return lookupSlow(r)
}

// OtherCase returns the single-character other case of r, or r itself when
// it has none.
func OtherCase(r rune) rune {
	switch {
	case unicode.IsUpper(r):
		if l := unicode.ToLower(r); l != r {
			return l
		}
	case unicode.IsLower(r):
		if u := unicode.ToUpper(r); u != r {
			return u
		}
	case unicode.IsTitle(r):
		return unicode.ToLower(r)
	}
	return r
}

// IsMark reports whether r is a combining mark (category M).
func IsMark(r rune) bool {
	return CategoryOf(r).Group() == GroupM
}

// Has reports whether r has the property encoded by (t, value).
func Has(r rune, t Type, value uint8) bool {
	switch t {
	case Any:
		return true
	case LAmp:
		c := CategoryOf(r)
		return c == Lu || c == Ll || c == Lt
	case General:
		return CategoryOf(r).Group() == Group(value)
	case Particular:
		return CategoryOf(r) == Category(value)
	case Script:
		if int(value) < len(scriptTables) {
			return unicode.Is(scriptTables[value], r)
		}
	}
	return false
}

// Find looks name up in the property table by binary search.
func Find(name string) (Property, bool) {
	i := sort.Search(len(properties), func(i int) bool { return properties[i].Name >= name })
	if i < len(properties) && properties[i].Name == name {
		return properties[i], true
	}
	return Property{}, false
}

// Name returns the table name for an encoded property, for diagnostics.
func Name(t Type, value uint8) string {
	switch t {
	case Any:
		return "Any"
	case LAmp:
		return "L&"
	case General:
		if int(value) < len(groupNames) {
			return groupNames[value]
		}
	case Particular:
		if Category(value) < numCategories {
			return categoryNames[value]
		}
	case Script:
		if int(value) < len(scriptNames) {
			return scriptNames[value]
		}
	}
	return "??"
}
