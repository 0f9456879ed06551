// Package citygml extracts the first building of a CityGML document: its
// identity, its vendor-extension attributes and the spatial ID cells covered by
// its boundary rings.
package citygml

import "strings"

// TagClass is the role a start tag plays in the scan.
type TagClass int

// Tag classes.
const (
	ClassOther TagClass = iota
	ClassBuilding
	ClassExtension
	ClassGeometry
)

func (c TagClass) String() string {
	switch c {
	case ClassBuilding:
		return "building"
	case ClassExtension:
		return "extension"
	case ClassGeometry:
		return "geometry"
	default:
		return "other"
	}
}

// Vocabulary names the prefixed tags and attributes the scanner reacts to.
// Names are matched as written in the document, prefix included.
type Vocabulary struct {
	BuildingTag     string `yaml:"building_tag" mapstructure:"building_tag"`
	IDAttr          string `yaml:"id_attr" mapstructure:"id_attr"`
	ExtensionPrefix string `yaml:"extension_prefix" mapstructure:"extension_prefix"`
	GeometryTag     string `yaml:"geometry_tag" mapstructure:"geometry_tag"`
	CodeSpaceAttr   string `yaml:"codespace_attr" mapstructure:"codespace_attr"`
}

// DefaultVocabulary returns the PLATEAU CityGML 2.0 names.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		BuildingTag:     "bldg:Building",
		IDAttr:          "gml:id",
		ExtensionPrefix: "uro:",
		GeometryTag:     "gml:posList",
		CodeSpaceAttr:   "codeSpace",
	}
}

// Classify returns the class of a prefixed tag name.
func (v Vocabulary) Classify(tag string) TagClass {
	switch {
	case tag == v.BuildingTag:
		return ClassBuilding
	case tag == v.GeometryTag:
		return ClassGeometry
	case v.ExtensionPrefix != "" && strings.HasPrefix(tag, v.ExtensionPrefix):
		return ClassExtension
	default:
		return ClassOther
	}
}
