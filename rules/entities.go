// Package rules defines the conceptual (information) and physical (DMS)
// data-model sheets, their entity reference types, and the primitive
// data-type registry shared by both.
package rules

import (
	"fmt"
	"regexp"
)

// entityPattern matches the compact reference form
// "prefix:suffix(version=v)" with prefix and version optional.
var entityPattern = regexp.MustCompile(
	`^(?:([a-zA-Z][a-zA-Z0-9_-]*):)?([a-zA-Z0-9_-]+)(?:\(version=([a-zA-Z0-9_.-]+)\))?$`)

// viewPropertyPattern matches "space:view(version=v).property".
var viewPropertyPattern = regexp.MustCompile(
	`^(?:([a-zA-Z][a-zA-Z0-9_-]*):)?([a-zA-Z0-9_-]+)(?:\(version=([a-zA-Z0-9_.-]+)\))?\.([a-zA-Z0-9_-]+)$`)

// ClassEntity identifies a conceptual class. Version is optional for
// classes authored without one; equality is structural.
type ClassEntity struct {
	Prefix  string
	Suffix  string
	Version string
}

// ParseClassEntity parses the compact form, substituting defaultPrefix
// when the reference is unqualified.
func ParseClassEntity(s, defaultPrefix string) (ClassEntity, error) {
	m := entityPattern.FindStringSubmatch(s)
	if m == nil {
		return ClassEntity{}, fmt.Errorf("invalid class reference %q", s)
	}
	prefix := m[1]
	if prefix == "" {
		prefix = defaultPrefix
	}
	return ClassEntity{Prefix: prefix, Suffix: m[2], Version: m[3]}, nil
}

func (e ClassEntity) String() string {
	s := e.Suffix
	if e.Prefix != "" {
		s = e.Prefix + ":" + s
	}
	if e.Version != "" {
		s += "(version=" + e.Version + ")"
	}
	return s
}

// IsZero reports whether the reference is unset.
func (e ClassEntity) IsZero() bool { return e.Suffix == "" }

// ViewEntity identifies a physical view. Views are versioned
// references: a ViewEntity without a version is invalid.
type ViewEntity struct {
	Space      string
	ExternalID string
	Version    string
}

// ParseViewEntity parses the compact form, substituting defaultSpace
// and defaultVersion for unqualified references.
func ParseViewEntity(s, defaultSpace, defaultVersion string) (ViewEntity, error) {
	m := entityPattern.FindStringSubmatch(s)
	if m == nil {
		return ViewEntity{}, fmt.Errorf("invalid view reference %q", s)
	}
	space, version := m[1], m[3]
	if space == "" {
		space = defaultSpace
	}
	if version == "" {
		version = defaultVersion
	}
	if version == "" {
		return ViewEntity{}, fmt.Errorf("view reference %q requires a version", s)
	}
	return ViewEntity{Space: space, ExternalID: m[2], Version: version}, nil
}

func (e ViewEntity) String() string {
	s := e.ExternalID
	if e.Space != "" {
		s = e.Space + ":" + s
	}
	if e.Version != "" {
		s += "(version=" + e.Version + ")"
	}
	return s
}

// IsZero reports whether the reference is unset.
func (e ViewEntity) IsZero() bool { return e.ExternalID == "" }

// AsContainer returns the container reference in the same space.
func (e ViewEntity) AsContainer() ContainerEntity {
	return ContainerEntity{Space: e.Space, ExternalID: e.ExternalID}
}

// ContainerEntity identifies a physical container. Containers are
// unversioned references: a version in the parsed form is an error.
type ContainerEntity struct {
	Space      string
	ExternalID string
}

// ParseContainerEntity parses the compact form, substituting
// defaultSpace for unqualified references.
func ParseContainerEntity(s, defaultSpace string) (ContainerEntity, error) {
	m := entityPattern.FindStringSubmatch(s)
	if m == nil {
		return ContainerEntity{}, fmt.Errorf("invalid container reference %q", s)
	}
	if m[3] != "" {
		return ContainerEntity{}, fmt.Errorf("container reference %q must not carry a version", s)
	}
	space := m[1]
	if space == "" {
		space = defaultSpace
	}
	return ContainerEntity{Space: space, ExternalID: m[2]}, nil
}

func (e ContainerEntity) String() string {
	if e.Space == "" {
		return e.ExternalID
	}
	return e.Space + ":" + e.ExternalID
}

// IsZero reports whether the reference is unset.
func (e ContainerEntity) IsZero() bool { return e.ExternalID == "" }

// ViewPropertyEntity identifies one property on a view. Used as the
// value type of reverse-direct relations, which name the forward
// property they reverse.
type ViewPropertyEntity struct {
	View     ViewEntity
	Property string
}

// ParseViewPropertyEntity parses "space:view(version=v).property".
func ParseViewPropertyEntity(s, defaultSpace, defaultVersion string) (ViewPropertyEntity, error) {
	m := viewPropertyPattern.FindStringSubmatch(s)
	if m == nil {
		return ViewPropertyEntity{}, fmt.Errorf("invalid view property reference %q", s)
	}
	space, version := m[1], m[3]
	if space == "" {
		space = defaultSpace
	}
	if version == "" {
		version = defaultVersion
	}
	if version == "" {
		return ViewPropertyEntity{}, fmt.Errorf("view property reference %q requires a version", s)
	}
	return ViewPropertyEntity{
		View:     ViewEntity{Space: space, ExternalID: m[2], Version: version},
		Property: m[4],
	}, nil
}

func (e ViewPropertyEntity) String() string {
	return e.View.String() + "." + e.Property
}

// IsZero reports whether the reference is unset.
func (e ViewPropertyEntity) IsZero() bool { return e.View.IsZero() }
