package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAML sheet representations. Field names mirror the spreadsheet
// column aliases (Class, Property, Value Type, Min Count, Max Count,
// Container, ContainerProperty, View, ViewProperty, Index, Constraint)
// in their snake forms; they are a compatibility surface and must not
// change.

type informationDoc struct {
	Metadata   informationMetaRow       `yaml:"metadata"`
	Classes    []informationClassRow    `yaml:"classes"`
	Properties []informationPropertyRow `yaml:"properties"`
}

type informationMetaRow struct {
	Prefix       string `yaml:"prefix"`
	Namespace    string `yaml:"namespace"`
	Version      string `yaml:"version"`
	Completeness string `yaml:"completeness"`
	Extension    string `yaml:"extension,omitempty"`
	Name         string `yaml:"name,omitempty"`
	Creator      string `yaml:"creator,omitempty"`
}

type informationClassRow struct {
	Class       string   `yaml:"class"`
	Description string   `yaml:"description,omitempty"`
	Parents     []string `yaml:"parents,omitempty"`
	Reference   string   `yaml:"reference,omitempty"`
}

type informationPropertyRow struct {
	Class       string `yaml:"class"`
	Property    string `yaml:"property"`
	Description string `yaml:"description,omitempty"`
	ValueType   string `yaml:"value_type"`
	MinCount    int64  `yaml:"min_count"`
	MaxCount    any    `yaml:"max_count"`
	Default     any    `yaml:"default,omitempty"`
	Reference   string `yaml:"reference,omitempty"`
}

// LoadInformationRules reads a conceptual sheet from YAML.
func LoadInformationRules(path string) (*InformationRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read information rules: %w", err)
	}
	return ParseInformationRules(data)
}

// ParseInformationRules decodes a conceptual sheet from YAML bytes.
func ParseInformationRules(data []byte) (*InformationRules, error) {
	var doc informationDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse information rules: %w", err)
	}

	prefix := doc.Metadata.Prefix
	out := &InformationRules{
		Metadata: InformationMetadata{
			Prefix:       prefix,
			Namespace:    doc.Metadata.Namespace,
			Version:      doc.Metadata.Version,
			Completeness: SchemaCompleteness(doc.Metadata.Completeness),
			Extension:    ExtensionCategory(doc.Metadata.Extension),
			Name:         doc.Metadata.Name,
			Creator:      doc.Metadata.Creator,
		},
	}
	if out.Metadata.Completeness == "" {
		out.Metadata.Completeness = CompletenessPartial
	}

	for i, row := range doc.Classes {
		cls, err := ParseClassEntity(row.Class, prefix)
		if err != nil {
			return nil, fmt.Errorf("class row %d: %w", i+2, err)
		}
		entry := InformationClass{
			Class:       cls,
			Description: row.Description,
			Row:         i + 2,
		}
		for _, parent := range row.Parents {
			p, err := ParseClassEntity(parent, prefix)
			if err != nil {
				return nil, fmt.Errorf("class row %d parent: %w", i+2, err)
			}
			entry.Parents = append(entry.Parents, p)
		}
		if row.Reference != "" {
			ref, err := ParseClassEntity(row.Reference, prefix)
			if err != nil {
				return nil, fmt.Errorf("class row %d reference: %w", i+2, err)
			}
			entry.Reference = ref
		}
		out.Classes = append(out.Classes, entry)
	}

	for i, row := range doc.Properties {
		cls, err := ParseClassEntity(row.Class, prefix)
		if err != nil {
			return nil, fmt.Errorf("property row %d: %w", i+2, err)
		}
		vt, err := ParseInfoValueType(row.ValueType, prefix)
		if err != nil {
			return nil, fmt.Errorf("property row %d: %w", i+2, err)
		}
		maxCount, err := parseMaxCount(row.MaxCount)
		if err != nil {
			return nil, fmt.Errorf("property row %d: %w", i+2, err)
		}
		entry := InformationProperty{
			Class:       cls,
			Property:    row.Property,
			Description: row.Description,
			ValueType:   vt,
			MinCount:    row.MinCount,
			MaxCount:    maxCount,
			Default:     row.Default,
			Row:         i + 2,
		}
		if row.Reference != "" {
			refCls, refProp, err := parsePropertyReference(row.Reference, prefix)
			if err != nil {
				return nil, fmt.Errorf("property row %d reference: %w", i+2, err)
			}
			entry.Reference = PropertyReference{Class: refCls, Property: refProp}
		}
		out.Properties = append(out.Properties, entry)
	}

	return out, nil
}

// parseMaxCount accepts an integer or the "many" keyword.
func parseMaxCount(v any) (int64, error) {
	switch value := v.(type) {
	case nil:
		return 1, nil
	case int:
		return int64(value), nil
	case int64:
		return value, nil
	case string:
		if value == "many" || value == "inf" {
			return Unbounded, nil
		}
		return 0, fmt.Errorf("invalid max_count %q", value)
	default:
		return 0, fmt.Errorf("invalid max_count %v", v)
	}
}

// parsePropertyReference accepts "prefix:Class.property" or
// "prefix:Class" forms.
func parsePropertyReference(s, defaultPrefix string) (ClassEntity, string, error) {
	if vp, err := ParseViewPropertyEntity(s, defaultPrefix, "unversioned"); err == nil {
		cls := ClassEntity{Prefix: vp.View.Space, Suffix: vp.View.ExternalID}
		if vp.View.Version != "unversioned" {
			cls.Version = vp.View.Version
		}
		return cls, vp.Property, nil
	}
	cls, err := ParseClassEntity(s, defaultPrefix)
	return cls, "", err
}

// MarshalInformationRules renders a conceptual model back to sheet
// YAML.
func MarshalInformationRules(r *InformationRules) ([]byte, error) {
	var doc informationDoc
	doc.Metadata.Prefix = r.Metadata.Prefix
	doc.Metadata.Namespace = r.Metadata.Namespace
	doc.Metadata.Version = r.Metadata.Version
	doc.Metadata.Completeness = string(r.Metadata.Completeness)
	doc.Metadata.Extension = string(r.Metadata.Extension)
	doc.Metadata.Name = r.Metadata.Name
	doc.Metadata.Creator = r.Metadata.Creator

	for _, cls := range r.Classes {
		row := informationClassRow{
			Class:       cls.Class.String(),
			Description: cls.Description,
		}
		for _, p := range cls.Parents {
			row.Parents = append(row.Parents, p.String())
		}
		if !cls.Reference.IsZero() {
			row.Reference = cls.Reference.String()
		}
		doc.Classes = append(doc.Classes, row)
	}

	for _, prop := range r.Properties {
		row := informationPropertyRow{
			Class:       prop.Class.String(),
			Property:    prop.Property,
			Description: prop.Description,
			ValueType:   prop.ValueType.String(),
			MinCount:    prop.MinCount,
			Default:     prop.Default,
		}
		if prop.MaxCount == Unbounded {
			row.MaxCount = "many"
		} else {
			row.MaxCount = prop.MaxCount
		}
		if !prop.Reference.Class.IsZero() {
			row.Reference = prop.Reference.Class.String()
			if prop.Reference.Property != "" {
				row.Reference += "." + prop.Reference.Property
			}
		}
		doc.Properties = append(doc.Properties, row)
	}

	return yaml.Marshal(doc)
}

// SaveInformationRules writes a conceptual model as sheet YAML.
func SaveInformationRules(r *InformationRules, path string) error {
	data, err := MarshalInformationRules(r)
	if err != nil {
		return fmt.Errorf("marshal information rules: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

type dmsDoc struct {
	Metadata   dmsMetaRow        `yaml:"metadata"`
	Properties []dmsPropertyRow  `yaml:"properties"`
	Views      []dmsViewRow      `yaml:"views"`
	Containers []dmsContainerRow `yaml:"containers"`
}

type dmsMetaRow struct {
	Space        string `yaml:"space"`
	ExternalID   string `yaml:"external_id"`
	Version      string `yaml:"version"`
	Completeness string `yaml:"completeness"`
	Extension    string `yaml:"extension,omitempty"`
	Name         string `yaml:"name,omitempty"`
	Creator      string `yaml:"creator,omitempty"`
}

type dmsPropertyRow struct {
	Class             string   `yaml:"class,omitempty"`
	Property          string   `yaml:"property,omitempty"`
	Relation          string   `yaml:"relation,omitempty"`
	ValueType         string   `yaml:"value_type"`
	Nullable          *bool    `yaml:"nullable,omitempty"`
	IsList            bool     `yaml:"is_list,omitempty"`
	Default           any      `yaml:"default,omitempty"`
	Container         string   `yaml:"container,omitempty"`
	ContainerProperty string   `yaml:"container_property,omitempty"`
	View              string   `yaml:"view"`
	ViewProperty      string   `yaml:"view_property"`
	Index             []string `yaml:"index,omitempty"`
	Constraint        []string `yaml:"constraint,omitempty"`
	MaxListSize       int      `yaml:"max_list_size,omitempty"`
	Reference         string   `yaml:"reference,omitempty"`
}

type dmsViewRow struct {
	Class      string   `yaml:"class,omitempty"`
	View       string   `yaml:"view"`
	Implements []string `yaml:"implements,omitempty"`
	Filter     string   `yaml:"filter,omitempty"`
	InModel    *bool    `yaml:"in_model,omitempty"`
	UsedFor    string   `yaml:"used_for,omitempty"`
}

type dmsContainerRow struct {
	Class      string   `yaml:"class,omitempty"`
	Container  string   `yaml:"container"`
	Constraint []string `yaml:"constraint,omitempty"`
	UsedFor    string   `yaml:"used_for,omitempty"`
}

// LoadDMSRules reads a physical sheet from YAML.
func LoadDMSRules(path string) (*DMSRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dms rules: %w", err)
	}
	return ParseDMSRules(data)
}

// ParseDMSRules decodes a physical sheet from YAML bytes.
func ParseDMSRules(data []byte) (*DMSRules, error) {
	var doc dmsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse dms rules: %w", err)
	}

	space := doc.Metadata.Space
	version := doc.Metadata.Version
	out := &DMSRules{
		Metadata: DMSMetadata{
			Space:        space,
			ExternalID:   doc.Metadata.ExternalID,
			Version:      version,
			Completeness: SchemaCompleteness(doc.Metadata.Completeness),
			Extension:    ExtensionCategory(doc.Metadata.Extension),
			Name:         doc.Metadata.Name,
			Creator:      doc.Metadata.Creator,
		},
	}
	if out.Metadata.Completeness == "" {
		out.Metadata.Completeness = CompletenessPartial
	}

	for i, row := range doc.Views {
		view, err := ParseViewEntity(row.View, space, version)
		if err != nil {
			return nil, fmt.Errorf("view row %d: %w", i+2, err)
		}
		entry := DMSView{
			View:    view,
			Filter:  FilterKind(row.Filter),
			UsedFor: ViewUsage(row.UsedFor),
			InModel: row.InModel != nil && *row.InModel,
			Row:     i + 2,
		}
		if row.Class != "" {
			cls, err := ParseClassEntity(row.Class, space)
			if err != nil {
				return nil, fmt.Errorf("view row %d class: %w", i+2, err)
			}
			entry.Class = cls
		} else {
			entry.Class = ClassEntity{Prefix: view.Space, Suffix: view.ExternalID, Version: view.Version}
		}
		for _, impl := range row.Implements {
			parent, err := ParseViewEntity(impl, space, version)
			if err != nil {
				return nil, fmt.Errorf("view row %d implements: %w", i+2, err)
			}
			entry.Implements = append(entry.Implements, parent)
		}
		out.Views = append(out.Views, entry)
	}

	for i, row := range doc.Containers {
		container, err := ParseContainerEntity(row.Container, space)
		if err != nil {
			return nil, fmt.Errorf("container row %d: %w", i+2, err)
		}
		entry := DMSContainer{
			Container: container,
			UsedFor:   ViewUsage(row.UsedFor),
			Row:       i + 2,
		}
		if row.Class != "" {
			cls, err := ParseClassEntity(row.Class, space)
			if err != nil {
				return nil, fmt.Errorf("container row %d class: %w", i+2, err)
			}
			entry.Class = cls
		} else {
			entry.Class = ClassEntity{Prefix: container.Space, Suffix: container.ExternalID}
		}
		for _, target := range row.Constraint {
			c, err := ParseContainerEntity(target, space)
			if err != nil {
				return nil, fmt.Errorf("container row %d constraint: %w", i+2, err)
			}
			entry.Constraints = append(entry.Constraints, c)
		}
		out.Containers = append(out.Containers, entry)
	}

	for i, row := range doc.Properties {
		view, err := ParseViewEntity(row.View, space, version)
		if err != nil {
			return nil, fmt.Errorf("property row %d: %w", i+2, err)
		}
		relation := RelationKind(row.Relation)
		vt, err := ParseDMSValueType(row.ValueType, relation, space, version)
		if err != nil {
			return nil, fmt.Errorf("property row %d: %w", i+2, err)
		}
		entry := DMSProperty{
			Property:          row.Property,
			Relation:          relation,
			ValueType:         vt,
			Nullable:          row.Nullable,
			IsList:            row.IsList,
			Default:           row.Default,
			ContainerProperty: row.ContainerProperty,
			View:              view,
			ViewProperty:      row.ViewProperty,
			Index:             row.Index,
			Constraint:        row.Constraint,
			MaxListSize:       row.MaxListSize,
			Row:               i + 2,
		}
		if entry.Property == "" {
			entry.Property = row.ViewProperty
		}
		if row.Class != "" {
			cls, err := ParseClassEntity(row.Class, space)
			if err != nil {
				return nil, fmt.Errorf("property row %d class: %w", i+2, err)
			}
			entry.Class = cls
		} else {
			entry.Class = ClassEntity{Prefix: view.Space, Suffix: view.ExternalID, Version: view.Version}
		}
		if row.Container != "" {
			container, err := ParseContainerEntity(row.Container, space)
			if err != nil {
				return nil, fmt.Errorf("property row %d container: %w", i+2, err)
			}
			entry.Container = container
			if entry.ContainerProperty == "" {
				entry.ContainerProperty = entry.ViewProperty
			}
		}
		if row.Reference != "" {
			ref, err := ParseViewPropertyEntity(row.Reference, space, version)
			if err != nil {
				return nil, fmt.Errorf("property row %d reference: %w", i+2, err)
			}
			entry.Reference = ref
		}
		out.Properties = append(out.Properties, entry)
	}

	return out, nil
}

// MarshalDMSRules renders a physical model back to sheet YAML.
func MarshalDMSRules(r *DMSRules) ([]byte, error) {
	var doc dmsDoc
	doc.Metadata = dmsMetaRow{
		Space:        r.Metadata.Space,
		ExternalID:   r.Metadata.ExternalID,
		Version:      r.Metadata.Version,
		Completeness: string(r.Metadata.Completeness),
		Extension:    string(r.Metadata.Extension),
		Name:         r.Metadata.Name,
		Creator:      r.Metadata.Creator,
	}

	for _, v := range r.Views {
		row := dmsViewRow{
			Class:   v.Class.String(),
			View:    v.View.String(),
			Filter:  string(v.Filter),
			UsedFor: string(v.UsedFor),
		}
		if v.InModel {
			inModel := true
			row.InModel = &inModel
		}
		for _, impl := range v.Implements {
			row.Implements = append(row.Implements, impl.String())
		}
		doc.Views = append(doc.Views, row)
	}

	for _, c := range r.Containers {
		row := dmsContainerRow{
			Class:     c.Class.String(),
			Container: c.Container.String(),
			UsedFor:   string(c.UsedFor),
		}
		for _, target := range c.Constraints {
			row.Constraint = append(row.Constraint, target.String())
		}
		doc.Containers = append(doc.Containers, row)
	}

	for _, p := range r.Properties {
		row := dmsPropertyRow{
			Class:             p.Class.String(),
			Property:          p.Property,
			Relation:          string(p.Relation),
			ValueType:         p.ValueType.String(),
			Nullable:          p.Nullable,
			IsList:            p.IsList,
			Default:           p.Default,
			ContainerProperty: p.ContainerProperty,
			View:              p.View.String(),
			ViewProperty:      p.ViewProperty,
			Index:             p.Index,
			Constraint:        p.Constraint,
			MaxListSize:       p.MaxListSize,
		}
		if !p.Container.IsZero() {
			row.Container = p.Container.String()
		}
		if !p.Reference.IsZero() {
			row.Reference = p.Reference.String()
		}
		doc.Properties = append(doc.Properties, row)
	}

	return yaml.Marshal(doc)
}

// SaveDMSRules writes a physical model as sheet YAML.
func SaveDMSRules(r *DMSRules, path string) error {
	data, err := MarshalDMSRules(r)
	if err != nil {
		return fmt.Errorf("marshal dms rules: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
