// Package export serializes conceptual models as RDF ontologies.
package export

import (
	"fmt"
	"strings"

	"github.com/c360studio/semforge/rules"
	"github.com/c360studio/semforge/vocabulary/rdfns"
)

// OntologyExporter renders a conceptual model as an RDF ontology:
// classes become rdfs:Class resources, parents become rdfs:subClassOf
// assertions, and properties become rdf:Property resources with
// rdfs:domain and rdfs:range.
type OntologyExporter struct {
	info *rules.InformationRules
}

// NewOntologyExporter creates an exporter for one conceptual model.
func NewOntologyExporter(info *rules.InformationRules) *OntologyExporter {
	return &OntologyExporter{info: info}
}

// Export serializes the ontology to the specified format.
func (e *OntologyExporter) Export(format Format) (string, error) {
	switch format {
	case FormatTurtle:
		return e.toTurtle(), nil
	case FormatNTriples:
		return e.toNTriples(), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

type ontoStatement struct {
	predicate string
	object    any
}

type ontoResource struct {
	subject    string
	typeIRI    string
	statements []ontoStatement
}

// resources flattens the model into subject blocks, classes first and
// then properties, preserving sheet order.
func (e *OntologyExporter) resources() []ontoResource {
	var out []ontoResource

	for _, cls := range e.info.Classes {
		res := ontoResource{
			subject: e.classIRI(cls.Class),
			typeIRI: rdfns.RDFSClass,
		}
		res.statements = append(res.statements, ontoStatement{rdfns.RDFSLabel, cls.Class.Suffix})
		if cls.Description != "" {
			res.statements = append(res.statements, ontoStatement{rdfns.DCDescription, cls.Description})
		}
		for _, parent := range cls.Parents {
			res.statements = append(res.statements, ontoStatement{rdfns.RDFSSubClassOf, iri(e.classIRI(parent))})
		}
		if !cls.Reference.IsZero() {
			res.statements = append(res.statements, ontoStatement{rdfns.RDFSSeeAlso, iri(e.classIRI(cls.Reference))})
		}
		out = append(out, res)
	}

	for _, prop := range e.info.Properties {
		res := ontoResource{
			subject: e.propertyIRI(prop),
			typeIRI: rdfns.RDFProperty,
		}
		res.statements = append(res.statements,
			ontoStatement{rdfns.RDFSLabel, prop.Property},
			ontoStatement{rdfns.RDFSDomain, iri(e.classIRI(prop.Class))},
			ontoStatement{rdfns.RDFSRange, iri(e.rangeIRI(prop.ValueType))},
		)
		if prop.Description != "" {
			res.statements = append(res.statements, ontoStatement{rdfns.DCDescription, prop.Description})
		}
		out = append(out, res)
	}

	return out
}

func (e *OntologyExporter) toTurtle() string {
	prefixes := map[string]string{
		"rdf":  rdfns.RDF,
		"rdfs": rdfns.RDFS,
		"owl":  rdfns.OWL,
		"xsd":  rdfns.XSD,
		"dc":   rdfns.DC,
	}
	prefixes[e.info.Metadata.Prefix] = e.info.Metadata.Namespace
	w := NewTurtleWriter(prefixes)
	w.WritePrefixes()

	for _, res := range e.resources() {
		w.WriteSubject(res.subject)
		w.WriteType(res.typeIRI, len(res.statements) == 0)
		for i, st := range res.statements {
			w.WritePredicate(st.predicate, st.object, i == len(res.statements)-1)
		}
		w.WriteBlank()
	}

	return w.String()
}

func (e *OntologyExporter) toNTriples() string {
	w := NewNTriplesWriter()
	for _, res := range e.resources() {
		w.WriteTypeTriple(res.subject, res.typeIRI)
		for _, st := range res.statements {
			w.WriteTriple(res.subject, st.predicate, st.object)
		}
	}
	return w.String()
}

func (e *OntologyExporter) classIRI(cls rules.ClassEntity) string {
	if cls.Prefix != "" && cls.Prefix != e.info.Metadata.Prefix {
		return fmt.Sprintf("https://semforge.dev/ontology/%s/%s", cls.Prefix, cls.Suffix)
	}
	return e.info.ClassIRI(cls)
}

func (e *OntologyExporter) propertyIRI(prop rules.InformationProperty) string {
	base := strings.TrimSuffix(e.classIRI(prop.Class), "/")
	return base + "/" + prop.Property
}

// rangeIRI maps a value type to its RDF range: primitives map to XSD
// datatypes, class references map to the class IRI, and unparseable
// types fall back to rdfs:Literal.
func (e *OntologyExporter) rangeIRI(vt rules.InfoValueType) string {
	switch vt.Kind {
	case rules.KindClass:
		return e.classIRI(vt.Class)
	case rules.KindPrimitive:
		if dt, ok := xsdDatatypes[vt.Data]; ok {
			return dt
		}
	}
	return rdfns.RDFSLiteral
}

var xsdDatatypes = map[rules.DataType]string{
	rules.Text:       rdfns.XSDString,
	rules.Boolean:    rdfns.XSDBoolean,
	rules.Int32:      rdfns.XSDInt,
	rules.Int64:      rdfns.XSDLong,
	rules.Float32:    rdfns.XSDFloat,
	rules.Float64:    rdfns.XSDDouble,
	rules.Timestamp:  rdfns.XSDDateTime,
	rules.Date:       rdfns.XSDDate,
	rules.JSON:       rdfns.RDFJSON,
	rules.Timeseries: rdfns.XSDAnyURI,
	rules.File:       rdfns.XSDAnyURI,
	rules.Sequence:   rdfns.XSDAnyURI,
}
