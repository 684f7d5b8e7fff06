// Package rdfns provides the standard RDF namespace IRIs and helpers
// for working with full IRIs in triple data: local-name extraction,
// namespace stripping, and XSD datatype recognition.
package rdfns

import "strings"

// Standard namespace prefixes.
const (
	RDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFS = "http://www.w3.org/2000/01/rdf-schema#"
	OWL  = "http://www.w3.org/2002/07/owl#"
	XSD  = "http://www.w3.org/2001/XMLSchema#"
	DC   = "http://purl.org/dc/terms/"
	SKOS = "http://www.w3.org/2004/02/skos/core#"
)

// Core term IRIs.
const (
	RDFType          = RDF + "type"
	RDFProperty      = RDF + "Property"
	RDFJSON          = RDF + "JSON"
	RDFSClass        = RDFS + "Class"
	RDFSSubClassOf   = RDFS + "subClassOf"
	RDFSLabel        = RDFS + "label"
	RDFSComment      = RDFS + "comment"
	RDFSDomain       = RDFS + "domain"
	RDFSRange        = RDFS + "range"
	RDFSSeeAlso      = RDFS + "seeAlso"
	RDFSLiteral      = RDFS + "Literal"
	OWLClass         = OWL + "Class"
	OWLObjectProp    = OWL + "ObjectProperty"
	OWLDatatypeProp  = OWL + "DatatypeProperty"
	SKOSDefinition   = SKOS + "definition"
	DCDescription    = DC + "description"
)

// XSD datatype IRIs used by the data-type registry.
const (
	XSDString   = XSD + "string"
	XSDBoolean  = XSD + "boolean"
	XSDInteger  = XSD + "integer"
	XSDInt      = XSD + "int"
	XSDLong     = XSD + "long"
	XSDFloat    = XSD + "float"
	XSDDouble   = XSD + "double"
	XSDDecimal  = XSD + "decimal"
	XSDDateTime = XSD + "dateTime"
	XSDDate     = XSD + "date"
	XSDAnyURI   = XSD + "anyURI"
)

// IsIRI reports whether a value looks like an absolute IRI.
func IsIRI(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "urn:")
}

// LocalName returns the fragment or last path segment of an IRI.
// Non-IRI input is returned unchanged.
func LocalName(iri string) string {
	if !IsIRI(iri) {
		return iri
	}
	if i := strings.LastIndex(iri, "#"); i >= 0 && i+1 < len(iri) {
		return iri[i+1:]
	}
	if i := strings.LastIndex(iri, "/"); i >= 0 && i+1 < len(iri) {
		return iri[i+1:]
	}
	return iri
}

// Namespace returns the IRI up to and including the final # or /
// separator. Non-IRI input yields an empty namespace.
func Namespace(iri string) string {
	if !IsIRI(iri) {
		return ""
	}
	if i := strings.LastIndex(iri, "#"); i >= 0 {
		return iri[:i+1]
	}
	if i := strings.LastIndex(iri, "/"); i >= 0 {
		return iri[:i+1]
	}
	return ""
}
