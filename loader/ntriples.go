package loader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"sort"
	"strings"

	"github.com/c360studio/semforge/vocabulary/rdfns"
)

// FileReader is an in-memory TripleReader over N-Triples data. Triples
// are grouped by subject, property values keyed by the predicate's
// local name, and subjects indexed under each declared rdf:type.
type FileReader struct {
	order    []string
	subjects map[string]*RawInstance
	types    map[string][]string
	objects  []string
}

// NewFileReader parses an N-Triples file into a FileReader.
func NewFileReader(path string) (*FileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open triples file: %w", err)
	}
	defer f.Close()

	fr, err := ReadNTriples(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fr, nil
}

// ReadNTriples parses N-Triples lines from r. Comments and blank lines
// are skipped; blank nodes are rejected.
func ReadNTriples(r io.Reader) (*FileReader, error) {
	fr := &FileReader{
		subjects: make(map[string]*RawInstance),
		types:    make(map[string][]string),
	}
	typed := make(map[string]bool)
	objectSeen := make(map[string]bool)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		subj, pred, obj, objIsIRI, err := parseNTriple(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		inst := fr.subjects[subj]
		if inst == nil {
			inst = &RawInstance{Subject: subj, Properties: make(map[string][]any)}
			fr.subjects[subj] = inst
			fr.order = append(fr.order, subj)
		}
		key := rdfns.LocalName(pred)
		inst.Properties[key] = append(inst.Properties[key], obj)

		if pred == rdfns.RDFType {
			if k := obj + "\x00" + subj; !typed[k] {
				typed[k] = true
				fr.types[obj] = append(fr.types[obj], subj)
			}
		}
		if objIsIRI && !objectSeen[obj] {
			objectSeen[obj] = true
			fr.objects = append(fr.objects, obj)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read triples: %w", err)
	}

	sort.Strings(fr.objects)
	return fr, nil
}

// CountByType returns the number of subjects declaring the RDF type.
func (f *FileReader) CountByType(_ context.Context, rdfType string) (int, error) {
	return len(f.types[rdfType]), nil
}

// ReadByType yields the subjects declaring the RDF type in file order.
func (f *FileReader) ReadByType(_ context.Context, rdfType string) iter.Seq2[RawInstance, error] {
	subjects := f.types[rdfType]
	return func(yield func(RawInstance, error) bool) {
		for _, s := range subjects {
			if !yield(*f.subjects[s], nil) {
				return
			}
		}
	}
}

// ListObjectURIs yields every distinct object IRI, sorted.
func (f *FileReader) ListObjectURIs(_ context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, o := range f.objects {
			if !yield(o, nil) {
				return
			}
		}
	}
}

// parseNTriple splits one N-Triples statement. The object is returned
// as its IRI or unescaped lexical form; datatype and language tags are
// dropped since the projector coerces from lexical forms.
func parseNTriple(line string) (subj, pred, obj string, objIsIRI bool, err error) {
	subj, rest, err := parseIRIRef(line)
	if err != nil {
		return "", "", "", false, fmt.Errorf("subject: %w", err)
	}
	pred, rest, err = parseIRIRef(rest)
	if err != nil {
		return "", "", "", false, fmt.Errorf("predicate: %w", err)
	}

	switch {
	case strings.HasPrefix(rest, "<"):
		obj, rest, err = parseIRIRef(rest)
		if err != nil {
			return "", "", "", false, fmt.Errorf("object: %w", err)
		}
		objIsIRI = true
	case strings.HasPrefix(rest, `"`):
		obj, rest, err = parseLiteral(rest)
		if err != nil {
			return "", "", "", false, fmt.Errorf("object: %w", err)
		}
	case strings.HasPrefix(rest, "_:"):
		return "", "", "", false, fmt.Errorf("blank nodes are not supported")
	default:
		return "", "", "", false, fmt.Errorf("unrecognized object term")
	}

	if strings.TrimSpace(rest) != "." {
		return "", "", "", false, fmt.Errorf("statement does not end with '.'")
	}
	return subj, pred, obj, objIsIRI, nil
}

func parseIRIRef(s string) (iri, rest string, err error) {
	s = strings.TrimLeft(s, " \t")
	if !strings.HasPrefix(s, "<") {
		return "", "", fmt.Errorf("expected IRI reference")
	}
	end := strings.IndexByte(s, '>')
	if end < 0 {
		return "", "", fmt.Errorf("unterminated IRI reference")
	}
	return s[1:end], s[end+1:], nil
}

func parseLiteral(s string) (value, rest string, err error) {
	var sb strings.Builder
	i := 1
	for i < len(s) {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte(s[i+1])
			}
			i += 2
			continue
		}
		if c == '"' {
			rest = s[i+1:]
			switch {
			case strings.HasPrefix(rest, "^^"):
				if _, rest, err = parseIRIRef(rest[2:]); err != nil {
					return "", "", fmt.Errorf("datatype: %w", err)
				}
			case strings.HasPrefix(rest, "@"):
				if sp := strings.IndexAny(rest, " \t"); sp >= 0 {
					rest = rest[sp:]
				} else {
					rest = ""
				}
			}
			return sb.String(), rest, nil
		}
		sb.WriteByte(c)
		i++
	}
	return "", "", fmt.Errorf("unterminated literal")
}
