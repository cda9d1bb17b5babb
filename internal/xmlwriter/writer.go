// =============================================================================
// Dividend Feed - XML Writer Module
// =============================================================================
//
// This module writes the month-bucketed timeline as an XML document.
//
// XML STRUCTURE:
//   <timeline run="...">                     <!-- Root element -->
//     <month n="1" key="2024-03" label="marzo de 2024">
//       <dividend n="1">                      <!-- Global numbering -->
//         <ticker>SAN</ticker>
//         <empresa>Banco Santander</empresa>
//         <ex_date>2024-03-15</ex_date>
//         <pay_date/>                          <!-- Empty fields self-close -->
//         ...
//       </dividend>
//     </month>
//     <month n="2" key="Sin fecha" label="Sin fecha">
//       <dividend n="2">
//         ...
//       </dividend>
//     </month>
//   </timeline>
//
// Fields are written in canonical order. Values are written exactly as the
// feed carried them; importe_bruto in particular stays raw text.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/minaironcapital/dividendos/internal/timeline"
	"github.com/minaironcapital/dividendos/internal/types"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// RootAttributes are additional attributes for the root element,
	// written in key order.
	RootAttributes map[string]string

	// GlobalNumbering numbers dividends 1, 2, 3... across all months.
	// If false, numbering restarts at 1 in every month.
	// Default: true
	GlobalNumbering bool
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		RootAttributes:        make(map[string]string),
		GlobalNumbering:       true,
	}
}

// =============================================================================
// XML ELEMENT TYPES
// =============================================================================

// element is one node of the document tree.
type element struct {
	name       string
	attributes []xml.Attr
	value      string
	children   []element
}

func simpleElement(name, value string) element {
	return element{name: name, value: value}
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate writes the timeline with the default options.
func Generate(buckets []timeline.Bucket, runID string) ([]byte, error) {
	return GenerateWithOptions(buckets, runID, DefaultGenerateOptions())
}

// GenerateWithOptions writes the timeline as XML.
//
// PARAMETERS:
//   - buckets: The month buckets, in the order they are to appear.
//   - runID: The pipeline run id, written as the run attribute. May be empty.
//   - options: Formatting options.
//
// RETURNS:
//   - The XML document as a byte slice.
//   - An error if a root attribute name is not a valid XML name.
func GenerateWithOptions(buckets []timeline.Bucket, runID string, options GenerateOptions) ([]byte, error) {
	root, err := buildDocument(buckets, runID, options)
	if err != nil {
		return nil, err
	}

	var buffer bytes.Buffer
	if options.IncludeXMLDeclaration {
		buffer.WriteString(xml.Header)
	}
	writeElement(&buffer, root, options.Indent, 0)

	return buffer.Bytes(), nil
}

// buildDocument creates the element tree.
func buildDocument(buckets []timeline.Bucket, runID string, options GenerateOptions) (element, error) {
	root := element{name: "timeline"}

	if runID != "" {
		root.attributes = append(root.attributes, attr("run", runID))
	}

	keys := make([]string, 0, len(options.RootAttributes))
	for key := range options.RootAttributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !validName(key) {
			return element{}, fmt.Errorf("invalid root attribute name %q", key)
		}
		root.attributes = append(root.attributes, attr(key, options.RootAttributes[key]))
	}

	dividendIndex := 0
	for i, bucket := range buckets {
		month := element{
			name: "month",
			attributes: []xml.Attr{
				attr("n", strconv.Itoa(i+1)),
				attr("key", bucket.Key),
				attr("label", bucket.Label),
			},
		}

		if !options.GlobalNumbering {
			dividendIndex = 0
		}
		for _, record := range bucket.Entries {
			dividendIndex++
			month.children = append(month.children, buildDividendElement(record, dividendIndex))
		}

		root.children = append(root.children, month)
	}

	return root, nil
}

// buildDividendElement creates the element for a single record.
func buildDividendElement(record types.Record, index int) element {
	dividend := element{
		name:       "dividend",
		attributes: []xml.Attr{attr("n", strconv.Itoa(index))},
	}
	for _, field := range types.CanonicalFields {
		dividend.children = append(dividend.children, simpleElement(field, record.Field(field)))
	}
	return dividend
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// writeElement writes an element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, e element, indent string, level int) {
	buffer.WriteString(strings.Repeat(indent, level))

	buffer.WriteString("<")
	buffer.WriteString(e.name)
	for _, a := range e.attributes {
		fmt.Fprintf(buffer, " %s=\"%s\"", a.Name.Local, escapeXML(a.Value))
	}

	if len(e.children) == 0 && e.value == "" {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")

	if e.value != "" {
		buffer.WriteString(escapeXML(e.value))
	} else {
		buffer.WriteString("\n")
		for _, child := range e.children {
			writeElement(buffer, child, indent, level+1)
		}
		buffer.WriteString(strings.Repeat(indent, level))
	}

	buffer.WriteString("</")
	buffer.WriteString(e.name)
	buffer.WriteString(">\n")
}

// escapeXML escapes special characters for XML. Line feeds inside values
// are kept; other control characters are not valid XML 1.0 and are dropped.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch {
		case r == '&':
			buffer.WriteString("&amp;")
		case r == '<':
			buffer.WriteString("&lt;")
		case r == '>':
			buffer.WriteString("&gt;")
		case r == '"':
			buffer.WriteString("&quot;")
		case r == '\'':
			buffer.WriteString("&apos;")
		case r < 0x20 && r != '\n' && r != '\t':
			// dropped
		default:
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}

// validName reports whether s is a plausible XML attribute name.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == ':' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && (r == '-' || r == '.' || (r >= '0' && r <= '9')):
		default:
			return false
		}
	}
	return true
}

// =============================================================================
// XSD GENERATION
// =============================================================================

// GenerateXSD returns an XSD describing the documents Generate writes.
func GenerateXSD() []byte {
	var buffer bytes.Buffer

	buffer.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="timeline">
    <xs:complexType>
      <xs:sequence>
        <xs:element ref="month" minOccurs="0" maxOccurs="unbounded"/>
      </xs:sequence>
      <xs:attribute name="run" type="xs:string" use="optional"/>
      <xs:anyAttribute processContents="lax"/>
    </xs:complexType>
  </xs:element>

  <xs:element name="month">
    <xs:complexType>
      <xs:sequence>
        <xs:element ref="dividend" minOccurs="0" maxOccurs="unbounded"/>
      </xs:sequence>
      <xs:attribute name="n" type="xs:positiveInteger" use="required"/>
      <xs:attribute name="key" type="xs:string" use="required"/>
      <xs:attribute name="label" type="xs:string" use="required"/>
    </xs:complexType>
  </xs:element>

  <xs:element name="dividend">
    <xs:complexType>
      <xs:sequence>
`)

	for _, field := range types.CanonicalFields {
		fmt.Fprintf(&buffer, "        <xs:element name=%q type=\"xs:string\"/>\n", field)
	}

	buffer.WriteString(`      </xs:sequence>
      <xs:attribute name="n" type="xs:positiveInteger" use="required"/>
    </xs:complexType>
  </xs:element>
</xs:schema>
`)

	return buffer.Bytes()
}
