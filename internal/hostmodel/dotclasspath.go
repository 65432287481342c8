package hostmodel

import (
	"bytes"
	"encoding/xml"
	"os"
	"strings"

	"github.com/launchcg/jsync/internal/classpath"
)

// Attribute names used on .classpath entries.
const (
	attrTest       = "test"
	attrOptional   = "optional"
	attrExecutions = "jsync.executions"
)

// xmlClasspath is the root of an Eclipse .classpath file.
type xmlClasspath struct {
	XMLName xml.Name   `xml:"classpath"`
	Entries []xmlEntry `xml:"classpathentry"`
}

// xmlEntry is one classpathentry element. Unknown attributes are preserved.
type xmlEntry struct {
	Excluding  string         `xml:"excluding,attr,omitempty"`
	Kind       string         `xml:"kind,attr"`
	Output     string         `xml:"output,attr,omitempty"`
	Path       string         `xml:"path,attr"`
	Other      []xml.Attr     `xml:",any,attr"`
	Attributes *xmlAttributes `xml:"attributes,omitempty"`
}

type xmlAttributes struct {
	Attributes []xmlAttribute `xml:"attribute"`
}

type xmlAttribute struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

func (e xmlEntry) attribute(name string) string {
	if e.Attributes == nil {
		return ""
	}
	for _, a := range e.Attributes.Attributes {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

// readDotClasspath reads a .classpath file. A missing file yields no entries.
func readDotClasspath(path string) ([]xmlEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return parseDotClasspath(data)
}

func parseDotClasspath(data []byte) ([]xmlEntry, error) {
	var cp xmlClasspath
	if err := xml.Unmarshal(data, &cp); err != nil {
		return nil, err
	}
	return cp.Entries, nil
}

// formatDotClasspath renders entries as a .classpath document.
func formatDotClasspath(entries []xmlEntry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "\t")
	if err := enc.Encode(xmlClasspath{Entries: entries}); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// toXMLEntry converts a classpath entry into its .classpath form.
func toXMLEntry(e classpath.Entry) xmlEntry {
	if e.Kind == classpath.KindContainer {
		return xmlEntry{Kind: "con", Path: e.Path}
	}

	x := xmlEntry{
		Kind:       "src",
		Path:       e.Path,
		Output:     e.Output,
		Attributes: &xmlAttributes{},
	}
	if e.Kind == classpath.KindResource {
		x.Excluding = "**"
	}

	attrs := []xmlAttribute{{Name: attrOptional, Value: "true"}}
	if e.Test {
		attrs = append(attrs, xmlAttribute{Name: attrTest, Value: "true"})
	}
	if len(e.Executions) > 0 {
		attrs = append(attrs, xmlAttribute{Name: attrExecutions, Value: strings.Join(e.Executions, ",")})
	}
	x.Attributes.Attributes = attrs
	return x
}

// fromXMLEntry converts a .classpath element back into a classpath entry.
// Returns false for kinds that are not source or container entries.
func fromXMLEntry(x xmlEntry) (classpath.Entry, bool) {
	switch x.Kind {
	case "con":
		return classpath.Entry{Kind: classpath.KindContainer, Path: x.Path}, true
	case "src":
		e := classpath.Entry{
			Kind:   classpath.KindSource,
			Path:   x.Path,
			Output: x.Output,
			Test:   x.attribute(attrTest) == "true",
		}
		if x.Excluding == "**" {
			e.Kind = classpath.KindResource
		}
		if execs := x.attribute(attrExecutions); execs != "" {
			e.Executions = strings.Split(execs, ",")
		}
		return e, true
	}
	return classpath.Entry{}, false
}
