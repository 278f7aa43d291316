// Package descriptor renders components as SCR component descriptor XML.
package descriptor

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/chilicat/scrbuild/internal/models"
	"github.com/chilicat/scrbuild/internal/settings"
)

// Dir is the bundle directory holding component descriptors
const Dir = "OSGI-INF"

// Glob is the Service-Component header value covering every descriptor
const Glob = Dir + "/*.xml"

var namespaces = map[string]string{
	settings.Spec10:      "http://www.osgi.org/xmlns/scr/v1.0.0",
	settings.Spec11:      "http://www.osgi.org/xmlns/scr/v1.1.0",
	settings.Spec11Felix: "http://felix.apache.org/xmlns/scr/v1.1.0-felix",
	settings.Spec12:      "http://www.osgi.org/xmlns/scr/v1.2.0",
	settings.Spec13:      "http://www.osgi.org/xmlns/scr/v1.3.0",
}

// Namespace returns the scr namespace URI of a spec version
func Namespace(specVersion string) (string, error) {
	ns, ok := namespaces[specVersion]
	if !ok {
		return "", fmt.Errorf("no descriptor namespace for spec version %q", specVersion)
	}
	return ns, nil
}

// Path returns the bundle path of a component's descriptor
func Path(c *models.Component) string {
	return Dir + "/" + c.Name + ".xml"
}

type xmlComponents struct {
	XMLName   xml.Name       `xml:"components"`
	Namespace string         `xml:"xmlns:scr,attr"`
	Component []xmlComponent `xml:"scr:component"`
}

type xmlComponent struct {
	Name                string            `xml:"name,attr"`
	Enabled             *bool             `xml:"enabled,attr,omitempty"`
	Immediate           *bool             `xml:"immediate,attr,omitempty"`
	Factory             string            `xml:"factory,attr,omitempty"`
	ConfigurationPolicy string            `xml:"configuration-policy,attr,omitempty"`
	Activate            string            `xml:"activate,attr,omitempty"`
	Deactivate          string            `xml:"deactivate,attr,omitempty"`
	Modified            string            `xml:"modified,attr,omitempty"`
	ConfigurationPID    string            `xml:"configuration-pid,attr,omitempty"`
	Implementation      xmlImplementation `xml:"implementation"`
	Properties          []xmlProperty     `xml:"property"`
	Service             *xmlService       `xml:"service,omitempty"`
	References          []xmlReference    `xml:"reference"`
}

type xmlImplementation struct {
	Class string `xml:"class,attr"`
}

type xmlProperty struct {
	Name  string  `xml:"name,attr"`
	Type  string  `xml:"type,attr,omitempty"`
	Value *string `xml:"value,attr,omitempty"`
	Body  string  `xml:",innerxml"`
}

type xmlService struct {
	ServiceFactory bool         `xml:"servicefactory,attr,omitempty"`
	Provide        []xmlProvide `xml:"provide"`
}

type xmlProvide struct {
	Interface string `xml:"interface,attr"`
}

type xmlReference struct {
	Name         string `xml:"name,attr"`
	Interface    string `xml:"interface,attr"`
	Cardinality  string `xml:"cardinality,attr,omitempty"`
	Policy       string `xml:"policy,attr,omitempty"`
	PolicyOption string `xml:"policy-option,attr,omitempty"`
	Target       string `xml:"target,attr,omitempty"`
	Bind         string `xml:"bind,attr,omitempty"`
	Unbind       string `xml:"unbind,attr,omitempty"`
	Updated      string `xml:"updated,attr,omitempty"`
}

// Generate renders one component as a standalone descriptor document.
// The output depends only on the component and the spec version.
func Generate(c *models.Component, specVersion string) ([]byte, error) {
	ns, err := Namespace(specVersion)
	if err != nil {
		return nil, err
	}

	doc := xmlComponents{
		Namespace: ns,
		Component: []xmlComponent{toXML(c)},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode component %s: %w", c.Name, err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func toXML(c *models.Component) xmlComponent {
	out := xmlComponent{
		Name:                c.Name,
		Enabled:             c.Enabled,
		Immediate:           c.Immediate,
		Factory:             c.Factory,
		ConfigurationPolicy: string(c.ConfigurationPolicy),
		Activate:            c.Activate,
		Deactivate:          c.Deactivate,
		Modified:            c.Modified,
		ConfigurationPID:    strings.Join(c.ConfigurationPID, " "),
		Implementation:      xmlImplementation{Class: c.Class},
	}

	for _, p := range c.Properties {
		out.Properties = append(out.Properties, propertyToXML(p))
	}

	if c.Service != nil {
		svc := &xmlService{ServiceFactory: c.Service.ServiceFactory}
		for _, iface := range c.Service.Interfaces {
			svc.Provide = append(svc.Provide, xmlProvide{Interface: iface})
		}
		out.Service = svc
	}

	for _, r := range c.References {
		ref := xmlReference{
			Name:         r.Name,
			Interface:    r.Interface,
			Cardinality:  string(r.Cardinality),
			Policy:       string(r.Policy),
			PolicyOption: string(r.PolicyOption),
			Target:       r.Target,
			Updated:      r.Updated,
		}
		if !r.IsLookup() {
			ref.Bind = r.Bind
			ref.Unbind = r.Unbind
		}
		out.References = append(out.References, ref)
	}

	return out
}

// propertyToXML writes single values as an attribute and multiple values
// as one value per line in the element body
func propertyToXML(p models.Property) xmlProperty {
	out := xmlProperty{Name: p.Name, Type: p.Type}
	if !p.IsMultiValue() {
		value := p.Values[0]
		out.Value = &value
		return out
	}

	var body bytes.Buffer
	for i, v := range p.Values {
		if i > 0 {
			body.WriteByte('\n')
		}
		_ = xml.EscapeText(&body, []byte(v))
	}
	out.Body = body.String()
	return out
}
