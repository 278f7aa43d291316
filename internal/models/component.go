// Package models holds the typed in-memory model of discovered components.
//
// The analyzer fills it from annotations; the descriptor package renders it
// to XML. Nothing here knows about class files or XML.
package models

import (
	"github.com/chilicat/scrbuild/internal/diagnostics"
)

// Cardinality is the descriptor form of a reference cardinality
type Cardinality string

const (
	OptionalUnary     Cardinality = "0..1"
	MandatoryUnary    Cardinality = "1..1"
	OptionalMultiple  Cardinality = "0..n"
	MandatoryMultiple Cardinality = "1..n"
)

// IsMultiple reports whether the reference binds more than one service
func (c Cardinality) IsMultiple() bool {
	return c == OptionalMultiple || c == MandatoryMultiple
}

// ReferencePolicy is static or dynamic
type ReferencePolicy string

const (
	PolicyStatic  ReferencePolicy = "static"
	PolicyDynamic ReferencePolicy = "dynamic"
)

// PolicyOption is reluctant or greedy
type PolicyOption string

const (
	PolicyOptionReluctant PolicyOption = "reluctant"
	PolicyOptionGreedy    PolicyOption = "greedy"
)

// ConfigurationPolicy is optional, require or ignore
type ConfigurationPolicy string

const (
	ConfigurationOptional ConfigurationPolicy = "optional"
	ConfigurationRequire  ConfigurationPolicy = "require"
	ConfigurationIgnore   ConfigurationPolicy = "ignore"
)

// Strategy tells how a reference reaches the component
type Strategy string

const (
	// StrategyEvent binds through bind/unbind methods
	StrategyEvent Strategy = "event"
	// StrategyLookup leaves the lookup to the component; no accessors are used
	StrategyLookup Strategy = "lookup"
)

// Property is one component property
type Property struct {
	Name   string
	Type   string // String, Integer, Long, ...
	Values []string
	// Private properties are hidden from metatype only; they are still written
	Private bool
}

// IsMultiValue reports whether the property renders as a value block
func (p Property) IsMultiValue() bool {
	return len(p.Values) != 1
}

// Service lists the interfaces a component is registered under
type Service struct {
	Interfaces     []string
	ServiceFactory bool
}

// Reference is a dependency on another service
type Reference struct {
	Name         string
	Interface    string
	Cardinality  Cardinality
	Policy       ReferencePolicy
	PolicyOption PolicyOption
	Target       string
	Bind         string
	Unbind       string
	Updated      string
	Strategy     Strategy
	Location     diagnostics.Location
}

// IsLookup reports whether the reference uses the lookup strategy
func (r Reference) IsLookup() bool {
	return r.Strategy == StrategyLookup
}

// Component is a discovered service component
type Component struct {
	Name                string
	Class               string // Implementation class binary name
	Enabled             *bool
	Immediate           *bool
	Factory             string
	ConfigurationPolicy ConfigurationPolicy
	ConfigurationPID    []string
	Activate            string
	Deactivate          string
	Modified            string
	Properties          []Property
	Service             *Service
	References          []Reference
	// Abstract components only contribute to sub classes and produce no descriptor
	Abstract bool
	Location diagnostics.Location
}

// Property returns the property with the given name
func (c *Component) Property(name string) (Property, bool) {
	for _, p := range c.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Reference returns the reference with the given name
func (c *Component) Reference(name string) (Reference, bool) {
	for _, r := range c.References {
		if r.Name == name {
			return r, true
		}
	}
	return Reference{}, false
}
