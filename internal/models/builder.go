package models

import "github.com/chilicat/scrbuild/internal/diagnostics"

// ComponentBuilder provides a fluent interface for assembling a Component
type ComponentBuilder struct {
	component Component
}

// NewComponentBuilder creates a builder for a component implemented by class
func NewComponentBuilder(name, class string) *ComponentBuilder {
	return &ComponentBuilder{component: Component{Name: name, Class: class}}
}

// WithLocation sets where the component is declared
func (b *ComponentBuilder) WithLocation(loc diagnostics.Location) *ComponentBuilder {
	b.component.Location = loc
	return b
}

// WithEnabled sets the enabled attribute explicitly
func (b *ComponentBuilder) WithEnabled(enabled bool) *ComponentBuilder {
	b.component.Enabled = &enabled
	return b
}

// WithImmediate sets the immediate attribute explicitly
func (b *ComponentBuilder) WithImmediate(immediate bool) *ComponentBuilder {
	b.component.Immediate = &immediate
	return b
}

// WithFactory sets the component factory identifier
func (b *ComponentBuilder) WithFactory(factory string) *ComponentBuilder {
	b.component.Factory = factory
	return b
}

// WithConfigurationPolicy sets the configuration policy
func (b *ComponentBuilder) WithConfigurationPolicy(policy ConfigurationPolicy) *ComponentBuilder {
	b.component.ConfigurationPolicy = policy
	return b
}

// WithConfigurationPID sets the configuration PIDs
func (b *ComponentBuilder) WithConfigurationPID(pids ...string) *ComponentBuilder {
	b.component.ConfigurationPID = append(b.component.ConfigurationPID, pids...)
	return b
}

// WithActivate sets the activate method name
func (b *ComponentBuilder) WithActivate(method string) *ComponentBuilder {
	b.component.Activate = method
	return b
}

// WithDeactivate sets the deactivate method name
func (b *ComponentBuilder) WithDeactivate(method string) *ComponentBuilder {
	b.component.Deactivate = method
	return b
}

// WithModified sets the modified method name
func (b *ComponentBuilder) WithModified(method string) *ComponentBuilder {
	b.component.Modified = method
	return b
}

// WithAbstract marks the component abstract
func (b *ComponentBuilder) WithAbstract(abstract bool) *ComponentBuilder {
	b.component.Abstract = abstract
	return b
}

// WithProperty adds a property. Values of a property declared twice with
// the same name and type are appended to the first declaration.
func (b *ComponentBuilder) WithProperty(p Property) *ComponentBuilder {
	for i := range b.component.Properties {
		existing := &b.component.Properties[i]
		if existing.Name == p.Name && existing.Type == p.Type {
			existing.Values = append(existing.Values, p.Values...)
			return b
		}
	}
	b.component.Properties = append(b.component.Properties, p)
	return b
}

// WithService registers the component under the given interfaces
func (b *ComponentBuilder) WithService(serviceFactory bool, interfaces ...string) *ComponentBuilder {
	if b.component.Service == nil {
		b.component.Service = &Service{}
	}
	b.component.Service.ServiceFactory = b.component.Service.ServiceFactory || serviceFactory
	for _, iface := range interfaces {
		if !containsString(b.component.Service.Interfaces, iface) {
			b.component.Service.Interfaces = append(b.component.Service.Interfaces, iface)
		}
	}
	return b
}

// WithReference adds a reference
func (b *ComponentBuilder) WithReference(r Reference) *ComponentBuilder {
	b.component.References = append(b.component.References, r)
	return b
}

// HasProperty reports whether a property with the name was added
func (b *ComponentBuilder) HasProperty(name string) bool {
	_, ok := b.component.Property(name)
	return ok
}

// HasReference reports whether a reference with the name was added
func (b *ComponentBuilder) HasReference(name string) bool {
	_, ok := b.component.Reference(name)
	return ok
}

// Build returns the assembled component
func (b *ComponentBuilder) Build() *Component {
	c := b.component
	return &c
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
