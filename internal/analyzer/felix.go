package analyzer

import (
	"fmt"
	"strings"

	"github.com/chilicat/scrbuild/internal/annotations"
	"github.com/chilicat/scrbuild/internal/classfile"
	"github.com/chilicat/scrbuild/internal/diagnostics"
	"github.com/chilicat/scrbuild/internal/models"
)

var felixCardinalities = map[string]models.Cardinality{
	"OPTIONAL_UNARY":     models.OptionalUnary,
	"MANDATORY_UNARY":    models.MandatoryUnary,
	"OPTIONAL_MULTIPLE":  models.OptionalMultiple,
	"MANDATORY_MULTIPLE": models.MandatoryMultiple,
}

// felixValueOrder decides which typed value element of a @Property wins
// when more than one is set
var felixValueOrder = []string{
	"value", "longValue", "doubleValue", "floatValue", "intValue",
	"byteValue", "charValue", "boolValue", "shortValue",
}

func felixKey(t annotations.AnnotationType) annotations.Key {
	return annotations.Key{Family: annotations.Felix, Type: t}
}

// felixComponent maps a class carrying a Felix @Component
func (r *run) felixComponent(s *scanned, comp *annotations.ParsedAnnotation) *models.Component {
	class := s.class

	if !comp.GetBool("ds", true) {
		diagnostics.Debugf(r.logger, "Component %s has ds=false, no descriptor generated", class.BinaryName())
		return nil
	}
	if comp.GetBool("componentAbstract", false) {
		diagnostics.Debugf(r.logger, "Component %s is abstract and only inherited", class.BinaryName())
		return nil
	}
	if class.IsAbstract() {
		r.logger.Error(fmt.Sprintf("Class %s is abstract; mark its @Component with componentAbstract=true", class.BinaryName()),
			diagnostics.AtLocation(comp.Location))
		return nil
	}

	name := comp.GetString("name", class.BinaryName())
	b := models.NewComponentBuilder(name, class.BinaryName()).WithLocation(comp.Location)

	if comp.HasParameter("enabled") {
		b.WithEnabled(comp.GetBool("enabled"))
	}
	if comp.HasParameter("immediate") {
		b.WithImmediate(comp.GetBool("immediate"))
	}
	if factory := comp.GetString("factory"); factory != "" {
		b.WithFactory(factory)
	}
	if r.has(comp, "policy") {
		b.WithConfigurationPolicy(models.ConfigurationPolicy(strings.ToLower(comp.GetString("policy"))))
	}
	if r.has(comp, "configurationPid") {
		b.WithConfigurationPID(comp.GetString("configurationPid"))
	}

	if svc := s.classAnnotation(felixKey(annotations.ServiceAnnotation)); svc != nil {
		r.felixService(b, class, svc)
	}

	var lc lifecycle
	hierarchy := []*scanned{s}
	if comp.GetBool("inherit", true) {
		hierarchy = append(hierarchy, r.inherited(class)...)
	}
	for i, level := range hierarchy {
		r.felixProperties(b, level, i > 0)
		r.felixReferences(b, class, level)
		lc.collect(r, level, annotations.Felix)
	}
	lc.apply(r, b)

	return b.Build()
}

// inherited returns the scanned super classes that carry a Felix @Component
func (r *run) inherited(class *classfile.Class) []*scanned {
	chain, _ := r.resolver.superChain(class)
	var out []*scanned
	for _, sup := range chain[1:] {
		s := r.scan(sup)
		if s.classAnnotation(felixKey(annotations.ComponentAnnotation)) != nil {
			out = append(out, s)
		}
	}
	return out
}

// felixService registers the declared service interfaces, or the directly
// implemented ones when none are declared, or the class itself
func (r *run) felixService(b *models.ComponentBuilder, class *classfile.Class, svc *annotations.ParsedAnnotation) {
	ifaces := svc.GetStringSlice("value")
	if len(ifaces) == 0 {
		for _, iface := range class.Interfaces {
			ifaces = append(ifaces, classfile.InternalToBinary(iface))
		}
	} else {
		for _, iface := range ifaces {
			r.checkService(class, iface, svc.Location)
		}
	}
	if len(ifaces) == 0 {
		ifaces = []string{class.BinaryName()}
	}
	b.WithService(svc.GetBool("serviceFactory"), ifaces...)
}

// felixProperties adds the class and field level @Property declarations.
// Inherited properties never override those of a sub class.
func (r *run) felixProperties(b *models.ComponentBuilder, s *scanned, inherited bool) {
	add := func(p models.Property) {
		if inherited && b.HasProperty(p.Name) {
			return
		}
		b.WithProperty(p)
	}

	for _, p := range s.classAnnotations(felixKey(annotations.PropertyAnnotation)) {
		name := p.GetString("name")
		if name == "" {
			r.report(&annotations.ValidationError{
				Annotation: p.Key,
				Parameter:  "name",
				Expected:   "a property name on class-level @Property",
				Actual:     "missing",
				Loc:        p.Location,
				Missing:    true,
			})
			continue
		}
		add(felixProperty(p, name))
	}

	for _, f := range s.fields {
		for _, p := range f.annotations {
			if p.Key != felixKey(annotations.PropertyAnnotation) {
				continue
			}
			add(felixProperty(p, felixPropertyName(p, f.field)))
		}
	}
}

// felixPropertyName is the explicit name, else the value of a String
// constant, else the field name
func felixPropertyName(p *annotations.ParsedAnnotation, f *classfile.Field) string {
	if name := p.GetString("name"); name != "" {
		return name
	}
	if constant, ok := f.ConstantValue.(string); ok && constant != "" {
		return constant
	}
	return f.Name
}

func felixProperty(p *annotations.ParsedAnnotation, name string) models.Property {
	prop := models.Property{
		Name:    name,
		Type:    "String",
		Private: p.GetBool("propertyPrivate"),
	}
	for _, kind := range felixValueOrder {
		if p.HasParameter(kind) {
			prop.Type = annotations.FelixPropertyValueKinds[kind]
			prop.Values = p.GetValues(kind)
			break
		}
	}
	return prop
}

// felixReferences adds the class and field level @Reference declarations.
// Methods are looked up on class, which is the concrete component class.
func (r *run) felixReferences(b *models.ComponentBuilder, class *classfile.Class, s *scanned) {
	for _, p := range s.classAnnotations(felixKey(annotations.ReferenceAnnotation)) {
		name := p.GetString("name")
		iface := p.GetString("referenceInterface")
		usable := true
		for _, required := range [][2]string{{"name", name}, {"referenceInterface", iface}} {
			if required[1] == "" {
				r.report(&annotations.ValidationError{
					Annotation: p.Key,
					Parameter:  required[0],
					Expected:   "a value on class-level @Reference",
					Actual:     "missing",
					Loc:        p.Location,
					Missing:    true,
				})
				usable = false
			}
		}
		if !usable {
			continue
		}
		r.addFelixReference(b, class, p, name, iface, false)
	}

	for _, f := range s.fields {
		for _, p := range f.annotations {
			if p.Key != felixKey(annotations.ReferenceAnnotation) {
				continue
			}
			name := p.GetString("name", f.field.Name)
			iface := p.GetString("referenceInterface", classfile.DescriptorToBinary(f.field.Descriptor))
			r.addFelixReference(b, class, p, name, iface, true)
		}
	}
}

// addFelixReference maps one @Reference. Default accessor names of field
// references may be generated into the class, so their absence is only an
// error when generateAccessors is off.
func (r *run) addFelixReference(b *models.ComponentBuilder, class *classfile.Class, p *annotations.ParsedAnnotation, name, iface string, onField bool) {
	if b.HasReference(name) {
		diagnostics.Debugf(r.logger, "Reference %s of class %s is overridden by a sub class", name, class.BinaryName())
		return
	}

	d := r.withDefaults(p)
	ref := models.Reference{
		Name:        name,
		Interface:   iface,
		Cardinality: models.MandatoryUnary,
		Policy:      models.ReferencePolicy(strings.ToLower(d.GetString("policy"))),
		Target:      p.GetString("target"),
		Strategy:    models.Strategy(strings.ToLower(d.GetString("strategy"))),
		Location:    p.Location,
	}
	if card, ok := felixCardinalities[d.GetString("cardinality")]; ok {
		ref.Cardinality = card
	}
	if ref.Policy != models.PolicyStatic && ref.Policy != models.PolicyDynamic {
		ref.Policy = models.PolicyStatic
	}
	if ref.Strategy != models.StrategyLookup {
		ref.Strategy = models.StrategyEvent
	}
	if r.has(p, "policyOption") {
		ref.PolicyOption = models.PolicyOption(strings.ToLower(p.GetString("policyOption")))
	}

	if !ref.IsLookup() {
		ref.Bind = p.GetString("bind", "bind"+capitalize(name))
		ref.Unbind = p.GetString("unbind", "unbind"+capitalize(name))
		r.checkMethod(class, ref.Bind, ref, onField && !p.HasParameter("bind"))
		r.checkMethod(class, ref.Unbind, ref, onField && !p.HasParameter("unbind"))
		if r.has(p, "updated") {
			ref.Updated = p.GetString("updated")
			r.checkMethod(class, ref.Updated, ref, false)
		}
	}

	b.WithReference(ref)
}
