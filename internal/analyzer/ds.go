package analyzer

import (
	"fmt"
	"strings"

	"github.com/chilicat/scrbuild/internal/annotations"
	"github.com/chilicat/scrbuild/internal/classfile"
	"github.com/chilicat/scrbuild/internal/diagnostics"
	"github.com/chilicat/scrbuild/internal/models"
)

var dsCardinalities = map[string]models.Cardinality{
	"OPTIONAL":     models.OptionalUnary,
	"MANDATORY":    models.MandatoryUnary,
	"MULTIPLE":     models.OptionalMultiple,
	"AT_LEAST_ONE": models.MandatoryMultiple,
}

// Parameter types a DS bind method may take instead of the service itself
var dsNonServiceParameters = map[string]bool{
	"org.osgi.framework.ServiceReference": true,
	"java.util.Map":                       true,
}

// Bind method prefixes and the matching unbind prefixes
var dsAccessorPrefixes = [][2]string{
	{"bind", "unbind"},
	{"set", "unset"},
	{"add", "remove"},
}

func dsKey(t annotations.AnnotationType) annotations.Key {
	return annotations.Key{Family: annotations.DS, Type: t}
}

// dsComponent maps a class carrying a Declarative Services @Component
func (r *run) dsComponent(s *scanned, comp *annotations.ParsedAnnotation) *models.Component {
	class := s.class

	if class.IsAbstract() {
		r.logger.Error(fmt.Sprintf("Class %s is abstract and cannot be a component", class.BinaryName()),
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
	if r.has(comp, "configurationPolicy") {
		b.WithConfigurationPolicy(models.ConfigurationPolicy(strings.ToLower(comp.GetString("configurationPolicy"))))
	}
	if r.has(comp, "configurationPid") {
		b.WithConfigurationPID(comp.GetStringSlice("configurationPid")...)
	}

	r.dsService(b, class, comp)

	for _, raw := range comp.GetStringSlice("property") {
		entry, err := annotations.ParseProperty(raw)
		if err != nil {
			// already reported by the schema validator
			continue
		}
		b.WithProperty(models.Property{Name: entry.Name, Type: entry.Type, Values: []string{entry.Value}})
	}
	if files := comp.GetStringSlice("properties"); len(files) > 0 {
		r.logger.Warn(fmt.Sprintf("Property files %s of component %s are not read; declare the properties inline",
			strings.Join(files, ", "), name), diagnostics.AtLocation(comp.Location))
	}

	for _, m := range s.methods {
		for _, p := range m.annotations {
			if p.Key == dsKey(annotations.ReferenceAnnotation) {
				r.addDSReference(b, class, m.method, p)
			}
		}
	}
	for _, f := range s.fields {
		for _, p := range f.annotations {
			if p.Family() == annotations.DS {
				r.problem(fmt.Sprintf("@%s on field %s of class %s is not supported; annotate the bind method",
					p.Type(), f.field.Name, class.BinaryName()), p.Location)
			}
		}
	}

	var lc lifecycle
	lc.collect(r, s, annotations.DS)
	lc.apply(r, b)

	return b.Build()
}

// dsService registers the declared services. Without a service element the
// directly implemented interfaces are used; an explicitly empty list or a
// class without interfaces registers no service.
func (r *run) dsService(b *models.ComponentBuilder, class *classfile.Class, comp *annotations.ParsedAnnotation) {
	var ifaces []string
	if comp.HasParameter("service") {
		ifaces = comp.GetStringSlice("service")
		for _, iface := range ifaces {
			r.checkService(class, iface, comp.Location)
		}
	} else {
		for _, iface := range class.Interfaces {
			ifaces = append(ifaces, classfile.InternalToBinary(iface))
		}
	}

	if len(ifaces) == 0 {
		if comp.GetBool("servicefactory") {
			r.logger.Warn(fmt.Sprintf("Component %s is a service factory but provides no service", class.BinaryName()),
				diagnostics.AtLocation(comp.Location))
		}
		return
	}
	b.WithService(comp.GetBool("servicefactory"), ifaces...)
}

// addDSReference maps a @Reference on a bind method
func (r *run) addDSReference(b *models.ComponentBuilder, class *classfile.Class, method *classfile.Method, p *annotations.ParsedAnnotation) {
	name := p.GetString("name", dsReferenceName(method.Name))
	if b.HasReference(name) {
		r.logger.Error(fmt.Sprintf("Duplicate reference %s in class %s", name, class.BinaryName()),
			diagnostics.AtLocation(p.Location))
		return
	}

	iface := p.GetString("service")
	if iface == "" {
		if params := classfile.MethodParameters(method.Descriptor); len(params) > 0 && !dsNonServiceParameters[params[0]] {
			iface = params[0]
		}
	}
	if iface == "" {
		r.report(&annotations.ValidationError{
			Annotation: p.Key,
			Parameter:  "service",
			Expected:   fmt.Sprintf("a service type, the parameters of %s do not name one", method.Name),
			Actual:     "missing",
			Loc:        p.Location,
			Missing:    true,
		})
		return
	}

	d := r.withDefaults(p)
	ref := models.Reference{
		Name:        name,
		Interface:   iface,
		Cardinality: models.MandatoryUnary,
		Policy:      models.ReferencePolicy(strings.ToLower(d.GetString("policy"))),
		Target:      p.GetString("target"),
		Bind:        method.Name,
		Strategy:    models.StrategyEvent,
		Location:    p.Location,
	}
	if card, ok := dsCardinalities[d.GetString("cardinality")]; ok {
		ref.Cardinality = card
	}
	if ref.Policy != models.PolicyStatic && ref.Policy != models.PolicyDynamic {
		ref.Policy = models.PolicyStatic
	}
	if r.has(p, "policyOption") {
		ref.PolicyOption = models.PolicyOption(strings.ToLower(p.GetString("policyOption")))
	}

	if p.HasParameter("unbind") {
		ref.Unbind = p.GetString("unbind")
		r.checkMethod(class, ref.Unbind, ref, false)
	} else if derived := dsUnbindName(method.Name); derived != "" {
		if found, _ := r.resolver.hasMethod(class, derived); found {
			ref.Unbind = derived
		} else {
			diagnostics.Debugf(r.logger, "No unbind method %s for reference %s in class %s", derived, name, class.BinaryName())
		}
	}
	if r.has(p, "updated") {
		ref.Updated = p.GetString("updated")
		r.checkMethod(class, ref.Updated, ref, false)
	}

	b.WithReference(ref)
}

// dsReferenceName strips the bind, set or add prefix of a bind method
func dsReferenceName(method string) string {
	for _, prefix := range dsAccessorPrefixes {
		if len(method) > len(prefix[0]) && strings.HasPrefix(method, prefix[0]) {
			return method[len(prefix[0]):]
		}
	}
	return method
}

// dsUnbindName derives the unbind method: bindX→unbindX, setX→unsetX,
// addX→removeX, anything else gets an "un" prefix
func dsUnbindName(method string) string {
	for _, prefix := range dsAccessorPrefixes {
		if len(method) > len(prefix[0]) && strings.HasPrefix(method, prefix[0]) {
			return prefix[1] + method[len(prefix[0]):]
		}
	}
	return "un" + method
}
