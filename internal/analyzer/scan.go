package analyzer

import (
	"fmt"

	"github.com/chilicat/scrbuild/internal/annotations"
	"github.com/chilicat/scrbuild/internal/classfile"
	"github.com/chilicat/scrbuild/internal/diagnostics"
	"github.com/chilicat/scrbuild/internal/models"
	"github.com/chilicat/scrbuild/internal/settings"
)

// member is a field or method carrying component annotations
type member struct {
	field       *classfile.Field
	method      *classfile.Method
	annotations []*annotations.ParsedAnnotation
}

// scanned holds the validated component annotations of one class. Grouping
// annotations (@Properties, @References) are replaced by their elements.
type scanned struct {
	class       *classfile.Class
	annotations []*annotations.ParsedAnnotation
	fields      []member
	methods     []member
}

func (s *scanned) classAnnotation(key annotations.Key) *annotations.ParsedAnnotation {
	for _, p := range s.annotations {
		if p.Key == key {
			return p
		}
	}
	return nil
}

func (s *scanned) classAnnotations(key annotations.Key) []*annotations.ParsedAnnotation {
	var out []*annotations.ParsedAnnotation
	for _, p := range s.annotations {
		if p.Key == key {
			out = append(out, p)
		}
	}
	return out
}

func (s *scanned) hasAnnotations() bool {
	return len(s.annotations) > 0 || len(s.fields) > 0 || len(s.methods) > 0
}

// scan converts and validates the component annotations of a class once
func (r *run) scan(class *classfile.Class) *scanned {
	if s, ok := r.scans[class.Name]; ok {
		return s
	}

	s := &scanned{class: class}
	s.annotations = r.convert(class.Annotations, "", func() diagnostics.Location {
		return r.locator.Class(r.ctx, class)
	})
	for i := range class.Fields {
		f := &class.Fields[i]
		anns := r.convert(f.Annotations, f.Name, func() diagnostics.Location {
			return r.locator.Field(r.ctx, class, f.Name)
		})
		if len(anns) > 0 {
			s.fields = append(s.fields, member{field: f, annotations: anns})
		}
	}
	for i := range class.Methods {
		m := &class.Methods[i]
		anns := r.convert(m.Annotations, m.Name, func() diagnostics.Location {
			return r.locator.Method(r.ctx, class, m.Name)
		})
		if len(anns) > 0 {
			s.methods = append(s.methods, member{method: m, annotations: anns})
		}
	}

	r.scans[class.Name] = s
	return s
}

// convert decodes the component annotations among raw. The location is
// only resolved when there is something to report it for.
func (r *run) convert(raw []classfile.Annotation, target string, locate func() diagnostics.Location) []*annotations.ParsedAnnotation {
	var (
		out     []*annotations.ParsedAnnotation
		loc     diagnostics.Location
		located bool
	)
	for _, a := range raw {
		if !annotations.IsComponentAnnotation(a.Type) {
			continue
		}
		if !located {
			loc = locate()
			located = true
		}

		p, ok := annotations.Convert(r.registry, a, target, loc)
		if !ok {
			diagnostics.Debugf(r.logger, "Unsupported annotation %s ignored", classfile.DescriptorToBinary(a.Type))
			continue
		}
		if !r.validate(p) {
			continue
		}

		switch p.Type() {
		case annotations.PropertiesAnnotation, annotations.ReferencesAnnotation:
			for _, nested := range p.GetAnnotations("value") {
				nested.Target = target
				if r.validate(nested) {
					out = append(out, nested)
				}
			}
		default:
			out = append(out, p)
		}
	}
	return out
}

// lifecycle collects the activate, deactivate and modified methods
type lifecycle struct {
	activate   *lifecycleMethod
	deactivate *lifecycleMethod
	modified   *lifecycleMethod
}

type lifecycleMethod struct {
	name string
	loc  diagnostics.Location
}

// collect records the lifecycle annotations of family found on s's methods.
// Methods already set by a sub class are kept.
func (l *lifecycle) collect(r *run, s *scanned, family annotations.Family) {
	for _, m := range s.methods {
		for _, p := range m.annotations {
			if p.Family() != family {
				continue
			}
			var slot **lifecycleMethod
			switch p.Type() {
			case annotations.ActivateAnnotation:
				slot = &l.activate
			case annotations.DeactivateAnnotation:
				slot = &l.deactivate
			case annotations.ModifiedAnnotation:
				slot = &l.modified
			default:
				continue
			}

			if *slot != nil {
				if (*slot).name != m.method.Name {
					r.logger.Warn(fmt.Sprintf("Class %s has more than one @%s method; using %s",
						s.class.BinaryName(), p.Type(), (*slot).name), diagnostics.AtLocation(p.Location))
				}
				continue
			}
			*slot = &lifecycleMethod{name: m.method.Name, loc: p.Location}
		}
	}
}

// apply writes the lifecycle methods to b. activate and deactivate are only
// written when they differ from the names the runtime assumes, which needs
// spec 1.1; modified always needs 1.1.
func (l *lifecycle) apply(r *run, b *models.ComponentBuilder) {
	if name, ok := l.customName(r, l.activate, "activate"); ok {
		b.WithActivate(name)
	}
	if name, ok := l.customName(r, l.deactivate, "deactivate"); ok {
		b.WithDeactivate(name)
	}
	if l.modified != nil && r.settings.SupportsSpec(settings.Spec11) {
		b.WithModified(l.modified.name)
	}
}

func (l *lifecycle) customName(r *run, m *lifecycleMethod, standard string) (string, bool) {
	if m == nil || m.name == standard {
		return "", false
	}
	if !r.settings.SupportsSpec(settings.Spec11) {
		r.report(&annotations.SpecVersionError{
			Feature:    fmt.Sprintf("%s method name '%s'", standard, m.name),
			Required:   settings.Spec11,
			Configured: r.settings.SpecVersion,
			Loc:        m.loc,
		})
		return "", false
	}
	return m.name, true
}
