package analyzer

import (
	"bytes"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/chilicat/scrbuild/internal/classfile"
)

// resolverCacheSize bounds the decoded classes kept for hierarchy lookups.
// Evicted classes are simply read again.
const resolverCacheSize = 4096

// resolver loads classes from the analysis context on demand. A nil entry
// in the cache marks a class no classpath entry could provide.
type resolver struct {
	cp      *Context
	reader  ClassReader
	classes *lru.Cache[string, *classfile.Class]
}

func newResolver(cp *Context, reader ClassReader) *resolver {
	// New only fails for a non-positive size
	classes, _ := lru.New[string, *classfile.Class](resolverCacheSize)
	return &resolver{
		cp:      cp,
		reader:  reader,
		classes: classes,
	}
}

func (r *resolver) add(c *classfile.Class) {
	r.classes.Add(c.Name, c)
}

// class returns the class with the given internal name, or false when no
// classpath entry holds a readable copy
func (r *resolver) class(name string) (*classfile.Class, bool) {
	if c, ok := r.classes.Get(name); ok {
		return c, c != nil
	}

	data, _, err := r.cp.ReadClass(name)
	if err != nil {
		r.classes.Add(name, nil)
		return nil, false
	}
	c, err := r.reader.Read(bytes.NewReader(data))
	if err != nil {
		r.classes.Add(name, nil)
		return nil, false
	}
	r.classes.Add(name, c)
	return c, true
}

// isPlatform reports whether a class belongs to the JDK, which is never on
// the analysis classpath
func isPlatform(name string) bool {
	return strings.HasPrefix(name, "java/") || strings.HasPrefix(name, "javax/")
}

// superChain returns c followed by its resolvable super classes. When the
// chain stops at a class that is not on the classpath, its name is returned
// as unresolved. Platform classes end the chain silently.
func (r *resolver) superChain(c *classfile.Class) (chain []*classfile.Class, unresolved string) {
	seen := map[string]bool{}
	for cur := c; cur != nil && !seen[cur.Name]; {
		seen[cur.Name] = true
		chain = append(chain, cur)

		next := cur.SuperName
		if next == "" || isPlatform(next) {
			break
		}
		sup, ok := r.class(next)
		if !ok {
			return chain, next
		}
		cur = sup
	}
	return chain, ""
}

// hasMethod reports whether c or one of its super classes declares a
// method named name
func (r *resolver) hasMethod(c *classfile.Class, name string) (found bool, unresolved string) {
	chain, unresolved := r.superChain(c)
	for _, cls := range chain {
		if len(cls.MethodsNamed(name)) > 0 {
			return true, ""
		}
	}
	return false, unresolved
}

// implements reports whether c is, extends or implements the class with the
// given internal name. unresolved names the first type that could not be
// loaded while searching.
func (r *resolver) implements(c *classfile.Class, target string) (found bool, unresolved string) {
	if c.Name == target {
		return true, ""
	}

	chain, unresolved := r.superChain(c)
	seen := map[string]bool{}
	queue := []string{}
	for _, cls := range chain {
		if cls.Name == target || cls.SuperName == target {
			return true, ""
		}
		queue = append(queue, cls.Interfaces...)
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if name == target {
			return true, ""
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		iface, ok := r.class(name)
		if !ok {
			if !isPlatform(name) && unresolved == "" {
				unresolved = name
			}
			continue
		}
		queue = append(queue, iface.Interfaces...)
	}
	return false, unresolved
}
