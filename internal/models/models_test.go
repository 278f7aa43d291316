package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chilicat/scrbuild/internal/diagnostics"
)

func TestComponentBuilder(t *testing.T) {
	c := NewComponentBuilder("foo", "com.acme.Foo").
		WithLocation(diagnostics.Location{File: "Foo.java", Line: 4}).
		WithImmediate(true).
		WithConfigurationPolicy(ConfigurationRequire).
		WithProperty(Property{Name: "tags", Type: "String", Values: []string{"a"}}).
		WithProperty(Property{Name: "tags", Type: "String", Values: []string{"b"}}).
		WithProperty(Property{Name: "ranking", Type: "Integer", Values: []string{"5"}}).
		WithService(false, "com.acme.Api").
		WithService(true, "com.acme.Api", "com.acme.Other").
		WithReference(Reference{Name: "log", Interface: "com.acme.Log", Cardinality: MandatoryUnary}).
		Build()

	assert.Equal(t, "foo", c.Name)
	require.NotNil(t, c.Immediate)
	assert.True(t, *c.Immediate)
	assert.Nil(t, c.Enabled)

	tags, ok := c.Property("tags")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, tags.Values)
	assert.True(t, tags.IsMultiValue())

	ranking, ok := c.Property("ranking")
	require.True(t, ok)
	assert.False(t, ranking.IsMultiValue())

	require.NotNil(t, c.Service)
	assert.True(t, c.Service.ServiceFactory)
	assert.Equal(t, []string{"com.acme.Api", "com.acme.Other"}, c.Service.Interfaces)

	ref, ok := c.Reference("log")
	require.True(t, ok)
	assert.False(t, ref.IsLookup())
	assert.False(t, ref.Cardinality.IsMultiple())

	_, ok = c.Reference("missing")
	assert.False(t, ok)
}

func TestReference_Lookup(t *testing.T) {
	r := Reference{Name: "x", Strategy: StrategyLookup, Cardinality: OptionalMultiple}
	assert.True(t, r.IsLookup())
	assert.True(t, r.Cardinality.IsMultiple())
}
