package descriptor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chilicat/scrbuild/internal/models"
	"github.com/chilicat/scrbuild/internal/settings"
)

func fooComponent() *models.Component {
	return models.NewComponentBuilder("FooService", "FooService").
		WithImmediate(true).
		WithProperty(models.Property{Name: "greeting", Type: "String", Values: []string{"hello"}}).
		WithProperty(models.Property{Name: "tags", Type: "String", Values: []string{"a", "b<c"}}).
		WithService(false, "com.acme.Api").
		WithReference(models.Reference{
			Name:        "log",
			Interface:   "com.acme.Log",
			Cardinality: models.MandatoryUnary,
			Policy:      models.PolicyStatic,
			Bind:        "setLog",
			Unbind:      "unsetLog",
			Strategy:    models.StrategyEvent,
		}).
		Build()
}

func TestGenerate_Golden(t *testing.T) {
	got, err := Generate(fooComponent(), settings.Spec11)
	require.NoError(t, err)

	want := `<?xml version="1.0" encoding="UTF-8"?>
<components xmlns:scr="http://www.osgi.org/xmlns/scr/v1.1.0">
    <scr:component name="FooService" immediate="true">
        <implementation class="FooService"></implementation>
        <property name="greeting" type="String" value="hello"></property>
        <property name="tags" type="String">a
b&lt;c</property>
        <service>
            <provide interface="com.acme.Api"></provide>
        </service>
        <reference name="log" interface="com.acme.Log" cardinality="1..1" policy="static" bind="setLog" unbind="unsetLog"></reference>
    </scr:component>
</components>
`
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("Generate() mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	first, err := Generate(fooComponent(), settings.Spec12)
	require.NoError(t, err)
	second, err := Generate(fooComponent(), settings.Spec12)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Contains(t, string(first), "http://www.osgi.org/xmlns/scr/v1.2.0")
}

func TestGenerate_LookupReferenceHasNoAccessors(t *testing.T) {
	c := models.NewComponentBuilder("lookup", "com.acme.Lookup").
		WithReference(models.Reference{
			Name:      "svc",
			Interface: "com.acme.Svc",
			Bind:      "bindSvc",
			Unbind:    "unbindSvc",
			Strategy:  models.StrategyLookup,
		}).
		Build()

	got, err := Generate(c, settings.Spec11Felix)
	require.NoError(t, err)
	assert.Contains(t, string(got), `<reference name="svc" interface="com.acme.Svc"></reference>`)
	assert.NotContains(t, string(got), "bindSvc")
	assert.Contains(t, string(got), "http://felix.apache.org/xmlns/scr/v1.1.0-felix")
}

func TestGenerate_ComponentAttributes(t *testing.T) {
	c := models.NewComponentBuilder("cfg", "com.acme.Cfg").
		WithEnabled(false).
		WithFactory("cfg.factory").
		WithConfigurationPolicy(models.ConfigurationRequire).
		WithActivate("start").
		WithDeactivate("stop").
		WithModified("update").
		WithConfigurationPID("a", "b").
		WithService(true, "com.acme.Api").
		Build()

	got, err := Generate(c, settings.Spec13)
	require.NoError(t, err)
	assert.Contains(t, string(got),
		`<scr:component name="cfg" enabled="false" factory="cfg.factory" configuration-policy="require" activate="start" deactivate="stop" modified="update" configuration-pid="a b">`)
	assert.Contains(t, string(got), `<service servicefactory="true">`)
}

func TestNamespace(t *testing.T) {
	for _, v := range settings.SpecVersions {
		ns, err := Namespace(v)
		require.NoError(t, err, v)
		assert.NotEmpty(t, ns)
	}
	_, err := Namespace("2.0")
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	assert.Equal(t, "OSGI-INF/com.acme.Foo.xml", Path(&models.Component{Name: "com.acme.Foo"}))
	assert.Equal(t, "OSGI-INF/*.xml", Glob)
}
