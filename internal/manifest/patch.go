package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/chilicat/scrbuild/internal/diagnostics"
	screrrors "github.com/chilicat/scrbuild/internal/errors"
	"github.com/chilicat/scrbuild/internal/settings"
)

const (
	// Path is the manifest location relative to the output directory
	Path = "META-INF/MANIFEST.MF"

	// ServiceComponentHeader lists the component descriptors of a bundle
	ServiceComponentHeader = "Service-Component"

	// ServiceComponentValue covers every generated descriptor
	ServiceComponentValue = "OSGI-INF/*.xml"
)

// Patch sets Service-Component on the manifest of outputDir. Nothing happens
// when the module has no manifest or no descriptors were generated. Read,
// parse and write failures are logged as errors. It reports whether the
// manifest was rewritten.
func Patch(outputDir string, hasDescriptors bool, moduleName string, policy settings.ManifestPolicy, logger diagnostics.Logger) bool {
	path := filepath.Join(outputDir, filepath.FromSlash(Path))

	_, statErr := os.Stat(path)
	exists := statErr == nil
	diagnostics.Debugf(logger, "Update Manifest, Has manifest: %t, SCR Comps: %t", exists, hasDescriptors)

	if !exists || !hasDescriptors {
		if statErr != nil && !errors.Is(statErr, fs.ErrNotExist) {
			logger.Error(fmt.Sprintf("Cannot read manifest %s", path), diagnostics.Cause(statErr))
			return false
		}
		logger.Info(fmt.Sprintf("Module '%s' has no manifest. Couldn't add component descriptor", moduleName))
		return false
	}

	if err := patchFile(path, policy, logger); err != nil {
		logger.Error(fmt.Sprintf("Cannot update manifest of module '%s'", moduleName),
			diagnostics.At(path, 0), diagnostics.Cause(err))
		return false
	}
	return true
}

func patchFile(path string, policy settings.ManifestPolicy, logger diagnostics.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return screrrors.WrapManifestError("read", path, err)
	}
	m, err := Parse(bytes.NewReader(data))
	if err != nil {
		return screrrors.WrapManifestError("parse", path, err)
	}

	switch policy {
	case settings.ManifestOverwrite:
		diagnostics.Debugf(logger, "Overwrite Manifest policy")
		m.Main.Set(ServiceComponentHeader, ServiceComponentValue)
	default:
		return screrrors.WrapManifestError("apply policy to", path, fmt.Errorf("unsupported manifest policy %s", policy))
	}

	out := m.Bytes()
	if bytes.Equal(out, data) {
		diagnostics.Debugf(logger, "Manifest %s is up to date", path)
		return nil
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return screrrors.WrapManifestError("write", path, err)
	}
	return nil
}
