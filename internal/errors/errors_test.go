package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseError_Error(t *testing.T) {
	assert.Equal(t, "plain", New(AnalysisErrorCode, "plain").Error())

	err := WrapFileSystemError("read", "/tmp/x", fs.ErrNotExist)
	assert.Equal(t, "failed to read file '/tmp/x': file does not exist", err.Error())
	assert.Equal(t, FileSystemErrorCode, err.ErrorCode())
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestBaseError_IsMatchesCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", WrapClassFormatError("Foo.class", stderrors.New("truncated")))

	assert.ErrorIs(t, err, &BaseError{Code: ClassFormatErrorCode})
	assert.NotErrorIs(t, err, &BaseError{Code: ManifestErrorCode})
	assert.NotErrorIs(t, err, &BaseError{Code: ClassFormatErrorCode, Message: "other"})
}

func TestHasCode(t *testing.T) {
	inner := WrapManifestError("parse", "META-INF/MANIFEST.MF", stderrors.New("bad line"))
	outer := WrapFileSystemError("update", "out", inner)

	assert.True(t, HasCode(outer, FileSystemErrorCode))
	assert.True(t, HasCode(outer, ManifestErrorCode))
	assert.False(t, HasCode(outer, ClassFormatErrorCode))
	assert.False(t, HasCode(stderrors.New("plain"), FileSystemErrorCode))
	assert.False(t, HasCode(nil, FileSystemErrorCode))
}

func TestDescribe(t *testing.T) {
	err := WrapConfigurationError("scrbuild.yaml", "parse", stderrors.New("line 3"))
	assert.Equal(t,
		"failed to parse configuration 'scrbuild.yaml': line 3 (config_type=scrbuild.yaml, operation=parse)",
		err.Describe())
	assert.Equal(t, "x", New(UnknownErrorCode, "x").Describe())
}

func TestErrorCode_String(t *testing.T) {
	for code, want := range map[ErrorCode]string{
		ClassFormatErrorCode:   "ClassFormatError",
		ConfigurationErrorCode: "ConfigurationError",
		FileSystemErrorCode:    "FileSystemError",
		AnalysisErrorCode:      "AnalysisError",
		ManifestErrorCode:      "ManifestError",
		ErrorCode(99):          "UnknownError",
	} {
		assert.Equal(t, want, code.String())
	}
}

func TestContext_NeverNil(t *testing.T) {
	assert.NotNil(t, New(AnalysisErrorCode, "x").Context())
	assert.Equal(t, "open", WrapAnalysisError("open", nil).Context()["operation"])
}
