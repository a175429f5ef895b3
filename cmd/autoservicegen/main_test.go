package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const widgetsSrc = `package widgets

import "github.com/sghaida/autoservice/autoservice"

type IWidget interface{ Render() string }

type Widget struct {
	autoservice.Service
}

func (*Widget) Render() string { return "widget" }

type ICacheStore interface{ Get(key string) (string, bool) }

type Cache struct {
	_ autoservice.Service ` + "`autoservice:\"lifetime=singleton,interface=ICacheStore\"`" + `
}

func (*Cache) Get(string) (string, bool) { return "", false }

type Plain struct{}
`

// TestGenerate_WritesRegistrations verifies the generated table, assertions and header.
func TestGenerate_WritesRegistrations(t *testing.T) {
	t.Parallel()

	root := newModule(t, map[string]string{"widgets/widgets.go": widgetsSrc})
	dir := filepath.Join(root, "widgets")

	stdout, _, err := runCLI(t, "generate", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote")
	assert.Contains(t, stdout, "(2 services)")

	got := readFile(t, filepath.Join(dir, defaultOutput))
	assert.True(t, strings.HasPrefix(got, "// Code generated by autoservicegen; DO NOT EDIT.\n// Source-SHA256: "))

	flat := flatten(got)
	assert.Contains(t, flat, "package widgets")
	assert.Contains(t, flat, `import "github.com/sghaida/autoservice/autoservice"`)
	assert.Contains(t, flat, "_ ICacheStore = (*Cache)(nil)")
	assert.Contains(t, flat, "_ IWidget = (*Widget)(nil)")
	assert.Contains(t, flat, "// Cache -> ICacheStore (Singleton)")
	assert.Contains(t, flat, "// Widget -> IWidget (Scoped)")
	assert.Contains(t, flat, `autoservice.NewModule("example.com/app/widgets")`)
	assert.Contains(t, flat, "Add( (*Cache)(nil), (*Widget)(nil), )")
	assert.Contains(t, flat, "Interfaces( (*ICacheStore)(nil), (*IWidget)(nil), )")
	assert.NotContains(t, flat, "Plain")

	stdout, _, err = runCLI(t, "generate", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "unchanged")
	assert.Equal(t, got, readFile(t, filepath.Join(dir, defaultOutput)))
}

// TestCheck verifies check passes on fresh output and fails on missing or stale output.
func TestCheck(t *testing.T) {
	t.Parallel()

	root := newModule(t, map[string]string{"widgets/widgets.go": widgetsSrc})
	dir := filepath.Join(root, "widgets")

	stdout, _, err := runCLI(t, "check", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 registration file(s) out of date")
	assert.Contains(t, stdout, "stale")

	_, _, err = runCLI(t, "generate", dir)
	require.NoError(t, err)

	stdout, _, err = runCLI(t, "check", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "ok")

	// any source change moves the hash even when the table is unchanged
	writeFile(t, filepath.Join(dir, "extra.go"), "package widgets\n\nconst Version = 2\n")
	_, _, err = runCLI(t, "check", dir)
	require.Error(t, err)
}

// TestGenerate_Errors covers the generate-time failures.
func TestGenerate_Errors(t *testing.T) {
	t.Parallel()

	const header = "package svc\n\nimport \"github.com/sghaida/autoservice/autoservice\"\n\n"

	cases := []struct {
		name      string
		files     map[string]string
		wantError string
	}{
		{
			name: "conventional_interface_missing",
			files: map[string]string{"svc.go": header +
				"type ILoggerSink interface{ Write(string) }\n\ntype Logger struct {\n\tautoservice.Service\n}\n"},
			wantError: `there is no matching interface named "ILogger", please check "Logger"`,
		},
		{
			name: "explicit_interface_missing",
			files: map[string]string{"svc.go": header +
				"type Orphan struct {\n\tautoservice.Service `autoservice:\"interface=IMissing\"`\n}\n"},
			wantError: `interface "IMissing" bound by Orphan is not declared in package svc`,
		},
		{
			name: "qualified_interface",
			files: map[string]string{"svc.go": header +
				"type Remote struct {\n\tautoservice.Service `autoservice:\"interface=io.Reader\"`\n}\n"},
			wantError: "must be declared in the same package",
		},
		{
			name: "two_markers",
			files: map[string]string{"svc.go": header +
				"type ITwice interface{}\n\ntype Twice struct {\n\tautoservice.Service\n\t_ autoservice.Service\n}\n"},
			wantError: "Twice carries 2 service markers",
		},
		{
			name: "bad_lifetime",
			files: map[string]string{"svc.go": header +
				"type IBad interface{}\n\ntype Bad struct {\n\tautoservice.Service `autoservice:\"lifetime=forever\"`\n}\n"},
			wantError: `invalid lifetime name "forever"`,
		},
		{
			name: "bad_tag",
			files: map[string]string{"svc.go": header +
				"type IBad interface{}\n\ntype Bad struct {\n\tautoservice.Service `autoservice:\"singleton\"`\n}\n"},
			wantError: "want key=value",
		},
		{
			name: "generic_type",
			files: map[string]string{"svc.go": header +
				"type IBox interface{}\n\ntype Box[T any] struct {\n\tautoservice.Service\n\tv T\n}\n"},
			wantError: "generic type Box cannot be marked",
		},
		{
			name: "mixed_packages",
			files: map[string]string{
				"a.go": "package a\n",
				"b.go": "package b\n",
			},
			wantError: "multiple packages",
		},
		{
			name:      "no_go_files",
			files:     map[string]string{"README.md": "nothing here\n"},
			wantError: "no Go files",
		},
		{
			name:      "syntax_error",
			files:     map[string]string{"svc.go": "package svc\n\nfunc {\n"},
			wantError: "svc.go",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			files := map[string]string{}
			for name, src := range tc.files {
				files["svc/"+name] = src
			}
			root := newModule(t, files)
			dir := filepath.Join(root, "svc")

			_, _, err := runCLI(t, "generate", dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantError)
			assert.NoFileExists(t, filepath.Join(dir, defaultOutput))
		})
	}
}

// TestGenerate_ImportForms verifies aliased and dot imports of the marker package.
func TestGenerate_ImportForms(t *testing.T) {
	t.Parallel()

	root := newModule(t, map[string]string{
		"svc/aliased.go": "package svc\n\nimport as \"github.com/sghaida/autoservice/autoservice\"\n\n" +
			"type IAliased interface{}\n\ntype Aliased struct {\n\tas.Service\n}\n",
		"svc/dotted.go": "package svc\n\nimport . \"github.com/sghaida/autoservice/autoservice\"\n\n" +
			"type IDotted interface{}\n\ntype Dotted struct {\n\tService `autoservice:\"lifetime=transient\"`\n}\n",
		// a local type named Service is not the marker
		"svc/local.go": "package svc\n\ntype Service struct{}\n\ntype Local struct {\n\tService\n}\n",
	})
	dir := filepath.Join(root, "svc")

	_, _, err := runCLI(t, "generate", dir)
	require.NoError(t, err)

	flat := flatten(readFile(t, filepath.Join(dir, defaultOutput)))
	assert.Contains(t, flat, "_ IAliased = (*Aliased)(nil)")
	assert.Contains(t, flat, "// Dotted -> IDotted (Transient)")
	assert.NotContains(t, flat, "Local")
}

// TestGenerate_SkipsTestsAndGeneratedFiles verifies only hand-written, non-test files are scanned.
func TestGenerate_SkipsTestsAndGeneratedFiles(t *testing.T) {
	t.Parallel()

	root := newModule(t, map[string]string{
		"widgets/widgets.go": widgetsSrc,
		"widgets/widgets_test.go": "package widgets\n\nimport \"github.com/sghaida/autoservice/autoservice\"\n\n" +
			"type Fake struct {\n\tautoservice.Service\n}\n",
		"widgets/other.gen.go": "// Code generated by hand; DO NOT EDIT.\n\npackage widgets\n\n" +
			"import \"github.com/sghaida/autoservice/autoservice\"\n\ntype Generated struct {\n\tautoservice.Service\n}\n",
	})
	dir := filepath.Join(root, "widgets")

	_, _, err := runCLI(t, "generate", dir)
	require.NoError(t, err)

	flat := flatten(readFile(t, filepath.Join(dir, defaultOutput)))
	assert.NotContains(t, flat, "Fake")
	assert.NotContains(t, flat, "Generated")
}

// TestGenerate_NoMarkedTypes verifies nothing is written, and a stale file is removed.
func TestGenerate_NoMarkedTypes(t *testing.T) {
	t.Parallel()

	root := newModule(t, map[string]string{"plain/plain.go": "package plain\n\ntype Plain struct{}\n"})
	dir := filepath.Join(root, "plain")

	stdout, _, err := runCLI(t, "generate", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "skipped")
	assert.NoFileExists(t, filepath.Join(dir, defaultOutput))

	_, _, err = runCLI(t, "check", dir)
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, defaultOutput), "// Code generated by autoservicegen; DO NOT EDIT.\n\npackage plain\n")

	_, _, err = runCLI(t, "check", dir)
	require.Error(t, err)

	stdout, _, err = runCLI(t, "generate", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "removed")
	assert.NoFileExists(t, filepath.Join(dir, defaultOutput))
}

// TestGenerate_Manifest verifies output name, prefix and package list come from the manifest.
func TestGenerate_Manifest(t *testing.T) {
	t.Parallel()

	root := newModule(t, map[string]string{
		"svc/svc.go": "package svc\n\nimport \"github.com/sghaida/autoservice/autoservice\"\n\n" +
			"type SvcWidget interface{}\n\ntype Widget struct {\n\tautoservice.Service\n}\n",
		"autoservice.yaml": "output: registry.gen.go\nprefix: Svc\npackages:\n  - ./svc\n",
	})

	_, _, err := runCLI(t, "generate", "--config", filepath.Join(root, "autoservice.yaml"))
	require.NoError(t, err)

	flat := flatten(readFile(t, filepath.Join(root, "svc", "registry.gen.go")))
	assert.Contains(t, flat, "_ SvcWidget = (*Widget)(nil)")
	assert.Contains(t, flat, `Prefix("Svc")`)
	assert.NoFileExists(t, filepath.Join(root, "svc", defaultOutput))

	// flags override the manifest
	_, _, err = runCLI(t, "generate", "--config", filepath.Join(root, "autoservice.yaml"), "--prefix", "I")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"IWidget"`)
}

// TestGenerate_PrefixFlag verifies the convention prefix flag.
func TestGenerate_PrefixFlag(t *testing.T) {
	t.Parallel()

	root := newModule(t, map[string]string{
		"svc/svc.go": "package svc\n\nimport \"github.com/sghaida/autoservice/autoservice\"\n\n" +
			"type ContractWidget interface{}\n\ntype Widget struct {\n\tautoservice.Service\n}\n",
	})
	dir := filepath.Join(root, "svc")

	_, _, err := runCLI(t, "generate", "--prefix", "Contract", "--out", "wiring.go", dir)
	require.NoError(t, err)

	// the table carries the prefix, so the runtime scan binds the same interface
	flat := flatten(readFile(t, filepath.Join(dir, "wiring.go")))
	assert.Contains(t, flat, "_ ContractWidget = (*Widget)(nil)")
	assert.Contains(t, flat, `autoservice.NewModule("example.com/app/svc"). Prefix("Contract"). Add(`)
}

// TestGenerate_DefaultPrefixOmitted verifies tables built with the default convention carry no prefix call.
func TestGenerate_DefaultPrefixOmitted(t *testing.T) {
	t.Parallel()

	root := newModule(t, map[string]string{"widgets/widgets.go": widgetsSrc})
	dir := filepath.Join(root, "widgets")

	_, _, err := runCLI(t, "generate", dir)
	require.NoError(t, err)
	assert.NotContains(t, readFile(t, filepath.Join(dir, defaultOutput)), "Prefix(")
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "empty.yaml")
		writeFile(t, path, "")

		cfg, err := loadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, defaultOutput, cfg.Output)
		assert.Equal(t, defaultPrefix, cfg.Prefix)
		assert.Empty(t, cfg.Packages)
	})

	t.Run("relative_packages", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "rel.yaml")
		writeFile(t, path, "packages:\n  - ./a\n  - /abs/b\n")

		cfg, err := loadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "a"), "/abs/b"}, cfg.Packages)
	})

	t.Run("unknown_field", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "unknown.yaml")
		writeFile(t, path, "bogus: true\n")

		_, err := loadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bogus")
	})

	t.Run("bad_output", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "out.yaml")
		writeFile(t, path, "output: ../escape.go\n")

		_, err := loadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "output must be a plain non-test .go file name")
	})

	t.Run("empty_package", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "pkg.yaml")
		writeFile(t, path, "packages:\n  - \"\"\n")

		_, err := loadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "packages[0] is empty")
	})

	t.Run("missing_file", func(t *testing.T) {
		t.Parallel()
		_, err := loadConfig(filepath.Join(dir, "nope.yaml"))
		require.Error(t, err)
	})
}

func TestFindModule(t *testing.T) {
	t.Parallel()

	root := newModule(t, map[string]string{"a/b/x.go": "package b\n"})

	modRoot, modPath, err := findModule(filepath.Join(root, "a", "b"))
	require.NoError(t, err)
	assert.Equal(t, "example.com/app", modPath)

	got, err := moduleImportPathForDir(modRoot, modPath, filepath.Join(root, "a", "b"))
	require.NoError(t, err)
	assert.Equal(t, "example.com/app/a/b", got)

	got, err = moduleImportPathForDir(modRoot, modPath, root)
	require.NoError(t, err)
	assert.Equal(t, "example.com/app", got)

	_, err = moduleImportPathForDir(modRoot, modPath, filepath.Dir(root))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside module root")

	bad := t.TempDir()
	writeFile(t, filepath.Join(bad, "go.mod"), "go 1.22\n")
	_, _, err = findModule(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing module directive")
}

// TestVerbose verifies -v logs through zap to stderr.
func TestVerbose(t *testing.T) {
	t.Parallel()

	root := newModule(t, map[string]string{"widgets/widgets.go": widgetsSrc})

	_, stderr, err := runCLI(t, "generate", "-v", filepath.Join(root, "widgets"))
	require.NoError(t, err)
	assert.Contains(t, stderr, "parsed package")
	assert.Contains(t, stderr, "example.com/app/widgets")

	_, stderr, err = runCLI(t, "generate", filepath.Join(root, "widgets"))
	require.NoError(t, err)
	assert.Empty(t, stderr)
}

// TestWriteFileAtomic_CleansUpOnFailure swaps the file hooks, so it does not run in parallel.
func TestWriteFileAtomic_CleansUpOnFailure(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.go")

	orig := renameFile
	t.Cleanup(func() { renameFile = orig })
	renameFile = func(string, string) error { return errors.New("rename failed") }

	err := writeFileAtomic(target, []byte("package x\n"), 0o644)
	require.EqualError(t, err, "rename failed")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "out.go")
	require.NoError(t, writeFileAtomic(target, []byte("package x\n"), 0o644))
	assert.Equal(t, "package x\n", readFile(t, target))
}

// -------------------------
// helpers
// -------------------------

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

// newModule lays out a throwaway module rooted at a temp dir.
func newModule(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/app\n\ngo 1.22\n")
	for name, src := range files {
		writeFile(t, filepath.Join(root, filepath.FromSlash(name)), src)
	}
	return root
}

func writeFile(t *testing.T, path, src string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

// flatten collapses whitespace so assertions do not depend on gofmt alignment.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
