package main

import (
	"bytes"
	"go/format"
	"os"
	"path/filepath"
	"text/template"

	"go.uber.org/zap"
)

var genTpl = template.Must(template.New("autoservice").Parse(`// Code generated by autoservicegen; DO NOT EDIT.
// Source-SHA256: {{.Hash}}

package {{.Name}}

import "github.com/sghaida/autoservice/autoservice"

var (
{{- range .Services}}
	_ {{.Interface}} = (*{{.Type}})(nil)
{{- end}}
)

func init() {
{{- range .Services}}
	// {{.Type}} -> {{.Interface}} ({{.Lifetime}})
{{- end}}
	autoservice.Register(autoservice.NewModule({{printf "%q" .ImportPath}}).
{{- if ne .Prefix "I"}}
		Prefix({{printf "%q" .Prefix}}).
{{- end}}
		Add(
{{- range .Services}}
			(*{{.Type}})(nil),
{{- end}}
		).
		Interfaces(
{{- range .Interfaces}}
			(*{{.}})(nil),
{{- end}}
		))
}
`))

// render produces the gofmt'ed registration file for p.
func render(p *pkgInfo) ([]byte, error) {
	var buf bytes.Buffer
	if err := genTpl.Execute(&buf, p); err != nil {
		return nil, err
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, &cmdError{msg: "gofmt/format failed: " + err.Error()}
	}
	return out, nil
}

// result is the outcome of processing one package.
type result struct {
	Path     string
	Services int
	Changed  bool
}

// generator runs parse, bind and render over package directories.
type generator struct {
	cfg    *Config
	logger *zap.Logger
}

func (g *generator) load(dir string) (*pkgInfo, error) {
	modRoot, modPath, err := findModule(dir)
	if err != nil {
		return nil, err
	}
	importPath, err := moduleImportPathForDir(modRoot, modPath, dir)
	if err != nil {
		return nil, err
	}

	p, err := parsePackage(dir, g.cfg.Output)
	if err != nil {
		return nil, err
	}
	p.ImportPath = importPath

	prefix := g.cfg.Prefix
	p.Prefix = prefix
	if err := p.bind(func(name string) string { return prefix + name }); err != nil {
		return nil, err
	}

	g.logger.Debug("parsed package",
		zap.String("dir", filepath.ToSlash(dir)),
		zap.String("import_path", importPath),
		zap.Int("services", len(p.Services)),
		zap.Strings("interfaces", p.Interfaces),
	)
	return p, nil
}

// generate writes the registration file of dir, leaving it untouched when the
// content is already current.
func (g *generator) generate(dir string) (result, error) {
	p, err := g.load(dir)
	if err != nil {
		return result{}, err
	}

	out := filepath.Join(dir, g.cfg.Output)
	res := result{Path: out, Services: len(p.Services)}

	if len(p.Services) == 0 {
		// a registration file without services would not compile
		if fileExists(out) {
			if err := removeFile(out); err != nil {
				return res, err
			}
			res.Changed = true
		}
		g.logger.Debug("no marked types", zap.String("dir", filepath.ToSlash(dir)))
		return res, nil
	}

	src, err := render(p)
	if err != nil {
		return res, err
	}

	if existing, err := os.ReadFile(out); err == nil && bytes.Equal(existing, src) {
		g.logger.Debug("up to date", zap.String("path", filepath.ToSlash(out)))
		return res, nil
	}

	if err := writeFileAtomic(out, src, 0o644); err != nil {
		return res, err
	}
	res.Changed = true
	g.logger.Debug("wrote registrations", zap.String("path", filepath.ToSlash(out)), zap.Int("services", res.Services))
	return res, nil
}

// check reports whether the registration file of dir matches what generate
// would write.
func (g *generator) check(dir string) (result, error) {
	p, err := g.load(dir)
	if err != nil {
		return result{}, err
	}

	out := filepath.Join(dir, g.cfg.Output)
	res := result{Path: out, Services: len(p.Services)}

	if len(p.Services) == 0 {
		res.Changed = fileExists(out)
		return res, nil
	}

	src, err := render(p)
	if err != nil {
		return res, err
	}

	existing, err := os.ReadFile(out)
	if err != nil && !os.IsNotExist(err) {
		return res, err
	}
	res.Changed = !bytes.Equal(existing, src)
	return res, nil
}

// tempFile abstracts an os.File for testability.
type tempFile interface {
	Name() string
	Write([]byte) (int, error)
	Close() error
}

// File operation hooks, overridden in tests.
var (
	createTempFile = func(dir, pattern string) (tempFile, error) { return os.CreateTemp(dir, pattern) }
	chmodFile      = os.Chmod
	renameFile     = os.Rename
	removeFile     = os.Remove
)

// writeFileAtomic writes to a temporary file in the same directory and then
// renames it over the target path.
func writeFileAtomic(targetPath string, data []byte, perm os.FileMode) (err error) {
	tmpFile, err := createTempFile(filepath.Dir(targetPath), filepath.Base(targetPath)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if err != nil {
			_ = removeFile(tmpPath)
		}
	}()

	if _, err = tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err = tmpFile.Close(); err != nil {
		return err
	}
	if err = chmodFile(tmpPath, perm); err != nil {
		return err
	}
	return renameFile(tmpPath, targetPath)
}
