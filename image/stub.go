package image

import (
	"fmt"
	"go/token"
	"io"
	"text/template"
)

var stubTmpl = template.Must(template.New("stub").Parse(`// Code generated by embedfs pack. DO NOT EDIT.

package {{.Package}}

import (
	_ "embed"

	"github.com/brettbedarf/embedfs/image"
)

//go:embed {{.Bundle}}
var embeddedImage []byte

func init() {
	image.RegisterEmbedded(embeddedImage)
}
`))

// WriteEmbedStub renders a Go file for package pkg that links the bundle file
// named bundle (relative to the generated file) into the executable.
func WriteEmbedStub(w io.Writer, pkg, bundle string) error {
	if !token.IsIdentifier(pkg) {
		return fmt.Errorf("invalid package name %q", pkg)
	}
	return stubTmpl.Execute(w, struct{ Package, Bundle string }{pkg, bundle})
}
