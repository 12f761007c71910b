package tui_test

import (
	"bytes"
	"strings"
	"testing"

	mayausd "github.com/mhamid3d/maya-usd"
	"github.com/mhamid3d/maya-usd/internal/presentation/tui"
	"github.com/mhamid3d/maya-usd/pkg/adapters/memory"
	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEditor(t *testing.T) *mayausd.Editor {
	t.Helper()
	anim := domain.NewLayerData("anim", "anim.usda")
	anim.Specs["/World"] = domain.NewPrimSpec(domain.SpecifierOver, "")
	anim.Specs["/World/Light"] = domain.NewPrimSpec(domain.SpecifierDef, "SphereLight")
	anim.Specs["/World/Ghost"] = domain.NewPrimSpec(domain.SpecifierOver, "")

	root := domain.NewLayerData("root", "root.usda")
	root.Specs["/World"] = domain.NewPrimSpec(domain.SpecifierDef, "Xform")
	root.Specs["/World/Cube"] = domain.NewPrimSpec(domain.SpecifierDef, "Cube")

	stage, err := memory.NewStage(anim, root)
	require.NoError(t, err)
	ed := mayausd.New(stage)
	t.Cleanup(func() { _ = ed.Close() })
	return ed
}

func TestStageMarkdown(t *testing.T) {
	md := tui.StageMarkdown(newEditor(t))

	assert.Contains(t, md, "| 0 | `anim` | anim.usda | **edit target** |")
	assert.Contains(t, md, "| 1 | `root` | root.usda |  |")
	assert.Contains(t, md, "| `/World` | Xform | anim, root | no, opinions in anim.usda, root.usda |")
	assert.Contains(t, md, "| `/World/Cube` | Cube | root | retarget to root.usda |")
	assert.Contains(t, md, "| `/World/Light` | SphereLight | anim | yes, in `anim` |")
	assert.Contains(t, md, "| `/World/Ghost` |  | anim | no, not defined |")
}

func TestNewRenderer(t *testing.T) {
	render, err := tui.NewRenderer("notty")
	require.NoError(t, err)

	out, err := render("# Stage\n\nHello")
	require.NoError(t, err)
	assert.Contains(t, out, "Stage")
	assert.Contains(t, out, "Hello")

	_, err = tui.NewRenderer("no-such-style")
	assert.Error(t, err)
}

func TestPaletteAndBanner(t *testing.T) {
	p := tui.NewPalette("")
	assert.Contains(t, p.Success("renamed"), "renamed")
	assert.Contains(t, p.Failure("rejected"), "rejected")
	assert.Contains(t, p.Accent("/World"), "/World")

	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.GreaterOrEqual(t, strings.Count(buf.String(), "\n"), 6)
}
