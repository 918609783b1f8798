package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/quickfinder/api/schemas"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want schemas.Selector
	}{
		{"absolute xpath", "/html/body/div[2]/a", schemas.Selector{Kind: schemas.PathQuery, Expression: "/html/body/div[2]/a"}},
		{"descendant xpath", "//td[7]", schemas.Selector{Kind: schemas.PathQuery, Expression: "//td[7]"}},
		{"css id", "#PORTAL_LOGINNAME", schemas.Selector{Kind: schemas.StructuralQuery, Expression: "#PORTAL_LOGINNAME"}},
		{"css child", "body > div:nth-child(4) > a", schemas.Selector{Kind: schemas.StructuralQuery, Expression: "body > div:nth-child(4) > a"}},
		{"explicit xpath prefix", "xpath=//a[@id='x']", schemas.Selector{Kind: schemas.PathQuery, Expression: "//a[@id='x']"}},
		{"explicit css prefix keeps slash", "css=/weird", schemas.Selector{Kind: schemas.StructuralQuery, Expression: "/weird"}},
		{"surrounding whitespace", "  #btn  ", schemas.Selector{Kind: schemas.StructuralQuery, Expression: "#btn"}},
		{"empty", "", schemas.Selector{Kind: schemas.StructuralQuery, Expression: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"", " ", "/", "//", "/html/body", "xpath=", "xpath=/a", "css=", "css=#a",
		"#id", ".cls > span", "xpath= //x ", "css=xpath=/a", "xpath=css=b", "a[href='/x']",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once.String())
		assert.Equal(t, once, twice, "normalize must be idempotent for %q", in)
	}
}

func TestNormalize_SlashPrefixIsPathWithOriginalText(t *testing.T) {
	for _, in := range []string{"/a", "//div[@class='x']", "/html/body/form/table[5]/tbody/tr[3]/td[7]"} {
		got := Normalize(in)
		assert.Equal(t, schemas.PathQuery, got.Kind)
		assert.Equal(t, in, got.Expression)
	}
}

func TestIsPathAndAll(t *testing.T) {
	assert.True(t, IsPath("//a"))
	assert.False(t, IsPath("#a"))

	all := All("//a", "#b")
	assert.Len(t, all, 2)
	assert.Equal(t, schemas.PathQuery, all[0].Kind)
	assert.Equal(t, schemas.StructuralQuery, all[1].Kind)
}
