package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategories_EmbeddedCatalog(t *testing.T) {
	cats := Categories()
	require.Len(t, cats, 12)

	ids := make([]string, len(cats))
	for i, c := range cats {
		ids[i] = c.ID
		assert.NotEmpty(t, c.Name, c.ID)
		assert.NotEmpty(t, c.Icon, c.ID)
		assert.NotEmpty(t, c.Color, c.ID)
	}
	assert.Equal(t, []string{
		"saude", "inovacao", "mobilidade", "politicas-publicas",
		"riscos-urbanos", "sustentabilidade", "planejamento-urbano", "educacao",
		"meio-ambiente", "infraestrutura", "seguranca-publica", "energias-inteligentes",
	}, ids)
}

func TestCategories_ReturnsCopy(t *testing.T) {
	cats := Categories()
	cats[0].Name = "mutated"

	c, err := LookupCategory("saude")
	require.NoError(t, err)
	assert.Equal(t, "Saúde", c.Name)
}

func TestLookupCategory(t *testing.T) {
	c, err := LookupCategory("infraestrutura")
	require.NoError(t, err)
	assert.Equal(t, Category{ID: "infraestrutura", Name: "Infraestrutura da Cidade", Icon: "Hammer", Color: "text-amber-500"}, c)

	_, err = LookupCategory("transito")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "transito")
}

func TestParseCatalog_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty document", "categories: []", "no categories"},
		{"missing id", "categories:\n  - name: Foo\n", "empty id"},
		{"duplicate id", "categories:\n  - id: a\n  - id: a\n", "duplicate"},
		{"malformed yaml", "categories: [", "decode catalog"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
