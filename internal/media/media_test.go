package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPublicID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			"standard delivery url",
			"https://res.cloudinary.com/demo/image/upload/v1700000000/products/tea.jpg",
			"products/tea",
		},
		{
			"nested folders",
			"https://res.cloudinary.com/demo/image/upload/v1/shop/catalog/item.png",
			"shop/catalog/item",
		},
		{
			"no extension",
			"https://res.cloudinary.com/demo/image/upload/v1700000000/products/tea",
			"products/tea",
		},
		{"no upload segment", "https://example.com/images/tea.jpg", ""},
		{"no version segment", "https://res.cloudinary.com/demo/image/upload/products/tea.jpg", ""},
		{"nothing after version", "https://res.cloudinary.com/demo/image/upload/v1700000000", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractPublicID(tt.url))
		})
	}
}

func TestNilResizerPassthrough(t *testing.T) {
	var r *Resizer

	url := "https://res.cloudinary.com/demo/image/upload/v1/products/tea.jpg"
	assert.Equal(t, url, r.Thumbnail(url))
	assert.Equal(t, url, r.Detail(url))
}

func TestNonCloudinaryPassthrough(t *testing.T) {
	r := &Resizer{}

	url := "https://example.com/images/tea.jpg"
	assert.Equal(t, url, r.Thumbnail(url))
}
