package topic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "simple numbered list",
			text: "1. Alpha\n2. Beta\n3. Gamma",
			want: []string{"Alpha", "Beta", "Gamma"},
		},
		{
			name: "no list",
			text: "no list here",
			want: []string{},
		},
		{
			name: "empty input",
			text: "",
			want: []string{},
		},
		{
			name: "prose around the list is ignored",
			text: "Here are five ideas:\n\n1. Alpha\nsome detail about alpha\n2. Beta\n\nGood luck!",
			want: []string{"Alpha", "Beta"},
		},
		{
			name: "leading whitespace and multi digit numbers",
			text: "   9. Nine\n\t10. Ten",
			want: []string{"Nine", "Ten"},
		},
		{
			name: "windows line endings",
			text: "1. Alpha\r\n2. Beta\r\n",
			want: []string{"Alpha", "Beta"},
		},
		{
			name: "markdown formatting is kept verbatim",
			text: "1. **Photosynthesis rate**: light vs. growth",
			want: []string{"**Photosynthesis rate**: light vs. growth"},
		},
		{
			name: "decimal numbers are not list items",
			text: "The value was 3.14 today\n1.5 liters",
			want: []string{},
		},
		{
			name: "number without text yields an empty item",
			text: "1. \n2. Beta",
			want: []string{"", "Beta"},
		},
		{
			name: "more than five items are all returned",
			text: "1. a\n2. b\n3. c\n4. d\n5. e\n6. f",
			want: []string{"a", "b", "c", "d", "e", "f"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	text := "1. Alpha\n2. Beta"
	assert.Equal(t, Extract(text), Extract(text))
}

func TestExtractKeepsItemsAfterHugeLine(t *testing.T) {
	text := "1. Alpha\n" + strings.Repeat("x", 2*1024*1024) + "\n2. Beta\r\n3. Gamma"
	assert.NotPanics(t, func() {
		got := Extract(text)
		assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, got)
	})
}

func TestExtractHugeNumberedLine(t *testing.T) {
	long := strings.Repeat("y", 2*1024*1024)
	got := Extract("1. " + long + "\n2. Beta")
	require.Len(t, got, 2)
	assert.Len(t, got[0], len(long))
	assert.Equal(t, "Beta", got[1])
}
