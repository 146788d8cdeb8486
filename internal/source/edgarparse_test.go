package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentText(t *testing.T) {
	raw := `<html><head><style>p{color:red}</style><script>var x=1;</script></head>
<body><ix:header><ix:hidden>dei:EntityRegistrantName</ix:hidden></ix:header>
<p>We operate   in <b>two</b>
reportable segments.</p></body></html>`

	got, err := documentText(raw)
	require.NoError(t, err)
	assert.Equal(t, "We operate in two reportable segments.", got)

	plain, err := documentText("  plain\n\ttext  ")
	require.NoError(t, err)
	assert.Equal(t, "plain text", plain)
}

func TestParseSegments(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantCount int
		wantNames []string
	}{
		{
			name:      "word count with names",
			text:      "The Company has three reportable segments. Our reportable segments are Americas, Europe and Asia Pacific.",
			wantCount: 3,
			wantNames: []string{"Americas", "Europe", "Asia Pacific"},
		},
		{
			name:      "numeric count",
			text:      "We manage the business as 12 operating segments.",
			wantCount: 12,
		},
		{
			name:      "names only",
			text:      "Our operating segments consist of: Cloud, Devices, and Gaming.",
			wantCount: 3,
			wantNames: []string{"Cloud", "Devices", "Gaming"},
		},
		{
			name: "nothing",
			text: "We sell soft drinks.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, names := ParseSegments(tt.text)
			assert.Equal(t, tt.wantCount, count)
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestParseFoundedYear(t *testing.T) {
	tests := []struct {
		text   string
		want   int
		wantOK bool
	}{
		{"The Coca-Cola Company was incorporated in September 1919 under the laws of Delaware.", 1919, true},
		{"Apple Inc. was incorporated in California in 1977.", 1977, true},
		{"The Company was founded on March 4, 1892 by Thomas Edison.", 1892, true},
		{"The Company was organized in 2099 as a shell.", 0, false},
		{"We have offices in 2020 cities.", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParseFoundedYear(tt.text, 2026)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTenures(t *testing.T) {
	text := "James Quincey has served as our Chief Executive Officer since May 2017 and as Chairman since 2019. " +
		"John Murphy has served as Chief Financial Officer since March 2019."

	ceo, cfo, ceoOK, cfoOK := ParseTenures(text, 2026)
	assert.True(t, ceoOK)
	assert.Equal(t, 9, ceo)
	assert.True(t, cfoOK)
	assert.Equal(t, 7, cfo)

	_, _, ceoOK, cfoOK = ParseTenures("No officer data here.", 2026)
	assert.False(t, ceoOK)
	assert.False(t, cfoOK)

	_, _, ceoOK, _ = ParseTenures("CEO since 2030.", 2026)
	assert.False(t, ceoOK)
}
