package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPublishable(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"spaced literal", "---\npublish: true\n---\nbody", true},
		{"compact literal", "---\npublish:true\n---\nbody", true},
		{"among other keys", "---\ntitle: Hello\npublish: true\ntags: [a]\n---\n# Hello\n", true},
		{"block at end of text", "---\npublish: true\n---", true},
		{"crlf line endings", "---\r\npublish: true\r\n---\r\nbody", true},
		{"no frontmatter", "# Just a note\npublish: true\n", false},
		{"flag false", "---\npublish: false\n---\n", false},
		{"wrong casing", "---\nPublish: true\n---\n", false},
		{"extra spaces", "---\npublish:  true\n---\n", false},
		{"flag only in body", "---\ntitle: x\n---\npublish: true\n", false},
		{"block not at start", "\n---\npublish: true\n---\n", false},
		{"unclosed block", "---\npublish: true\n", false},
		{"closing line with extra dashes", "---\npublish: true\n----\n", false},
		{"empty text", "", false},
		// Lexical match: an unrelated value containing the literal still counts.
		{"substring of another value", "---\nnote: do not publish: true yet\n---\n", true},
		{"prefix of longer value", "---\npublish: trueish\n---\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPublishable(tt.text))
		})
	}
}

func TestFind(t *testing.T) {
	text := "---\ntitle: A\nslug: a\n---\nbody\n"
	block, ok := Find(text)
	require.True(t, ok)
	assert.Equal(t, "title: A\nslug: a", block.Body)
	assert.Equal(t, "\n---\n", text[block.BodyEnd:block.End])
	assert.Equal(t, "body\n", text[block.End:])

	_, ok = Find("no block here")
	assert.False(t, ok)
}

func TestFindStopsAtFirstClosingDelimiter(t *testing.T) {
	text := "---\na: 1\n---\nbody\n---\nb: 2\n---\n"
	block, ok := Find(text)
	require.True(t, ok)
	assert.Equal(t, "a: 1", block.Body)
}

func TestAddPublishFlag(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "no frontmatter",
			in:   "# Title\n\nText.\n",
			want: "---\npublish: true\n---\n\n# Title\n\nText.\n",
		},
		{
			name: "empty document",
			in:   "",
			want: "---\npublish: true\n---\n\n",
		},
		{
			name: "existing block",
			in:   "---\ntitle: Post\n---\nBody\n",
			want: "---\ntitle: Post\npublish: true\n---\nBody\n",
		},
		{
			name: "existing block with explicit false",
			in:   "---\npublish: false\n---\nBody",
			want: "---\npublish: false\npublish: true\n---\nBody",
		},
		{
			name: "crlf block",
			in:   "---\r\ntitle: Post\r\n---\r\nBody",
			want: "---\r\ntitle: Post\r\npublish: true\r\n---\r\nBody",
		},
		{
			name: "already flagged",
			in:   "---\npublish:true\n---\nBody",
			want: "---\npublish:true\n---\nBody",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddPublishFlag(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, IsPublishable(got))
		})
	}
}

func TestParseMetadata(t *testing.T) {
	meta, err := ParseMetadata("---\ntitle: Launch notes\ntags: [release, go]\npublish: true\n---\nbody")
	require.NoError(t, err)
	assert.Equal(t, "Launch notes", meta.Title)
	assert.Equal(t, Tags{"release", "go"}, meta.Tags)
	assert.Equal(t, true, meta.Extra["publish"])

	meta, err = ParseMetadata("plain note")
	require.NoError(t, err)
	assert.Empty(t, meta.Title)
}

func TestParseMetadataTagForms(t *testing.T) {
	tests := []struct {
		name string
		tags string
		want Tags
	}{
		{"flow list", "tags: [a, b]", Tags{"a", "b"}},
		{"block list", "tags:\n  - a\n  - b", Tags{"a", "b"}},
		{"single scalar", "tags: draft", Tags{"draft"}},
		{"comma scalar", "tags: a, b", Tags{"a", "b"}},
		{"space scalar", "tags: a b", Tags{"a", "b"}},
		{"empty", "tags:", nil},
		{"absent", "other: 1", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := ParseMetadata("---\ntitle: Kept\n" + tt.tags + "\n---\nbody")
			require.NoError(t, err)
			assert.Equal(t, "Kept", meta.Title)
			assert.Equal(t, tt.want, meta.Tags)
		})
	}
}

func TestParseMetadataNestedTagsRejected(t *testing.T) {
	_, err := ParseMetadata("---\ntags:\n  - [a, b]\n---\n")
	assert.Error(t, err)
}

func TestParseMetadataInvalidYAML(t *testing.T) {
	_, err := ParseMetadata("---\ntitle: [unterminated\n---\nbody")
	assert.Error(t, err)
}
