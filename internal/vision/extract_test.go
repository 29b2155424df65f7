package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name       string
		resp       *AnnotateResponse
		wantText   string
		wantLocale string
		wantErr    error
	}{
		{name: "nil response", resp: nil, wantErr: ErrNoResultFound},
		{name: "no responses", resp: &AnnotateResponse{}, wantErr: ErrNoResultFound},
		{name: "empty response", resp: &AnnotateResponse{Responses: []ImageResponse{{}}}, wantErr: ErrNoResultFound},
		{
			name: "full text preferred",
			resp: &AnnotateResponse{Responses: []ImageResponse{{
				FullTextAnnotation: &FullTextAnnotation{Text: "full"},
				TextAnnotations:    []TextAnnotation{{Description: "first", Locale: "de"}},
			}}},
			wantText:   "full",
			wantLocale: "de",
		},
		{
			name: "falls back to first annotation",
			resp: &AnnotateResponse{Responses: []ImageResponse{{
				TextAnnotations: []TextAnnotation{{Description: "first"}, {Description: "second"}},
			}}},
			wantText: "first",
		},
		{
			name: "locale from detected languages",
			resp: &AnnotateResponse{Responses: []ImageResponse{{
				FullTextAnnotation: &FullTextAnnotation{
					Text: "bonjour",
					Pages: []Page{{Property: &TextProperty{
						DetectedLanguages: []DetectedLanguage{{LanguageCode: "fr", Confidence: 0.9}},
					}}},
				},
			}}},
			wantText:   "bonjour",
			wantLocale: "fr",
		},
		{
			name: "only first response is read",
			resp: &AnnotateResponse{Responses: []ImageResponse{
				{},
				{FullTextAnnotation: &FullTextAnnotation{Text: "second image"}},
			}},
			wantErr: ErrNoResultFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ExtractText(tt.resp)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, res.Text)
			assert.Equal(t, tt.wantLocale, res.Locale)
		})
	}
}

func TestExtractTextCounts(t *testing.T) {
	resp := &AnnotateResponse{Responses: []ImageResponse{{
		TextAnnotations: []TextAnnotation{{Description: "a b c"}, {Description: "a"}, {Description: "b"}, {Description: "c"}},
		FullTextAnnotation: &FullTextAnnotation{
			Text: "a b c",
			Pages: []Page{{Blocks: []Block{
				{Paragraphs: []Paragraph{{Words: []Word{{}, {}}}}},
				{Paragraphs: []Paragraph{{Words: []Word{{}}}}},
			}}},
		},
	}}}

	res, err := ExtractText(resp)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Annotations)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, 2, res.Blocks)
	assert.Equal(t, 3, res.Words)
}

func TestWordText(t *testing.T) {
	w := Word{Symbols: []Symbol{{Text: "H"}, {Text: "é"}, {Text: "!"}}}
	assert.Equal(t, "Hé!", w.Text())
	assert.Empty(t, Word{}.Text())
}

func TestExtractTextKeepsResponse(t *testing.T) {
	resp := &AnnotateResponse{Responses: []ImageResponse{{FullTextAnnotation: &FullTextAnnotation{Text: "x"}}}}
	res, err := ExtractText(resp)
	require.NoError(t, err)
	assert.Same(t, resp, res.Response)
}
