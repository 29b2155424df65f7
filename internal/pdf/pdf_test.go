package pdf

import (
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/handscan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		name        string
		pageRange   string
		want        []int
		expectError bool
	}{
		{name: "empty range returns nil", pageRange: "", want: nil},
		{name: "blank range returns nil", pageRange: "  ", want: nil},
		{name: "single page", pageRange: "1", want: []int{1}},
		{name: "multiple single pages", pageRange: "1,3,5", want: []int{1, 3, 5}},
		{name: "simple range", pageRange: "1-5", want: []int{1, 2, 3, 4, 5}},
		{name: "mixed pages and ranges", pageRange: "1-3,5", want: []int{1, 2, 3, 5}},
		{name: "range with spaces", pageRange: " 1 - 3 , 5 ", want: []int{1, 2, 3, 5}},
		{name: "duplicates collapse", pageRange: "2,1-3,2", want: []int{2, 1, 3}},
		{name: "invalid page number", pageRange: "abc", expectError: true},
		{name: "invalid range format", pageRange: "1-2-3", expectError: true},
		{name: "start greater than end", pageRange: "5-1", expectError: true},
		{name: "invalid start page", pageRange: "abc-5", expectError: true},
		{name: "invalid end page", pageRange: "1-xyz", expectError: true},
		{name: "zero page", pageRange: "0", expectError: true},
		{name: "negative page", pageRange: "-1", expectError: true},
		{name: "trailing comma", pageRange: "1,", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePageRange(tt.pageRange)

			if tt.expectError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParsePageFromFilename(t *testing.T) {
	tests := []struct {
		name        string
		stem        string
		filename    string
		want        int
		expectError bool
	}{
		{name: "stem with image name", stem: "scan", filename: "scan_1_Im0.png", want: 1},
		{name: "stem single image per page", stem: "scan", filename: "scan_12.jpg", want: 12},
		{name: "stem with underscores", stem: "my_notes", filename: "my_notes_3_Im1.jpg", want: 3},
		{name: "legacy page prefix", stem: "scan", filename: "page_10_image_2.jpg", want: 10},
		{name: "other document", stem: "scan", filename: "other_1_Im0.png", expectError: true},
		{name: "missing number", stem: "scan", filename: "scan_Im0.png", expectError: true},
		{name: "bare prefix", stem: "scan", filename: "page_", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePageFromFilename(tt.stem, tt.filename)

			if tt.expectError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCollectExtractedImages_MixedFormatsAndPages(t *testing.T) {
	tempDir := t.TempDir()

	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := range 6 {
		for x := range 8 {
			img.Set(x, y, color.RGBA{uint8(10 * x), uint8(10 * y), 0, 255})
		}
	}

	testutil.SaveImage(t, img, filepath.Join(tempDir, "doc_1_Im0.png"))
	testutil.SaveImage(t, img, filepath.Join(tempDir, "doc_1_Im1.jpg"))
	testutil.SaveImage(t, img, filepath.Join(tempDir, "doc_2_Im0.png"))

	testutil.WriteFile(t, tempDir, "notes.txt", []byte("ignore"))
	testutil.SaveImage(t, img, filepath.Join(tempDir, "not_a_match.png"))

	result, err := collectExtractedImages(tempDir, "doc")
	require.NoError(t, err)

	require.Len(t, result, 2)
	require.Len(t, result[1], 2)
	require.Len(t, result[2], 1)

	for _, imgs := range result {
		for _, img := range imgs {
			b := img.Bounds()
			assert.Equal(t, 8, b.Dx())
			assert.Equal(t, 6, b.Dy())
		}
	}
}

func TestCollectExtractedImages_SkipsUnreadable(t *testing.T) {
	tempDir := t.TempDir()

	testutil.WriteFile(t, tempDir, "doc_3_Im0.png", []byte("corrupt"))
	testutil.SaveImage(t, image.NewRGBA(image.Rect(0, 0, 5, 5)), filepath.Join(tempDir, "doc_4_Im0.jpg"))

	result, err := collectExtractedImages(tempDir, "doc")
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Len(t, result[4], 1)
}

func TestExtractImages_ErrorCases(t *testing.T) {
	t.Run("non-existent file", func(t *testing.T) {
		_, err := ExtractImages("/non/existent/file.pdf", "", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to extract images from PDF")
	})

	t.Run("invalid page range", func(t *testing.T) {
		_, err := ExtractImages("dummy.pdf", "invalid-range", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid page range")
	})

	t.Run("not a pdf", func(t *testing.T) {
		path := testutil.WriteFile(t, t.TempDir(), "fake.pdf", []byte("hello"))
		_, err := ExtractImages(path, "", &Credentials{UserPassword: "x"})
		require.Error(t, err)
	})
}

func TestExtractTextLayer_Errors(t *testing.T) {
	_, err := ExtractTextLayer("/non/existent/file.pdf", "")
	require.Error(t, err)

	_, err = ExtractTextLayer("dummy.pdf", "1-x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid page range")
}

func TestPageCount_Missing(t *testing.T) {
	_, err := PageCount(filepath.Join(t.TempDir(), "missing.pdf"), nil)
	require.Error(t, err)
}

func TestIsPasswordError(t *testing.T) {
	assert.False(t, IsPasswordError(nil))
	assert.True(t, IsPasswordError(ErrPasswordRequired))
	assert.True(t, IsPasswordError(errorString("pdfcpu: please provide the correct password")))
	assert.True(t, IsPasswordError(errorString("file is Encrypted")))
	assert.False(t, IsPasswordError(errorString("unexpected EOF")))
}

type errorString string

func (e errorString) Error() string { return string(e) }

func TestCredentialsConfiguration(t *testing.T) {
	var nilCreds *Credentials
	conf := nilCreds.configuration()
	require.NotNil(t, conf)
	assert.Empty(t, conf.UserPW)

	conf = (&Credentials{UserPassword: "u", OwnerPassword: "o"}).configuration()
	assert.Equal(t, "u", conf.UserPW)
	assert.Equal(t, "o", conf.OwnerPW)
}

func BenchmarkParsePageRange(b *testing.B) {
	for _, pageRange := range []string{"1", "1-10", "1,3,5,7,9", "1-5,10-15,20"} {
		b.Run("range_"+strings.ReplaceAll(pageRange, ",", "_"), func(b *testing.B) {
			for range b.N {
				_, _ = parsePageRange(pageRange)
			}
		})
	}
}
