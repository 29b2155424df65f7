package encoder

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/MeKo-Tech/handscan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressAndEncodeFitsFirstTry(t *testing.T) {
	img := testutil.CreateTestImage(32, 32, color.White)

	res, err := CompressAndEncode(img, 100)
	require.NoError(t, err)
	assert.Equal(t, InitialQuality, res.Quality)
	assert.Equal(t, 1, res.Attempts)
	assert.True(t, res.WithinBudget(100))
	assert.Equal(t, EstimateKB(len(res.Payload)), res.EstimatedKB)

	data, err := Decode(res.Payload)
	require.NoError(t, err)
	_, err = jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
}

func TestCompressAndEncodeUnreachableBudget(t *testing.T) {
	img := testutil.NoiseImage(128, 128, 1)

	res, err := CompressAndEncode(img, 0)
	require.NoError(t, err)
	assert.Equal(t, MinQuality, res.Quality)
	assert.Equal(t, MaxAttempts, res.Attempts)
	assert.Equal(t, 10, res.Attempts)
	assert.False(t, res.WithinBudget(0))
	assert.NotEmpty(t, res.Payload)
}

func TestCompressAndEncodeNegativeBudget(t *testing.T) {
	res, err := CompressAndEncode(testutil.CreateTestImage(8, 8, color.Black), -1)
	require.NoError(t, err)
	assert.Equal(t, MinQuality, res.Quality)
	assert.Equal(t, MaxAttempts, res.Attempts)
}

func TestCompressAndEncodeLowersQuality(t *testing.T) {
	img := testutil.NoiseImage(128, 128, 2)

	full, err := CompressAndEncode(img, 1<<20)
	require.NoError(t, err)
	require.Equal(t, InitialQuality, full.Quality)

	budget := full.EstimatedKB - 1
	res, err := CompressAndEncode(img, budget)
	require.NoError(t, err)
	assert.Less(t, res.Quality, InitialQuality)
	assert.Equal(t, (InitialQuality-res.Quality)/QualityStep+1, res.Attempts)
	if res.Quality > MinQuality {
		assert.LessOrEqual(t, res.EstimatedKB, budget)
	}
}

func TestCompressAndEncodeInvalidImage(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
	}{
		{"nil", nil},
		{"empty bounds", image.NewRGBA(image.Rect(0, 0, 0, 10))},
		{"too wide for jpeg", image.NewGray(image.Rect(0, 0, 1<<16, 1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := CompressAndEncode(tt.img, 100)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrInvalidImage)
		})
	}
}

func TestEncodeImage(t *testing.T) {
	img := testutil.CreateTestImageWithText("Hello", 120, 40)

	high, err := EncodeImage(img, 100)
	require.NoError(t, err)
	low, err := EncodeImage(img, 10)
	require.NoError(t, err)
	assert.Less(t, len(low), len(high))

	_, err = EncodeImage(nil, 90)
	assert.ErrorIs(t, err, ErrInvalidImage)
}
