package encoder

import (
	"bytes"
	"testing"

	"github.com/MeKo-Tech/handscan/internal/testutil"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestEncode_RoundTrip verifies Decode(Encode(b)) == b for arbitrary bytes.
func TestEncode_RoundTrip(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("decode inverts encode", prop.ForAll(
		func(data []byte) bool {
			got, err := Decode(Encode(data))
			return err == nil && bytes.Equal(got, data)
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.Property("payload length is 4*ceil(n/3)", prop.ForAll(
		func(data []byte) bool {
			return len(Encode(data)) == 4*((len(data)+2)/3)
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}

// TestEstimateKB_Formula checks the estimate against its closed form.
func TestEstimateKB_Formula(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("estimate is floor(floor(L*3/4)/1024)", prop.ForAll(
		func(length int) bool {
			return EstimateKB(length) == (length*3/4)/1024
		},
		gen.IntRange(0, 64<<20),
	))

	properties.Property("estimate never decreases with length", prop.ForAll(
		func(a, b int) bool {
			if a > b {
				a, b = b, a
			}
			return EstimateKB(a) <= EstimateKB(b)
		},
		gen.IntRange(0, 8<<20),
		gen.IntRange(0, 8<<20),
	))

	properties.TestingRun(t)
}

// TestCompressAndEncode_Properties checks the quality search on noisy images.
func TestCompressAndEncode_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	properties := gopter.NewProperties(parameters)

	img := testutil.NoiseImage(96, 96, 42)

	properties.Property("smaller budget never yields higher quality", prop.ForAll(
		func(a, b int) bool {
			if a > b {
				a, b = b, a
			}
			small, err := CompressAndEncode(img, a)
			if err != nil {
				return false
			}
			large, err := CompressAndEncode(img, b)
			if err != nil {
				return false
			}
			return small.Quality <= large.Quality
		},
		gen.IntRange(-2, 40),
		gen.IntRange(-2, 40),
	))

	properties.Property("attempts bounded and consistent with quality", prop.ForAll(
		func(budget int) bool {
			res, err := CompressAndEncode(img, budget)
			if err != nil {
				return false
			}
			if res.Attempts < 1 || res.Attempts > MaxAttempts {
				return false
			}
			if res.Quality < MinQuality || res.Quality > InitialQuality {
				return false
			}
			return res.Attempts == (InitialQuality-res.Quality)/QualityStep+1
		},
		gen.IntRange(-5, 60),
	))

	properties.Property("result fits budget unless quality hit the floor", prop.ForAll(
		func(budget int) bool {
			res, err := CompressAndEncode(img, budget)
			if err != nil {
				return false
			}
			return res.EstimatedKB <= budget || res.Quality == MinQuality
		},
		gen.IntRange(-5, 60),
	))

	properties.TestingRun(t)
}
