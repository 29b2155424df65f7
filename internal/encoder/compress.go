package encoder

import (
	"bytes"
	"errors"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
)

const (
	// InitialQuality is the JPEG quality of the first compression attempt.
	InitialQuality = 100
	// MinQuality is the floor below which compression stops lowering quality.
	MinQuality = 10
	// QualityStep is subtracted from the quality after each attempt that
	// misses the size budget.
	QualityStep = 10
	// MaxAttempts bounds the number of JPEG encodes per CompressAndEncode call.
	MaxAttempts = (InitialQuality-MinQuality)/QualityStep + 1
)

// Compressed is the outcome of CompressAndEncode.
type Compressed struct {
	Payload     string
	Quality     int
	Attempts    int
	EstimatedKB int
}

// WithinBudget reports whether the payload met the budget it was built for.
func (c *Compressed) WithinBudget(maxSizeKB int) bool {
	return c.EstimatedKB <= maxSizeKB
}

// EncodeImage JPEG-encodes img at quality and returns the payload.
func EncodeImage(img image.Image, quality int) (string, error) {
	if err := checkImage(img); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return "", &EncodeError{Kind: InvalidImage, Op: "jpeg", Err: err}
	}
	return Encode(buf.Bytes()), nil
}

// CompressAndEncode JPEG-encodes img starting at InitialQuality and lowers the
// quality by QualityStep until the estimated decoded size fits maxSizeKB or
// the quality reaches MinQuality. When even MinQuality misses the budget the
// last payload is returned; a missed budget is never an error. The only
// failure is the codec rejecting img itself.
func CompressAndEncode(img image.Image, maxSizeKB int) (*Compressed, error) {
	if err := checkImage(img); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	res := &Compressed{Quality: InitialQuality}
	for {
		buf.Reset()
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(res.Quality)); err != nil {
			return nil, &EncodeError{Kind: InvalidImage, Op: "compress", Err: err}
		}
		res.Attempts++
		res.Payload = Encode(buf.Bytes())
		res.EstimatedKB = EstimateKB(len(res.Payload))

		if res.EstimatedKB <= maxSizeKB || res.Quality <= MinQuality {
			break
		}
		res.Quality -= QualityStep
	}

	slog.Debug("compressed image",
		"quality", res.Quality,
		"attempts", res.Attempts,
		"estimated_kb", res.EstimatedKB,
		"max_kb", maxSizeKB)

	return res, nil
}

func checkImage(img image.Image) error {
	if img == nil {
		return &EncodeError{Kind: InvalidImage, Op: "jpeg", Err: errors.New("image is nil")}
	}
	if img.Bounds().Empty() {
		return &EncodeError{Kind: InvalidImage, Op: "jpeg", Err: errors.New("image has empty bounds")}
	}
	return nil
}
