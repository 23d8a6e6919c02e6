package render

import (
	"image"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/jcranney/mavdac/internal/fits"
)

// WritePNG saves a grayscale PNG preview of the frame, linearly stretched
// between its minimum and maximum pixel values. Frames larger than maxDim on
// either side are downscaled to fit.
func WritePNG(im *fits.Image, path string, maxDim int) error {
	lo, hi := im.Data[0], im.Data[0]
	for _, v := range im.Data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	scale := 0.0
	if hi > lo {
		scale = 255 / (hi - lo)
	}

	gray := image.NewGray(image.Rect(0, 0, im.Width, im.Height))
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			gray.Pix[y*gray.Stride+x] = uint8((im.At(x, y) - lo) * scale)
		}
	}

	out := image.Image(gray)
	if im.Width > maxDim || im.Height > maxDim {
		w, h := im.Width, im.Height
		if w >= h {
			h = h * maxDim / w
			w = maxDim
		} else {
			w = w * maxDim / h
			h = maxDim
		}
		scaled := image.NewGray(image.Rect(0, 0, w, h))
		xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), gray, gray.Bounds(), xdraw.Src, nil)
		out = scaled
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, out)
}
