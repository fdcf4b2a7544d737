package output

import (
	"image"
	"image/png"
	"io"

	"github.com/nfnt/resize"
)

// Thumbnail scales img down to fit in a maxEdge x maxEdge box, keeping its
// aspect ratio. Images that already fit are returned unchanged.
func Thumbnail(img image.Image, maxEdge uint) image.Image {
	return resize.Thumbnail(maxEdge, maxEdge, img, resize.Bilinear)
}

// WriteThumbnail encodes a PNG thumbnail of img to w
func WriteThumbnail(w io.Writer, img image.Image, maxEdge uint) error {
	return png.Encode(w, Thumbnail(img, maxEdge))
}
