// Package artifacts post-processes working files around the core
// pipeline: thumbnail normalization, container metadata tagging and
// media-kind sniffing. The aggregator itself only ever sees paths.
package artifacts

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
)

// ThumbSize is the square edge length uploads expect for thumbnails.
const ThumbSize = 320

// ProcessThumbnail rewrites the image at path as a ThumbSize x ThumbSize
// JPEG, padding the shorter edge onto a black square before scaling so
// the subject is not distorted. The file is replaced in place.
func ProcessThumbnail(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open thumbnail: %w", err)
	}
	src, _, err := image.Decode(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("decode thumbnail: %w", err)
	}

	squared := padToSquare(src)

	dst := image.NewRGBA(image.Rect(0, 0, ThumbSize, ThumbSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), squared, squared.Bounds(), draw.Over, nil)

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("rewrite thumbnail: %w", err)
	}
	if err := jpeg.Encode(out, dst, &jpeg.Options{Quality: 85}); err != nil {
		out.Close()
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	return out.Close()
}

func padToSquare(src image.Image) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == h {
		return src
	}

	edge := w
	if h > edge {
		edge = h
	}

	square := image.NewRGBA(image.Rect(0, 0, edge, edge))
	draw.Draw(square, square.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	offset := image.Pt((edge-w)/2, (edge-h)/2)
	draw.Draw(square, bounds.Add(offset).Sub(bounds.Min), src, bounds.Min, draw.Over)
	return square
}
