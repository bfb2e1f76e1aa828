package dicom

import (
	"image"
	"image/color"

	"github.com/suyashkumar/dicom/pkg/frame"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// MaxDimension bounds the exported image size. Larger inputs are scaled
// down preserving the aspect ratio.
const MaxDimension = 1024

// grayFrame flattens img over white, downsizes it to MaxDimension and
// returns 8-bit MONOCHROME2 pixels with the frame size.
func grayFrame(img image.Image) (*frame.NativeFrame[uint8], int, int) {
	b := img.Bounds()
	w, h := fit(b.Dx(), b.Dy(), MaxDimension)

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(canvas, canvas.Bounds(), img, b.Min, draw.Over)
	} else {
		draw.BiLinear.Scale(canvas, canvas.Bounds(), img, b, draw.Over, nil)
	}

	nf := frame.NewNativeFrame[uint8](8, h, w, w*h, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := color.GrayModel.Convert(canvas.At(x, y)).(color.Gray)
			nf.RawData[y*w+x] = g.Y
		}
	}
	return nf, w, h
}

func fit(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		return limit, max(1, h*limit/w)
	}
	return max(1, w*limit/h), limit
}

// drawCaption burns text into the top-left corner of the frame, white with
// a black outline so it reads on both photos and signatures.
func drawCaption(nf *frame.NativeFrame[uint8], width, height int, text string) {
	face := basicfont.Face7x13
	baseW := font.MeasureString(face, text).Ceil()
	baseH := 13
	if baseW == 0 {
		return
	}

	textImg := image.NewAlpha(image.Rect(0, 0, baseW, baseH))
	d := &font.Drawer{
		Dst:  textImg,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.Point26_6{Y: fixed.I(11)},
	}
	d.DrawString(text)

	scale := 1
	if width >= 4*baseW {
		scale = 2
	}
	sw, sh := baseW*scale, baseH*scale
	scaled := image.NewAlpha(image.Rect(0, 0, sw, sh))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), textImg, textImg.Bounds(), draw.Src, nil)

	margin := 4 * scale
	outline := scale
	set := func(x, y int, v uint8) {
		if x >= 0 && x < width && y >= 0 && y < height {
			nf.RawData[y*width+x] = v
		}
	}
	for sy := 0; sy < sh; sy++ {
		for sx := 0; sx < sw; sx++ {
			if scaled.AlphaAt(sx, sy).A == 0 {
				continue
			}
			for dy := -outline; dy <= outline; dy++ {
				for dx := -outline; dx <= outline; dx++ {
					set(margin+sx+dx, margin+sy+dy, 0)
				}
			}
		}
	}
	for sy := 0; sy < sh; sy++ {
		for sx := 0; sx < sw; sx++ {
			if scaled.AlphaAt(sx, sy).A > 0 {
				set(margin+sx, margin+sy, 255)
			}
		}
	}
}
