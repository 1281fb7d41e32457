package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/relabs-tech/shake_slideshow/internal/slideshow"
)

// RGB565 is a big-endian 16-bit panel color.
type RGB565 uint16

// ToRGB565 keeps the top 5/6/5 bits of each channel.
func ToRGB565(c color.Color) RGB565 {
	r, g, b, _ := c.RGBA()
	return RGB565((r>>11)<<11 | (g>>10)<<5 | b>>11)
}

const lineHeight = 13

// RenderText draws lines of white 7x13 text, centred, on a black frame of
// width x height and streams it to sink one row at a time. Only a single row
// of pixels is held in memory.
func RenderText(sink slideshow.Sink, width, height int, lines ...string) error {
	img := image.NewRGBA(image.Rect(0, 0, width, 1))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{color.White},
		Face: basicfont.Face7x13,
	}
	top := (height-len(lines)*lineHeight)/2 + lineHeight
	dots := make([]fixed.Point26_6, len(lines))
	for i, line := range lines {
		w := drawer.MeasureString(line).Ceil()
		dots[i] = fixed.P((width-w)/2, top+i*lineHeight)
	}

	row := make([]byte, width*2)
	for y := 0; y < height; y++ {
		img.Rect = image.Rect(0, y, width, y+1)
		draw.Draw(img, img.Rect, &image.Uniform{color.Black}, image.Point{}, draw.Src)
		for i, line := range lines {
			drawer.Dot = dots[i]
			drawer.DrawString(line)
		}
		for x := 0; x < width; x++ {
			c := ToRGB565(img.RGBAAt(x, y))
			row[2*x], row[2*x+1] = byte(c>>8), byte(c)
		}
		if err := sink.WriteBlock(0, y, width-1, y, row); err != nil {
			return fmt.Errorf("splash row %d: %w", y, err)
		}
	}
	return nil
}
