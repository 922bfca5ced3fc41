// Package visualization exports rendered slices of a volume as image files.
package visualization

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"sliceview/internal/models"
	"sliceview/pkg/colortable"
	"sliceview/pkg/render2d"
)

// Viewer renders a volume with one 2D renderer per orientation and saves
// the frames.
type Viewer struct {
	volume *models.Volume

	// canvas size of every frame
	width  int
	height int

	// JPEGQuality is used for .jpg and .jpeg output
	JPEGQuality int

	// VolumePalette and LabelPalette replace the volume's own colortables
	// when set
	VolumePalette *colortable.Palette
	LabelPalette  *colortable.Palette

	Radiological bool

	renderers map[render2d.Orientation]*render2d.Renderer2D
}

// NewViewer creates a viewer rendering vol onto width x height frames.
func NewViewer(vol *models.Volume, width, height int) *Viewer {
	return &Viewer{
		volume:      vol,
		width:       width,
		height:      height,
		JPEGQuality: 90,
		renderers:   make(map[render2d.Orientation]*render2d.Renderer2D),
	}
}

// renderer returns the renderer for orientation, creating it on first use.
func (v *Viewer) renderer(orientation string) (*render2d.Renderer2D, error) {
	o, err := render2d.ParseOrientation(orientation)
	if err != nil {
		return nil, err
	}
	if r, ok := v.renderers[o]; ok {
		return r, nil
	}

	r, err := render2d.New(render2d.Options{
		Width:        v.width,
		Height:       v.height,
		Orientation:  orientation,
		Radiological: v.Radiological,
	})
	if err != nil {
		return nil, err
	}
	if err := r.Init(); err != nil {
		return nil, err
	}
	if v.VolumePalette != nil {
		if err := r.SetColortable(*v.VolumePalette); err != nil {
			return nil, err
		}
	}
	if v.LabelPalette != nil {
		if err := r.SetLabelmapColortable(*v.LabelPalette); err != nil {
			return nil, err
		}
	}
	if err := r.Update(v.volume); err != nil {
		return nil, err
	}

	v.renderers[o] = r
	return r, nil
}

// RenderSlice renders the slice at position along the orientation's axis
// and returns a copy of the frame.
func (v *Viewer) RenderSlice(orientation string, position int) (image.Image, error) {
	r, err := v.renderer(orientation)
	if err != nil {
		return nil, err
	}

	axis := r.Orientation().Axis()
	count := len(v.volume.Slices[axis])
	if position < 0 || position >= count {
		return nil, fmt.Errorf("position %d outside [0, %d) along %s", position, count, r.Orientation())
	}
	v.volume.Index[axis] = position

	if err := r.Render(); err != nil {
		return nil, fmt.Errorf("render %s slice %d: %w", r.Orientation(), position, err)
	}

	canvas := r.Canvas()
	frame := image.NewRGBA(canvas.Bounds())
	draw.Draw(frame, frame.Bounds(), canvas, image.Point{}, draw.Src)
	return frame, nil
}

// SaveFrame saves a frame as PNG, or JPEG for .jpg and .jpeg file names.
// JPEG has no alpha, so frames are flattened onto black first.
func (v *Viewer) SaveFrame(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		flat := image.NewRGBA(img.Bounds())
		draw.Draw(flat, flat.Bounds(), image.Black, image.Point{}, draw.Src)
		draw.Draw(flat, flat.Bounds(), img, img.Bounds().Min, draw.Over)
		return jpeg.Encode(file, flat, &jpeg.Options{Quality: v.JPEGQuality})
	default:
		return png.Encode(file, img)
	}
}

// SaveSliceSequence renders and saves every slice along the orientation's
// axis into outputDir, using the given file extension (png or jpg).
func (v *Viewer) SaveSliceSequence(orientation, outputDir, ext string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	r, err := v.renderer(orientation)
	if err != nil {
		return err
	}
	axis := r.Orientation().Axis()
	restore := v.volume.Index[axis]
	defer func() { v.volume.Index[axis] = restore }()

	for pos := range v.volume.Slices[axis] {
		img, err := v.RenderSlice(orientation, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.%s", strings.ToLower(r.Orientation().String()), pos, ext))
		if err := v.SaveFrame(img, filename); err != nil {
			return err
		}
	}

	return nil
}

// SaveCurrent renders the current slice of each orientation into
// outputDir as <prefix>_<orientation>.<ext> and returns the file names.
func (v *Viewer) SaveCurrent(outputDir, prefix, ext string, orientations ...string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	var files []string
	for _, name := range orientations {
		o, err := render2d.ParseOrientation(name)
		if err != nil {
			return files, err
		}
		img, err := v.RenderSlice(name, v.volume.Index[o.Axis()])
		if err != nil {
			return files, err
		}
		filename := filepath.Join(outputDir, fmt.Sprintf("%s_%s.%s", prefix, strings.ToLower(o.String()), ext))
		if err := v.SaveFrame(img, filename); err != nil {
			return files, err
		}
		files = append(files, filename)
	}
	return files, nil
}
