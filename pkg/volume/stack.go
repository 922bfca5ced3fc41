package volume

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
)

// ErrNoImages is returned when a directory holds no decodable slice images.
var ErrNoImages = errors.New("no slice images found")

// stackExtensions lists the file types LoadStack picks up.
var stackExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// Stack is a volume read from a directory of 2D images, one image per K
// slice.
type Stack struct {
	// Data holds the gray values in [0,255], k-major then j then i
	Data []float64

	Width  int
	Height int
	Depth  int
}

// LoadStack reads every image in dir as one axial slice. Files are ordered
// by the number embedded in their names, so slice_2 comes before
// slice_10. All images must have the dimensions of the first one.
func LoadStack(dir string) (*Stack, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading slice directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if stackExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, dir)
	}

	// the embedded number gives the anatomical order
	sort.SliceStable(files, func(i, j int) bool {
		return extractNumber(files[i]) < extractNumber(files[j])
	})

	st := &Stack{}
	for _, name := range files {
		img, err := loadImage(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to load image %s: %w", name, err)
		}

		b := img.Bounds()
		if st.Depth == 0 {
			st.Width, st.Height = b.Dx(), b.Dy()
		} else if b.Dx() != st.Width || b.Dy() != st.Height {
			return nil, fmt.Errorf("image %s is %dx%d, want %dx%d", name, b.Dx(), b.Dy(), st.Width, st.Height)
		}

		st.Data = append(st.Data, imageToGray(img)...)
		st.Depth++
	}
	return st, nil
}

// extractNumber extracts the digits of a file name as one number, 0 when
// there are none.
func extractNumber(filename string) int {
	var digits strings.Builder
	for _, c := range filepath.Base(filename) {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return n
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	return img, err
}

// imageToGray converts an image to row-major gray values in [0,255].
func imageToGray(img image.Image) []float64 {
	b := img.Bounds()
	out := make([]float64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
			out = append(out, float64(g.Y)/257)
		}
	}
	return out
}
