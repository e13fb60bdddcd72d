// Package dataset supplies training examples as float64 feature vectors.
//
// MNIST is read from the IDX binary format (optionally gzip-compressed) and
// scaled to [0, 1]. Linear generates noisy samples of a known linear model.
package dataset

import (
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// IDX magic numbers.
const (
	ImagesMagic = 2051
	LabelsMagic = 2049
)

// Common errors.
var (
	ErrBadMagic = errors.New("invalid IDX magic number")
	ErrMismatch = errors.New("image and label counts differ")
)

// MNIST holds raw images and their labels.
type MNIST struct {
	Rows   int
	Cols   int
	Images [][]byte // [n][Rows*Cols]
	Labels []byte   // [n]
}

// ReadImages reads an IDX image file.
//
// Layout (big endian):
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes
//	number of cols: 4 bytes
//	pixel data: unsigned bytes (0-255)
func ReadImages(r io.Reader, limit int) (images [][]byte, rows, cols int, err error) {
	var header struct {
		Magic, Count, Rows, Cols uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read image header: %w", err)
	}
	if header.Magic != ImagesMagic {
		return nil, 0, 0, fmt.Errorf("%w: got %d, want %d", ErrBadMagic, header.Magic, ImagesMagic)
	}

	count := clamp(int(header.Count), limit)
	size := int(header.Rows * header.Cols)
	images = make([][]byte, count)
	for i := range images {
		images[i] = make([]byte, size)
		if _, err := io.ReadFull(r, images[i]); err != nil {
			return nil, 0, 0, fmt.Errorf("failed to read image %d: %w", i, err)
		}
	}

	return images, int(header.Rows), int(header.Cols), nil
}

// ReadLabels reads an IDX label file.
//
// Layout (big endian):
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
func ReadLabels(r io.Reader, limit int) ([]byte, error) {
	var header struct {
		Magic, Count uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read label header: %w", err)
	}
	if header.Magic != LabelsMagic {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrBadMagic, header.Magic, LabelsMagic)
	}

	labels := make([]byte, clamp(int(header.Count), limit))
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	return labels, nil
}

// LoadMNIST reads an image file and a label file. Paths ending in ".gz" are
// decompressed on the fly. limit > 0 caps the number of examples read.
func LoadMNIST(imagesPath, labelsPath string, limit int) (*MNIST, error) {
	var d MNIST

	err := withReader(imagesPath, func(r io.Reader) (err error) {
		d.Images, d.Rows, d.Cols, err = ReadImages(r, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", imagesPath, err)
	}

	err = withReader(labelsPath, func(r io.Reader) (err error) {
		d.Labels, err = ReadLabels(r, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", labelsPath, err)
	}

	if len(d.Images) != len(d.Labels) {
		return nil, fmt.Errorf("%w: %d images, %d labels", ErrMismatch, len(d.Images), len(d.Labels))
	}
	return &d, nil
}

func withReader(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return err
		}
		defer gz.Close()
		r = gz
	}
	return fn(r)
}

func clamp(count, limit int) int {
	if limit > 0 && count > limit {
		return limit
	}
	return count
}

// Len returns the number of examples.
func (d *MNIST) Len() int {
	return len(d.Labels)
}

// Width returns the number of pixels per image.
func (d *MNIST) Width() int {
	return d.Rows * d.Cols
}

// Filter returns the examples whose label is one of digits, preserving order.
// Image slices are shared with d.
func (d *MNIST) Filter(digits ...byte) *MNIST {
	keep := make(map[byte]bool, len(digits))
	for _, l := range digits {
		keep[l] = true
	}

	out := &MNIST{Rows: d.Rows, Cols: d.Cols}
	for i, l := range d.Labels {
		if keep[l] {
			out.Images = append(out.Images, d.Images[i])
			out.Labels = append(out.Labels, l)
		}
	}
	return out
}

// Example writes image i into x, scaled to [0, 1], and returns its label.
func (d *MNIST) Example(i int, x []float64) float64 {
	img := d.Images[i]
	if len(x) != len(img) {
		panic(fmt.Sprintf("dataset: example width %d, image has %d pixels", len(x), len(img)))
	}
	for j, p := range img {
		x[j] = float64(p)
	}
	floats.Scale(1.0/255, x)
	return float64(d.Labels[i])
}

// OneVsRest relabels MNIST examples as 1 for the Positive digit and 0 otherwise.
type OneVsRest struct {
	*MNIST
	Positive byte
}

// Example writes image i into x and returns its binary label.
func (o OneVsRest) Example(i int, x []float64) float64 {
	o.MNIST.Example(i, x)
	if o.Labels[i] == o.Positive {
		return 1
	}
	return 0
}
