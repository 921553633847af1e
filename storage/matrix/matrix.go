// Package matrix stores the dense embedding matrix of an index generation.
//
// The file layout is little-endian:
//
//	magic   [8]byte  "RFEMBED1"
//	dims    uint32
//	count   uint64
//	ids     [count]int64
//	vectors [count*dims]float32, row-major
//
// Row i belongs to ids[i], which is also the corpus position of the recipe.
package matrix

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/poiesic/recipefind/core"
)

var magic = [8]byte{'R', 'F', 'E', 'M', 'B', 'E', 'D', '1'}

var (
	// ErrBadMagic indicates the file is not an embedding matrix.
	ErrBadMagic = errors.New("not an embedding matrix file")

	// ErrCorrupt indicates the file is truncated or its header is inconsistent.
	ErrCorrupt = errors.New("embedding matrix is corrupt")

	// ErrShape indicates vectors of the wrong length were supplied.
	ErrShape = errors.New("embedding matrix shape mismatch")
)

// Matrix is a row-major float32 matrix with one row per recipe.
type Matrix struct {
	Dims int
	IDs  []core.RecipeID
	Data []float32
}

// New packs vectors into a Matrix. Every vector must have dims entries.
func New(dims int, ids []core.RecipeID, vectors [][]float32) (*Matrix, error) {
	if len(ids) != len(vectors) {
		return nil, fmt.Errorf("%w: %d ids for %d vectors", ErrShape, len(ids), len(vectors))
	}
	if dims <= 0 && len(vectors) > 0 {
		return nil, fmt.Errorf("%w: dimension must be positive", ErrShape)
	}
	data := make([]float32, 0, len(vectors)*dims)
	for i, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("%w: row %d has %d values, expected %d", ErrShape, i, len(v), dims)
		}
		data = append(data, v...)
	}
	return &Matrix{Dims: dims, IDs: ids, Data: data}, nil
}

// Len returns the number of rows.
func (m *Matrix) Len() int {
	return len(m.IDs)
}

// Row returns row i. The slice aliases the matrix and must not be modified.
func (m *Matrix) Row(i int) []float32 {
	return m.Data[i*m.Dims : (i+1)*m.Dims : (i+1)*m.Dims]
}

// Write stores m at path. The file is written beside path and renamed into
// place, so a reader never observes a partial matrix.
func Write(path string, m *Matrix) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriterSize(tmp, 1<<20)
	if _, err = w.Write(magic[:]); err != nil {
		return err
	}
	header := struct {
		Dims  uint32
		Count uint64
	}{uint32(m.Dims), uint64(len(m.IDs))}
	if err = binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}
	ids := make([]int64, len(m.IDs))
	for i, id := range m.IDs {
		ids[i] = int64(id)
	}
	if err = binary.Write(w, binary.LittleEndian, ids); err != nil {
		return err
	}
	if err = binary.Write(w, binary.LittleEndian, m.Data); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Read loads the matrix at path.
func Read(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	r := bufio.NewReaderSize(f, 1<<20)
	var got [8]byte
	if _, err := io.ReadFull(r, got[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if got != magic {
		return nil, ErrBadMagic
	}

	var header struct {
		Dims  uint32
		Count uint64
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrCorrupt, err)
	}

	// size check before allocating anything the header asks for
	want := uint64(len(magic)) + 12 + header.Count*8 + header.Count*uint64(header.Dims)*4
	if header.Count > uint64(info.Size()) || want != uint64(info.Size()) {
		return nil, fmt.Errorf("%w: header describes %d rows of %d dims but file has %d bytes",
			ErrCorrupt, header.Count, header.Dims, info.Size())
	}

	ids := make([]int64, header.Count)
	if err := binary.Read(r, binary.LittleEndian, ids); err != nil {
		return nil, fmt.Errorf("%w: ids: %w", ErrCorrupt, err)
	}
	data := make([]float32, header.Count*uint64(header.Dims))
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("%w: vectors: %w", ErrCorrupt, err)
	}

	m := &Matrix{Dims: int(header.Dims), IDs: make([]core.RecipeID, len(ids)), Data: data}
	for i, id := range ids {
		m.IDs[i] = core.RecipeID(id)
	}
	return m, nil
}
