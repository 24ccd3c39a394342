// Copyright (c) 2026, The ATW Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package distort

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/atwkit/atw/base/errors"
	"github.com/atwkit/atw/math32"
)

// magic starts every exported mesh.
var magic = [4]byte{'A', 'T', 'W', 'M'}

// exportVersion is the version of the exported mesh layout.
const exportVersion uint32 = 1

// maxTiles bounds the grid size accepted by [ReadMesh].
const maxTiles = 1 << 12

// ErrBadMesh is returned by [ReadMesh] for data that is not an exported mesh.
var ErrBadMesh = errors.New("distort: not a distortion mesh")

// header is the fixed-size start of an exported mesh.
type header struct {
	Magic          [4]byte
	Version        uint32
	TilesWide      uint32
	TilesHigh      uint32
	VerticesPerEye uint32
	IndexCount     uint32
}

// WriteTo writes the mesh in little-endian binary form: a header,
// the positions of both eyes (xyz), then the uv of each eye and channel
// (eye 0 red, green, blue, then eye 1), then the indices.
func (m *Mesh) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	cw := &countWriter{w: bw}
	h := header{
		Magic:          magic,
		Version:        exportVersion,
		TilesWide:      uint32(m.TilesWide),
		TilesHigh:      uint32(m.TilesHigh),
		VerticesPerEye: uint32(m.VerticesPerEye()),
		IndexCount:     uint32(m.IndexCount()),
	}
	data := []any{&h, []float32(m.PositionArray())}
	for eye := range NumEyes {
		for c := range NumChannels {
			a := math32.NewArrayF32(0, len(m.UV[eye][c])*2)
			a.AppendVector2(m.UV[eye][c]...)
			data = append(data, []float32(a))
		}
	}
	data = append(data, m.Indices)
	for _, d := range data {
		if err := binary.Write(cw, binary.LittleEndian, d); err != nil {
			return cw.n, err
		}
	}
	return cw.n, bw.Flush()
}

// ReadMesh reads a mesh written by [Mesh.WriteTo].
func ReadMesh(r io.Reader) (*Mesh, error) {
	br := bufio.NewReader(r)
	var h header
	if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("distort.ReadMesh: %w", err)
	}
	if h.Magic != magic || h.Version != exportVersion {
		return nil, fmt.Errorf("distort.ReadMesh: %w: magic %q version %d", ErrBadMesh, h.Magic[:], h.Version)
	}
	if h.TilesWide == 0 || h.TilesHigh == 0 || h.TilesWide > maxTiles || h.TilesHigh > maxTiles {
		return nil, fmt.Errorf("distort.ReadMesh: %w: %dx%d tiles", ErrBadMesh, h.TilesWide, h.TilesHigh)
	}
	m := &Mesh{TilesWide: int(h.TilesWide), TilesHigh: int(h.TilesHigh)}
	nv := m.VerticesPerEye()
	if uint32(nv) != h.VerticesPerEye || int(h.IndexCount) != m.TilesWide*m.TilesHigh*6 {
		return nil, fmt.Errorf("distort.ReadMesh: %w: inconsistent counts", ErrBadMesh)
	}

	pos := make([]float32, NumEyes*nv*3)
	if err := binary.Read(br, binary.LittleEndian, pos); err != nil {
		return nil, fmt.Errorf("distort.ReadMesh: positions: %w", err)
	}
	m.Positions = make([]math32.Vector3, NumEyes*nv)
	for i := range m.Positions {
		math32.ArrayF32(pos).GetVector3(i*3, &m.Positions[i])
	}
	uv := make([]float32, nv*2)
	for eye := range NumEyes {
		for c := range NumChannels {
			if err := binary.Read(br, binary.LittleEndian, uv); err != nil {
				return nil, fmt.Errorf("distort.ReadMesh: uv %v %v: %w", Eye(eye), Channel(c), err)
			}
			m.UV[eye][c] = make([]math32.Vector2, nv)
			for i := range m.UV[eye][c] {
				math32.ArrayF32(uv).GetVector2(i*2, &m.UV[eye][c][i])
			}
		}
	}
	m.Indices = make([]uint32, h.IndexCount)
	if err := binary.Read(br, binary.LittleEndian, m.Indices); err != nil {
		return nil, fmt.Errorf("distort.ReadMesh: indices: %w", err)
	}
	return m, nil
}

// countWriter counts the bytes written through it.
type countWriter struct {
	w io.Writer
	n int64
}

func (cw *countWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
