package tile

import (
	"reflect"
	"testing"
)

func TestCollect(t *testing.T) {
	tests := []struct {
		name                     string
		left, top, right, bottom int
		w, h                     int
		want                     []Coord
	}{
		{
			name: "rect overlapping all four tiles of a 128x128 canvas",
			left: -10, top: 30, right: 130, bottom: 100,
			w: 128, h: 128,
			want: []Coord{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
		},
		{
			name: "rect inside one tile",
			left: 10, top: 10, right: 20, bottom: 20,
			w: 128, h: 128,
			want: []Coord{{0, 0}},
		},
		{
			name: "rect on a tile boundary stays in one column",
			left: 0, top: 0, right: 64, bottom: 64,
			w: 128, h: 128,
			want: []Coord{{0, 0}},
		},
		{
			name: "one pixel past the boundary adds the next column",
			left: 0, top: 0, right: 65, bottom: 64,
			w: 128, h: 128,
			want: []Coord{{0, 0}, {1, 0}},
		},
		{
			name: "empty rect",
			left: 50, top: 50, right: 50, bottom: 60,
			w: 128, h: 128,
			want: nil,
		},
		{
			name: "fully out of bounds",
			left: 200, top: 200, right: 300, bottom: 300,
			w: 128, h: 128,
			want: nil,
		},
		{
			name: "inverted rect",
			left: 100, top: 100, right: 10, bottom: 10,
			w: 128, h: 128,
			want: nil,
		},
		{
			name: "canvas smaller than one tile",
			left: 0, top: 0, right: 40, bottom: 40,
			w: 40, h: 40,
			want: []Coord{{0, 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Collect(tt.left, tt.top, tt.right, tt.bottom, tt.w, tt.h)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Collect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCollectAll(t *testing.T) {
	got := CollectAll(129, 64)
	want := []Coord{{0, 0}, {1, 0}, {2, 0}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CollectAll(129, 64) = %v, want %v", got, want)
	}
}

func TestCoordBounds(t *testing.T) {
	tests := []struct {
		coord                    Coord
		w, h                     int
		left, top, right, bottom int
	}{
		{Coord{0, 0}, 128, 128, 0, 0, 64, 64},
		{Coord{1, 1}, 128, 128, 64, 64, 128, 128},
		{Coord{1, 1}, 100, 100, 64, 64, 100, 100},
	}
	for _, tt := range tests {
		l, tp, r, b := tt.coord.Bounds(tt.w, tt.h)
		if l != tt.left || tp != tt.top || r != tt.right || b != tt.bottom {
			t.Errorf("Bounds(%v, %d, %d) = (%d,%d,%d,%d), want (%d,%d,%d,%d)",
				tt.coord, tt.w, tt.h, l, tp, r, b, tt.left, tt.top, tt.right, tt.bottom)
		}
	}
}

func TestGridDims(t *testing.T) {
	tx, ty := GridDims(128, 65)
	if tx != 2 || ty != 2 {
		t.Errorf("GridDims(128, 65) = (%d, %d), want (2, 2)", tx, ty)
	}
}

func TestDirtyRegion(t *testing.T) {
	d := NewDirtyRegion(3, 3)
	if !d.IsEmpty() {
		t.Fatal("new region should be empty")
	}

	d.Mark(1, 2)
	d.Mark(0, 0)
	d.Mark(-1, 0) // ignored
	d.Mark(3, 0)  // ignored

	if !d.IsDirty(1, 2) || !d.IsDirty(0, 0) {
		t.Error("marked tiles not reported dirty")
	}
	if d.IsDirty(2, 2) {
		t.Error("unmarked tile reported dirty")
	}
	if got := d.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}

	coords := d.Drain()
	want := []Coord{{0, 0}, {1, 2}}
	if !reflect.DeepEqual(coords, want) {
		t.Errorf("Drain() = %v, want %v", coords, want)
	}
	if !d.IsEmpty() {
		t.Error("region should be empty after drain")
	}
}

func TestDirtyRegionMarkAll(t *testing.T) {
	d := NewDirtyRegion(10, 7)
	d.MarkAll()
	if got := d.Count(); got != 70 {
		t.Errorf("Count() after MarkAll = %d, want 70", got)
	}
	d.Clear()
	if !d.IsEmpty() {
		t.Error("region should be empty after Clear")
	}
}

func TestDirtyRegionMarkCoords(t *testing.T) {
	d := NewDirtyRegion(2, 2)
	d.MarkCoords([]Coord{{0, 1}, {1, 1}})
	if got := d.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
}
