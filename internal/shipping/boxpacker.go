package shipping

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Packer is the 3-D packing capability used by the custom-box strategy.
type Packer interface {
	AddBox(box CustomBox)
	AddItem(length, width, height, weight float64, value decimal.Decimal, label string)
	Pack()
	Packages() []PackedBox
}

// PackedBox is one physical package produced by a Packer. For a packed box
// the dimensions are the box's outer dimensions and the weight includes the
// empty box. An unpacked package holds a single item that fit no box.
type PackedBox struct {
	Box       CustomBox
	Unpacked  bool
	Length    float64
	Width     float64
	Height    float64
	Weight    float64
	Value     decimal.Decimal
	Items     []string
	MaxVolume float64
}

type packItem struct {
	dims   [3]float64 // ascending
	volume float64
	weight float64
	value  decimal.Decimal
	label  string
}

// BoxPacker fills the configured boxes greedily: on every round each box is
// filled with the remaining items, largest first, placing every item into a
// free cuboid of the box and splitting what is left around it. The box that
// takes the most items is kept. Ties go to the cheaper box, then the smaller
// one.
type BoxPacker struct {
	boxes    []CustomBox
	items    []packItem
	packages []PackedBox
}

func NewBoxPacker() *BoxPacker {
	return &BoxPacker{}
}

func (p *BoxPacker) AddBox(box CustomBox) {
	p.boxes = append(p.boxes, box)
}

func (p *BoxPacker) AddItem(length, width, height, weight float64, value decimal.Decimal, label string) {
	dims := []float64{length, width, height}
	sort.Float64s(dims)
	p.items = append(p.items, packItem{
		dims:   [3]float64{dims[0], dims[1], dims[2]},
		volume: length * width * height,
		weight: weight,
		value:  value,
		label:  label,
	})
}

// Capacity returns the usable inner volume of a box.
func Capacity(box CustomBox) float64 {
	l, w, h := box.inner()
	return l * w * h
}

const packEpsilon = 1e-9

// freeSpace is an empty cuboid left inside a box, in box axis order.
type freeSpace [3]float64

func (s freeSpace) volume() float64 {
	return s[0] * s[1] * s[2]
}

// rotations lists the six axis-aligned orientations of an item.
func rotations(d [3]float64) [][3]float64 {
	return [][3]float64{
		{d[0], d[1], d[2]},
		{d[0], d[2], d[1]},
		{d[1], d[0], d[2]},
		{d[1], d[2], d[0]},
		{d[2], d[0], d[1]},
		{d[2], d[1], d[0]},
	}
}

// place puts the item into the smallest free space that takes it in some
// orientation and splits the rest of that space into up to three disjoint
// cuboids. It reports false when no space fits.
func place(spaces []freeSpace, item packItem) ([]freeSpace, bool) {
	best, bestRot := -1, [3]float64{}
	for i, space := range spaces {
		if best >= 0 && space.volume() >= spaces[best].volume() {
			continue
		}
		for _, r := range rotations(item.dims) {
			if r[0] <= space[0]+packEpsilon && r[1] <= space[1]+packEpsilon && r[2] <= space[2]+packEpsilon {
				best, bestRot = i, r
				break
			}
		}
	}
	if best < 0 {
		return spaces, false
	}

	s, r := spaces[best], bestRot
	next := make([]freeSpace, 0, len(spaces)+2)
	next = append(next, spaces[:best]...)
	next = append(next, spaces[best+1:]...)
	for _, rest := range []freeSpace{
		{s[0] - r[0], s[1], s[2]},
		{r[0], s[1] - r[1], s[2]},
		{r[0], r[1], s[2] - r[2]},
	} {
		if rest[0] > packEpsilon && rest[1] > packEpsilon && rest[2] > packEpsilon {
			next = append(next, rest)
		}
	}
	return next, true
}

// fill places the remaining items, in order, into one box of the given kind
// and returns the indexes of the items that were placed.
func fill(box CustomBox, remaining []packItem) []int {
	l, w, h := box.inner()
	spaces := []freeSpace{{l, w, h}}
	var (
		weight float64
		picked []int
	)
	for i, item := range remaining {
		if box.MaxWeight > 0 && weight+item.weight > box.MaxWeight {
			continue
		}
		next, ok := place(spaces, item)
		if !ok {
			continue
		}
		spaces = next
		weight += item.weight
		picked = append(picked, i)
	}
	return picked
}

func (p *BoxPacker) Pack() {
	p.packages = nil

	remaining := make([]packItem, len(p.items))
	copy(remaining, p.items)
	sort.SliceStable(remaining, func(i, j int) bool {
		return remaining[i].volume > remaining[j].volume
	})

	for len(remaining) > 0 {
		bestBox := -1
		var bestPicked []int
		for i, box := range p.boxes {
			picked := fill(box, remaining)
			if len(picked) == 0 {
				continue
			}
			if bestBox < 0 || p.better(box, picked, p.boxes[bestBox], bestPicked) {
				bestBox = i
				bestPicked = picked
			}
		}

		if bestBox < 0 {
			for _, item := range remaining {
				p.packages = append(p.packages, PackedBox{
					Unpacked: true,
					Length:   item.dims[2],
					Width:    item.dims[1],
					Height:   item.dims[0],
					Weight:   item.weight,
					Value:    item.value,
					Items:    []string{item.label},
				})
			}
			return
		}

		box := p.boxes[bestBox]
		pkg := PackedBox{
			Box:       box,
			Length:    box.OuterLength,
			Width:     box.OuterWidth,
			Height:    box.OuterHeight,
			Weight:    box.BoxWeight,
			MaxVolume: Capacity(box),
		}

		taken := make(map[int]bool, len(bestPicked))
		for _, idx := range bestPicked {
			item := remaining[idx]
			pkg.Weight += item.weight
			pkg.Value = pkg.Value.Add(item.value)
			pkg.Items = append(pkg.Items, item.label)
			taken[idx] = true
		}
		p.packages = append(p.packages, pkg)

		next := make([]packItem, 0, len(remaining)-len(taken))
		for i, item := range remaining {
			if !taken[i] {
				next = append(next, item)
			}
		}
		remaining = next
	}
}

func (p *BoxPacker) better(box CustomBox, picked []int, best CustomBox, bestPicked []int) bool {
	if len(picked) != len(bestPicked) {
		return len(picked) > len(bestPicked)
	}
	if c := box.Price.Cmp(best.Price); c != 0 {
		return c < 0
	}
	return Capacity(box) < Capacity(best)
}

func (p *BoxPacker) Packages() []PackedBox {
	return p.packages
}
