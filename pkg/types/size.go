package types

// Size is an abstract node size tag resolved to a concrete instance type
type Size string

const (
	SizeNano  Size = "NANO"
	SizeNanoG Size = "NANO_G"
	SizeXS    Size = "XS"
	SizeS     Size = "S"
	SizeM     Size = "M"
	SizeL     Size = "L"
	SizeXL    Size = "XL"
	SizeXXL   Size = "XXL"
)

// Sizes lists every known size tag, smallest first
var Sizes = []Size{SizeNano, SizeNanoG, SizeXS, SizeS, SizeM, SizeL, SizeXL, SizeXXL}

// Known reports whether s is one of the defined size tags
func (s Size) Known() bool {
	for _, known := range Sizes {
		if s == known {
			return true
		}
	}
	return false
}
