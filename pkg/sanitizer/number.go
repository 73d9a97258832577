package sanitizer

const (
	MinQuantity = 0

	MaxQuantity = 99
)

// ClampQuantity keeps a requested cart quantity within [MinQuantity, MaxQuantity].
// Zero is preserved because it means "remove the line".
func ClampQuantity(quantity int) int {
	if quantity < MinQuantity {
		return MinQuantity
	}
	if quantity > MaxQuantity {
		return MaxQuantity
	}
	return quantity
}
