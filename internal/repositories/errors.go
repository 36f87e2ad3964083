package repositories

import "errors"

// ErrNotFound is wrapped by every repository lookup that matches no record.
var ErrNotFound = errors.New("record not found")

// ErrQuantityLimit is returned when merging a cart line would push its
// quantity above models.MaxLineQuantity. The stored line is left unchanged.
var ErrQuantityLimit = errors.New("cart line quantity limit exceeded")
