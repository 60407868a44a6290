package domain

// CartLine holds one product (captured when it was added) and its quantity.
type CartLine struct {
	Kind      ProductKind `json:"kind"`
	ProductID string      `json:"productId"`
	Product   Product     `json:"product"`
	Quantity  int         `json:"quantity"`
}

func (l CartLine) Ref() ProductRef {
	return ProductRef{Kind: l.Kind, ID: l.ProductID}
}

// LineTotal is the captured unit price times quantity.
func (l CartLine) LineTotal() int64 {
	return l.Product.Price * int64(l.Quantity)
}
