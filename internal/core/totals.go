package core

// TotalValue sums cost times quantity over items in order. Amounts are not
// rounded.
func TotalValue(items []PurchaseItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Cost * it.Quantity
	}
	return total
}

func itemsOf(lines []RequisitionItem) []PurchaseItem {
	items := make([]PurchaseItem, len(lines))
	for i, l := range lines {
		items[i] = l.PurchaseItem
	}
	return items
}
