package e2e

// BuildReceiptFixtures returns raw receipt texts of the kind the OCR stage
// hands over: header noise, item lines in mixed formats, totals.
func BuildReceiptFixtures() []string {
	return []string{
		`Mediterraneo Deli
45 Harbour Road
2024-06-13
2 Olive Oil 8.50 $17.00
Feta Cheese 5.25
Olives Kalamata 3.90
Subtotal 26.15
Tax 1.05
Total $27.20`,
		`Corner Grocer
2024-06-12
Milk 2.49
Bread 3.20
Total $5.69`,
	}
}
