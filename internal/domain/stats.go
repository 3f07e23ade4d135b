package domain

// PurchaseStats is the aggregated overview served to administrators.
type PurchaseStats struct {
	TotalPurchases int64            `json:"totalPurchases"`
	TotalRevenue   float64          `json:"totalRevenue"`
	TotalTickets   int64            `json:"totalTickets"`
	ByStatus       map[string]int64 `json:"byStatus"`
	ByPayment      map[string]int64 `json:"byPayment"`
}
