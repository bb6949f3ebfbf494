package domain

var AnalysisTypes = []string{
	"total_calculation",
	"highest_amount",
	"lowest_amount",
	"farthest_due_date",
	"on_time_invoices",
	"overdue_analysis",
	"vendor_analysis",
	"custom_analysis",
}

type AnalysisReport struct {
	Query        string           `json:"query"`
	AnalysisType string           `json:"analysis_type"`
	Totals       AnalysisTotals   `json:"totals"`
	Amounts      AnalysisAmounts  `json:"amounts"`
	DueDates     AnalysisDueDates `json:"due_dates"`
	Status       AnalysisStatus   `json:"status"`
	Vendors      AnalysisVendors  `json:"vendors"`
}

type AnalysisTotals struct {
	Count      int     `json:"count"`
	TotalValue string  `json:"total_value"`
	RawTotal   float64 `json:"raw_total"`
	Average    string  `json:"average"`
	RawAverage float64 `json:"raw_average"`
}

type AmountHighlight struct {
	Vendor        string `json:"vendor"`
	Amount        string `json:"amount"`
	InvoiceNumber string `json:"invoice_number"`
	DueDate       string `json:"due_date"`
}

type AnalysisAmounts struct {
	Highest AmountHighlight `json:"highest"`
	Lowest  AmountHighlight `json:"lowest"`
}

type FarthestDue struct {
	Vendor        string `json:"vendor"`
	DueDate       string `json:"due_date"`
	Amount        string `json:"amount"`
	InvoiceNumber string `json:"invoice_number"`
	DaysUntilDue  int    `json:"days_until_due"`
}

type AnalysisDueDates struct {
	FarthestDue *FarthestDue `json:"farthest_due"`
}

type StatusLine struct {
	Vendor       string `json:"vendor"`
	Amount       string `json:"amount"`
	DueDate      string `json:"due_date"`
	DaysOverdue  *int   `json:"days_overdue,omitempty"`
	DaysUntilDue *int   `json:"days_until_due,omitempty"`
}

type AnalysisStatus struct {
	OverdueCount    int          `json:"overdue_count"`
	OnTimeCount     int          `json:"on_time_count"`
	OverdueTotal    string       `json:"overdue_total"`
	OnTimeTotal     string       `json:"on_time_total"`
	OverdueInvoices []StatusLine `json:"overdue_invoices"`
	OnTimeInvoices  []StatusLine `json:"on_time_invoices"`
}

type VendorTotal struct {
	Vendor    string  `json:"vendor"`
	Total     float64 `json:"total"`
	Formatted string  `json:"formatted"`
}

type AnalysisVendors struct {
	Breakdown     []VendorTotal `json:"breakdown"`
	HighestVendor *VendorTotal  `json:"highest_vendor"`
}
