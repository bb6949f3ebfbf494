package domain

import "github.com/shopspring/decimal"

// SampleInvoices returns the demo collection. Each call returns fresh slices.
func SampleInvoices() []InvoiceFields {
	return []InvoiceFields{
		{
			Vendor:        "Amazon Web Services",
			InvoiceNumber: "AWS-2024-001",
			InvoiceDate:   "2025-08-20",
			DueDate:       "2025-09-05",
			Total:         decimal.NewFromInt(2450),
			Items:         []string{"EC2 Instance", "S3 Storage", "CloudFront CDN"},
		},
		{
			Vendor:        "Microsoft Corporation",
			InvoiceNumber: "MS-2024-043",
			InvoiceDate:   "2025-08-25",
			DueDate:       "2025-09-10",
			Total:         decimal.NewFromInt(3100),
			Items:         []string{"Office 365 License", "Azure Services", "Teams Premium"},
		},
		{
			Vendor:        "Google LLC",
			InvoiceNumber: "GOOG-2024-028",
			InvoiceDate:   "2025-09-01",
			DueDate:       "2025-09-20",
			Total:         decimal.NewFromInt(1850),
			Items:         []string{"Google Cloud Platform", "Google Workspace", "YouTube Premium"},
		},
		{
			Vendor:        "Apple Inc.",
			InvoiceNumber: "AAPL-2024-017",
			InvoiceDate:   "2025-08-30",
			DueDate:       "2025-09-15",
			Total:         decimal.NewFromInt(4200),
			Items:         []string{"MacBook Pro", "iPhone 15", "Apple Care"},
		},
		{
			Vendor:        "Tesla Inc.",
			InvoiceNumber: "TSLA-2024-009",
			InvoiceDate:   "2025-09-02",
			DueDate:       "2025-09-25",
			Total:         decimal.NewFromInt(1500),
			Items:         []string{"Supercharger Credits", "Service Package", "Model Y Accessories"},
		},
	}
}
