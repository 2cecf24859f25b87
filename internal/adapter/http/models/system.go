package models

type HealthResponse struct {
	Status        string `json:"status"`
	Database      string `json:"database"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
}

type TransactionCounts struct {
	Total   int64 `json:"total"`
	Paid    int64 `json:"paid"`
	Pending int64 `json:"pending"`
}

type StatsResponse struct {
	Transactions TransactionCounts `json:"transactions"`
	Balances     map[string]string `json:"balances"`
}
