package dto

import "encoding/json"

// CreateTransactionRequest is the POST /api/v1/transactions body.
type CreateTransactionRequest struct {
	Type        string          `json:"type" binding:"required"`
	UserAddress string          `json:"user_address" binding:"required"`
	Params      json.RawMessage `json:"params"`
	MaxRetries  int             `json:"max_retries"`
}

// ListTransactionsRequest are the query parameters for listing jobs.
type ListTransactionsRequest struct {
	Type        string `form:"type"`
	UserAddress string `form:"user_address"`
	Status      string `form:"status"`
	PageSize    int    `form:"page_size"`
	Cursor      string `form:"cursor"`
}

// TransactionDTO is the wire representation of one transaction job.
type TransactionDTO struct {
	JobID        string          `json:"job_id"`
	Type         string          `json:"type"`
	UserAddress  string          `json:"user_address,omitempty"`
	Params       json.RawMessage `json:"params,omitempty"`
	Status       string          `json:"status"`
	TxID         string          `json:"tx_id,omitempty"`
	BlockHeight  int64           `json:"block_height,omitempty"`
	Error        string          `json:"error,omitempty"`
	CompletedAt  string          `json:"completed_at,omitempty"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
}

// ListTransactionsResponse is the paginated list payload.
type ListTransactionsResponse struct {
	Transactions []TransactionDTO `json:"transactions"`
	NextCursor   string           `json:"next_cursor,omitempty"`
}
