package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialfi-labs/token-worker/internal/fault"
	"github.com/socialfi-labs/token-worker/shared/logger"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*HTTPClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(&Config{BaseURL: server.URL}, logger.NewDefault().Logger)
	require.NoError(t, err)
	return client, server
}

func TestNewHTTPClient_RequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient(&Config{}, logger.NewDefault().Logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base URL is required")
}

func TestGetAccount(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts/1234567890abcdef", r.URL.Path)
		json.NewEncoder(w).Encode(Account{
			Address: "1234567890abcdef",
			Keys: []AccountKey{
				{Index: 0, PublicKey: "abc123", SequenceNumber: 42, Weight: 1000},
			},
		})
	})

	account, err := client.GetAccount(context.Background(), "0x1234567890abcdef")
	require.NoError(t, err)

	key, ok := account.Key(0)
	require.True(t, ok)
	assert.Equal(t, uint64(42), key.SequenceNumber)
	assert.False(t, key.Revoked)

	_, ok = account.Key(1)
	assert.False(t, ok)
}

func TestGetLatestBlock(t *testing.T) {
	t.Run("returns first sealed block", func(t *testing.T) {
		client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/blocks", r.URL.Path)
			assert.Equal(t, "sealed", r.URL.Query().Get("height"))
			json.NewEncoder(w).Encode([]Block{{ID: "block-1", Height: 500}})
		})

		block, err := client.GetLatestBlock(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "block-1", block.ID)
		assert.Equal(t, uint64(500), block.Height)
	})

	t.Run("empty block list is a network fault", func(t *testing.T) {
		client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode([]Block{})
		})

		_, err := client.GetLatestBlock(context.Background())
		require.Error(t, err)

		fe, ok := fault.As(err)
		require.True(t, ok)
		assert.Equal(t, fault.CategoryNetwork, fe.Category)
	})
}

func TestSendTransaction(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/transactions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var tx Transaction
		require.NoError(t, json.NewDecoder(r.Body).Decode(&tx))
		assert.Equal(t, "transaction {}", tx.Script)

		json.NewEncoder(w).Encode(map[string]string{"id": "tx-123"})
	})

	txID, err := client.SendTransaction(context.Background(), &Transaction{Script: "transaction {}"})
	require.NoError(t, err)
	assert.Equal(t, "tx-123", txID)
}

func TestGetTransactionResult(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transaction_results/tx-123", r.URL.Path)
		json.NewEncoder(w).Encode(TxResult{
			Status:      TxStatusSealed,
			BlockID:     "block-9",
			BlockHeight: 900,
		})
	})

	result, err := client.GetTransactionResult(context.Background(), "tx-123")
	require.NoError(t, err)
	assert.Equal(t, TxStatusSealed, result.Status)
	assert.True(t, result.Sealed())
	assert.Zero(t, result.StatusCode)
}

func TestErrorMapping(t *testing.T) {
	t.Run("5xx is a retryable network fault", func(t *testing.T) {
		client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "internal error", http.StatusServiceUnavailable)
		})

		_, err := client.GetLatestBlock(context.Background())
		require.Error(t, err)

		fe, ok := fault.As(err)
		require.True(t, ok)
		assert.Equal(t, fault.CategoryNetwork, fe.Category)
		assert.True(t, fe.Retryable)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("4xx is a validation fault", func(t *testing.T) {
		client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "no such account", http.StatusNotFound)
		})

		_, err := client.GetAccount(context.Background(), "0xdeadbeefdeadbeef")
		require.Error(t, err)

		fe, ok := fault.As(err)
		require.True(t, ok)
		assert.Equal(t, fault.CategoryValidation, fe.Category)
		assert.False(t, fe.Retryable)
	})

	t.Run("undecodable body is a network fault", func(t *testing.T) {
		client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		})

		_, err := client.GetLatestBlock(context.Background())
		require.Error(t, err)

		fe, ok := fault.As(err)
		require.True(t, ok)
		assert.Equal(t, fault.CategoryNetwork, fe.Category)
	})

	t.Run("unreachable node is a network fault", func(t *testing.T) {
		client, err := NewHTTPClient(&Config{BaseURL: "http://127.0.0.1:1"}, logger.NewDefault().Logger)
		require.NoError(t, err)

		_, err = client.GetLatestBlock(context.Background())
		require.Error(t, err)

		fe, ok := fault.As(err)
		require.True(t, ok)
		assert.Equal(t, fault.CategoryNetwork, fe.Category)
		assert.True(t, fe.Retryable)
	})
}

func TestTxResult_Sealed(t *testing.T) {
	tests := []struct {
		status string
		sealed bool
	}{
		{TxStatusPending, false},
		{TxStatusFinalized, false},
		{TxStatusExecuted, false},
		{TxStatusSealed, true},
		{TxStatusExpired, true},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			r := &TxResult{Status: tt.status}
			assert.Equal(t, tt.sealed, r.Sealed())
		})
	}
}
