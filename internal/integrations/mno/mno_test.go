package mno

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pesalink/loan-service/internal/config"
	"github.com/pesalink/loan-service/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(url string) *Client {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewClient(&config.Config{MNOGatewayURL: url}, log)
}

func soapResponse(status, amount string) string {
	return `<?xml version="1.0" encoding="utf-8"?>
		<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
			<soap12:Body>
				<TransactionStatusResponse>
					<TransactionStatusResult>
						<Status>` + status + `</Status>
						<Amount>` + amount + `</Amount>
					</TransactionStatusResult>
				</TransactionStatusResponse>
			</soap12:Body>
		</soap12:Envelope>`
}

func TestParseXMLResponse(t *testing.T) {
	c := testClient("")

	tests := []struct {
		raw    string
		status models.TransactionStatus
		amount float64
	}{
		{soapResponse("SUCCESS", "5000.00"), models.TransactionCompleted, 5000},
		{soapResponse("Settled", "120.50"), models.TransactionCompleted, 120.5},
		{soapResponse("FAILED", "0"), models.TransactionFailed, 0},
		{soapResponse("cancelled", "0"), models.TransactionFailed, 0},
		{soapResponse("PENDING", "0"), models.TransactionPending, 0},
	}
	for _, tt := range tests {
		status, amount, err := c.parseXMLResponse([]byte(tt.raw))
		require.NoError(t, err)
		assert.Equal(t, tt.status, status)
		assert.Equal(t, tt.amount, amount)
	}
}

func TestParseXMLResponse_Errors(t *testing.T) {
	c := testClient("")

	_, _, err := c.parseXMLResponse([]byte("not xml at all <"))
	assert.Error(t, err)

	_, _, err = c.parseXMLResponse([]byte(`<Envelope><Body></Body></Envelope>`))
	assert.Error(t, err)

	_, _, err = c.parseXMLResponse([]byte(soapResponse("TELEPORTED", "0")))
	assert.Error(t, err)
}

func TestQueryTransactionStatus(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte(soapResponse("SUCCESS", "2500.00")))
	}))
	defer server.Close()

	c := testClient(server.URL)
	status, amount, err := c.QueryTransactionStatus(context.Background(), "ref-123")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionCompleted, status)
	assert.Equal(t, 2500.0, amount)
	assert.Contains(t, gotBody, "<Reference>ref-123</Reference>")
}

func TestQueryTransactionStatus_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := testClient(server.URL)
	_, _, err := c.QueryTransactionStatus(context.Background(), "ref-123")
	assert.Error(t, err)
}
