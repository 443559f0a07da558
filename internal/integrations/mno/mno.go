// Package mno talks to the mobile-network operator's SOAP gateway to query
// the authoritative status of payment transactions.
package mno

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/pesalink/loan-service/internal/config"
	"github.com/pesalink/loan-service/internal/models"
	"github.com/sirupsen/logrus"
)

// Client handles integration with the MNO payment gateway
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new gateway client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.MNOGatewayURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// buildSOAPRequest creates a SOAP request for a transaction status query
func (c *Client) buildSOAPRequest(reference string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
		<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
			<soap12:Body>
				<TransactionStatus xmlns="http://gateway.mno.example/">
					<Reference>%s</Reference>
				</TransactionStatus>
			</soap12:Body>
		</soap12:Envelope>`, reference)
}

// sendRequest sends a SOAP request to the gateway
func (c *Client) sendRequest(ctx context.Context, soapRequest string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewBuffer([]byte(soapRequest)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://gateway.mno.example/TransactionStatus")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	c.log.Debugf("Gateway XML response: %s", string(body))

	return body, nil
}

// parseXMLResponse extracts the transaction status and settled amount
func (c *Client) parseXMLResponse(rawBody []byte) (models.TransactionStatus, float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return "", 0, fmt.Errorf("failed to parse XML: %v", err)
	}

	result := doc.FindElement("//TransactionStatusResult")
	if result == nil {
		return "", 0, fmt.Errorf("no transaction status data found in XML")
	}

	statusElement := result.FindElement("./Status")
	if statusElement == nil {
		return "", 0, fmt.Errorf("status element not found in XML")
	}

	var status models.TransactionStatus
	switch strings.ToUpper(strings.TrimSpace(statusElement.Text())) {
	case "SUCCESS", "COMPLETED", "SETTLED":
		status = models.TransactionCompleted
	case "FAILED", "CANCELLED", "EXPIRED":
		status = models.TransactionFailed
	case "PENDING", "PROCESSING":
		status = models.TransactionPending
	default:
		return "", 0, fmt.Errorf("unknown gateway status: %s", statusElement.Text())
	}

	var amount float64
	if amountElement := result.FindElement("./Amount"); amountElement != nil {
		if _, err := fmt.Sscanf(amountElement.Text(), "%f", &amount); err != nil {
			return "", 0, fmt.Errorf("failed to parse amount: %v", err)
		}
	}

	return status, amount, nil
}

// QueryTransactionStatus retrieves the status of a transaction by reference
func (c *Client) QueryTransactionStatus(ctx context.Context, reference string) (models.TransactionStatus, float64, error) {
	soapRequest := c.buildSOAPRequest(reference)
	body, err := c.sendRequest(ctx, soapRequest)
	if err != nil {
		return "", 0, err
	}

	status, amount, err := c.parseXMLResponse(body)
	if err != nil {
		return "", 0, err
	}

	c.log.Infof("Gateway reports transaction %s as %s (%.2f)", reference, status, amount)
	return status, amount, nil
}
