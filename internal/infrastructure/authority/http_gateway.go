package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fiscalhub/backend/internal/domain/fiscal"
	"github.com/fiscalhub/backend/internal/infrastructure/config"
)

const (
	transmitPath      = "/v1/batches"
	authorizationPath = "/v1/batches/%s"
	cancelPath        = "/v1/cancellations"
	statusPath        = "/v1/documents/%s"
)

// HTTPGateway implements TaxAuthorityGateway against the authority webservice
type HTTPGateway struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPGateway creates an HTTP gateway from configuration
func NewHTTPGateway(cfg config.AuthorityConfig, logger *zap.Logger) (*HTTPGateway, error) {
	if cfg.Endpoint == "" {
		return nil, fiscal.ErrAuthorityNotConfigured
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("%w: invalid endpoint %q", fiscal.ErrAuthorityNotConfigured, cfg.Endpoint)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPGateway{
		endpoint:   cfg.Endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

type transmitWireRequest struct {
	TenantID     string `json:"tenant_id"`
	BranchID     string `json:"branch_id"`
	DocumentID   string `json:"document_id"`
	DocumentType string `json:"document_type"`
	AccessKey    string `json:"access_key"`
	Series       string `json:"series"`
	Number       string `json:"number"`
	IssuerTaxID  string `json:"issuer_tax_id"`
	TotalValue   string `json:"total_value"`
	Payload      []byte `json:"payload,omitempty"`
}

type transmitWireResponse struct {
	ReceiptNumber string    `json:"receipt_number"`
	StatusCode    string    `json:"status_code"`
	Message       string    `json:"message"`
	ReceivedAt    time.Time `json:"received_at"`
}

type outcomeWireResponse struct {
	StatusCode     string    `json:"status_code"`
	Message        string    `json:"message"`
	AccessKey      string    `json:"access_key,omitempty"`
	ProtocolNumber string    `json:"protocol_number,omitempty"`
	ProtocolDate   time.Time `json:"protocol_date,omitempty"`
}

type cancelWireRequest struct {
	TenantID       string `json:"tenant_id"`
	BranchID       string `json:"branch_id"`
	AccessKey      string `json:"access_key"`
	ProtocolNumber string `json:"protocol_number"`
	Reason         string `json:"reason"`
}

// Transmit sends a document batch to the authority webservice
func (g *HTTPGateway) Transmit(ctx context.Context, req *fiscal.TransmitRequest) (*fiscal.TransmitReceipt, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	wireReq := transmitWireRequest{
		TenantID:     req.TenantID.String(),
		BranchID:     req.BranchID.String(),
		DocumentID:   req.DocumentID.String(),
		DocumentType: string(req.DocumentType),
		AccessKey:    req.AccessKey.String(),
		Series:       req.Series,
		Number:       req.Number,
		IssuerTaxID:  req.IssuerTaxID,
		TotalValue:   req.TotalValue.StringFixed(2),
		Payload:      req.Payload,
	}

	var wireResp transmitWireResponse
	if err := g.post(ctx, transmitPath, wireReq, &wireResp); err != nil {
		return nil, err
	}
	if wireResp.ReceiptNumber == "" {
		return nil, fmt.Errorf("%w: missing receipt number", fiscal.ErrAuthorityInvalidResponse)
	}

	return &fiscal.TransmitReceipt{
		ReceiptNumber: wireResp.ReceiptNumber,
		StatusCode:    wireResp.StatusCode,
		Message:       wireResp.Message,
		ReceivedAt:    wireResp.ReceivedAt,
	}, nil
}

// QueryAuthorization queries the outcome of a transmitted batch
func (g *HTTPGateway) QueryAuthorization(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*fiscal.AuthorizationResult, error) {
	if tenantID == uuid.Nil {
		return nil, fiscal.ErrAuthorityInvalidTenantID
	}
	if receiptNumber == "" {
		return nil, fiscal.ErrAuthorityInvalidReceipt
	}

	var wireResp outcomeWireResponse
	path := fmt.Sprintf(authorizationPath, url.PathEscape(receiptNumber))
	if err := g.get(ctx, path, tenantID, &wireResp); err != nil {
		return nil, err
	}

	result := &fiscal.AuthorizationResult{
		Status:         fiscal.StatusForCode(wireResp.StatusCode),
		StatusCode:     wireResp.StatusCode,
		Message:        wireResp.Message,
		ProtocolNumber: wireResp.ProtocolNumber,
		ProtocolDate:   wireResp.ProtocolDate,
	}
	if wireResp.AccessKey != "" {
		key, err := fiscal.NewAccessKey(wireResp.AccessKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", fiscal.ErrAuthorityInvalidResponse, err)
		}
		result.AccessKey = key
	}
	return result, nil
}

// Cancel requests cancellation of an authorized document
func (g *HTTPGateway) Cancel(ctx context.Context, req *fiscal.CancelDocumentRequest) (*fiscal.CancellationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	wireReq := cancelWireRequest{
		TenantID:       req.TenantID.String(),
		BranchID:       req.BranchID.String(),
		AccessKey:      req.AccessKey.String(),
		ProtocolNumber: req.ProtocolNumber,
		Reason:         req.Reason,
	}

	var wireResp outcomeWireResponse
	if err := g.post(ctx, cancelPath, wireReq, &wireResp); err != nil {
		return nil, err
	}

	return &fiscal.CancellationResult{
		Status:         fiscal.StatusForCode(wireResp.StatusCode),
		StatusCode:     wireResp.StatusCode,
		Message:        wireResp.Message,
		ProtocolNumber: wireResp.ProtocolNumber,
		ProtocolDate:   wireResp.ProtocolDate,
	}, nil
}

// QueryStatus returns the registered situation of a document by access key
func (g *HTTPGateway) QueryStatus(ctx context.Context, tenantID uuid.UUID, key fiscal.AccessKey) (*fiscal.StatusResult, error) {
	if tenantID == uuid.Nil {
		return nil, fiscal.ErrAuthorityInvalidTenantID
	}
	if key.IsZero() {
		return nil, fiscal.ErrAuthorityInvalidAccessKey
	}

	var wireResp outcomeWireResponse
	path := fmt.Sprintf(statusPath, key.String())
	if err := g.get(ctx, path, tenantID, &wireResp); err != nil {
		return nil, err
	}

	return &fiscal.StatusResult{
		Status:         fiscal.StatusForCode(wireResp.StatusCode),
		StatusCode:     wireResp.StatusCode,
		Message:        wireResp.Message,
		ProtocolNumber: wireResp.ProtocolNumber,
		ProtocolDate:   wireResp.ProtocolDate,
	}, nil
}

func (g *HTTPGateway) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %v", fiscal.ErrAuthorityRequestFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", fiscal.ErrAuthorityRequestFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return g.do(httpReq, out)
}

func (g *HTTPGateway) get(ctx context.Context, path string, tenantID uuid.UUID, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", fiscal.ErrAuthorityRequestFailed, err)
	}
	httpReq.Header.Set("X-Tenant-ID", tenantID.String())

	return g.do(httpReq, out)
}

func (g *HTTPGateway) do(httpReq *http.Request, out any) error {
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", fiscal.ErrAuthorityUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", fiscal.ErrAuthorityInvalidResponse, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		g.logger.Warn("authority webservice error",
			zap.String("path", httpReq.URL.Path),
			zap.Int("http_status", resp.StatusCode))
		return fmt.Errorf("%w: http %d", fiscal.ErrAuthorityUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: http %d: %s", fiscal.ErrAuthorityRequestFailed, resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %v", fiscal.ErrAuthorityInvalidResponse, err)
	}
	return nil
}
