package authority

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fiscalhub/backend/internal/domain/fiscal"
	"github.com/fiscalhub/backend/internal/infrastructure/config"
)

// rejection catalog the simulator draws from when a batch is denied
var simulatedRejections = []struct {
	code    string
	message string
}{
	{fiscal.AuthorityCodeDenied, "Uso Denegado: irregularidade fiscal do destinatario"},
	{"225", "Rejeicao: falha no schema XML do lote de documentos"},
	{"539", "Rejeicao: chave de acesso duplicada com divergencia no conteudo"},
}

type simulatedBatch struct {
	result     fiscal.AuthorizationResult
	readyAt    time.Time
	documentID uuid.UUID
}

// Simulator is an in-process stand-in for the government tax authority.
// Outcomes are drawn from a seeded PRNG so a fixed seed replays the same
// sequence of authorizations and rejections across runs, which keeps
// integration environments reproducible without a real webservice.
type Simulator struct {
	cfg    config.AuthorityConfig
	logger *zap.Logger

	mu       sync.Mutex
	rng      *rand.Rand
	seq      int64
	receipts map[string]*simulatedBatch
	registry map[string]*fiscal.StatusResult
}

// NewSimulator creates a simulator gateway. A zero seed falls back to the
// current time, giving non-reproducible but still well-formed behavior.
func NewSimulator(cfg config.AuthorityConfig, logger *zap.Logger) *Simulator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{
		cfg:      cfg,
		logger:   logger,
		rng:      rand.New(rand.NewSource(seed)),
		receipts: make(map[string]*simulatedBatch),
		registry: make(map[string]*fiscal.StatusResult),
	}
}

// Transmit accepts a document batch and returns a tracking receipt. The
// terminal outcome is decided immediately and held until the processing
// window elapses, mimicking the asynchronous batch protocol.
func (s *Simulator) Transmit(ctx context.Context, req *fiscal.TransmitRequest) (*fiscal.TransmitReceipt, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	receiptNumber := fmt.Sprintf("%s%013d", "35", s.seq)
	now := time.Now()

	result := fiscal.AuthorizationResult{AccessKey: req.AccessKey}
	if s.rng.Float64() < s.cfg.RejectionRate {
		rejection := simulatedRejections[s.rng.Intn(len(simulatedRejections))]
		result.Status = fiscal.AuthorityStatusRejected
		result.StatusCode = rejection.code
		result.Message = rejection.message
	} else {
		result.Status = fiscal.AuthorityStatusAuthorized
		result.StatusCode = fiscal.AuthorityCodeAuthorized
		result.Message = "Autorizado o uso do documento fiscal"
		result.ProtocolNumber = fmt.Sprintf("135%s%09d", now.Format("06"), s.seq)
		result.ProtocolDate = now
	}

	s.receipts[receiptNumber] = &simulatedBatch{
		result:     result,
		readyAt:    now,
		documentID: req.DocumentID,
	}

	s.logger.Debug("simulated batch received",
		zap.String("receipt_number", receiptNumber),
		zap.String("access_key", req.AccessKey.String()),
		zap.String("outcome", result.StatusCode))

	return &fiscal.TransmitReceipt{
		ReceiptNumber: receiptNumber,
		StatusCode:    fiscal.AuthorityCodeProcessing,
		Message:       "Lote recebido com sucesso",
		ReceivedAt:    now,
	}, nil
}

// QueryAuthorization returns the stored outcome for a receipt. An unknown
// receipt yields an UNKNOWN result rather than an error, matching the real
// webservice which answers every well-formed consultation.
func (s *Simulator) QueryAuthorization(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*fiscal.AuthorizationResult, error) {
	if tenantID == uuid.Nil {
		return nil, fiscal.ErrAuthorityInvalidTenantID
	}
	if receiptNumber == "" {
		return nil, fiscal.ErrAuthorityInvalidReceipt
	}
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch, ok := s.receipts[receiptNumber]
	if !ok {
		return &fiscal.AuthorizationResult{
			Status:  fiscal.AuthorityStatusUnknown,
			Message: "Recibo nao encontrado",
		}, nil
	}

	result := batch.result
	if result.Status == fiscal.AuthorityStatusAuthorized {
		s.registry[result.AccessKey.String()] = &fiscal.StatusResult{
			Status:         fiscal.AuthorityStatusAuthorized,
			StatusCode:     result.StatusCode,
			Message:        result.Message,
			ProtocolNumber: result.ProtocolNumber,
			ProtocolDate:   result.ProtocolDate,
		}
	}
	return &result, nil
}

// Cancel homologates a cancellation for a document the simulator authorized.
// Past the cancellation window the regulator answers 563 instead.
func (s *Simulator) Cancel(ctx context.Context, req *fiscal.CancelDocumentRequest) (*fiscal.CancellationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := req.AccessKey.String()
	entry, ok := s.registry[key]
	if !ok {
		return &fiscal.CancellationResult{
			Status:     fiscal.AuthorityStatusRejected,
			StatusCode: "217",
			Message:    "Documento fiscal nao consta na base de dados da autoridade",
		}, nil
	}
	if entry.Status == fiscal.AuthorityStatusCancelled {
		return &fiscal.CancellationResult{
			Status:     fiscal.AuthorityStatusRejected,
			StatusCode: "218",
			Message:    "Documento fiscal ja esta cancelado",
		}, nil
	}

	now := time.Now()
	if now.Sub(entry.ProtocolDate) > fiscal.CancellationWindow {
		return &fiscal.CancellationResult{
			Status:     fiscal.AuthorityStatusRejected,
			StatusCode: fiscal.AuthorityCodePastDeadline,
			Message:    "Rejeicao: prazo de cancelamento superior ao previsto na legislacao",
		}, nil
	}

	s.seq++
	protocol := fmt.Sprintf("135%s%09d", now.Format("06"), s.seq)
	entry.Status = fiscal.AuthorityStatusCancelled
	entry.StatusCode = fiscal.AuthorityCodeCancelHomologated
	entry.Message = "Cancelamento de documento fiscal homologado"
	entry.ProtocolNumber = protocol
	entry.ProtocolDate = now

	s.logger.Debug("simulated cancellation homologated",
		zap.String("access_key", key),
		zap.String("protocol_number", protocol))

	return &fiscal.CancellationResult{
		Status:         fiscal.AuthorityStatusCancelled,
		StatusCode:     fiscal.AuthorityCodeCancelHomologated,
		Message:        "Cancelamento de documento fiscal homologado",
		ProtocolNumber: protocol,
		ProtocolDate:   now,
	}, nil
}

// QueryStatus returns the registered situation of a document by access key
func (s *Simulator) QueryStatus(ctx context.Context, tenantID uuid.UUID, key fiscal.AccessKey) (*fiscal.StatusResult, error) {
	if tenantID == uuid.Nil {
		return nil, fiscal.ErrAuthorityInvalidTenantID
	}
	if key.IsZero() {
		return nil, fiscal.ErrAuthorityInvalidAccessKey
	}
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.registry[key.String()]
	if !ok {
		return &fiscal.StatusResult{
			Status:  fiscal.AuthorityStatusUnknown,
			Message: "Documento fiscal nao consta na base de dados da autoridade",
		}, nil
	}
	result := *entry
	return &result, nil
}

// simulateLatency sleeps for a bounded random interval, honoring the context
func (s *Simulator) simulateLatency(ctx context.Context) error {
	min, max := s.cfg.MinLatency, s.cfg.MaxLatency
	if min <= 0 && max <= 0 {
		return ctx.Err()
	}
	if max < min {
		max = min
	}

	s.mu.Lock()
	delay := min
	if span := max - min; span > 0 {
		delay += time.Duration(s.rng.Int63n(int64(span)))
	}
	s.mu.Unlock()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
