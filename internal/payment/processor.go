// Package payment implements the payment strategies and the processor that
// tracks receipts for in-flight and completed payment attempts. All
// strategies are local simulations; nothing here talks to a real gateway.
package payment

import (
	"fmt"
	"sort"
	"sync"

	"ecommerce-core/internal/domain"
	"go.uber.org/zap"
)

// Processor dispatches payments through a lookup table of strategies built at
// startup and stores every receipt keyed by its unique reference.
type Processor struct {
	mu         sync.Mutex
	strategies map[string]Strategy
	receipts   map[string]domain.PaymentReceipt
	logger     *zap.SugaredLogger
}

func NewProcessor(logger *zap.SugaredLogger, strategies ...Strategy) *Processor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	table := make(map[string]Strategy, len(strategies))
	for _, s := range strategies {
		table[s.Name()] = s
	}
	return &Processor{
		strategies: table,
		receipts:   make(map[string]domain.PaymentReceipt),
		logger:     logger,
	}
}

// Methods lists the registered method names, sorted.
func (p *Processor) Methods() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.strategies))
	for name := range p.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Pay invokes the named strategy against the order and stores the resulting
// receipt under its freshly generated reference.
func (p *Processor) Pay(method string, order domain.Order) (domain.PaymentReceipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	strategy, ok := p.strategies[method]
	if !ok {
		return domain.PaymentReceipt{}, fmt.Errorf("method %q is not available: %w", method, domain.ErrPayment)
	}
	receipt := strategy.Pay(order)
	p.receipts[receipt.Reference] = cloneReceipt(receipt)
	p.logger.Infow("payment initiated", "method", method, "reference", receipt.Reference, "status", receipt.Status)
	return receipt, nil
}

// Complete delegates a pending receipt to its strategy's confirmation step
// and overwrites the stored receipt with the updated status. It fails when
// the reference is unknown or the method has no confirmation step.
func (p *Processor) Complete(reference string, evidence map[string]string) (domain.PaymentReceipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	receipt, ok := p.receipts[reference]
	if !ok {
		return domain.PaymentReceipt{}, fmt.Errorf("reference %q: %w", reference, domain.ErrPayment)
	}
	strategy, ok := p.strategies[receipt.Method]
	if !ok || !strategy.RequiresConfirmation() {
		return domain.PaymentReceipt{}, fmt.Errorf("method %q cannot be confirmed manually: %w", receipt.Method, domain.ErrPayment)
	}
	confirmer, ok := strategy.(Confirmer)
	if !ok {
		return domain.PaymentReceipt{}, fmt.Errorf("method %q cannot be confirmed manually: %w", receipt.Method, domain.ErrPayment)
	}
	updated := confirmer.Complete(cloneReceipt(receipt), evidence)
	p.receipts[reference] = cloneReceipt(updated)
	p.logger.Infow("payment confirmation attempted", "reference", reference, "status", updated.Status)
	return updated, nil
}

// Receipt is a pure lookup by reference.
func (p *Processor) Receipt(reference string) (domain.PaymentReceipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	receipt, ok := p.receipts[reference]
	if !ok {
		return domain.PaymentReceipt{}, fmt.Errorf("reference %q: %w", reference, domain.ErrPayment)
	}
	return cloneReceipt(receipt), nil
}

func cloneReceipt(r domain.PaymentReceipt) domain.PaymentReceipt {
	if r.Metadata != nil {
		meta := make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			meta[k] = v
		}
		r.Metadata = meta
	}
	return r
}
