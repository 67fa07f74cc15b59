package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/mosesmbadi/easymed-sub000/internal/domain/billing"
)

// StubReceiptStore keeps receipts in memory. It cannot sign URLs, so URL
// returns "". Used when no bucket is configured and in tests.
type StubReceiptStore struct {
	mu   sync.RWMutex
	docs map[int64]billing.ReceiptDocument
}

// NewStubReceiptStore creates an empty store
func NewStubReceiptStore() *StubReceiptStore {
	return &StubReceiptStore{docs: make(map[int64]billing.ReceiptDocument)}
}

func (s *StubReceiptStore) Put(_ context.Context, receiptID int64, contentType string, body io.Reader, _ int64) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", fmt.Errorf("failed to read receipt %d: %w", receiptID, err)
	}
	s.mu.Lock()
	s.docs[receiptID] = billing.ReceiptDocument{
		ReceiptID:   receiptID,
		ContentType: contentType,
		Body:        buf.Bytes(),
	}
	s.mu.Unlock()
	return "", nil
}

func (s *StubReceiptStore) Get(_ context.Context, receiptID int64) (*billing.ReceiptDocument, error) {
	s.mu.RLock()
	doc, ok := s.docs[receiptID]
	s.mu.RUnlock()
	if !ok {
		return nil, billing.ErrReceiptNotStored
	}
	doc.Body = bytes.Clone(doc.Body)
	return &doc, nil
}

func (s *StubReceiptStore) URL(context.Context, int64) (string, error) {
	return "", nil
}

// Len returns how many receipts are stored
func (s *StubReceiptStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

var _ billing.ReceiptStore = (*StubReceiptStore)(nil)
