package payment

import (
	"bytes"
	"context"
	"errors"

	"github.com/mosesmbadi/easymed-sub000/internal/domain/billing"
	"github.com/mosesmbadi/easymed-sub000/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ListReceipts lists receipts posted upstream
func (s *Service) ListReceipts(ctx context.Context, query billing.ReceiptQuery) ([]billing.Receipt, error) {
	receipts, err := s.receipts.ListReceipts(ctx, query)
	if err != nil {
		return nil, &billing.DataFetchError{Resource: "payment receipts", Err: err}
	}
	return receipts, nil
}

// ReceiptDocument returns the rendered receipt, from the receipt store when it
// holds one and from the HMIS otherwise. A document fetched upstream is stored for next time.
func (s *Service) ReceiptDocument(ctx context.Context, receiptID int64) (*billing.ReceiptDocument, error) {
	if s.receiptStore != nil {
		doc, err := s.receiptStore.Get(ctx, receiptID)
		switch {
		case err == nil:
			return doc, nil
		case !errors.Is(err, billing.ErrReceiptNotStored):
			logger.WithLogger(ctx, s.logger).Warn("receipt store read failed", zap.Int64("receipt_id", receiptID), zap.Error(err))
		}
	}

	pdf, err := s.receipts.ReceiptPDF(ctx, receiptID)
	if err != nil {
		return nil, &billing.DataFetchError{Resource: "payment receipt", Err: err}
	}
	doc := &billing.ReceiptDocument{ReceiptID: receiptID, ContentType: pdfContentType, Body: pdf}
	if s.receiptStore != nil && len(pdf) > 0 {
		url, err := s.receiptStore.Put(ctx, receiptID, pdfContentType, bytes.NewReader(pdf), int64(len(pdf)))
		if err != nil {
			logger.WithLogger(ctx, s.logger).Warn("failed to store receipt", zap.Int64("receipt_id", receiptID), zap.Error(err))
		}
		doc.URL = url
	}
	return doc, nil
}
