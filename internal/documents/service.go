package documents

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/agencyops/agencyops/internal/proposals"
)

// ProposalSource loads proposals with their line items.
type ProposalSource interface {
	Get(ctx context.Context, id int64) (*proposals.Proposal, error)
}

// PDFConverter turns a standalone HTML page into a PDF.
type PDFConverter interface {
	RenderHTML(ctx context.Context, html []byte) ([]byte, error)
}

type Service struct {
	proposals  ProposalSource
	renderer   *Renderer
	pdf        PDFConverter
	storageDir string
	logger     *slog.Logger
}

func NewService(source ProposalSource, renderer *Renderer, pdf PDFConverter, storageDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{proposals: source, renderer: renderer, pdf: pdf, storageDir: storageDir, logger: logger}
}

// ContractHTML renders the contract page of a proposal.
func (s *Service) ContractHTML(ctx context.Context, id int64) ([]byte, *proposals.Proposal, error) {
	p, err := s.proposals.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	html, err := s.renderer.RenderContract(p)
	if err != nil {
		return nil, nil, err
	}
	return html, p, nil
}

// ContractPDF renders the contract and converts it through the PDF service.
func (s *Service) ContractPDF(ctx context.Context, id int64) ([]byte, *proposals.Proposal, error) {
	html, p, err := s.ContractHTML(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := s.pdf.RenderHTML(ctx, html)
	if err != nil {
		return nil, nil, fmt.Errorf("convert contract %d: %w", id, err)
	}
	return pdf, p, nil
}

// StoreContractPDF writes the contract PDF into the storage directory and returns its path.
// Re-running replaces the previous file.
func (s *Service) StoreContractPDF(ctx context.Context, id int64) (string, error) {
	pdf, p, err := s.ContractPDF(ctx, id)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.storageDir, 0o755); err != nil {
		return "", fmt.Errorf("create document dir: %w", err)
	}

	path := filepath.Join(s.storageDir, FileName(p))
	tmp, err := os.CreateTemp(s.storageDir, ".contract-*")
	if err != nil {
		return "", fmt.Errorf("create temp document: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(pdf); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close document: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("publish document: %w", err)
	}

	s.logger.Info("contract document stored", slog.Int64("proposal_id", id), slog.String("path", path))
	return path, nil
}

// FileName is the stored PDF name of a proposal's contract.
func FileName(p *proposals.Proposal) string {
	if p.ContractNumber != nil && *p.ContractNumber != "" {
		return filepath.Base(*p.ContractNumber) + ".pdf"
	}
	return "proposal-" + strconv.FormatInt(p.ID, 10) + ".pdf"
}
