// Package mcpadapter exposes invoice extraction and the correction memory as
// MCP tools.
package mcpadapter

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/ports"
)

const (
	ToolExtractInvoice   = "extract_invoice"
	ToolRecordCorrection = "record_correction"
	ToolCorrectionStats  = "correction_stats"
)

type Server struct {
	analyzer    ports.InvoiceAnalyzer
	corrections ports.CorrectionService
	logger      *slog.Logger
	mcp         *server.MCPServer
}

func NewServer(analyzer ports.InvoiceAnalyzer, corrections ports.CorrectionService, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		analyzer:    analyzer,
		corrections: corrections,
		logger:      logger,
		mcp: server.NewMCPServer(
			"invoice-assistant",
			version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}
	s.registerTools()
	return s
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	fieldNames := make([]string, 0, len(domain.FieldTypes()))
	for _, f := range domain.FieldTypes() {
		fieldNames = append(fieldNames, f.String())
	}

	s.mcp.AddTool(mcp.NewTool(ToolExtractInvoice,
		mcp.WithDescription("Extract invoice fields from plain invoice text and apply learned corrections. Nothing is stored."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Full text of the invoice")),
	), s.handleExtract)

	s.mcp.AddTool(mcp.NewTool(ToolRecordCorrection,
		mcp.WithDescription("Teach the correction memory that an extracted value should have been another value."),
		mcp.WithString("field_type", mcp.Required(), mcp.Enum(fieldNames...), mcp.Description("Invoice field that was corrected")),
		mcp.WithString("original_text", mcp.Required(), mcp.Description("Value as extracted")),
		mcp.WithString("corrected_text", mcp.Required(), mcp.Description("Value after human review")),
		mcp.WithString("company_context", mcp.Description("Vendor the correction applies to; empty applies everywhere")),
	), s.handleRecordCorrection)

	s.mcp.AddTool(mcp.NewTool(ToolCorrectionStats,
		mcp.WithDescription("Summarize what the correction memory has learned."),
	), s.handleStats)
}

func (s *Server) handleExtract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	analysis, err := s.analyzer.Analyze(ctx, text)
	if err != nil {
		return s.toolError(ToolExtractInvoice, err), nil
	}
	return jsonResult(analysis)
}

func (s *Server) handleRecordCorrection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawField, err := req.RequireString("field_type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	field, err := domain.ParseFieldType(rawField)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	original, err := req.RequireString("original_text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	corrected, err := req.RequireString("corrected_text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	company := req.GetString("company_context", "")

	rec, recorded, err := s.corrections.RecordCorrection(ctx, original, corrected, field, company)
	if err != nil {
		return s.toolError(ToolRecordCorrection, err), nil
	}
	if !recorded {
		return jsonResult(map[string]any{"recorded": false})
	}
	return jsonResult(map[string]any{"recorded": true, "record": rec})
}

func (s *Server) handleStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.corrections.Stats(ctx)
	if err != nil {
		return s.toolError(ToolCorrectionStats, err), nil
	}
	return jsonResult(stats)
}

func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		s.logger.Error("mcp_tool_failed", "tool", tool, "kind", domain.KindName(err), "error", err)
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(raw)), nil
}
