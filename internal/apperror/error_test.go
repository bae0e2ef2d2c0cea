package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_IsMatchesByCode(t *testing.T) {
	err := New(CodeQuoteUnavailable, WithContext("no price data for ETHBTC"))
	wrapped := fmt.Errorf("fetch: %w", err)

	if !errors.Is(wrapped, New(CodeQuoteUnavailable)) {
		t.Errorf("expected errors.Is to match on code")
	}
	if errors.Is(wrapped, New(CodeUpstreamError)) {
		t.Errorf("expected errors.Is not to match a different code")
	}
	if GetCode(wrapped) != CodeQuoteUnavailable {
		t.Errorf("expected code %s, got %s", CodeQuoteUnavailable, GetCode(wrapped))
	}
}

func TestHasCode_WalksCauses(t *testing.T) {
	inner := New(CodeBinanceRateLimited)
	outer := New(CodeUpstreamError, WithCause(inner))

	if !HasCode(outer, CodeBinanceRateLimited) {
		t.Errorf("expected HasCode to find the inner code")
	}
	if !HasCode(outer, CodeUpstreamError) {
		t.Errorf("expected HasCode to find the outer code")
	}
	if HasCode(outer, CodeInvalidQuote) {
		t.Errorf("expected HasCode to miss an absent code")
	}
	if GetCode(errors.New("plain")) != CodeUnknownError {
		t.Errorf("expected plain errors to map to unknown")
	}
}

func TestReason(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "message_and_context",
			err:  New(CodeQuoteUnavailable, WithContext("ETHBTC")),
			want: "No price data: ETHBTC",
		},
		{
			name: "message_and_cause",
			err:  New(CodeUpstreamError, WithCause(errors.New("connection reset"))),
			want: "Price source request failed: connection reset",
		},
		{
			name: "message_only",
			err:  New(CodeInvalidQuote),
			want: "Invalid quote data",
		},
		{
			name: "plain_error",
			err:  errors.New("boom"),
			want: "boom",
		},
		{
			name: "nil",
			err:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reason(tt.err); got != tt.want {
				t.Errorf("Reason() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, CodeInternalError, "x") != nil {
		t.Fatalf("expected nil for nil error")
	}

	plain := errors.New("disk full")
	w := Wrap(plain, CodeInternalError, "writing report")
	if w.Code != CodeInternalError || !errors.Is(w, plain) {
		t.Errorf("expected wrapped internal error preserving cause, got %v", w)
	}

	existing := New(CodeInvalidQuote)
	if got := Wrap(existing, CodeInternalError, "evaluating"); got != existing || got.Context != "evaluating" {
		t.Errorf("expected existing AppError to be returned with context, got %v", got)
	}
}

func TestDefaultStatusCodes(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeBinanceRateLimited, http.StatusTooManyRequests},
		{CodeUpstreamError, http.StatusBadGateway},
		{CodeInvalidQuote, http.StatusBadRequest},
		{CodeQuoteUnavailable, http.StatusServiceUnavailable},
		{CodeCircuitOpen, http.StatusServiceUnavailable},
		{CodeNotFound, http.StatusNotFound},
		{CodeNoSymbolsFound, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := New(tt.code).StatusCode; got != tt.want {
			t.Errorf("status for %s = %d, want %d", tt.code, got, tt.want)
		}
	}
}
