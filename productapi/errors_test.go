package productapi

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		message   string
		wantKind  Kind
		wantParam string
		wantValue string
	}{
		{name: "internal", code: "InternalError", wantKind: KindInternalError},
		{name: "bad token", code: "InvalidClientTokenId", wantKind: KindInvalidClientTokenID},
		{name: "missing token", code: "MissingClientTokenId", wantKind: KindMissingClientTokenID},
		{name: "signature", code: "SignatureDoesNotMatch", wantKind: KindInvalidSignature},
		{name: "throttled", code: "RequestThrottled", wantKind: KindTooManyRequests},
		{name: "deprecated", code: "Deprecated", wantKind: KindDeprecatedOperation},
		{name: "no matches", code: "AWS.ECommerceService.NoExactMatches", wantKind: KindNoExactMatchesFound},
		{
			name:      "response group",
			code:      "AWS.InvalidEnumeratedParameter",
			message:   "The value you specified for ResponseGroup is invalid.",
			wantKind:  KindInvalidResponseGroup,
			wantParam: "ResponseGroup",
		},
		{
			name:      "search index",
			code:      "AWS.InvalidEnumeratedParameter",
			message:   "The value you specified for SearchIndex is invalid.",
			wantKind:  KindInvalidSearchIndex,
			wantParam: "SearchIndex",
		},
		{
			name:      "parameter value",
			code:      "AWS.InvalidParameterValue",
			message:   "B00BAD is not a valid value for ItemId. Please change this value and retry your request.",
			wantKind:  KindInvalidParameterValue,
			wantParam: "ItemId",
			wantValue: "B00BAD",
		},
		{
			name:      "missing parameters",
			code:      "AWS.MissingParameters",
			message:   "Your request is missing required parameters. Required parameters include ItemId.",
			wantKind:  KindMissingParameters,
			wantParam: "ItemId",
		},
		{
			name:      "no similarities",
			code:      "AWS.ECommerceService.NoSimilarities",
			message:   "There are no similar items for this ASIN: B000123.",
			wantKind:  KindNoSimilarityForASIN,
			wantValue: "B000123",
		},
		{
			name:      "minimum parameters",
			code:      "AWS.MinimumParameterRequirement",
			message:   "Your request should have atleast 1 of the following parameters: Keywords, Title.",
			wantKind:  KindNotEnoughParameters,
			wantParam: "Keywords, Title",
		},
		{
			name:      "out of range without param",
			code:      "AWS.ParameterOutOfRange",
			message:   "Something else entirely.",
			wantKind:  KindParameterOutOfRange,
			wantParam: "",
		},
		{name: "unmapped", code: "AWS.SomethingNew", message: "new failure", wantKind: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapError(&Error{Code: tt.code, Message: tt.message})
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("MapError returned %T, want *Error", err)
			}
			var formatErr *MessageFormatError
			if errors.As(err, &formatErr) {
				t.Fatalf("unexpected format error: %v", err)
			}
			if apiErr.Kind != tt.wantKind {
				t.Fatalf("kind = %v, want %v", apiErr.Kind, tt.wantKind)
			}
			if apiErr.Param != tt.wantParam {
				t.Fatalf("param = %q, want %q", apiErr.Param, tt.wantParam)
			}
			if apiErr.Value != tt.wantValue {
				t.Fatalf("value = %q, want %q", apiErr.Value, tt.wantValue)
			}
		})
	}
}

func TestMapErrorMessageFormat(t *testing.T) {
	err := MapError(&Error{Code: "AWS.InvalidParameterValue", Message: "garbled"})

	var formatErr *MessageFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("error = %v, want *MessageFormatError", err)
	}
	kind, ok := KindOf(err)
	if !ok || kind != KindInvalidParameterValue {
		t.Fatalf("KindOf = %v/%v, want InvalidParameterValue", kind, ok)
	}
}

func TestRowCode(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{err: &Error{Kind: KindNoExactMatchesFound, Code: "AWS.ECommerceService.NoExactMatches"}, want: "NoExactMatchesFound"},
		{err: &Error{Kind: KindUnknown, Code: "AWS.SomethingNew"}, want: "AWS.SomethingNew"},
		{err: &Error{Kind: KindUnknown}, want: "AWSError"},
	}

	for _, tt := range tests {
		if got := tt.err.RowCode(); got != tt.want {
			t.Errorf("RowCode() = %q, want %q", got, tt.want)
		}
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("row 3: %w", &Error{Kind: KindTooManyRequests})
	if kind, ok := KindOf(err); !ok || kind != KindTooManyRequests {
		t.Fatalf("KindOf = %v/%v, want TooManyRequests", kind, ok)
	}
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Fatalf("plain error should not carry a kind")
	}
}
