package productapi

import (
	"errors"
	"fmt"
	"regexp"
)

// Kind identifies a product API failure.
type Kind int

const (
	// KindUnknown is a remote code with no dedicated kind; the raw code is
	// passed through.
	KindUnknown Kind = iota
	KindInternalError
	KindInvalidClientTokenID
	KindMissingClientTokenID
	KindInvalidSignature
	KindInvalidAccount
	KindMissingParameters
	KindParameterOutOfRange
	KindInvalidSearchIndex
	KindInvalidResponseGroup
	KindInvalidParameterValue
	KindInvalidListType
	KindNoSimilarityForASIN
	KindNoExactMatchesFound
	KindTooManyRequests
	KindNotEnoughParameters
	KindInvalidParameterCombination
	KindDeprecatedOperation
	KindInvalidOperation
	KindInvalidCartItem
	KindItemAlreadyInCart
	KindCartInfoMismatch
	KindInvalidCartID
	KindAccountLimitExceeded
	KindUnknownLocale
)

func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "AWSError"
	case KindInternalError:
		return "InternalError"
	case KindInvalidClientTokenID:
		return "InvalidClientTokenId"
	case KindMissingClientTokenID:
		return "MissingClientTokenId"
	case KindInvalidSignature:
		return "InvalidSignature"
	case KindInvalidAccount:
		return "InvalidAccount"
	case KindMissingParameters:
		return "MissingParameters"
	case KindParameterOutOfRange:
		return "ParameterOutOfRange"
	case KindInvalidSearchIndex:
		return "InvalidSearchIndex"
	case KindInvalidResponseGroup:
		return "InvalidResponseGroup"
	case KindInvalidParameterValue:
		return "InvalidParameterValue"
	case KindInvalidListType:
		return "InvalidListType"
	case KindNoSimilarityForASIN:
		return "NoSimilarityForASIN"
	case KindNoExactMatchesFound:
		return "NoExactMatchesFound"
	case KindTooManyRequests:
		return "TooManyRequests"
	case KindNotEnoughParameters:
		return "NotEnoughParameters"
	case KindInvalidParameterCombination:
		return "InvalidParameterCombination"
	case KindDeprecatedOperation:
		return "DeprecatedOperation"
	case KindInvalidOperation:
		return "InvalidOperation"
	case KindInvalidCartItem:
		return "InvalidCartItem"
	case KindItemAlreadyInCart:
		return "ItemAlreadyInCart"
	case KindCartInfoMismatch:
		return "CartInfoMismatch"
	case KindInvalidCartID:
		return "InvalidCartId"
	case KindAccountLimitExceeded:
		return "AccountLimitExceeded"
	case KindUnknownLocale:
		return "UnknownLocale"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a failure reported by the product API.
type Error struct {
	Kind    Kind
	Code    string // remote error code, e.g. AWS.ECommerceService.NoExactMatches
	Message string // remote error message
	Raw     []byte // response document

	Param  string // offending parameter, when the message names one
	Value  string // offending value or identifier
	Item   string // cart item for ItemAlreadyInCart
	Detail string // restriction text for InvalidParameterCombination
}

func (e *Error) Error() string {
	code := e.Code
	if code == "" {
		code = e.Kind.String()
	}
	return code + ": " + e.Message
}

// RowCode is the error label written to a failed output row: the kind
// name, or the raw remote code when the kind is unknown.
func (e *Error) RowCode() string {
	if e.Kind == KindUnknown && e.Code != "" {
		return e.Code
	}
	return e.Kind.String()
}

// MessageFormatError reports a remote message that did not match the
// pattern its code promises. It unwraps to the underlying *Error so the
// failure is still recorded.
type MessageFormatError struct {
	Pattern string
	Err     *Error
}

func (e *MessageFormatError) Error() string {
	return fmt.Sprintf("unexpected message format for %s (pattern %s): %s", e.Err.Code, e.Pattern, e.Err.Message)
}

func (e *MessageFormatError) Unwrap() error {
	return e.Err
}

// HTTPError is a non-success status that carried no error document.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("product api: http status %d", e.StatusCode)
}

// KindOf returns the kind of the product API error in err's chain.
func KindOf(err error) (Kind, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return KindUnknown, false
}

var (
	reInvalidValue          = regexp.MustCompile(`The value you specified for (\w+) is invalid\.`)
	reInvalidParameterValue = regexp.MustCompile(`(.+?) is not a valid value for (\w+)\. Please change this value and retry your request\.`)
	reNoSimilarities        = regexp.MustCompile(`There are no similar items for this ASIN: (\w+)\.`)
	reNotEnoughParameters   = regexp.MustCompile(`Your request should have at ?least (\d+) of the following parameters: ([\w ,]+)\.`)
	reParameterCombination  = regexp.MustCompile(`Your request contained a restricted parameter combination\.\s*(\w.*)$`)
	reAlreadyInCart         = regexp.MustCompile(`The item you specified, (.*?), is already in your cart\.`)
	reMissingParameters     = regexp.MustCompile(`Your request is missing required parameters\. Required parameters include (\w+)\.`)
)

// MapError assigns the kind and structured fields of e from its code and
// message. The returned error is e itself, or a *MessageFormatError
// wrapping e when the message does not have the expected shape.
func MapError(e *Error) error {
	switch e.Code {
	case "InternalError":
		e.Kind = KindInternalError
	case "InvalidClientTokenId":
		e.Kind = KindInvalidClientTokenID
	case "MissingClientTokenId":
		e.Kind = KindMissingClientTokenID
	case "SignatureDoesNotMatch":
		e.Kind = KindInvalidSignature
	case "AWS.InvalidAccount":
		e.Kind = KindInvalidAccount
	case "RequestThrottled":
		e.Kind = KindTooManyRequests
	case "AccountLimitExceeded":
		e.Kind = KindAccountLimitExceeded
	case "Deprecated":
		e.Kind = KindDeprecatedOperation
	case "AWS.InvalidOperation":
		e.Kind = KindInvalidOperation
	case "AWS.ECommerceService.NoExactMatches":
		e.Kind = KindNoExactMatchesFound
	case "AWS.ECommerceService.ItemNotEligibleForCart":
		e.Kind = KindInvalidCartItem
	case "AWS.ECommerceService.CartInfoMismatch":
		e.Kind = KindCartInfoMismatch
	case "AWS.ECommerceService.InvalidCartId":
		e.Kind = KindInvalidCartID
	case "AWS.ParameterOutOfRange":
		e.Kind = KindParameterOutOfRange
		if m := reInvalidValue.FindStringSubmatch(e.Message); m != nil {
			e.Param = m[1]
		}
	case "AWS.MissingParameters":
		e.Kind = KindMissingParameters
		m := reMissingParameters.FindStringSubmatch(e.Message)
		if m == nil {
			return formatErr(e, reMissingParameters)
		}
		e.Param = m[1]
	case "AWS.InvalidEnumeratedParameter":
		m := reInvalidValue.FindStringSubmatch(e.Message)
		if m == nil {
			return formatErr(e, reInvalidValue)
		}
		e.Param = m[1]
		switch m[1] {
		case "ResponseGroup":
			e.Kind = KindInvalidResponseGroup
		case "SearchIndex":
			e.Kind = KindInvalidSearchIndex
		case "ListType":
			e.Kind = KindInvalidListType
		}
	case "AWS.InvalidParameterValue":
		e.Kind = KindInvalidParameterValue
		m := reInvalidParameterValue.FindStringSubmatch(e.Message)
		if m == nil {
			return formatErr(e, reInvalidParameterValue)
		}
		e.Value, e.Param = m[1], m[2]
	case "AWS.RestrictedParameterValueCombination":
		e.Kind = KindInvalidParameterCombination
		m := reParameterCombination.FindStringSubmatch(e.Message)
		if m == nil {
			return formatErr(e, reParameterCombination)
		}
		e.Detail = m[1]
	case "AWS.ECommerceService.ItemAlreadyInCart":
		e.Kind = KindItemAlreadyInCart
		m := reAlreadyInCart.FindStringSubmatch(e.Message)
		if m == nil {
			return formatErr(e, reAlreadyInCart)
		}
		e.Item = m[1]
	case "AWS.ECommerceService.NoSimilarities":
		e.Kind = KindNoSimilarityForASIN
		if m := reNoSimilarities.FindStringSubmatch(e.Message); m != nil {
			e.Value = m[1]
		}
	case "AWS.MinimumParameterRequirement":
		e.Kind = KindNotEnoughParameters
		m := reNotEnoughParameters.FindStringSubmatch(e.Message)
		if m == nil {
			return formatErr(e, reNotEnoughParameters)
		}
		e.Param = m[2]
	default:
		e.Kind = KindUnknown
	}
	return e
}

func formatErr(e *Error, re *regexp.Regexp) error {
	return &MessageFormatError{Pattern: re.String(), Err: e}
}
