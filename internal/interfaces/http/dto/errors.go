package dto

import "net/http"

// API error codes. Every code has an HTTP status in the catalogue below.
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeValidation = "ERR_VALIDATION"

	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeForbidden          = "ERR_FORBIDDEN"
	ErrCodeTokenExpired       = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid       = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked       = "ERR_TOKEN_REVOKED"
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	ErrCodeAccountLocked      = "ERR_ACCOUNT_LOCKED"
	ErrCodeAccountInactive    = "ERR_ACCOUNT_INACTIVE"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeCampaignRequired    = "ERR_CAMPAIGN_REQUIRED"

	ErrCodeInvalidState      = "ERR_INVALID_STATE"
	ErrCodePhaseClosed       = "ERR_PHASE_CLOSED"
	ErrCodeTeamFull          = "ERR_TEAM_FULL"
	ErrCodeDayNotEditable    = "ERR_DAY_NOT_EDITABLE"
	ErrCodeInvalidCoupon     = "ERR_INVALID_COUPON"
	ErrCodeVouchersExhausted = "ERR_VOUCHERS_EXHAUSTED"
	ErrCodeSequenceExhausted = "ERR_SEQUENCE_EXHAUSTED"

	ErrCodeInvalidSignature   = "ERR_INVALID_SIGNATURE"
	ErrCodeGatewayRejected    = "ERR_GATEWAY_REJECTED"
	ErrCodeGatewayUnavailable = "ERR_GATEWAY_UNAVAILABLE"

	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeRateLimited  = "ERR_RATE_LIMITED"
)

type catalogueEntry struct {
	status int
	// domain lists the shared.DomainError codes reported under this code
	domain []string
}

// Business rules that fail on valid input answer 422.
var catalogue = map[string]catalogueEntry{
	ErrCodeInternal:   {http.StatusInternalServerError, []string{"INTERNAL_ERROR", "TOKEN_ERROR", "PASSWORD_HASH_ERROR"}},
	ErrCodeValidation: {http.StatusBadRequest, []string{"VALIDATION_ERROR"}},

	ErrCodeUnauthorized:       {http.StatusUnauthorized, []string{"UNAUTHORIZED"}},
	ErrCodeForbidden:          {http.StatusForbidden, []string{"FORBIDDEN"}},
	ErrCodeTokenExpired:       {http.StatusUnauthorized, []string{"TOKEN_EXPIRED"}},
	ErrCodeTokenInvalid:       {http.StatusUnauthorized, []string{"TOKEN_INVALID", "TOKEN_MAX_REFRESH"}},
	ErrCodeTokenRevoked:       {http.StatusUnauthorized, []string{"TOKEN_REVOKED"}},
	ErrCodeInvalidCredentials: {http.StatusUnauthorized, []string{"INVALID_CREDENTIALS"}},
	ErrCodeAccountLocked:      {http.StatusForbidden, []string{"ACCOUNT_LOCKED"}},
	ErrCodeAccountInactive:    {http.StatusForbidden, []string{"ACCOUNT_INACTIVE"}},

	ErrCodeNotFound:            {http.StatusNotFound, []string{"NOT_FOUND", "USER_NOT_FOUND"}},
	ErrCodeAlreadyExists:       {http.StatusConflict, []string{"ALREADY_EXISTS"}},
	ErrCodeConflict:            {http.StatusConflict, nil},
	ErrCodeConcurrencyConflict: {http.StatusConflict, []string{"CONCURRENCY_CONFLICT"}},
	ErrCodeCampaignRequired:    {http.StatusBadRequest, nil},

	ErrCodeInvalidState:      {http.StatusUnprocessableEntity, []string{"INVALID_STATE"}},
	ErrCodePhaseClosed:       {http.StatusUnprocessableEntity, []string{"PHASE_CLOSED"}},
	ErrCodeTeamFull:          {http.StatusUnprocessableEntity, []string{"TEAM_FULL"}},
	ErrCodeDayNotEditable:    {http.StatusUnprocessableEntity, []string{"DAY_NOT_EDITABLE"}},
	ErrCodeInvalidCoupon:     {http.StatusUnprocessableEntity, []string{"INVALID_COUPON"}},
	ErrCodeVouchersExhausted: {http.StatusUnprocessableEntity, []string{"VOUCHERS_EXHAUSTED"}},
	ErrCodeSequenceExhausted: {http.StatusUnprocessableEntity, []string{"SEQUENCE_EXHAUSTED"}},

	ErrCodeInvalidSignature:   {http.StatusBadRequest, []string{"INVALID_SIGNATURE"}},
	ErrCodeGatewayRejected:    {http.StatusBadGateway, []string{"GATEWAY_REJECTED"}},
	ErrCodeGatewayUnavailable: {http.StatusServiceUnavailable, []string{"GATEWAY_UNAVAILABLE"}},

	ErrCodeBadRequest:   {http.StatusBadRequest, []string{"BAD_REQUEST"}},
	ErrCodeInvalidInput: {http.StatusBadRequest, []string{"INVALID_INPUT", "INVALID_EMAIL", "INVALID_PASSWORD"}},
	ErrCodeRateLimited:  {http.StatusTooManyRequests, nil},
}

// domainCodes is the reverse of catalogue[...].domain
var domainCodes = func() map[string]string {
	m := make(map[string]string)
	for code, e := range catalogue {
		for _, d := range e.domain {
			m[d] = code
		}
	}
	return m
}()

// GetHTTPStatus returns the status of an API code, 500 for unknown codes
func GetHTTPStatus(code string) int {
	if e, ok := catalogue[code]; ok {
		return e.status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode turns a domain error code into its API code. API codes
// and unknown codes are returned unchanged.
func NormalizeErrorCode(code string) string {
	if api, ok := domainCodes[code]; ok {
		return api
	}
	return code
}
