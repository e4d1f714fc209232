package handler // handler defines the HTTP handlers of the vault API

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// claimUint extracts a numeric identity claim stored in the Echo context by
// the JWT middleware.  JWT numbers decode as float64, but the helper accepts
// the integer forms too so handlers can be tested with plain values.  A
// missing or malformed claim yields zero, meaning "no identity in that
// pool".
func claimUint(c echo.Context, key string) uint64 {
	switch t := c.Get(key).(type) {
	case uint64:
		return t
	case int:
		return uint64(t)
	case int64:
		return uint64(t)
	case float64:
		return uint64(t)
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// getUserID returns the account-holder id of the caller, zero when the
// session has no account-holder identity.
func getUserID(c echo.Context) uint64 { return claimUint(c, "user_id") }

// getBeneficiaryID returns the beneficiary id of the caller, zero when the
// session has no beneficiary identity.
func getBeneficiaryID(c echo.Context) uint64 { return claimUint(c, "beneficiary_id") }

// getEmail returns the authenticated email, empty when absent.
func getEmail(c echo.Context) string {
	s, _ := c.Get("email").(string)
	return s
}
