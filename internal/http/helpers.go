package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/period"

	"github.com/go-chi/chi/v5"
)

// HeaderOwner carries the owner id set by the authenticating proxy.
const HeaderOwner = "X-Owner-ID"

type contextKey string

const ownerKey contextKey = "owner"

var errBadRequest = errors.New("bad request")

func requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := core.Owner(strings.TrimSpace(r.Header.Get(HeaderOwner)))
		if err := owner.Validate(); err != nil {
			writeError(w, r, http.StatusUnauthorized, "missing "+HeaderOwner+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey, owner)))
	})
}

func ownerFrom(r *http.Request) core.Owner {
	owner, _ := r.Context().Value(ownerKey).(core.Owner)
	return owner
}

// clientKey identifies a client for rate limiting: the owner when present,
// the remote IP otherwise.
func clientKey(r *http.Request) string {
	if owner := strings.TrimSpace(r.Header.Get(HeaderOwner)); owner != "" {
		return "owner:" + owner
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// MonthParams is a validated (year, month) pair.
type MonthParams struct {
	Year  int
	Month int
}

func (p MonthParams) Start() time.Time {
	return period.MonthStart(p.Year, p.Month)
}

// resolveMonth fills absent values from now and rejects impossible periods.
func resolveMonth(year, month *int, now time.Time) (MonthParams, error) {
	y, m := period.Of(now)
	if year != nil {
		y = *year
	}
	if month != nil {
		m = *month
	}
	if !period.Valid(y, m) {
		return MonthParams{}, errors.Join(errBadRequest, errors.New("invalid year or month"))
	}
	return MonthParams{Year: y, Month: m}, nil
}

// parseMonthParams reads ?year=&month= with the current month as default.
func parseMonthParams(r *http.Request, now time.Time) (MonthParams, error) {
	year, err := queryInt(r, "year")
	if err != nil {
		return MonthParams{}, err
	}
	month, err := queryInt(r, "month")
	if err != nil {
		return MonthParams{}, err
	}
	return resolveMonth(year, month, now)
}

// queryInt returns nil when the parameter is absent.
func queryInt(r *http.Request, key string) (*int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, errors.Join(errBadRequest, errors.New("invalid "+key))
	}
	return &n, nil
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.Join(errBadRequest, errors.New("invalid id"))
	}
	return id, nil
}

func isCurrentMonth(p MonthParams, now time.Time) bool {
	y, m := period.Of(now)
	return p.Year == y && p.Month == m
}

// sanitizeInput drops control characters other than tab and newlines and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s))
}
