package handlers

import (
	"encoding/json"
	"errors"
	"strconv"

	gateway "github.com/orbio/invoice-gateway/internal/gateways"
	"github.com/orbio/invoice-gateway/internal/repository"
	"github.com/orbio/invoice-gateway/internal/services"
	xhttp "github.com/orbio/invoice-gateway/pkg/http"
)

const companyHeader = "X-Company-ID"

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	return json.Unmarshal(ctx.PostBody(), dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

// writeServiceError translates domain errors to HTTP statuses. Anything the
// taxonomy does not name is a 400; storage faults surface as 500.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	var gwErr *gateway.GatewayError
	switch {
	case errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrCategoryNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrCustomerNotFound),
		errors.Is(err, repository.ErrCompanyNotFound),
		errors.Is(err, repository.ErrGatewayNotConfigured),
		errors.Is(err, repository.ErrPivotNotFound),
		errors.Is(err, repository.ErrTransactionNotFound),
		errors.Is(err, gateway.ErrUnknownChannel):
		writeError(ctx, xhttp.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrReferenceOwned):
		writeError(ctx, xhttp.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrFrozenField):
		writeError(ctx, xhttp.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrPaymentFailed):
		writeError(ctx, xhttp.StatusPaymentRequired, err.Error())
	case errors.Is(err, repository.ErrDuplicateBarcode):
		writeError(ctx, xhttp.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrMaxRetriesExceeded),
		errors.Is(err, repository.ErrConcurrentUpdate):
		writeError(ctx, xhttp.StatusConflict, err.Error())
	case errors.As(err, &gwErr):
		writeError(ctx, xhttp.StatusBadGateway, err.Error())
	case errors.Is(err, services.ErrStockAdjustmentFailed):
		writeError(ctx, xhttp.StatusInternalServerError, err.Error())
	default:
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
	}
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func queryInt(ctx *xhttp.RequestCtx, key string, def int) int {
	if v := query(ctx, key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func paramInt64(ctx *xhttp.RequestCtx, name string) (int64, error) {
	v := ctx.QueryArgs().Peek(name)
	return strconv.ParseInt(string(v), 10, 64)
}

func pathInt64(ctx *xhttp.RequestCtx, name string) (int64, error) {
	v, _ := ctx.UserValue(name).(string)
	return strconv.ParseInt(v, 10, 64)
}

// companyID reads the tenant from the X-Company-ID header.
func companyID(ctx *xhttp.RequestCtx) (int64, bool) {
	v := string(ctx.Request.Header.Peek(companyHeader))
	if v == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// requireCompany is the guard every tenant-scoped route starts with.
func requireCompany(ctx *xhttp.RequestCtx) (int64, bool) {
	id, ok := companyID(ctx)
	if !ok {
		writeError(ctx, xhttp.StatusBadRequest, "missing or invalid "+companyHeader+" header")
	}
	return id, ok
}
