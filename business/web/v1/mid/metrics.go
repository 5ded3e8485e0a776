package mid

import (
	"context"
	"net/http"
	"time"

	"github.com/ardanlabs/ledger/business/sys/metrics"
	"github.com/ardanlabs/ledger/foundation/web"
)

// Metrics updates program counters.
func Metrics(m *metrics.Metrics) web.Middleware {

	// This is the actual middleware function to be executed.
	mw := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Call the next handler.
			err := handler(ctx, w, r)

			// The request values hold the status code written by the
			// errors middleware further down the chain.
			if v, verr := web.GetValues(ctx); verr == nil {
				if v.StatusCode >= http.StatusInternalServerError {
					m.AddError()
				}
				m.ObserveRequest(r.Method, v.Route, v.StatusCode, time.Since(v.Now))
			}

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return mw
}
