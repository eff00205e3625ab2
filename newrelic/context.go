package newrelic

import (
	"context"
	"net/http"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// ContextWithTxn will start a new transaction with the given name, using the provided
// *newrelic.Application value. If this value is nil, then an empty *newrelic.Transaction value
// will be created.
func ContextWithTxn(parent context.Context, name string, app *newrelic.Application) (context.Context, *newrelic.Transaction) {
	var txn *newrelic.Transaction
	if app == nil {
		txn = &newrelic.Transaction{}
	} else {
		txn = app.StartTransaction(name)
	}

	return newrelic.NewContext(parent, txn), txn
}

// WebTransaction starts a transaction for an inbound request and wraps the
// response writer so the status code is recorded.
func WebTransaction(w http.ResponseWriter, r *http.Request, name string, app *newrelic.Application) (http.ResponseWriter, *http.Request, *newrelic.Transaction) {
	ctx, txn := ContextWithTxn(r.Context(), name, app)
	if app != nil {
		txn.SetWebRequestHTTP(r)
		w = txn.SetWebResponse(w)
	}

	return w, r.WithContext(ctx), txn
}

// StartSegment times a unit of work on the transaction carried by ctx, if any.
func StartSegment(ctx context.Context, name string) *newrelic.Segment {
	return newrelic.FromContext(ctx).StartSegment(name)
}
