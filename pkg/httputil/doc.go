// Package httputil provides the HTTP plumbing of the MICO API client.
//
// # Retry
//
// [Retry] re-runs a request on transient failures with exponential backoff.
// Only errors wrapped in [RetryableError] are retried; [CheckStatus] wraps
// network errors, 5xx and 429 responses that way:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    defer resp.Body.Close()
//	    return httputil.CheckStatus(resp)
//	})
//
// # Client
//
// [NewClient] returns an http.Client with a timeout whose transport reports
// every request to the observability HTTP hooks.
package httputil
