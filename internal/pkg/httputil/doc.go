// Package httputil holds the JSON response and request helpers shared by
// the invite API handlers: success envelopes, the error envelope, file
// attachments, and validated body decoding.
package httputil
