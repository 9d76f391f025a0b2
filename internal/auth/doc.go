// Package auth guards the server surfaces with a shared API key.
//
// UnaryInterceptor protects gRPC calls by reading the key from incoming
// metadata; Middleware does the same for HTTP requests using a header. In both
// cases a mode other than "apikey" or an empty key disables the check.
package auth
