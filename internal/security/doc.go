// Package security provides security validators for outbound HTTP traffic.
//
// # Overview
//
// The URL validator prevents Server-Side Request Forgery (SSRF, CWE-918)
// when the application fetches user-influenced URLs, such as web search
// requests issued on behalf of a conversation.
//
//	urlValidator := security.NewURL()
//	if err := urlValidator.Validate(rawURL); err != nil {
//	    return fmt.Errorf("SSRF attempt blocked: %w", err)
//	}
//	// Use SafeTransport for DNS-rebinding protection
//	client := &http.Client{Transport: urlValidator.SafeTransport()}
//
// Blocked targets include:
//   - Private IP ranges (127.0.0.1, 192.168.x.x, 10.x.x.x)
//   - localhost and local domain names
//   - Cloud metadata endpoints (169.254.169.254, metadata.google.internal)
//
// # Design Philosophy
//
//   - Fail-secure: When in doubt, deny access
//   - Clear error messages: Help developers understand why validation failed
//   - Zero configuration: Work securely out of the box
package security
