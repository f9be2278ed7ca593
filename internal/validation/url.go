package validation

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"unicode"
)

// DefaultMaxURLLength bounds user-entered endpoint URLs.
const DefaultMaxURLLength = 2048

var (
	ErrEmptyURL       = errors.New("URL cannot be empty")
	ErrMissingScheme  = errors.New("URL must have a scheme")
	ErrMissingAddress = errors.New("URL must have a host or an opaque part")
)

// EndpointURLValidator checks that an RPC endpoint is a well-formed absolute
// URL. It does not restrict the scheme; the RPC client rejects schemes it
// cannot dial.
type EndpointURLValidator struct {
	MaxLength int
}

func NewEndpointURLValidator() *EndpointURLValidator {
	return &EndpointURLValidator{MaxLength: DefaultMaxURLLength}
}

// Validate parses input without modifying it and returns the parsed URL.
func (v *EndpointURLValidator) Validate(input string) (*url.URL, error) {
	if input == "" {
		return nil, ErrEmptyURL
	}
	if v.MaxLength > 0 && len(input) > v.MaxLength {
		return nil, fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}
	if err := validateURLCharacters(input); err != nil {
		return nil, err
	}

	parsed, err := url.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("invalid URL format: %w", err)
	}
	if parsed.Scheme == "" {
		return nil, ErrMissingScheme
	}
	if parsed.Host == "" && parsed.Opaque == "" && parsed.Path == "" {
		return nil, ErrMissingAddress
	}
	if parsed.Host != "" {
		if err := validateHost(parsed.Host); err != nil {
			return nil, err
		}
	}

	return parsed, nil
}

// IsValid reports whether input passes Validate.
func (v *EndpointURLValidator) IsValid(input string) bool {
	_, err := v.Validate(input)
	return err == nil
}

func validateURLCharacters(input string) error {
	for _, r := range input {
		if unicode.IsSpace(r) {
			return fmt.Errorf("URL contains whitespace")
		}
		if unicode.IsControl(r) {
			return fmt.Errorf("URL contains control characters")
		}
	}
	if strings.ContainsAny(input, "<>\"`") {
		return fmt.Errorf("URL contains invalid characters")
	}
	return nil
}

func validateHost(host string) error {
	hostname := host
	if strings.Contains(host, ":") && !strings.HasSuffix(host, "]") {
		var err error
		hostname, _, err = net.SplitHostPort(host)
		if err != nil {
			return fmt.Errorf("invalid host format: %w", err)
		}
	}
	if strings.Trim(hostname, "[]") == "" {
		return ErrMissingAddress
	}
	return nil
}

// IsLocalEndpoint reports whether the URL points at this machine or a
// private network, which usually means a development node.
func IsLocalEndpoint(u *url.URL) bool {
	if u == nil {
		return false
	}
	hostname := u.Hostname()
	if isLocalhost(hostname) {
		return true
	}
	if ip := net.ParseIP(hostname); ip != nil {
		return isPrivateIP(ip)
	}
	return false
}

func isLocalhost(hostname string) bool {
	return hostname == "localhost" ||
		hostname == "127.0.0.1" ||
		hostname == "::1" ||
		strings.HasSuffix(hostname, ".localhost")
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}
