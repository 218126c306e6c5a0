package acquire

import "net/url"

// SanitizeURI strips embedded credentials from a source descriptor so it
// can be shown to the user. Descriptors that do not parse as URLs are
// returned unchanged.
func SanitizeURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	u.User = nil
	return u.String()
}
