// Package constants contains shared HTTP header names, content types and
// form field names used across the service.
package constants

// Header names commonly used across the application.
const (
	// HeaderAccept is the HTTP "Accept" header name.
	HeaderAccept = "Accept"

	// HeaderAuthorization is the HTTP "Authorization" header name.
	HeaderAuthorization = "Authorization"

	// HeaderContentType is the HTTP "Content-Type" header name.
	HeaderContentType = "Content-Type"

	// HeaderLocation is the HTTP "Location" header name.
	HeaderLocation = "Location"

	// HeaderReferer is the HTTP "Referer" header name.
	HeaderReferer = "Referer"

	// HeaderXRequestID is the custom request ID header name.
	HeaderXRequestID = "X-Request-ID"
)

// Common media / content types used in requests and responses.
const (
	// ContentTypeJSON represents "application/json".
	ContentTypeJSON = "application/json"

	// ContentTypeFormURLEncoded represents
	// "application/x-www-form-urlencoded".
	ContentTypeFormURLEncoded = "application/x-www-form-urlencoded"

	// ContentTypeHTML represents "text/html".
	ContentTypeHTML = "text/html"

	// ContentTypeHTMLUTF8 represents "text/html; charset=utf-8".
	ContentTypeHTMLUTF8 = "text/html; charset=utf-8"
)

// Input form field names.
const (
	FormFieldUsername     = "username"
	FormFieldTokenPresent = "token_present"
	FormFieldUserToken    = "user_token"
	FormFieldAction       = "action"

	// FormActionAnalyze is the action value sent by the Analyze button.
	FormActionAnalyze = "analyze"
	// FormActionUpdate is the action value sent when inputs change without pressing Analyze.
	FormActionUpdate = "update"
)
