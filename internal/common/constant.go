package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound requests.
const AccessTokenHeaderName = "access_token"

// MaxExtensionDays is the hard cap on a single due date extension.
const MaxExtensionDays = 365

// DueSoonWindowDays is the look-ahead used by the due-soon listing.
const DueSoonWindowDays = 3
