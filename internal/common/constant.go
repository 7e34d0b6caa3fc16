package common

// AccessTokenKey is the session metadata key under which the backend access
// token is stored locally.
const AccessTokenKey = "access_token"
