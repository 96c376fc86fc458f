// Package transport performs every HTTP exchange with the Hypertrack backend.
//
// A [Client] resolves request paths against the configured base URL (always under "/api"),
// attaches the JSON content headers, the service key and the bearer token as requested,
// applies the auth or resource deadline, paces outbound requests and decodes JSON bodies.
//
// Failures are classified into:
//   - [ErrTimeout] : the deadline expired before a response arrived
//   - [*UnreachableError] : the backend could not be reached at all
//   - [*EndpointMissingError] : an auth endpoint answered 404, usually a misconfigured deployment
//   - [*RejectedError] : any other non-2xx status, carrying the server's detail message
//
// [Describe] converts any of these into the message shown to the user.
package transport
