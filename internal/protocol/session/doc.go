// Package session runs one native API conversation over an encrypted stream.
//
// Ownership boundary:
//   - Conn: the stream, the noise transport and message framing
//   - Dispatcher: request ordering and the read-until-type loop that answers
//     ping, time and disconnect requests inline
//   - Discover: one complete discovery attempt from dial to close
//   - Retry: whole-attempt retries with backoff
//
// Everything here is single-flow: a Conn is used by one goroutine at a time
// and frames are handled strictly in arrival order.
package session
