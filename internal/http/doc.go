// Package http exposes the room booking services as a JSON API.
//
// Every endpoint except GET /healthz requires a token issued by the identity
// provider, sent as "Authorization: Bearer <token>" or in the "token" cookie.
//
//   - GET /me: the caller's user record, created on first sight.
//   - PUT /me/username: body {"username"}. 409 when another user holds the name.
//   - GET /rooms, POST /rooms: list rooms or create one. Body {"name"}.
//   - GET /rooms/{name}: the room with its non-empty days and their bookings.
//   - DELETE /rooms/{name}: owner only; refused while any booking remains.
//   - GET /bookings?date=&room=: the caller's bookings, optionally narrowed.
//   - POST /bookings: body {"room","date","start","end","event_name"}.
//   - PUT /bookings: body {"original":{"room","date","start","end"},"replacement":{...}}.
//   - DELETE /bookings?room=&date=&start=&end=: responds {"removed":bool}.
//   - GET /bookings/lookup?room=&date=&start=&end=: a single booking.
//
// Dates use YYYY-MM-DD and times HH:MM. Errors carry a Japanese message, a
// stable error_code, per-field details for validation failures, and the
// blocking booking for slot conflicts.
package http
