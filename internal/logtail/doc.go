// Package logtail reads the tail of relaydash's own log file for the
// diagnostics view.
//
// Read scans a file once and keeps the last N lines in a ring. Follower
// remembers its byte offset between polls so a refresh only scans what was
// appended; when the file shrinks (rotation or truncation) it starts over.
// Partial trailing lines are not consumed until their newline is written.
//
// Filters understand both logrus formatters: text (level=warning) and JSON
// ("level":"warning"). Lines without a level, such as stack traces or
// continuation lines, always pass.
package logtail
