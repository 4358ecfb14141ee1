// Package artifacts manages ephemeral, session-scoped media files.
//
// Generated video bytes are never stored in history; they live as files in
// a uuid-named staging directory that is removed when the session closes.
// Export copies an artifact into the library directory under its stable
// download name for anything the user wants to keep.
package artifacts
