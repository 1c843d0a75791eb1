// Package watch turns new files in the inbox directory into import tasks.
//
// A filesystem watcher observes the configured inbox directory; when a file
// with a recognized video extension appears and stops changing for the
// settle window, an import task is enqueued for it along with the configured
// follow-up tasks. The settle delay exists because large video files are
// usually copied into the inbox over several seconds.
package watch
