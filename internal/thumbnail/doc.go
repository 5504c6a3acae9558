// Package thumbnail schedules the regeneration of storyboard thumbnails.
//
// The Scheduler keeps two queues of stale frames, directly edited ones first,
// and hands one frame at a time to an asynchronous Renderer working on a
// cloned snapshot of the document. IdleWatcher and Compressor keep rendering
// out of the way of interactive editing.
package thumbnail
