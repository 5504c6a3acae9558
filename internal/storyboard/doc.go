// Package storyboard keeps an ordered list of scenes in step with the
// keyframes of an animation document.
//
// Every scene starts where its predecessor ends. Scene edits move, remove or
// add keyframes on the animated layers, and keyframe edits made on the
// timeline grow the storyboard so that no keyframe falls outside it. Each
// edit is returned as an undo.Command that has already been applied.
//
// Frames whose thumbnails went stale are reported to a ThumbnailScheduler.
// The Model itself is single threaded.
package storyboard
