// Command storyboard edits storyboard documents from the shell: scenes,
// keyframes and comments, plus thumbnail rendering and export.
package main
