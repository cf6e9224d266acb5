// Package youtube lists the videos of a YouTube playlist through the YouTube
// Data API v3, resolving titles and durations for each entry.
package youtube
