// Package images downloads the images referenced by scraped pages into
// the output tree.
//
// Downloads are recorded in the frontier, so an interrupted run resumes
// with only the images still missing. Filenames come from the image URL;
// name collisions between different URLs get a short hash suffix.
package images
