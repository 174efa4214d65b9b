// Package model defines the core data types shared across the crawler:
// page and image records tracked by the frontier, run metadata, and the
// navigation hints extracted from rendered pages.
package model
